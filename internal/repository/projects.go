package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/PodStudio/internal/models"
)

const projectColumns = `id, user_id, name, episode_count, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(s rowScanner) (*models.Project, error) {
	var p models.Project
	if err := s.Scan(&p.ID, &p.UserID, &p.Name, &p.EpisodeCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// PostgresProjectRepository implements project storage against a PostgreSQL database.
type PostgresProjectRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresProjectRepository creates a new PostgresProjectRepository using the provided *sql.DB.
func NewPostgresProjectRepository(db *sql.DB) *PostgresProjectRepository {
	return &PostgresProjectRepository{DB: db}
}

// ListProjects fetches all projects owned by ownerID, newest first.
//
//	ctx:     context for cancellation and deadlines
//	ownerID: identifier of the owning user
func (r *PostgresProjectRepository) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListProjects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListProjects: %w", err)
	}
	return projects, nil
}

// GetProject retrieves the project with id if it is owned by ownerID.
// A project owned by someone else is reported exactly like a missing one: ErrNotFound.
func (r *PostgresProjectRepository) GetProject(ctx context.Context, ownerID, id string) (*models.Project, error) {
	p, err := scanProject(r.DB.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE id = $1 AND user_id = $2
	`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetProject: %w", err)
	}
	return p, nil
}

// ProjectNameExists reports whether ownerID already has a project called name.
func (r *PostgresProjectRepository) ProjectNameExists(ctx context.Context, ownerID, name string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM projects WHERE user_id = $1 AND name = $2)`,
		ownerID, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ProjectNameExists: %w", err)
	}
	return exists, nil
}

// CreateProject inserts p with a zero episode count and fills in the
// server-assigned timestamps. A (user_id, name) collision yields ErrDuplicate.
func (r *PostgresProjectRepository) CreateProject(ctx context.Context, p *models.Project) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO projects (id, user_id, name) VALUES ($1, $2, $3)
		RETURNING episode_count, created_at, updated_at
	`, p.ID, p.UserID, p.Name).Scan(&p.EpisodeCount, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("CreateProject: %w", err)
	}
	return nil
}

// DeleteProject removes every episode of the project and then the project
// itself within a single transaction. Returns ErrNotFound when ownerID does
// not own a project with id.
func (r *PostgresProjectRepository) DeleteProject(ctx context.Context, ownerID, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM episodes
		 WHERE project_id IN (SELECT id FROM projects WHERE id = $1 AND user_id = $2)
	`, id, ownerID); err != nil {
		return fmt.Errorf("delete episodes: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListEpisodes fetches every episode of projectID, newest first.
// Ownership must be checked by the caller.
func (r *PostgresProjectRepository) ListEpisodes(ctx context.Context, projectID string) ([]models.Episode, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+episodeColumns+` FROM episodes WHERE project_id = $1 ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("ListEpisodes: %w", err)
	}
	defer rows.Close()

	episodes := make([]models.Episode, 0)
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		episodes = append(episodes, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListEpisodes: %w", err)
	}
	return episodes, nil
}
