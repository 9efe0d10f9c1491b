package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/PodStudio/internal/models"
)

const episodeColumns = `id, project_id, name, transcript, source, created_at, updated_at`

func scanEpisode(s rowScanner) (*models.Episode, error) {
	var e models.Episode
	if err := s.Scan(&e.ID, &e.ProjectID, &e.Name, &e.Transcript, &e.Source, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// PostgresEpisodeRepository implements episode storage against a PostgreSQL database.
// Every write that changes the number of episodes also adjusts the parent
// project's episode_count inside the same transaction.
type PostgresEpisodeRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresEpisodeRepository creates a new PostgresEpisodeRepository using the provided *sql.DB.
func NewPostgresEpisodeRepository(db *sql.DB) *PostgresEpisodeRepository {
	return &PostgresEpisodeRepository{DB: db}
}

// CreateEpisode inserts e and increments its project's episode count.
// Returns ErrNotFound if the project disappeared in the meantime.
func (r *PostgresEpisodeRepository) CreateEpisode(ctx context.Context, e *models.Episode) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO episodes (id, project_id, name, transcript, source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, e.ID, e.ProjectID, e.Name, e.Transcript, e.Source).Scan(&e.CreatedAt, &e.UpdatedAt)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}

	if err := adjustEpisodeCount(ctx, tx, e.ProjectID, +1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetEpisodeWithOwner loads the episode with id together with the user id
// owning its project. Returns ErrNotFound when the episode does not exist.
func (r *PostgresEpisodeRepository) GetEpisodeWithOwner(ctx context.Context, id string) (*models.Episode, string, error) {
	var (
		e       models.Episode
		ownerID string
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT e.id, e.project_id, e.name, e.transcript, e.source, e.created_at, e.updated_at, p.user_id
		  FROM episodes e
		  JOIN projects p ON p.id = e.project_id
		 WHERE e.id = $1
	`, id).Scan(&e.ID, &e.ProjectID, &e.Name, &e.Transcript, &e.Source, &e.CreatedAt, &e.UpdatedAt, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("GetEpisodeWithOwner: %w", err)
	}
	return &e, ownerID, nil
}

// UpdateEpisode applies the non-nil fields of upd to the episode with id
// and returns the stored result.
func (r *PostgresEpisodeRepository) UpdateEpisode(ctx context.Context, id string, upd models.EpisodeUpdate) (*models.Episode, error) {
	e, err := scanEpisode(r.DB.QueryRowContext(ctx, `
		UPDATE episodes
		   SET name = COALESCE($2, name),
		       transcript = COALESCE($3, transcript),
		       updated_at = now()
		 WHERE id = $1
		RETURNING `+episodeColumns,
		id, nullString(upd.Name), nullString(upd.Transcript),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateEpisode: %w", err)
	}
	return e, nil
}

// DeleteEpisode removes the episode with id and decrements its project's
// episode count. Returns ErrNotFound when the episode does not exist.
func (r *PostgresEpisodeRepository) DeleteEpisode(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var projectID string
	err = tx.QueryRowContext(ctx, `DELETE FROM episodes WHERE id = $1 RETURNING project_id`, id).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete episode: %w", err)
	}

	if err := adjustEpisodeCount(ctx, tx, projectID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// adjustEpisodeCount changes episode_count by delta in place, never as a
// read-then-write from Go.
func adjustEpisodeCount(ctx context.Context, tx *sql.Tx, projectID string, delta int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE projects SET episode_count = episode_count + $2, updated_at = now() WHERE id = $1
	`, projectID, delta)
	if err != nil {
		return fmt.Errorf("adjust episode count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust episode count: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
