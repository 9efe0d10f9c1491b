package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/atinyakov/PodStudio/internal/models"
	"github.com/atinyakov/PodStudio/internal/repository"
)

// ProjectRepository defines the persistence operations needed by the ProjectService.
// Every lookup takes the owner id; a project owned by someone else is reported
// as repository.ErrNotFound.
type ProjectRepository interface {
	// ListProjects returns the owner's projects, newest first.
	ListProjects(ctx context.Context, ownerID string) ([]models.Project, error)
	GetProject(ctx context.Context, ownerID, id string) (*models.Project, error)
	ProjectNameExists(ctx context.Context, ownerID, name string) (bool, error)
	CreateProject(ctx context.Context, p *models.Project) error
	// DeleteProject removes the project and its episodes atomically.
	DeleteProject(ctx context.Context, ownerID, id string) error
	// ListEpisodes returns the project's episodes, newest first.
	ListEpisodes(ctx context.Context, projectID string) ([]models.Episode, error)
}

// ProjectEpisodes is a project together with its episodes.
type ProjectEpisodes struct {
	Project  models.Project
	Episodes []models.Episode
}

// ProjectService implements project management scoped to the owning user.
type ProjectService struct {
	repo  ProjectRepository
	newID func() string
}

// NewProjectService constructs a ProjectService with the provided ProjectRepository.
func NewProjectService(repo ProjectRepository) *ProjectService {
	return &ProjectService{repo: repo, newID: uuid.NewString}
}

// List returns every project owned by ownerID.
func (s *ProjectService) List(ctx context.Context, ownerID string) ([]models.Project, error) {
	projects, err := s.repo.ListProjects(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Get returns the project if ownerID owns it.
func (s *ProjectService) Get(ctx context.Context, ownerID, id string) (*models.Project, error) {
	p, err := s.repo.GetProject(ctx, ownerID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// Create adds a project named name for ownerID. The name is trimmed first.
func (s *ProjectService) Create(ctx context.Context, ownerID, name string) (*models.Project, error) {
	name = strings.TrimSpace(name)

	var v validator
	if name == "" {
		v.check(false, "name", "Project name is required")
	} else {
		v.check(utf8.RuneCountInString(name) <= models.MaxProjectNameLen, "name", "Project name cannot exceed 100 characters")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ProjectNameExists(ctx, ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("check project name: %w", err)
	}
	if exists {
		return nil, ErrProjectExists
	}

	p := &models.Project{ID: s.newID(), UserID: ownerID, Name: name}
	switch err := s.repo.CreateProject(ctx, p); {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrProjectExists
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// Delete removes the project and all of its episodes.
func (s *ProjectService) Delete(ctx context.Context, ownerID, id string) error {
	err := s.repo.DeleteProject(ctx, ownerID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProjectNotFound
	}
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// Episodes returns the project and its episodes if ownerID owns it.
func (s *ProjectService) Episodes(ctx context.Context, ownerID, id string) (*ProjectEpisodes, error) {
	p, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	episodes, err := s.repo.ListEpisodes(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	return &ProjectEpisodes{Project: *p, Episodes: episodes}, nil
}
