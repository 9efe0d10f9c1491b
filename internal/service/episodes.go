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

// EpisodeRepository defines the persistence operations needed by the EpisodeService.
type EpisodeRepository interface {
	// CreateEpisode stores the episode and increments its project's count.
	CreateEpisode(ctx context.Context, e *models.Episode) error
	// GetEpisodeWithOwner returns the episode and the id of the user owning its project.
	GetEpisodeWithOwner(ctx context.Context, id string) (*models.Episode, string, error)
	UpdateEpisode(ctx context.Context, id string, upd models.EpisodeUpdate) (*models.Episode, error)
	// DeleteEpisode removes the episode and decrements its project's count.
	DeleteEpisode(ctx context.Context, id string) error
}

// ProjectLookup resolves a project under its owner.
type ProjectLookup interface {
	GetProject(ctx context.Context, ownerID, id string) (*models.Project, error)
}

// NewEpisode is the payload for creating an episode.
type NewEpisode struct {
	Name       string
	Transcript string
	ProjectID  string
	// Source defaults to models.SourceUpload when empty.
	Source models.Source
}

// EpisodeService implements episode management with per-episode ownership checks.
type EpisodeService struct {
	projects ProjectLookup
	episodes EpisodeRepository
	newID    func() string
}

// NewEpisodeService constructs an EpisodeService.
func NewEpisodeService(projects ProjectLookup, episodes EpisodeRepository) *EpisodeService {
	return &EpisodeService{projects: projects, episodes: episodes, newID: uuid.NewString}
}

// Access is the outcome of resolving an episode for a user.
type Access int

const (
	// Granted means the episode exists and the user owns its project.
	Granted Access = iota
	// Missing means no episode has that id.
	Missing
	// Denied means the episode exists but belongs to another user.
	Denied
)

// Resolution pairs an Access with the episode it was computed for.
// Episode is nil unless Access is Granted.
type Resolution struct {
	Access  Access
	Episode *models.Episode
}

// Resolve loads the episode and checks it against ownerID.
func (s *EpisodeService) Resolve(ctx context.Context, ownerID, id string) (Resolution, error) {
	e, owner, err := s.episodes.GetEpisodeWithOwner(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return Resolution{Access: Missing}, nil
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("get episode: %w", err)
	}
	if owner != ownerID {
		return Resolution{Access: Denied}, nil
	}
	return Resolution{Access: Granted, Episode: e}, nil
}

func (s *EpisodeService) granted(ctx context.Context, ownerID, id string) (*models.Episode, error) {
	res, err := s.Resolve(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	switch res.Access {
	case Missing:
		return nil, ErrEpisodeNotFound
	case Denied:
		return nil, ErrEpisodeForbidden
	}
	return res.Episode, nil
}

// Create adds an episode to a project owned by ownerID.
func (s *EpisodeService) Create(ctx context.Context, ownerID string, in NewEpisode) (*models.Episode, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	if in.Source == "" {
		in.Source = models.SourceUpload
	}

	var v validator
	checkEpisodeName(&v, in.Name, "Episode name is required")
	v.check(in.ProjectID != "", "projectId", "Project ID is required")
	v.check(in.Source.Valid(), "source", "Source must be one of upload, youtube, rss")
	if err := v.err(); err != nil {
		return nil, err
	}

	_, err := s.projects.GetProject(ctx, ownerID, in.ProjectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	e := &models.Episode{
		ID:         s.newID(),
		Name:       in.Name,
		Transcript: in.Transcript,
		ProjectID:  in.ProjectID,
		Source:     in.Source,
	}
	err = s.episodes.CreateEpisode(ctx, e)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("create episode: %w", err)
	}
	return e, nil
}

// Get returns the episode if ownerID owns its project.
func (s *EpisodeService) Get(ctx context.Context, ownerID, id string) (*models.Episode, error) {
	return s.granted(ctx, ownerID, id)
}

// Update changes the provided fields. A provided transcript must not be
// empty, although creation allows an empty one. An update without fields
// returns the episode unchanged.
func (s *EpisodeService) Update(ctx context.Context, ownerID, id string, upd models.EpisodeUpdate) (*models.Episode, error) {
	var v validator
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		upd.Name = &name
		checkEpisodeName(&v, name, "Episode name cannot be empty")
	}
	if upd.Transcript != nil {
		v.check(*upd.Transcript != "", "transcript", "Transcript cannot be empty")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	e, err := s.granted(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if upd.Empty() {
		return e, nil
	}

	updated, err := s.episodes.UpdateEpisode(ctx, id, upd)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEpisodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update episode: %w", err)
	}
	return updated, nil
}

// Delete removes the episode if ownerID owns its project.
func (s *EpisodeService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.granted(ctx, ownerID, id); err != nil {
		return err
	}
	err := s.episodes.DeleteEpisode(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEpisodeNotFound
	}
	if err != nil {
		return fmt.Errorf("delete episode: %w", err)
	}
	return nil
}

func checkEpisodeName(v *validator, name, emptyMsg string) {
	if name == "" {
		v.check(false, "name", emptyMsg)
		return
	}
	v.check(utf8.RuneCountInString(name) <= models.MaxEpisodeNameLen, "name", "Episode name cannot exceed 200 characters")
}
