package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/PodStudio/internal/middleware"
	"github.com/atinyakov/PodStudio/internal/models"
	"github.com/atinyakov/PodStudio/internal/service"
)

// EpisodeService defines the episode operations used by EpisodeHandler.
type EpisodeService interface {
	Create(ctx context.Context, ownerID string, in service.NewEpisode) (*models.Episode, error)
	Get(ctx context.Context, ownerID, id string) (*models.Episode, error)
	Update(ctx context.Context, ownerID, id string, upd models.EpisodeUpdate) (*models.Episode, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// EpisodeHandler serves the /episodes endpoints.
type EpisodeHandler struct {
	EpisodeService EpisodeService
	Logger         *zap.Logger
}

// CreateEpisodeRequest represents the JSON payload for creating an episode.
type CreateEpisodeRequest struct {
	Name       string        `json:"name"`
	Transcript string        `json:"transcript"`
	ProjectID  string        `json:"projectId"`
	Source     models.Source `json:"source"`
}

// UpdateEpisodeRequest carries the optional fields of an update.
// Absent and null fields are left unchanged.
type UpdateEpisodeRequest struct {
	Name       *string `json:"name"`
	Transcript *string `json:"transcript"`
}

// Create handles POST /episodes.
func (h *EpisodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEpisodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	episode, err := h.EpisodeService.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), service.NewEpisode{
		Name:       req.Name,
		Transcript: req.Transcript,
		ProjectID:  req.ProjectID,
		Source:     req.Source,
	})
	if err != nil {
		writeServiceError(w, r, h.Logger, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, payload{
		"message": "Episode created successfully",
		"episode": episode,
	})
}

// Get handles GET /episodes/{id}.
func (h *EpisodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	episode, err := h.EpisodeService.Get(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err, "access")
		return
	}
	writeJSON(w, http.StatusOK, payload{"episode": episode})
}

// Update handles PUT /episodes/{id}.
func (h *EpisodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateEpisodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	episode, err := h.EpisodeService.Update(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"),
		models.EpisodeUpdate{Name: req.Name, Transcript: req.Transcript})
	if err != nil {
		writeServiceError(w, r, h.Logger, err, "update")
		return
	}
	writeJSON(w, http.StatusOK, payload{
		"message": "Episode updated successfully",
		"episode": episode,
	})
}

// Delete handles DELETE /episodes/{id}.
func (h *EpisodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.EpisodeService.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.Logger, err, "delete")
		return
	}
	writeMessage(w, http.StatusOK, "Episode deleted successfully")
}
