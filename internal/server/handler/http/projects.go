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

// ProjectService defines the project operations used by ProjectHandler.
type ProjectService interface {
	List(ctx context.Context, ownerID string) ([]models.Project, error)
	Get(ctx context.Context, ownerID, id string) (*models.Project, error)
	Create(ctx context.Context, ownerID, name string) (*models.Project, error)
	Delete(ctx context.Context, ownerID, id string) error
	Episodes(ctx context.Context, ownerID, id string) (*service.ProjectEpisodes, error)
}

// ProjectHandler serves the /projects endpoints for the authenticated user.
type ProjectHandler struct {
	ProjectService ProjectService
	Logger         *zap.Logger
}

// CreateProjectRequest represents the JSON payload for creating a project.
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// List handles GET /projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.ProjectService.List(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.Logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, payload{"count": len(projects), "projects": projects})
}

// Create handles POST /projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	project, err := h.ProjectService.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.Name)
	if err != nil {
		writeServiceError(w, r, h.Logger, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, payload{
		"message": "Project created successfully",
		"project": project,
	})
}

// Get handles GET /projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.ProjectService.Get(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, payload{"project": project})
}

// Delete handles DELETE /projects/{id}; the project's episodes go with it.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ProjectService.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.Logger, err, "")
		return
	}
	writeMessage(w, http.StatusOK, "Project deleted successfully")
}

// Episodes handles GET /projects/{id}/episodes.
func (h *ProjectHandler) Episodes(w http.ResponseWriter, r *http.Request) {
	res, err := h.ProjectService.Episodes(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, payload{
		"count":    len(res.Episodes),
		"episodes": res.Episodes,
		"project": map[string]string{
			"id":   res.Project.ID,
			"name": res.Project.Name,
		},
	})
}
