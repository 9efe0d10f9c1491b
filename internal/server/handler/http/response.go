package http

import (
	"encoding/json"
	"errors"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/PodStudio/internal/service"
)

const maxBodyBytes = 1 << 20

// payload is the JSON envelope of every response. success is always set.
type payload map[string]any

func writeJSON(w http.ResponseWriter, status int, body payload) {
	body["success"] = status < http.StatusBadRequest
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, payload{"message": message})
}

// decodeBody decodes the JSON request body into dst and writes
// 400 "Invalid request body" when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeServiceError maps a service error onto a status code and client
// message. action names the attempted episode operation for 403 messages.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, action string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, payload{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, service.ErrUserExists):
		writeMessage(w, http.StatusBadRequest, "User with this email or username already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, service.ErrProjectExists):
		writeMessage(w, http.StatusBadRequest, "Project with this name already exists")
	case errors.Is(err, service.ErrProjectNotFound):
		writeMessage(w, http.StatusNotFound, "Project not found")
	case errors.Is(err, service.ErrEpisodeNotFound):
		writeMessage(w, http.StatusNotFound, "Episode not found")
	case errors.Is(err, service.ErrEpisodeForbidden):
		writeMessage(w, http.StatusForbidden, "Not authorized to "+action+" this episode")
	default:
		writeInternalError(w, r, logger, err)
	}
}

func writeInternalError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeMessage(w, http.StatusInternalServerError, "Server error")
}
