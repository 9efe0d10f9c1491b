package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger checks that the backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	Store  Pinger
	Logger *zap.Logger
}

// Health answers 200 when the store responds within two seconds and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Store.PingContext(ctx); err != nil {
		h.Logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, payload{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, payload{"status": "ok"})
}
