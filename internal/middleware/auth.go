// Package middleware provides HTTP middlewares for authentication, logging,
// CORS and rate limiting.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/PodStudio/internal/models"
	"github.com/atinyakov/PodStudio/internal/service"
	"github.com/atinyakov/PodStudio/internal/token"
)

type ctxKey string

const userKey ctxKey = "user"

// Authenticator resolves a raw bearer token to the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*models.User, error)
}

// JWTAuth rejects requests without a valid bearer token. On success the
// resolved user is stored in the request context.
func JWTAuth(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			user, err := auth.Authenticate(r.Context(), raw)
			switch {
			case errors.Is(err, token.ErrExpiredToken):
				writeError(w, http.StatusUnauthorized, "Token has expired")
				return
			case errors.Is(err, token.ErrInvalidToken), errors.Is(err, service.ErrUserNotFound):
				writeError(w, http.StatusUnauthorized, "Token is not valid")
				return
			case err != nil:
				logger.Error("failed to authenticate request",
					zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
					zap.Error(err),
				)
				writeError(w, http.StatusInternalServerError, "Server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUserFromContext returns the authenticated user, or nil outside JWTAuth.
func GetUserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// GetUserIDFromContext extracts the authenticated user's ID from the
// request context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	if user := GetUserFromContext(ctx); user != nil {
		return user.ID
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
