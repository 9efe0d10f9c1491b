// Package http provides the HTTP handlers and router of the PodStudio API.
package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/PodStudio/internal/middleware"
	"github.com/atinyakov/PodStudio/internal/models"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates an account and returns it with a token.
	Register(ctx context.Context, username, email, password string) (*models.User, string, error)
	// Login verifies credentials and returns the user with a token.
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}

// AuthHandler handles HTTP requests for registration, login and the
// current user's profile.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Logger      *zap.Logger
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register and answers 201 with a token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, tok, err := h.AuthService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.Logger, err, "")
		return
	}

	writeJSON(w, http.StatusCreated, payload{
		"message": "User registered successfully",
		"token":   tok,
		"user":    user,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, tok, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.Logger, err, "")
		return
	}

	writeJSON(w, http.StatusOK, payload{
		"message": "Login successful",
		"token":   tok,
		"user":    user,
	})
}

// Logout handles POST /auth/logout. Tokens are stateless, so the client
// discarding its token is the whole logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "Logout successful")
}

// Me handles GET /auth/me. Any failure is reported as a server error.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.AuthService.Profile(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeInternalError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, payload{"user": user})
}
