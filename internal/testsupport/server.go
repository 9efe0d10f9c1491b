// Package testsupport starts a fully wired API server on the in-memory
// store for client and CLI tests.
package testsupport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/PodStudio/internal/middleware"
	"github.com/atinyakov/PodStudio/internal/repository"
	handler "github.com/atinyakov/PodStudio/internal/server/handler/http"
	"github.com/atinyakov/PodStudio/internal/service"
	"github.com/atinyakov/PodStudio/internal/token"
)

// TokenTTL is the lifetime of tokens issued by servers from NewServer.
const TokenTTL = time.Hour

// Server is a running API server and the store behind it.
type Server struct {
	*httptest.Server
	Store  *repository.MemoryStore
	Tokens *token.Service
}

// NewRouter builds the production router over a fresh MemoryStore.
func NewRouter(t testing.TB) (http.Handler, *repository.MemoryStore, *token.Service) {
	t.Helper()

	store := repository.NewMemoryStore()
	tokens, err := token.New("test-secret", TokenTTL)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	auth := service.NewAuthService(store, tokens, bcrypt.MinCost)
	logger := zap.NewNop()
	router := handler.NewRouter(
		&handler.AuthHandler{AuthService: auth, Logger: logger},
		&handler.ProjectHandler{ProjectService: service.NewProjectService(store), Logger: logger},
		&handler.EpisodeHandler{EpisodeService: service.NewEpisodeService(store, store), Logger: logger},
		&handler.HealthHandler{Store: store, Logger: logger},
		handler.RouterOptions{
			Authenticator:  auth,
			AuthLimiter:    middleware.NewRateLimiter(1000, 1000),
			AllowedOrigins: []string{"http://localhost:3000"},
			Logger:         logger,
		},
	)
	return router, store, tokens
}

// NewServer starts an httptest server; it is closed with the test.
func NewServer(t testing.TB) *Server {
	t.Helper()
	router, store, tokens := NewRouter(t)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &Server{Server: srv, Store: store, Tokens: tokens}
}
