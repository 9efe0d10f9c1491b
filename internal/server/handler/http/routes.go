package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/PodStudio/internal/middleware"
)

// RouterOptions carries the cross-cutting dependencies of NewRouter.
type RouterOptions struct {
	// Authenticator resolves bearer tokens on private routes.
	Authenticator middleware.Authenticator
	// AuthLimiter throttles register and login. Nil disables throttling.
	AuthLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter constructs and returns an HTTP handler that serves
// the PodStudio API under /api plus /healthz.
//
// Routes:
//
//	POST   /api/auth/register        → authHandler.Register (rate limited)
//	POST   /api/auth/login           → authHandler.Login (rate limited)
//	POST   /api/auth/logout          → authHandler.Logout
//	GET    /api/auth/me              → authHandler.Me
//	GET    /api/projects             → projectHandler.List
//	POST   /api/projects             → projectHandler.Create
//	GET    /api/projects/{id}        → projectHandler.Get
//	DELETE /api/projects/{id}        → projectHandler.Delete
//	GET    /api/projects/{id}/episodes → projectHandler.Episodes
//	POST   /api/episodes             → episodeHandler.Create
//	GET    /api/episodes/{id}        → episodeHandler.Get
//	PUT    /api/episodes/{id}        → episodeHandler.Update
//	DELETE /api/episodes/{id}        → episodeHandler.Delete
//
// Middleware chain (applied in order):
//  1. RequestID, WithRequestLogging, Recoverer
//  2. CORS for the configured origins
//  3. AllowContentType("application/json") for requests with a body
//  4. JWTAuth on everything except register, login, logout and /healthz
func NewRouter(
	authHandler *AuthHandler,
	projectHandler *ProjectHandler,
	episodeHandler *EpisodeHandler,
	healthHandler *HealthHandler,
	opts RouterOptions,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(opts.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Group(func(r chi.Router) {
			if opts.AuthLimiter != nil {
				r.Use(opts.AuthLimiter.Handler)
			}
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})
		r.Post("/auth/logout", authHandler.Logout)

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(opts.Authenticator, opts.Logger))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Get("/{id}", projectHandler.Get)
				r.Delete("/{id}", projectHandler.Delete)
				r.Get("/{id}/episodes", projectHandler.Episodes)
			})

			r.Route("/episodes", func(r chi.Router) {
				r.Post("/", episodeHandler.Create)
				r.Get("/{id}", episodeHandler.Get)
				r.Put("/{id}", episodeHandler.Update)
				r.Delete("/{id}", episodeHandler.Delete)
			})
		})
	})

	return r
}
