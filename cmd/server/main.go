// Package main initializes and starts the PodStudio API server,
// setting up configuration, logging, storage, services, handlers and
// optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/PodStudio/internal/config"
	"github.com/atinyakov/PodStudio/internal/db"
	"github.com/atinyakov/PodStudio/internal/logger"
	"github.com/atinyakov/PodStudio/internal/middleware"
	"github.com/atinyakov/PodStudio/internal/repository"
	"github.com/atinyakov/PodStudio/internal/server/handler/http"
	"github.com/atinyakov/PodStudio/internal/service"
	"github.com/atinyakov/PodStudio/internal/token"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// stores groups the repositories selected at startup.
type stores struct {
	users    service.UserRepository
	projects service.ProjectRepository
	episodes service.EpisodeRepository
	health   http.Pinger
	close    func() error
}

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, zapLogger); err != nil {
		zapLogger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	st, err := openStores(ctx, options, zapLogger)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	ttl, err := options.TokenTTL()
	if err != nil {
		return err
	}
	tokens, err := token.New(options.JWTSecret, ttl)
	if err != nil {
		return err
	}

	// Initialize business-logic services.
	authService := service.NewAuthService(st.users, tokens, options.BcryptCost)
	projectService := service.NewProjectService(st.projects)
	episodeService := service.NewEpisodeService(st.projects, st.episodes)

	// Build the router with middleware and routes.
	router := http.NewRouter(
		&http.AuthHandler{AuthService: authService, Logger: zapLogger},
		&http.ProjectHandler{ProjectService: projectService, Logger: zapLogger},
		&http.EpisodeHandler{EpisodeService: episodeService, Logger: zapLogger},
		&http.HealthHandler{Store: st.health, Logger: zapLogger},
		http.RouterOptions{
			Authenticator:  authService,
			AuthLimiter:    middleware.NewRateLimiter(options.AuthRateLimit, options.AuthRateBurst),
			AllowedOrigins: options.Origins(),
			Logger:         zapLogger,
		},
	)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLSEnabled() {
			server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Address))
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zapLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, options *config.Options, zapLogger *zap.Logger) (*stores, error) {
	if options.DatabaseDSN == "" {
		zapLogger.Warn("no database configured, data is kept in memory and lost on exit")
		mem := repository.NewMemoryStore()
		return &stores{users: mem, projects: mem, episodes: mem, health: mem, close: func() error { return nil }}, nil
	}

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("cannot init database: %w", err)
	}

	every, err := options.ReconcileEvery()
	if err != nil {
		_ = postgresDB.Close()
		return nil, err
	}
	db.StartEpisodeCountReconciler(ctx, postgresDB, every, zapLogger)

	return &stores{
		users:    repository.NewPostgresUserRepository(postgresDB),
		projects: repository.NewPostgresProjectRepository(postgresDB),
		episodes: repository.NewPostgresEpisodeRepository(postgresDB),
		health:   postgresDB,
		close:    postgresDB.Close,
	}, nil
}
