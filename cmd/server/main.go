package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/read-it-later/internal/api"
	"github.com/read-it-later/internal/assist"
	"github.com/read-it-later/internal/config"
	"github.com/read-it-later/internal/database"
	"github.com/read-it-later/internal/extractor"
	"github.com/read-it-later/internal/metrics"
	"github.com/read-it-later/internal/repository"
	"github.com/read-it-later/internal/search"
	"github.com/read-it-later/internal/service"
	"github.com/read-it-later/internal/view"
	"github.com/read-it-later/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	// Load .env if present
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("Could not load .env file")
	}
	log.Info().Msg("Starting read-it-later server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Initialize metrics
	m := metrics.New()

	// Initialize services
	services := service.NewServices(repos, newAdapters(cfg, log), cfg, m, log)

	// Initialize presentation
	renderer, err := view.New(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load templates")
	}

	// Initialize router
	router := api.NewRouter(services, renderer, m, db, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	stats := db.Stats()
	log.Info().
		Int("open_connections", stats.OpenConnections).
		Int64("wait_count", stats.WaitCount).
		Msg("Server exited gracefully")
}

// newAdapters builds only the adapters whose backend is configured, so the
// services see a nil interface rather than a nil pointer
func newAdapters(cfg *config.Config, log zerolog.Logger) service.Adapters {
	var adapters service.Adapters

	if cfg.Extractor.Enabled {
		adapters.Extractor = extractor.New(cfg.Extractor, log)
	}
	if cfg.AI.Enabled() {
		adapters.Assistant = assist.New(cfg.AI, log)
	}
	if cfg.Search.Enabled() {
		adapters.Searcher = search.New(cfg.Search, log)
	}

	log.Info().
		Bool("extractor", adapters.Extractor != nil).
		Bool("ai", adapters.Assistant != nil).
		Bool("search", adapters.Searcher != nil).
		Msg("Adapters configured")

	return adapters
}
