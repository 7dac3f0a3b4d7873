// Package main is the entry point for the Compass financial planning engine.
// The application validates investment plans, runs Monte Carlo projections,
// optimizes allocations, and produces rebalancing, trading, and risk guidance
// with minimal human intervention.
//
// The application follows clean architecture principles:
// - Domain logic lives in internal/modules (no transport dependencies)
// - Dependency injection via DI container
// - Repository pattern for data access
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/compass/internal/config"
	"github.com/aristath/compass/internal/di"
	"github.com/aristath/compass/internal/server"
	"github.com/aristath/compass/internal/version"
	"github.com/aristath/compass/pkg/logger"
)

// main orchestrates the system startup sequence:
// 1. Loads configuration from environment variables (.env file)
// 2. Initializes logging
// 3. Wires all dependencies via DI container (databases, repositories,
//    settings overlay, services, jobs)
// 4. Starts the scheduler and HTTP server
// 5. Waits for shutdown signal and performs graceful shutdown
//
// The application uses a 3-database architecture:
// - config.db: Application configuration (settings)
// - plans.db: Investment plans
// - ledger.db: Immutable audit trail of recorded trades
func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger with config level
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	log.Info().Str("version", version.Version).Msg("Starting Compass")

	// Wire all dependencies using DI container
	// This initializes databases and repositories, overlays stored settings
	// onto the configuration, then builds services and scheduled jobs from
	// the final values.
	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// All three databases must be properly closed so WAL checkpoints are
	// written. Using defer ensures cleanup even on panic.
	defer container.Close()

	// Initialize HTTP server
	// The HTTP server provides REST API endpoints for:
	// - Plan management (create, validate, compare)
	// - Monte Carlo simulations (single plan, batch)
	// - Allocation optimization and rebalancing advice
	// - Trading signals and risk sizing
	// - Settings management
	// - System operations (health checks, job triggers, backups)
	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	// Start scheduled jobs (rebalance scan, cache sweep, backups)
	container.Scheduler.Start()

	// Start server in goroutine so shutdown signals can be handled below.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop the scheduler first so no new jobs start while connections drain.
	// Stop blocks until running jobs finish.
	container.Scheduler.Stop()

	// Graceful shutdown
	// The HTTP server is given up to 10 seconds to finish in-flight requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
