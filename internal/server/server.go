// Package server provides the HTTP server and routing for Compass.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/config"
	"github.com/aristath/compass/internal/di"
	allocationhandlers "github.com/aristath/compass/internal/modules/allocation/handlers"
	optimizationhandlers "github.com/aristath/compass/internal/modules/optimization/handlers"
	planninghandlers "github.com/aristath/compass/internal/modules/planning/handlers"
	riskhandlers "github.com/aristath/compass/internal/modules/risk/handlers"
	settingshandlers "github.com/aristath/compass/internal/modules/settings/handlers"
	simulationhandlers "github.com/aristath/compass/internal/modules/simulation/handlers"
	tradinghandlers "github.com/aristath/compass/internal/modules/trading/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container // DI container with all services
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	systemHandlers := NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.Container)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		container:      cfg.Container,
		systemHandlers: systemHandlers,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Config.Host, cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check (before API routing)
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Unified events stream (SSE) - must be before other routes for proper handling
		eventsStreamHandler := NewEventsStreamHandler(s.container.EventBus, s.log)
		r.Get("/events/stream", eventsStreamHandler.ServeHTTP)

		// System monitoring and operations
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/jobs", s.systemHandlers.HandleJobsStatus)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
			r.Get("/backups", s.systemHandlers.HandleListBackups)

			// Job triggers (manual operation triggers)
			r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
		})

		// Planning module
		planningHandler := planninghandlers.NewHandler(
			s.container.PlanRepo,
			s.container.Optimizer,
			s.container.Advisor,
			s.container.SimEngine,
			s.container.SimCache,
			s.container.EventManager,
			s.log,
		)
		planningHandler.RegisterRoutes(r)

		// Simulation module
		simulationHandler := simulationhandlers.NewHandler(
			s.container.SimEngine,
			s.container.SimCache,
			s.container.PlanRepo,
			s.container.SettingsRepo,
			s.cfg.SimulationTrials,
			s.container.EventManager,
			s.log,
		)
		simulationHandler.RegisterRoutes(r)

		// Optimization module
		optimizationHandler := optimizationhandlers.NewHandler(
			s.container.Optimizer,
			s.container.SimCache,
			s.container.EventManager,
			s.log,
		)
		optimizationHandler.RegisterRoutes(r)

		// Allocation module
		allocationHandler := allocationhandlers.NewHandler(s.container.Advisor, s.container.EventManager, s.log)
		allocationHandler.RegisterRoutes(r)

		// Trading module
		tradingHandler := tradinghandlers.NewHandler(s.container.TradingEngine, s.container.TradeRepo, s.log)
		tradingHandler.RegisterRoutes(r)

		// Risk module
		riskHandler := riskhandlers.NewHandler(s.container.RiskManager, s.log)
		riskHandler.RegisterRoutes(r)

		// Settings module
		settingsHandler := settingshandlers.NewHandler(s.container.SettingsRepo, s.container.EventManager, s.log)
		settingsHandler.RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the configured router, used by tests to drive requests
// through the full middleware stack.
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
