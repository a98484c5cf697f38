// Package server provides the HTTP server and routing for roadscan.
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

	"github.com/aristath/roadscan/internal/config"
	"github.com/aristath/roadscan/internal/di"
	quantumhandlers "github.com/aristath/roadscan/internal/modules/quantum/handlers"
	recordshandlers "github.com/aristath/roadscan/internal/modules/records/handlers"
	scanninghandlers "github.com/aristath/roadscan/internal/modules/scanning/handlers"
	scoringhandlers "github.com/aristath/roadscan/internal/modules/scoring/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container // DI container with all services
	Port      int
	DevMode   bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
	startedAt      time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	// Avoid storing a typed nil in the interface
	var backups BackupRunner
	if cfg.Container.Backup != nil {
		backups = cfg.Container.Backup
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Config.DataDir,
			cfg.Container.ResultsDB,
			backups,
		),
		startedAt: time.Now(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the event stream is long-lived
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5, "application/json"))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// SSE stays outside the timeout group
		eventsStreamHandler := NewEventsStreamHandler(s.container.EventBus, s.log)
		r.Get("/events/stream", eventsStreamHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/health", s.handleHealth)

			r.Route("/system", func(r chi.Router) {
				r.Get("/stats", s.systemHandlers.HandleSystemStats)
				r.Get("/database", s.systemHandlers.HandleDatabaseStats)
				r.Post("/backup", s.systemHandlers.HandleTriggerBackup)
				r.Get("/backups", s.systemHandlers.HandleListBackups)
			})

			recordshandlers.NewHandler(s.container.RecordsRepo, s.log).RegisterRoutes(r)
			scanninghandlers.NewHandler(s.container.ScanningService, s.log).RegisterRoutes(r)
			quantumhandlers.NewHandler(s.container.Circuit, s.log).RegisterRoutes(r)
			scoringhandlers.NewHandlers(s.log).RegisterRoutes(r)
		})
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
