// Package server wires the chi router, its middleware chain and the HTTP
// server lifecycle for the prescriptions API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/giygas/prescriptions-api/config"
	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	handler     interfaces.HTTPHandler
	rateLimiter *RateLimiter
	config      *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:           router,
			Addr:              cfg.Address + ":" + cfg.Port,
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		router:      router,
		handler:     handler,
		rateLimiter: NewRateLimiter(),
		config:      cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	allowDirect := s.config.Env == config.EnvDevelopment || s.config.Env == config.EnvTest

	s.router.Use(middleware.RequestID)
	s.router.Use(BlockDirectAccessMiddleware(allowDirect)) // Before RealIPMiddleware to see the original RemoteAddr
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.RequestLogger(requestLogger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(metrics.Metrics)
	s.router.Use(s.rateLimiter.Middleware)
}

func requestLogger() *slog.Logger {
	if logging.DefaultLoggingService == nil {
		return nil
	}
	return logging.DefaultLoggingService.Logger
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	h := s.handler

	s.router.Route("/patients/{patient}/prescriptions", func(r chi.Router) {
		r.Get("/", h.ListPrescriptions)
		r.Get("/groups", h.ListPrescriptionGroups)
	})

	s.router.Route("/viewers/{viewer}/groups/{doctorId}", func(r chi.Router) {
		r.Post("/toggle", h.ToggleGroup)
		r.Post("/view-all", h.ViewAllInGroup)
	})

	s.router.Route("/prescriptions/{id}", func(r chi.Router) {
		r.Get("/", h.ViewPrescription)
		r.Post("/removal", h.OpenRemoval)
	})

	s.router.Route("/removals/{session}", func(r chi.Router) {
		r.Put("/input", h.UpdateRemovalInput)
		r.Post("/confirm", h.ConfirmRemoval)
		r.Delete("/", h.CloseRemoval)
	})

	s.router.Post("/security/violations", h.ReportViolation)

	s.router.Get("/health", h.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Start starts the server and blocks until it stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	logging.Info(fmt.Sprintf("Starting server at: %s", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	defer s.rateLimiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
