// Package api exposes the tracking session over HTTP.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/goodtune/runtracker/internal/location"
	"github.com/goodtune/runtracker/internal/mapview"
	"github.com/goodtune/runtracker/internal/notification"
	"github.com/goodtune/runtracker/internal/storage"
	"github.com/goodtune/runtracker/internal/tracking"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Config holds the API server configuration.
type Config struct {
	ListenAddr string
}

// Deps are the collaborators the handlers read from and drive. Push, View,
// Notifier and Results may be nil; their routes then answer 404.
type Deps struct {
	Controller *tracking.Controller
	Push       *location.Push
	View       *mapview.View
	Notifier   *notification.Notifier
	Results    storage.ResultStore
}

// Server represents the API HTTP server.
type Server struct {
	config   Config
	deps     Deps
	router   *mux.Router
	server   *http.Server
	listener net.Listener
	logger   zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, deps Deps, logger zerolog.Logger) *Server {
	s := &Server{
		config: cfg,
		deps:   deps,
		router: mux.NewRouter(),
		logger: logger.With().Str("component", "api").Logger(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/api/session", s.handleGetSession).Methods("GET")
	s.router.HandleFunc("/api/session/start", s.handleStart).Methods("POST")
	s.router.HandleFunc("/api/session/stop", s.handleStop).Methods("POST")
	s.router.HandleFunc("/api/session/reset", s.handleReset).Methods("POST")
	s.router.HandleFunc("/api/session/route", s.handleGetRoute).Methods("GET")
	s.router.HandleFunc("/api/session/result", s.handleGetResult).Methods("GET")

	s.router.HandleFunc("/api/location", s.handlePostLocation).Methods("POST")

	s.router.HandleFunc("/api/map", s.handleGetMap).Methods("GET")
	s.router.HandleFunc("/api/notification", s.handleGetNotification).Methods("GET")

	s.router.HandleFunc("/api/history", s.handleListHistory).Methods("GET")
	s.router.HandleFunc("/api/history/{id}", s.handleGetHistory).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Route not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API server in the background.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.config.ListenAddr).Msg("Starting API server")

	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated API listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()

	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"phase":  s.deps.Controller.State().Phase(),
	})
}
