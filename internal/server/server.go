// Package server sets up the HTTP server, router and route definitions.
//
// This is the wiring layer for the HTTP adapter: it decides which URL maps
// to which handler, which middleware runs, and how the server stops.
// Storage and generation are assembled by the caller and handed in as a
// ready handler.Editor, so the server can be tested without a database.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/daily-code/internal/handler"
	"github.com/sakif/daily-code/internal/middleware"
)

// Config holds server configuration.
type Config struct {
	Addr string // listen address, e.g. ":8080"

	// WriteTimeout must outlast a generation call, which can take up to
	// the generation timeout.
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server represents the HTTP server and its router.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
}

// New creates a Server serving editor under /api.
func New(cfg Config, editor handler.Editor, logger *slog.Logger) *Server {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 90 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	s.setupRoutes(editor)
	return s
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
// GET    /healthz                        → liveness probe
// GET    /api/editor                     → editor buffer
// POST   /api/editor/init                → start-up flow
// GET    /api/credential                 → {present}
// PUT    /api/credential                 → store API key
// GET    /api/snippets                   → list
// POST   /api/snippets                   → save
// POST   /api/snippets/{filename}/load   → load into buffer
// DELETE /api/snippets/{filename}        → delete
// POST   /api/generate                   → regenerate
//
// Middleware runs in the order it is added: RequestID must come before
// Logger so every log line carries the id.
func (s *Server) setupRoutes(editor handler.Editor) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})

	s.router.Route("/api", handler.NewEditorHandler(editor, s.logger).Routes)
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully: new
// connections are refused and in-flight requests get ShutdownTimeout to
// finish.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.config.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
