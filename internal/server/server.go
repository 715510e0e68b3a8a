// Package server exposes a read-only HTTP view of the scheduler: the live
// process table of the current run and the stored run history.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/cpusched/internal/engine"
	"github.com/me/cpusched/internal/store"
)

// Server is the status API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	startTime time.Time
	view      engine.View // optional; live run
	store     store.Store // optional; run history
	interval  time.Duration
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithView publishes the live state of a run.
func WithView(v engine.View) Option {
	return func(s *Server) {
		s.view = v
	}
}

// WithStore serves run history from st.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithRefreshInterval sets the SSE snapshot cadence.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// New creates a new Server with all routes registered.
func New(logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		startTime: time.Now(),
		interval:  time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		// Live run
		r.Route("/processes", func(r chi.Router) {
			r.Get("/", s.handleListProcesses)
			r.Get("/{name}", s.handleGetProcess)
		})

		// Run history
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Get("/{id}", s.handleGetRun)
		})

		r.Route("/sse", func(r chi.Router) {
			r.Get("/processes", s.handleSSEProcesses)
		})
	})
}
