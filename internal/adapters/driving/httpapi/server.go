// Package httpapi exposes the discovery pipeline and company registry over
// HTTP. The serve command mounts it next to the scheduler; one-shot CLI runs
// never start it.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
	"github.com/hirelens-labs/hirelens/internal/logger"
	"github.com/hirelens-labs/hirelens/internal/metrics"
)

// Config holds the HTTP surface settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// AdminToken guards the trigger endpoint when non-empty. Read endpoints
	// stay open; only POST /v1/discovery/run changes anything.
	AdminToken string
}

// Server serves the trigger and query API.
type Server struct {
	cfg       Config
	pipeline  driving.DiscoveryPipeline
	companies driving.CompanyService
	metrics   *metrics.Metrics

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a server. A nil metrics value disables the /metrics endpoint.
func New(cfg Config, pipeline driving.DiscoveryPipeline, companies driving.CompanyService, m *metrics.Metrics) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return &Server{cfg: cfg, pipeline: pipeline, companies: companies, metrics: m}
}

// Routes returns the chi router with all endpoints mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Use(s.recoverJSON)

	r.Get("/healthz", s.handleHealthz)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/discovery/run", s.handleRunDiscovery)
		r.Get("/runs", s.handleListRuns)
		r.Get("/companies", s.handleListCompanies)
	})

	return r
}

// Start begins listening. With a ":0" address the kernel picks a port;
// Addr reports what was bound.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil // already started
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener

	// No write timeout: a trigger request stays open for the whole
	// pipeline run.
	s.server = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("HTTP server stopped: %v", err)
		}
	}()

	logger.Info("HTTP API listening on %s", listener.Addr())
	return nil
}

// Addr returns the bound listen address, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// logRequests records method, path, status and duration at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("HTTP %s %s -> %d (%s)",
			r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond))
	})
}

// recoverJSON turns an escaped panic into a JSON 500 instead of a dropped
// connection.
func (s *Server) recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Warn("Panic in %s %s: %v", r.Method, r.URL.Path, rec)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
