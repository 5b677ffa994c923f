// Package http exposes the calculator API, the web pages, and the
// operational endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hygrolab/humidity-service/internal/observability"
	"github.com/hygrolab/humidity-service/internal/psychro"
	"github.com/hygrolab/humidity-service/internal/reading"
	"github.com/hygrolab/humidity-service/internal/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// CheckerFunc adapts a plain function to the ReadinessChecker interface.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// AlwaysReady is the readiness of a server with no streaming dependencies.
var AlwaysReady = CheckerFunc(func(context.Context) error { return nil })

// MultiChecker reports ready only when every checker is ready.
type MultiChecker []ReadinessChecker

func (m MultiChecker) CheckReadiness(ctx context.Context) error {
	for _, c := range m {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Deps carries the collaborators behind the HTTP surface.
type Deps struct {
	Calculator psychro.Calculator
	Latest     *reading.LatestStore // nil when streaming inputs are disabled
	Renderer   *web.Renderer
	Ready      ReadinessChecker
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	Version    string
}

// Server exposes the JSON API, the HTML pages, and the health, readiness,
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	calc       psychro.Calculator
	latest     *reading.LatestStore
	renderer   *web.Renderer
	logger     *slog.Logger
	metrics    *observability.Metrics
	version    string
}

// NewServer wires every route onto a fresh mux. A nil Ready checker means
// the server reports ready as soon as it listens.
func NewServer(addr string, deps Deps) *Server {
	if deps.Ready == nil {
		deps.Ready = AlwaysReady
	}

	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		calc:     deps.Calculator,
		latest:   deps.Latest,
		renderer: deps.Renderer,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		version:  deps.Version,
	}

	// JSON API
	mux.HandleFunc("POST /api/calculate", s.handleCalculate)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/info", s.handleInfo)
	mux.HandleFunc("GET /api/readings/latest", s.handleLatestReadings)
	mux.HandleFunc("GET /openapi.json", s.handleOpenAPI)

	// Web pages
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /{$}", s.handleIndexSubmit)
	mux.HandleFunc("GET /about", s.handleAbout)
	mux.HandleFunc("GET /docs", s.handleDocs)
	if staticFS, err := web.StaticFS(); err != nil {
		deps.Logger.Error("static assets unavailable", "error", err)
	} else {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))
	}

	// Operational endpoints
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer.Handler = requestLogger(deps.Logger, withCORS(mux))
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
