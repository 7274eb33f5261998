// Package server serves a normalized immigration table and stored report
// snapshots as JSON over HTTP, for chart and map renderers.
//
// Routes:
//
//	GET    /healthz
//	GET    /metrics
//	GET    /v1/countries?continent=&region=
//	GET    /v1/countries/{name}
//	GET    /v1/continents
//	GET    /v1/top?n=&by=&order=
//	GET    /v1/decades?n=
//	GET    /v1/totals?countries=
//	GET    /v1/histogram?year=&bins=&countries=
//	GET    /v1/thresholds?n=
//	GET    /v1/reports
//	POST   /v1/reports
//	GET    /v1/reports/{id}
//	DELETE /v1/reports/{id}
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/widetable/pkg/pipeline"
	"github.com/matzehuels/widetable/pkg/storage"
)

// ReadHeaderTimeout bounds slow clients.
const ReadHeaderTimeout = 5 * time.Second

// Config holds the server's collaborators. Dataset and Store are required.
type Config struct {
	Dataset *pipeline.Dataset
	Options pipeline.Options
	Runner  *pipeline.Runner
	Store   storage.Store
	Logger  *log.Logger
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Server holds a loaded dataset for the lifetime of the process.
type Server struct {
	ds      *pipeline.Dataset
	opts    pipeline.Options
	runner  *pipeline.Runner
	store   storage.Store
	logger  *log.Logger
	metrics http.Handler
}

// New builds a server. A nil runner or logger gets a default.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	return &Server{
		ds:      cfg.Dataset,
		opts:    cfg.Options,
		runner:  cfg.Runner,
		store:   cfg.Store,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Router returns the HTTP handler for all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		s.registerTable(r)
		s.registerReports(r)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr, "countries", s.ds.Table.Len())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdown)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":    "ok",
		"countries": s.ds.Table.Len(),
		"source":    s.ds.Source,
	}
	if h, ok := s.store.(interface{ Health(context.Context) error }); ok {
		if err := h.Health(r.Context()); err != nil {
			status["status"] = "degraded"
			status["store"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	writeJSON(w, http.StatusOK, status)
}
