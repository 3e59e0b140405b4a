// Package server exposes the compositing pipeline over HTTP.
//
// Routes:
//
//	GET    /healthz
//	POST   /v1/compose?format=png        one-shot render of an uploaded project
//	GET    /v1/projects                  list saved projects
//	POST   /v1/projects                  save an uploaded project
//	GET    /v1/projects/{id}             project summary and manifest
//	PUT    /v1/projects/{id}             replace manifest and assets
//	DELETE /v1/projects/{id}
//	GET    /v1/projects/{id}/render.{format}
//
// Uploads are multipart forms: a "manifest" field holding the TOML project
// and one file field per part image, named by the source path the manifest
// uses (for example "parts/head.png").
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/kitbash/pkg/pipeline"
	"github.com/matzehuels/kitbash/pkg/source"
	"github.com/matzehuels/kitbash/pkg/store"
)

// DefaultMaxUploadBytes bounds a single multipart upload.
const DefaultMaxUploadBytes = 64 << 20

// Config wires the server's dependencies.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Store holds saved projects.
	Store store.Store

	// Runner renders artifacts. Its cache is shared by every request.
	Runner *pipeline.Runner

	// Remote fetches http(s) part sources. Nil rejects URL sources.
	Remote source.Source

	// Logger receives request and lifecycle logs. Nil discards.
	Logger *log.Logger

	// MaxUploadBytes bounds request bodies. Zero means DefaultMaxUploadBytes.
	MaxUploadBytes int64

	// Timeout bounds each request. Zero means one minute.
	Timeout time.Duration
}

// Server is the kitbash HTTP API.
type Server struct {
	store     store.Store
	runner    *pipeline.Runner
	remote    source.Source
	logger    *log.Logger
	maxUpload int64
	timeout   time.Duration
	addr      string
}

// New creates a server from cfg.
func New(cfg Config) *Server {
	s := &Server{
		store:     cfg.Store,
		runner:    cfg.Runner,
		remote:    cfg.Remote,
		logger:    cfg.Logger,
		maxUpload: cfg.MaxUploadBytes,
		timeout:   cfg.Timeout,
		addr:      cfg.Addr,
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	if s.timeout <= 0 {
		s.timeout = time.Minute
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/compose", s.handleCompose)

		r.Route("/projects", func(r chi.Router) {
			if s.store == nil {
				r.Use(unavailable)
			}
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(validID)
				r.Get("/", s.handleGetProject)
				r.Put("/", s.handleUpdateProject)
				r.Delete("/", s.handleDeleteProject)
				r.Get("/render.{format}", s.handleRenderProject)
			})
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
