// Package server exposes form sessions over HTTP: JSON endpoints for
// headless clients, an HTML form flow rendered by the vanilla renderer, and
// Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alpaka/formengine/pkg/changerequest"
	"github.com/alpaka/formengine/pkg/render"
	"github.com/alpaka/formengine/pkg/schema"
	"github.com/alpaka/formengine/pkg/session"
	"github.com/alpaka/formengine/pkg/validation"
)

// SubmitterFunc builds the change-request client used to submit a session on
// behalf of the caller. A nil SubmitterFunc disables the submit endpoint.
type SubmitterFunc func(r *http.Request) session.Submitter

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore replaces the default in-memory store.
func WithStore(store *Store) Option {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMetrics replaces the default metrics registry.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithHTMLRenderer sets the renderer behind the HTML form endpoints.
func WithHTMLRenderer(r render.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.html = r
		}
	}
}

// WithValidator sets the validator shared by every session.
func WithValidator(v *validation.Validator) Option {
	return func(s *Server) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithHiddenFields adds static hidden inputs to every HTML form.
func WithHiddenFields(fields map[string]string) Option {
	return func(s *Server) {
		s.hidden = render.MergeHiddenFields(s.hidden, render.SortedHiddenFields(fields)...)
	}
}

// WithSubmitter enables POST /v1/sessions/{id}/submit.
func WithSubmitter(fn SubmitterFunc) Option {
	return func(s *Server) {
		s.submitter = fn
	}
}

// WithBackend enables submits against the change-request API at baseURL,
// forwarding the caller's bearer token.
func WithBackend(baseURL string, hc *http.Client) Option {
	return WithSubmitter(func(r *http.Request) session.Submitter {
		opts := []changerequest.Option{changerequest.WithToken(bearerToken(r))}
		if hc != nil {
			opts = append(opts, changerequest.WithHTTPClient(hc))
		}
		return changerequest.NewClient(baseURL, opts...)
	})
}

// Server serves one schema page.
type Server struct {
	page      schema.Page
	store     *Store
	metrics   *Metrics
	logger    *slog.Logger
	html      render.Renderer
	validator *validation.Validator
	submitter SubmitterFunc
	hidden    map[string]string
}

// New builds a Server for page.
func New(page schema.Page, opts ...Option) (*Server, error) {
	s := &Server{
		page:      page,
		logger:    slog.Default(),
		validator: validation.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.store == nil {
		s.store = NewStore(30*time.Minute, 0)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.html == nil {
		return nil, errors.New("server: an HTML renderer is required")
	}
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(s.metrics.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/schema", s.handleSchema)
		r.Get("/schema/openapi", s.handleOpenAPI)
		r.Post("/validate", s.handleValidate)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Patch("/fields", s.handleEditField)
			r.Post("/instances", s.handleAddInstance)
			r.Delete("/instances", s.handleRemoveInstance)
			r.Post("/validate", s.handleValidateSession)
			r.Post("/submit", s.handleSubmit)
			r.Get("/html", s.handleHTML)
			r.Post("/form", s.handleForm)
		})
	})
	return r
}

// Sweep evicts expired sessions and refreshes the session gauge.
func (s *Server) Sweep() int {
	removed := s.store.Sweep()
	s.metrics.setSessions(s.store.Len())
	return removed
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// Expired sessions are swept every interval.
func (s *Server) Run(ctx context.Context, addr string, interval time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if interval <= 0 {
		interval = time.Minute
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("server: listen %s: %w", addr, err)
			}
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("expired sessions evicted", "count", n)
			}
		case <-ctx.Done():
			s.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server: shutdown: %w", err)
			}
			return nil
		}
	}
}
