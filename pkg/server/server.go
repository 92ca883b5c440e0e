// Package server exposes the spin selector and catalog over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/otherjamesbrown/deskspin/pkg/buildinfo"
	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	"github.com/otherjamesbrown/deskspin/pkg/db"
	"github.com/otherjamesbrown/deskspin/pkg/events"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
	"github.com/otherjamesbrown/deskspin/pkg/observability"
	"github.com/otherjamesbrown/deskspin/pkg/spin"
)

// Config holds HTTP server settings.
type Config struct {
	Addr            string
	CORSOrigins     []string
	RateLimit       int
	RateLimitWindow time.Duration
	// CacheTTL is how long category pools are served from memory. Zero
	// disables the cache.
	CacheTTL        time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		RateLimit:       120,
		RateLimitWindow: time.Minute,
		CacheTTL:        5 * time.Minute,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// Server serves the spin API.
type Server struct {
	cfg      Config
	reader   catalog.Reader
	cache    *CachedReader
	selector *spin.Selector
	pinger   db.Pinger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	gatherer prometheus.Gatherer
	logger   logging.Logger
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithPinger sets the backend checked by /healthz.
func WithPinger(p db.Pinger) Option {
	return func(s *Server) { s.pinger = p }
}

// WithMetrics records spin metrics to m and serves g on /metrics.
func WithMetrics(m *observability.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithTracer sets the tracer used for spins.
func WithTracer(t *observability.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server reading from store.
func New(cfg Config, store catalog.Reader, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		reader:   store,
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.F("component", "server"))

	if cfg.CacheTTL > 0 {
		s.cache = NewCachedReader(store, cfg.CacheTTL)
		s.reader = s.cache
	}

	selOpts := []spin.Option{spin.WithLogger(s.logger), spin.WithMetrics(s.metrics)}
	if s.tracer != nil {
		selOpts = append(selOpts, spin.WithTracer(s.tracer))
	}
	s.selector = spin.NewSelector(s.reader, selOpts...)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(requestContext)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(s.cfg.CORSOrigins))

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", buildinfo.Handler("deskspin"))
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimitMiddleware(s.cfg.RateLimit, s.cfg.RateLimitWindow))
		r.Get("/spin", s.handleSpin)
		r.Get("/categories", s.handleCategories)
		r.Get("/categories/{name}/products", s.handleCategoryProducts)
		r.Get("/products/{id}", s.handleProduct)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// OnCatalogImported flushes cached pools. It has the events.Handler shape so
// it can be passed to events.NewSubscriber.
func (s *Server) OnCatalogImported(ctx context.Context, event events.CatalogImportedEvent) {
	if s.cache == nil {
		return
	}
	s.cache.Flush()
	s.logger.WithContext(ctx).Info("Catalog changed, cache flushed",
		logging.F("event_id", event.EventID),
		logging.F("products", event.Products))
}

// Run listens on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", logging.F("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
