// Package ui serves the admin site over HTTP.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapadmin/internal/cli/config"
	"github.com/leapstack-labs/leapadmin/internal/demo"
	"github.com/leapstack-labs/leapadmin/pkg/admin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// MetricsPath is where the Prometheus handler is mounted when metrics are on.
const MetricsPath = "/metrics"

// Server is the admin HTTP server.
type Server struct {
	addr     string
	handler  http.Handler
	admin    *admin.Admin
	registry *prometheus.Registry
	logger   *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Addr          string
	Title         string
	BaseURL       string
	LogoURL       string
	FaviconURL    string
	Debug         bool
	SessionSecret string
	Metrics       bool
	Views         map[string]config.ViewConfig
	Store         admin.Store
	Logger        *slog.Logger
}

// NewServer builds the router, registers the demo views and mounts the admin.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = uuid.NewString()
		cfg.Logger.Warn("session_secret is not set, using a random secret; flash messages will not survive a restart")
	}
	sessionStore := sessions.NewCookieStore([]byte(secret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	s := &Server{addr: cfg.Addr, handler: r, logger: cfg.Logger}

	var metrics *admin.Metrics
	if cfg.Metrics {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m, err := admin.NewMetrics(s.registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		metrics = m
		r.Method(http.MethodGet, MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
			ErrorLog:      slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelError),
			ErrorHandling: promhttp.ContinueOnError,
		}))
	}

	a, err := admin.New(r, cfg.Store, admin.Config{
		Title:      cfg.Title,
		BaseURL:    cfg.BaseURL,
		LogoURL:    cfg.LogoURL,
		FaviconURL: cfg.FaviconURL,
		Debug:      cfg.Debug,
		Logger:     cfg.Logger,
		Sessions:   sessionStore,
		Metrics:    metrics,
	})
	if err != nil {
		return nil, err
	}
	if err := demo.Register(a, cfg.Store, cfg.Views); err != nil {
		return nil, fmt.Errorf("failed to register views: %w", err)
	}

	// The root redirect must be registered before Mount claims "/".
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, base+"/", http.StatusFound)
		})
	}
	if err := a.Mount(); err != nil {
		return nil, fmt.Errorf("failed to mount admin: %w", err)
	}
	s.admin = a
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Admin returns the mounted admin.
func (s *Server) Admin() *admin.Admin { return s.admin }

// Registry returns the metrics registry, or nil when metrics are off.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting admin server", "addr", ln.Addr().String(), "admin", s.admin.BaseURL()+"/")

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down admin server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
