// Package server assembles the HTTP serving pipeline: router, middleware
// stack, metrics endpoint, and the server lifecycle with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edgekit/relay/config"
	"github.com/edgekit/relay/handler"
	"github.com/edgekit/relay/response"
	"github.com/edgekit/relay/server/metrics"
	"github.com/edgekit/relay/server/middleware"
	"github.com/edgekit/relay/state"
)

// Router wires the middleware stack around registered handler funcs.
type Router struct {
	router chi.Router
}

// NewRouter creates a router with the standard middleware chain and the
// built-in /health and /metrics routes. The chain order matters: the
// request ID must exist before anything logs, and recovery sits innermost
// so panics are adapted before the outer layers observe the response.
func NewRouter(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.PrometheusMetrics(m))
	if cfg.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, m)
		r.Use(limiter.Middleware)
	}
	r.Use(middleware.Recovery(logger))

	r.Method(http.MethodGet, "/health", handler.Adapt(healthHandler))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	return &Router{router: r}
}

func healthHandler(_ *state.State, _ *http.Request) (response.Renderer, error) {
	return response.JSON(http.StatusOK, map[string]string{"status": "ok"}), nil
}

// Handle registers a handler func for the given method and pattern.
func (rt *Router) Handle(method, pattern string, fn handler.Func) {
	rt.router.Method(method, pattern, handler.Adapt(fn))
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.router.ServeHTTP(w, r)
}

// Server wraps http.Server with lifecycle management.
type Server struct {
	httpServer      *http.Server
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// NewServer creates a server instance from the given configuration.
func NewServer(cfg config.ServerConfig, h http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:           fmt.Sprintf(":%d", cfg.Port),
			Handler:        h,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server started", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down server")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
