package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/trackrelay/pkg/config"
	"mercator-hq/trackrelay/pkg/proxy/middleware"
	"mercator-hq/trackrelay/pkg/telemetry/health"
	"mercator-hq/trackrelay/pkg/telemetry/metrics"
	"mercator-hq/trackrelay/pkg/telemetry/tracing"
)

// Dependencies are the components the server routes to.
type Dependencies struct {
	// Relay serves GET /apps/parceltrack. Required.
	Relay http.Handler

	// Health serves /health and /ready. Required.
	Health *health.Checker

	// Metrics records HTTP metrics and serves the metrics endpoint. Optional.
	Metrics *metrics.Collector

	// Tracer starts server spans. Optional.
	Tracer *tracing.Tracer

	// Version is reported by /version.
	Version health.VersionInfo
}

// Server is the HTTP server for the tracking relay.
type Server struct {
	config     *config.ServerConfig
	deps       Dependencies
	cors       *middleware.CORS
	handler    http.Handler
	httpServer *http.Server

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// New creates a server. The route table and middleware chain are built once.
func New(cfg *config.ServerConfig, deps Dependencies) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is nil")
	}
	if deps.Relay == nil {
		return nil, errors.New("relay handler is required")
	}
	if deps.Health == nil {
		return nil, errors.New("health checker is required")
	}
	if deps.Tracer == nil {
		deps.Tracer = tracing.Noop()
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		cors:   middleware.NewCORS(ConvertCORSConfig(cfg.CORS)),
	}
	s.handler = s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           cfg.Address(),
		Handler:        s.handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	return s, nil
}

// Start binds the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or the server fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.New("server is already running")
	}
	s.isRunning = true
	s.addr = ln.Addr()
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("tracking relay listening",
			"address", ln.Addr().String(),
			"allowed_origins", s.cors.AllowedOrigins(),
		)

		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown gracefully shuts down the server, waiting up to
// ShutdownTimeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("tracking relay stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Handler returns the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// UpdateCORS swaps the origin allow-list. Used on configuration reload.
func (s *Server) UpdateCORS(cfg config.CORSConfig) {
	s.cors.Update(ConvertCORSConfig(cfg))
	slog.Info("CORS allow-list updated", "allowed_origins", s.cors.AllowedOrigins())
}

// AllowedOrigins returns the current allow-list.
func (s *Server) AllowedOrigins() []string {
	return s.cors.AllowedOrigins()
}

// ConvertCORSConfig converts config.CORSConfig to middleware.CORSConfig.
func ConvertCORSConfig(cfg config.CORSConfig) *middleware.CORSConfig {
	return &middleware.CORSConfig{
		Enabled:          cfg.Enabled,
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		MaxAge:           cfg.MaxAge,
		AllowCredentials: cfg.AllowCredentials,
	}
}
