package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mercator-hq/trackrelay/pkg/proxy"
	"mercator-hq/trackrelay/pkg/proxy/middleware"
)

// Route paths.
const (
	TrackPath   = "/apps/parceltrack"
	HealthPath  = "/health"
	ReadyPath   = "/ready"
	VersionPath = "/version"
)

// Messages for requests that match no route.
const (
	NotFoundMessage         = "Not found."
	MethodNotAllowedMessage = "Method not allowed."
)

// setupRoutes builds the router. Middleware order, outermost first:
// Recovery, RequestID, Logging, Tracing, Metrics, CORS.
func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(s.deps.Tracer.Middleware)
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware)
	}
	r.Use(s.cors.Handler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = proxy.WriteError(w, http.StatusNotFound, NotFoundMessage)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = proxy.WriteError(w, http.StatusMethodNotAllowed, MethodNotAllowedMessage)
	})

	r.Method(http.MethodGet, TrackPath, s.deps.Relay)

	handlers := s.deps.Health.CreateHandlers(s.deps.Version.Version, s.deps.Version.Commit, s.deps.Version.BuildTime)
	r.Get(HealthPath, handlers.LivenessHandler)
	r.Get(ReadyPath, handlers.ReadinessHandler)
	r.Get(VersionPath, handlers.VersionHandler)

	if s.deps.Metrics != nil && s.deps.Metrics.Enabled() {
		r.Method(http.MethodGet, s.deps.Metrics.Path(), s.deps.Metrics.Handler())
	}

	return r
}
