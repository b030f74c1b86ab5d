package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"sync/atomic"

	"github.com/go-chi/cors"

	"mercator-hq/trackrelay/pkg/proxy"
)

// OriginRejectedMessage is returned when a request's Origin is not listed.
const OriginRejectedMessage = "Origin not allowed by CORS policy."

// CORSConfig contains configuration for CORS middleware.
type CORSConfig struct {
	// Enabled controls whether CORS is enabled.
	Enabled bool

	// AllowedOrigins is a list of allowed origins for CORS.
	// Use ["*"] to allow all origins.
	AllowedOrigins []string

	// AllowedMethods is a list of allowed HTTP methods.
	AllowedMethods []string

	// AllowedHeaders is a list of allowed HTTP headers.
	AllowedHeaders []string

	// ExposedHeaders is a list of headers exposed to clients.
	ExposedHeaders []string

	// MaxAge is the maximum age (in seconds) for preflight cache.
	MaxAge int

	// AllowCredentials controls whether credentials are allowed.
	AllowCredentials bool
}

// DefaultCORSConfig returns a default CORS configuration.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         600,
	}
}

// corsPolicy is one immutable snapshot of the CORS settings.
type corsPolicy struct {
	enabled  bool
	allowAll bool
	origins  map[string]struct{}
	headers  *cors.Cors
}

func newCORSPolicy(config *CORSConfig) *corsPolicy {
	p := &corsPolicy{
		enabled: config.Enabled,
		origins: make(map[string]struct{}, len(config.AllowedOrigins)),
	}
	for _, origin := range config.AllowedOrigins {
		if origin == "*" {
			p.allowAll = true
		}
		p.origins[origin] = struct{}{}
	}

	// Preflights pass through so the gate can answer them with 204.
	p.headers = cors.New(cors.Options{
		AllowedOrigins:     slices.Clone(config.AllowedOrigins),
		AllowedMethods:     slices.Clone(config.AllowedMethods),
		AllowedHeaders:     slices.Clone(config.AllowedHeaders),
		ExposedHeaders:     slices.Clone(config.ExposedHeaders),
		AllowCredentials:   config.AllowCredentials,
		MaxAge:             config.MaxAge,
		OptionsPassthrough: true,
	})
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if p.allowAll {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS is an origin allow-list gate in front of go-chi/cors. Requests
// without an Origin header pass untouched, listed origins receive CORS
// response headers, and anything else is refused with 403. The policy can
// be replaced at runtime with Update.
type CORS struct {
	policy atomic.Pointer[corsPolicy]
}

// NewCORS creates the gate with an initial configuration.
func NewCORS(config *CORSConfig) *CORS {
	c := &CORS{}
	c.Update(config)
	return c
}

// Update swaps in a new configuration. In-flight requests keep the policy
// they started with.
func (c *CORS) Update(config *CORSConfig) {
	if config == nil {
		config = DefaultCORSConfig()
	}
	c.policy.Store(newCORSPolicy(config))
}

// AllowedOrigins returns the current allow-list.
func (c *CORS) AllowedOrigins() []string {
	p := c.policy.Load()
	origins := make([]string, 0, len(p.origins))
	for origin := range p.origins {
		origins = append(origins, origin)
	}
	slices.Sort(origins)
	return origins
}

// Handler wraps next with the gate.
func (c *CORS) Handler(next http.Handler) http.Handler {
	preflight := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := c.policy.Load()
		if !p.enabled {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get(proxy.OriginHeader)
		if origin == "" {
			preflight.ServeHTTP(w, r)
			return
		}

		if !p.allows(origin) {
			slog.WarnContext(r.Context(), "origin rejected by CORS policy",
				"origin", origin,
				"path", r.URL.Path,
				"request_id", GetRequestID(r.Context()),
			)
			_ = proxy.WriteError(w, http.StatusForbidden, OriginRejectedMessage)
			return
		}

		p.headers.Handler(preflight).ServeHTTP(w, r)
	})
}

// CORSMiddleware returns a static CORS gate for config.
//
// Example usage:
//
//	handler = CORSMiddleware(DefaultCORSConfig())(handler)
func CORSMiddleware(config *CORSConfig) func(http.Handler) http.Handler {
	return NewCORS(config).Handler
}
