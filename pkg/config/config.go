package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure for the tracking relay.
// It is built once at startup and treated as read-only afterwards; only the
// boundary settings listed on Watcher are re-applied on reload.
type Config struct {
	// Server contains HTTP server configuration including listen port,
	// timeouts, and CORS settings.
	Server ServerConfig `yaml:"server"`

	// Upstream contains the tracking API target and credential.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Telemetry contains configuration for logging, metrics, and health.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the inbound HTTP server.
type ServerConfig struct {
	// Port is the TCP port to listen on. Ignored when ListenAddress is set.
	// Default: 3000
	Port int `yaml:"port"`

	// ListenAddress is an explicit "host:port" to bind, overriding Port.
	// Default: "" (all interfaces on Port)
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must exceed the upstream timeout.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains the caller origin allow-list.
	CORS CORSConfig `yaml:"cors"`
}

// Address returns the address the server binds to.
func (s ServerConfig) Address() string {
	if s.ListenAddress != "" {
		return s.ListenAddress
	}
	return fmt.Sprintf(":%d", s.Port)
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether the origin allow-list is enforced.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists origins permitted to call the relay.
	// Requests with an Origin header outside this list are rejected.
	// Use ["*"] to allow all origins.
	// Default: ["http://localhost:3000"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods for CORS requests.
	// Default: ["GET", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed request headers.
	// Default: ["Accept", "Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers that are exposed to the client.
	// Default: ["X-Request-ID"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 600
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls whether credentials are allowed.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// UpstreamConfig contains the fixed upstream tracking API settings.
type UpstreamConfig struct {
	// BaseURL is the tracking endpoint; the order ID is appended as the
	// channel_order_no query parameter.
	// Default: "https://app.parcelx.in/api/v1/track_order"
	BaseURL string `yaml:"base_url"`

	// Token is sent in the access-token header. Usually supplied through
	// UPSTREAM_API_TOKEN rather than the file. An empty token is allowed at
	// startup; tracking requests then fail with a configuration error.
	Token string `yaml:"token"`

	// TokenFile names a file holding the token, for mounted secrets. It is
	// read once at load time when Token is empty. The file must not be
	// readable by group or others.
	TokenFile string `yaml:"token_file"`

	// Timeout bounds a single upstream call including reading the body.
	// Default: 15s
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the connection pool size.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the per-host pool size.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle pooled connections are kept.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// TokenConfigured reports whether an upstream credential is present.
func (u UpstreamConfig) TokenConfigured() bool {
	return u.Token != ""
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "trackrelay"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets defines histogram buckets for upstream latency (seconds).
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Message is returned in the liveness response body.
	// Default: "Parcel tracking relay is running."
	Message string `yaml:"message"`

	// CheckTimeout is the timeout for individual readiness checks.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address.
	// When empty, OTEL_EXPORTER_OTLP_ENDPOINT or localhost:4317 is used.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the collector connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// ExportTimeout bounds a single span export.
	// Default: 10s
	ExportTimeout time.Duration `yaml:"export_timeout"`

	// ServiceName is the service name in traces.
	// Default: "trackrelay"
	ServiceName string `yaml:"service_name"`
}
