package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/trackrelay/pkg/config"
)

// Collector owns every Prometheus metric the relay exports. All Record
// methods are no-ops when metrics are disabled, and none of them can fail.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	relayMetrics *RelayMetrics
	httpMetrics  *HTTPMetrics
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created
// with the Go runtime and process collectors registered.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "trackrelay",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c := *cfg
	if c.Namespace == "" {
		c.Namespace = config.DefaultMetricsNamespace
	}
	if len(c.RequestDurationBuckets) == 0 {
		c.RequestDurationBuckets = prometheus.DefBuckets
	}

	return &Collector{
		config:       &c,
		registry:     registry,
		relayMetrics: NewRelayMetrics(&c, registry),
		httpMetrics:  NewHTTPMetrics(&c, registry),
	}
}

// Enabled reports whether observations are recorded.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// RecordOutcome records one answered tracking request.
//
// Parameters:
//   - kind: outcome kind ("ok", "client_input", "server_configuration",
//     "upstream_contract", "upstream_unavailable")
//   - status: HTTP status returned to the caller
//   - duration: time from receipt to response
//
// Example:
//
//	collector.RecordOutcome("ok", 200, 420*time.Millisecond)
func (c *Collector) RecordOutcome(kind string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.relayMetrics.RecordOutcome(kind, strconv.Itoa(status), duration)
}

// RecordUpstream records one upstream call.
//
// Parameters:
//   - result: "response" when an HTTP response was read, otherwise
//     "timeout", "canceled" or "error"
//   - latency: round trip including body read
func (c *Collector) RecordUpstream(result string, latency time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.relayMetrics.RecordUpstream(result, latency)
}

// RecordHTTPRequest records one HTTP request served by the router.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.httpMetrics.RecordRequest(method, route, strconv.Itoa(status), duration)
}

// SetCredentialConfigured exports whether the upstream credential is set.
func (c *Collector) SetCredentialConfigured(configured bool) {
	if !c.config.Enabled {
		return
	}

	c.relayMetrics.SetCredentialConfigured(configured)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Path returns the HTTP path the metrics endpoint is mounted on.
func (c *Collector) Path() string {
	if c.config.Path == "" {
		return config.DefaultMetricsPath
	}
	return c.config.Path
}
