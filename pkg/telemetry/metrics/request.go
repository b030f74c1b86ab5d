package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/trackrelay/pkg/config"
)

// RelayMetrics tracks tracking-request outcomes and the upstream calls
// behind them. Order identifiers are never used as labels.
//
// Metrics:
//   - trackrelay_relay_requests_total: answered requests by kind and code
//   - trackrelay_relay_request_duration_seconds: end-to-end duration by kind
//   - trackrelay_upstream_requests_total: upstream calls by result
//   - trackrelay_upstream_duration_seconds: upstream round trip by result
//   - trackrelay_upstream_credential_configured: 1 when the token is set
type RelayMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	upstreamTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec

	credentialConfigured prometheus.Gauge
}

// NewRelayMetrics creates and registers relay metrics with the provided registry.
func NewRelayMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RelayMetrics {
	rm := &RelayMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "relay",
				Name:      "requests_total",
				Help:      "Total number of tracking requests answered, by outcome kind and status code",
			},
			[]string{"kind", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "relay",
				Name:      "request_duration_seconds",
				Help:      "Duration of tracking requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"kind"},
		),

		upstreamTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of calls made to the upstream tracking API",
			},
			[]string{"result"},
		),

		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "duration_seconds",
				Help:      "Upstream tracking API round trip in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"result"},
		),

		credentialConfigured: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "credential_configured",
				Help:      "1 when the upstream API token is configured, 0 otherwise",
			},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.upstreamTotal,
		rm.upstreamDuration,
		rm.credentialConfigured,
	)

	return rm
}

// RecordOutcome records an answered request.
func (rm *RelayMetrics) RecordOutcome(kind, code string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(kind, code).Inc()
	rm.requestDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordUpstream records an upstream call.
func (rm *RelayMetrics) RecordUpstream(result string, latency time.Duration) {
	rm.upstreamTotal.WithLabelValues(result).Inc()
	rm.upstreamDuration.WithLabelValues(result).Observe(latency.Seconds())
}

// SetCredentialConfigured sets the credential gauge.
func (rm *RelayMetrics) SetCredentialConfigured(configured bool) {
	if configured {
		rm.credentialConfigured.Set(1)
		return
	}
	rm.credentialConfigured.Set(0)
}
