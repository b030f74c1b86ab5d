package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/trackrelay/pkg/config"
	"mercator-hq/trackrelay/pkg/proxy/middleware"
)

// unmatchedRoute labels requests that matched no route, so arbitrary paths
// cannot grow the label set.
const unmatchedRoute = "unmatched"

// HTTPMetrics tracks requests served by the router, labelled by route
// pattern rather than raw path.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// NewHTTPMetrics creates and registers HTTP metrics with the provided registry.
func NewHTTPMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"method", "route"},
		),

		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
	}

	registry.MustRegister(hm.requestsTotal, hm.requestDuration, hm.inFlight)

	return hm
}

// RecordRequest records a served request.
func (hm *HTTPMetrics) RecordRequest(method, route, code string, duration time.Duration) {
	hm.requestsTotal.WithLabelValues(method, route, code).Inc()
	hm.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware records HTTP metrics for every request passing through a chi
// router. The route label is the matched chi pattern, resolved after the
// handler ran.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		c.httpMetrics.inFlight.Inc()
		defer c.httpMetrics.inFlight.Dec()

		start := time.Now()
		rec := middleware.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		route := middleware.RoutePattern(r)
		if route == "" {
			route = unmatchedRoute
		}

		c.RecordHTTPRequest(r.Method, route, rec.Status(), time.Since(start))
	})
}
