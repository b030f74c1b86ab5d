// Package metrics provides Prometheus metrics for the tracking relay.
//
// # Metrics
//
//   - <ns>_relay_requests_total{kind,code}: answered tracking requests
//   - <ns>_relay_request_duration_seconds{kind}: end-to-end duration
//   - <ns>_upstream_requests_total{result}: upstream calls
//   - <ns>_upstream_duration_seconds{result}: upstream round trip
//   - <ns>_upstream_credential_configured: 1 when the token is set
//   - <ns>_http_requests_total{method,route,code}: all routed requests
//   - <ns>_http_request_duration_seconds{method,route}
//   - <ns>_http_requests_in_flight
//
// The namespace defaults to "trackrelay". Order identifiers are never used
// as label values, and HTTP routes are labelled by chi pattern, so label
// cardinality is fixed.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	router.Use(collector.Middleware)
//	router.Handle(collector.Path(), collector.Handler())
//
//	collector.RecordOutcome("ok", 200, time.Since(start))
//
// When metrics are disabled every Record method returns immediately.
package metrics
