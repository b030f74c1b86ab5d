// Package telemetry groups the observability packages of the tracking relay.
//
// # Components
//
//   - logging: structured slog logging with credential redaction
//   - metrics: Prometheus counters and histograms per outcome kind
//   - tracing: optional OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness, readiness and version endpoints
//
// Telemetry never influences a tracking response. A failing exporter or a
// disabled collector only loses observations.
//
// Order identifiers are logged and traced but never used as metric labels.
package telemetry
