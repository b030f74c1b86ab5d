// Package tracing provides OpenTelemetry tracing for the relay.
//
// When telemetry.tracing.enabled is true, spans are exported over OTLP gRPC
// to telemetry.tracing.endpoint (or OTEL_EXPORTER_OTLP_ENDPOINT). Each
// tracking request produces:
//
//	GET /apps/parceltrack            server span (Middleware)
//	└── relay.track                  outcome kind and status
//	    └── upstream.fetch           upstream status, base URL
//
// An inbound traceparent header is honoured. Trace context is never
// injected into the upstream request, whose headers are fixed.
//
// When tracing is disabled, Noop is used and Middleware is a pass-through.
package tracing
