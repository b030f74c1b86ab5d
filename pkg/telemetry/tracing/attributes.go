package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanRelayTrack    = "relay.track"
	SpanUpstreamFetch = "upstream.fetch"
)

// Attribute keys for relay spans.
const (
	AttrOrderID        = attribute.Key("relay.order_id")
	AttrOutcomeKind    = attribute.Key("relay.outcome_kind")
	AttrStatusCode     = attribute.Key("http.response.status_code")
	AttrUpstreamURL    = attribute.Key("upstream.base_url")
	AttrUpstreamStatus = attribute.Key("upstream.status_code")
	AttrRequestID      = attribute.Key("relay.request_id")
	AttrRoute          = attribute.Key("http.route")
	AttrMethod         = attribute.Key("http.request.method")
)

// SetOutcomeAttributes records how a tracking request was answered.
func SetOutcomeAttributes(span trace.Span, kind string, status int) {
	span.SetAttributes(
		AttrOutcomeKind.String(kind),
		AttrStatusCode.Int(status),
	)
}

// SetUpstreamAttributes records an upstream reply.
func SetUpstreamAttributes(span trace.Span, baseURL string, status int) {
	attrs := []attribute.KeyValue{AttrUpstreamURL.String(baseURL)}
	if status > 0 {
		attrs = append(attrs, AttrUpstreamStatus.Int(status))
	}
	span.SetAttributes(attrs...)
}
