package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/trackrelay/pkg/proxy/middleware"
)

// Extract returns a context carrying the remote span described by the
// traceparent and baggage headers, if any.
func Extract(r *http.Request) *http.Request {
	ctx := Propagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	return r.WithContext(ctx)
}

// Middleware starts a server span for every request, continuing an inbound
// W3C trace when one is present. The span is renamed to the matched chi
// route once the handler returns. Trace context is not forwarded to the
// upstream API.
func (t *Tracer) Middleware(next http.Handler) http.Handler {
	if !t.enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = Extract(r)

		ctx, span := t.Start(r.Context(), r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(AttrMethod.String(r.Method)),
		)
		defer span.End()

		rec := middleware.NewStatusRecorder(w)
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.Status()
		span.SetAttributes(AttrStatusCode.Int(status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		if route := middleware.RoutePattern(r); route != "" {
			span.SetName(r.Method + " " + route)
			span.SetAttributes(AttrRoute.String(route))
		}
	})
}
