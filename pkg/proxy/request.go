package proxy

import (
	"net/http"
)

// Header and query parameter names used by the relay.
const (
	// RequestIDHeader carries the per-request correlation ID.
	RequestIDHeader = "X-Request-ID"

	// OriginHeader is checked by the CORS gate.
	OriginHeader = "Origin"

	// OrderIDParam is the inbound query parameter naming the order.
	OrderIDParam = "channel_order_no"
)

// ExtractOrderID returns the channel_order_no query value, or "" when it is
// absent. Only the first value is used when the parameter repeats.
func ExtractOrderID(r *http.Request) string {
	return r.URL.Query().Get(OrderIDParam)
}

// ExtractRequestID extracts the request ID from the X-Request-ID header.
// If the header is not present, it returns an empty string.
//
// This allows clients to provide their own request IDs for correlation.
// If not provided, the middleware will generate one.
func ExtractRequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}
