// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// This package implements middleware functions that handle common functionality
// across all HTTP requests: request ID generation, access logging, CORS
// allow-listing and panic recovery.
//
// # Middleware Chain
//
// The server installs the middleware in this order (outermost first):
//
//	Recovery -> RequestID -> Logging -> Tracing -> Metrics -> CORS -> router
//
// Rejected CORS requests are therefore still logged with their request ID.
//
// # Request ID
//
// RequestIDMiddleware keeps a client-supplied X-Request-ID or generates a
// UUID v4:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// The ID is stored in the request context (GetRequestID), echoed in the
// response headers and logged with every access log line.
//
// # Access log
//
// LoggingMiddleware writes one "request completed" line per request with the
// matched chi route (or the raw path when no router is involved), status,
// body size and latency. StatusRecorder is the response writer wrapper it
// uses; the HTTP metrics and server-span middleware use the same type.
//
// # CORS
//
// CORS is an allow-list gate in front of github.com/go-chi/cors:
//
//   - no Origin header: passed through (server-to-server callers, curl)
//   - listed Origin, or "*" in the list: CORS headers added, preflights answered 204
//   - any other Origin: 403 {"error":"Origin not allowed by CORS policy."}
//
// The allow-list can be swapped at runtime with (*CORS).Update, which the
// configuration watcher calls on reload.
//
// # Recovery
//
// RecoveryMiddleware converts panics into a 500 JSON error envelope. The
// stack trace is logged but never exposed to clients.
//
// # Thread Safety
//
// All middleware functions are safe for concurrent use.
package middleware
