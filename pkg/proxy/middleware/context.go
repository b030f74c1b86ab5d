package middleware

type contextKey string

// RequestIDKey stores the unique request ID in the request context.
const RequestIDKey contextKey = "request_id"
