package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/trackrelay/pkg/proxy"
)

// InternalErrorMessage is returned to clients when a handler panics.
const InternalErrorMessage = "An internal error occurred. Please try again later."

// RecoveryMiddleware recovers from panics in HTTP handlers and returns a 500
// JSON error envelope. The panic and stack trace are logged, never sent.
//
// The relay endpoint recovers its own panics and answers 503; this layer
// covers the remaining routes.
//
// Example usage:
//
//	handler = RecoveryMiddleware(handler)
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}

				slog.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"request_id", GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				_ = proxy.WriteError(w, http.StatusInternalServerError, InternalErrorMessage)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
