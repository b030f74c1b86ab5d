package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// LoggingMiddleware writes one access line per request once the handler has
// returned. The line carries the matched route pattern when the request went
// through the router, and the raw path otherwise. 5xx responses are logged at
// error level and 4xx at warn.
//
//	{"level":"WARN","msg":"request completed","method":"GET",
//	 "route":"/apps/parceltrack","status":400,"bytes":54,
//	 "latency_ms":0,"request_id":"550e8400-...","remote_addr":"10.0.0.7:51234"}
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewStatusRecorder(w)

		next.ServeHTTP(rec, r)

		status := rec.Status()
		attrs := []any{"method", r.Method}
		if route := RoutePattern(r); route != "" {
			attrs = append(attrs, "route", route)
		} else {
			attrs = append(attrs, "path", r.URL.Path)
		}
		attrs = append(attrs,
			"status", status,
			"bytes", rec.BytesWritten(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", GetRequestID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)

		slog.Log(r.Context(), accessLevel(status), "request completed", attrs...)
	})
}

func accessLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
