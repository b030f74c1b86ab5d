package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// StatusRecorder wraps an http.ResponseWriter and remembers the status and
// body size written through it. The access log, HTTP metrics and server
// spans all read the outcome of a request from one.
type StatusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

// NewStatusRecorder wraps w.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w}
}

// WriteHeader records the first status and forwards it. Later calls are
// dropped.
func (sr *StatusRecorder) WriteHeader(code int) {
	if sr.status != 0 {
		return
	}
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *StatusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// Status returns the written status, 200 if the handler wrote nothing.
func (sr *StatusRecorder) Status() int {
	if sr.status == 0 {
		return http.StatusOK
	}
	return sr.status
}

// BytesWritten returns the number of body bytes written.
func (sr *StatusRecorder) BytesWritten() int {
	return sr.bytes
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *StatusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// RoutePattern returns the chi route matched for r, or "" when r did not
// pass through a chi router or matched nothing. Only meaningful once the
// router has handled r.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
