package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TransportError reports that no usable HTTP response was obtained from the
// upstream: DNS, connection, TLS, timeout, or a body that could not be read.
type TransportError struct {
	// Op is the failing step ("build request", "request", "read body").
	Op string

	// StatusCode is set when headers arrived but the body read failed.
	StatusCode int

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %s failed (status %d): %v", e.Op, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the failure was the call running out of time.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Cause, &netErr) && netErr.Timeout()
}

// Canceled reports whether the caller went away before the call finished.
func (e *TransportError) Canceled() bool {
	return errors.Is(e.Cause, context.Canceled)
}
