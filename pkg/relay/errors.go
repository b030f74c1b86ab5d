package relay

import (
	"errors"
	"fmt"
	"net/http"

	"mercator-hq/trackrelay/pkg/upstream"
)

// Outcome kinds. Every response the relay produces carries exactly one.
const (
	KindOK                  = "ok"
	KindClientInput         = "client_input"
	KindServerConfiguration = "server_configuration"
	KindUpstreamContract    = "upstream_contract"
	KindUpstreamUnavailable = "upstream_unavailable"
)

// Messages returned to callers in the {"error": ...} envelope.
const (
	MsgMissingOrderID       = "Order ID (channel_order_no) is required."
	MsgCredentialMissing    = "Tracking service API token configuration error on server. Please contact support."
	MsgServerMisconfigured  = "Tracking service configuration error on server. Please contact support."
	MsgUpstreamUnavailable  = "Service Unavailable. Failed to connect to the tracking service via proxy."
	msgInvalidUpstreamReply = "Received an invalid response from the upstream tracking service. Status: %d"
)

var (
	// ErrMissingOrderID is returned when channel_order_no is absent or empty.
	ErrMissingOrderID = errors.New("order ID (channel_order_no) is required")

	// ErrCredentialMissing is returned when no upstream token is configured.
	ErrCredentialMissing = errors.New("upstream API token is not configured")

	// ErrUpstreamUnavailable is returned when the upstream could not be
	// reached or the relay failed before a reply was obtained.
	ErrUpstreamUnavailable = errors.New("upstream tracking service unavailable")

	// ErrBodyTooLarge is the ContractError cause when the upstream body is
	// longer than upstream.MaxBodyBytes.
	ErrBodyTooLarge = errors.New("upstream body exceeds size limit")
)

// ContractError reports an upstream reply whose body is not valid JSON.
type ContractError struct {
	// StatusCode is the upstream HTTP status; 0 when none was reported.
	StatusCode int

	// Cause is the decode failure.
	Cause error
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	return fmt.Sprintf("upstream returned an invalid body (status %d): %v", e.StatusCode, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ContractError) Unwrap() error {
	return e.Cause
}

// ResponseStatus is the status relayed to the caller: the upstream status,
// or 502 when the upstream reported none.
func (e *ContractError) ResponseStatus() int {
	if e.StatusCode == 0 {
		return http.StatusBadGateway
	}
	return e.StatusCode
}

// Message is the caller-facing error message.
func (e *ContractError) Message() string {
	return fmt.Sprintf(msgInvalidUpstreamReply, e.ResponseStatus())
}

// Kind classifies err. nil is KindOK; unrecognised errors are treated as
// the upstream being unavailable.
func Kind(err error) string {
	if err == nil {
		return KindOK
	}

	if errors.Is(err, ErrMissingOrderID) {
		return KindClientInput
	}
	if errors.Is(err, ErrCredentialMissing) {
		return KindServerConfiguration
	}

	var contractErr *ContractError
	if errors.As(err, &contractErr) {
		return KindUpstreamContract
	}

	return KindUpstreamUnavailable
}

// HTTPStatus maps err to the status returned to the caller.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if errors.Is(err, ErrMissingOrderID) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrCredentialMissing) {
		return http.StatusInternalServerError
	}

	var contractErr *ContractError
	if errors.As(err, &contractErr) {
		return contractErr.ResponseStatus()
	}

	return http.StatusServiceUnavailable
}

// Message maps err to the caller-facing error message.
func Message(err error) string {
	if errors.Is(err, ErrMissingOrderID) {
		return MsgMissingOrderID
	}
	if errors.Is(err, ErrCredentialMissing) {
		return MsgCredentialMissing
	}

	var contractErr *ContractError
	if errors.As(err, &contractErr) {
		return contractErr.Message()
	}

	return MsgUpstreamUnavailable
}

// upstreamResult labels an upstream call for metrics.
func upstreamResult(err error) string {
	if err == nil {
		return "response"
	}

	var transportErr *upstream.TransportError
	if errors.As(err, &transportErr) {
		switch {
		case transportErr.Timeout():
			return "timeout"
		case transportErr.Canceled():
			return "canceled"
		}
	}
	return "error"
}
