package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/trackrelay/pkg/proxy"
	"mercator-hq/trackrelay/pkg/proxy/middleware"
	"mercator-hq/trackrelay/pkg/telemetry/tracing"
	"mercator-hq/trackrelay/pkg/upstream"
)

// bodyLogPrefix is how much of an unparseable upstream body is logged.
const bodyLogPrefix = 256

var utf8BOM = []byte("\xEF\xBB\xBF")

// Fetcher performs the single upstream call. *upstream.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, orderID string) (*upstream.Response, error)
	Configured() bool
	BaseURL() string
}

// Recorder receives one observation per request. *metrics.Collector
// implements it.
type Recorder interface {
	RecordOutcome(kind string, status int, duration time.Duration)
	RecordUpstream(result string, latency time.Duration)
}

// Outcome is the response the relay sends for one tracking request.
type Outcome struct {
	// StatusCode is the HTTP status for the caller.
	StatusCode int

	// Body is the JSON body: the upstream reply verbatim or an error envelope.
	Body json.RawMessage

	// Kind is one of the Kind constants.
	Kind string

	// Err is the classified failure, nil for KindOK.
	Err error
}

// Handler relays tracking lookups to the upstream API. It is safe for
// concurrent use.
type Handler struct {
	client   Fetcher
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
	now      func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger. Defaults to slog.Default at call time.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(h *Handler) {
		if recorder != nil {
			h.recorder = recorder
		}
	}
}

// WithTracer sets the tracer used for relay and upstream spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(h *Handler) {
		if tracer != nil {
			h.tracer = tracer
		}
	}
}

// New creates a Handler around client.
func New(client Fetcher, opts ...Option) *Handler {
	h := &Handler{
		client:   client,
		recorder: nopRecorder{},
		tracer:   noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP handles GET /apps/parceltrack?channel_order_no=<id>.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	out := h.Track(r.Context(), proxy.ExtractOrderID(r))

	if err := proxy.WriteRawJSON(w, out.StatusCode, out.Body); err != nil {
		h.log().DebugContext(r.Context(), "failed to write tracking response",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
	}
}

// Track answers one tracking request. It makes at most one upstream call and
// always returns an Outcome, including when the relay itself panics.
func (h *Handler) Track(ctx context.Context, orderID string) (out *Outcome) {
	start := h.now()

	ctx, span := h.tracer.Start(ctx, tracing.SpanRelayTrack,
		trace.WithAttributes(tracing.AttrOrderID.String(orderID)),
	)
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			h.log().ErrorContext(ctx, "panic while relaying tracking request",
				"request_id", middleware.GetRequestID(ctx),
				"order_id", orderID,
				"panic", fmt.Sprint(rec),
			)
			out = failure(fmt.Errorf("%w: panic: %v", ErrUpstreamUnavailable, rec))
		}

		tracing.SetOutcomeAttributes(span, out.Kind, out.StatusCode)
		if out.Err != nil && out.Kind != KindClientInput {
			tracing.SetError(span, out.Err)
		}

		duration := h.now().Sub(start)
		h.recorder.RecordOutcome(out.Kind, out.StatusCode, duration)
		h.logOutcome(ctx, orderID, out, duration)
	}()

	if orderID == "" {
		return failure(ErrMissingOrderID)
	}
	if !h.client.Configured() {
		return failure(ErrCredentialMissing)
	}

	resp, err := h.fetch(ctx, orderID)
	if err != nil {
		return failure(fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err))
	}

	if resp.Truncated {
		h.log().WarnContext(ctx, "upstream body exceeds size limit",
			"request_id", middleware.GetRequestID(ctx),
			"order_id", orderID,
			"upstream_status", resp.StatusCode,
			"limit_bytes", upstream.MaxBodyBytes,
		)
		return failure(&ContractError{StatusCode: resp.StatusCode, Cause: ErrBodyTooLarge})
	}

	// A leading byte order mark is not part of the JSON text.
	body := bytes.TrimPrefix(resp.Body, utf8BOM)

	if !json.Valid(body) {
		contractErr := &ContractError{
			StatusCode: resp.StatusCode,
			Cause:      errors.New("body is not valid JSON"),
		}
		h.log().WarnContext(ctx, "upstream returned a non-JSON body",
			"request_id", middleware.GetRequestID(ctx),
			"order_id", orderID,
			"upstream_status", resp.StatusCode,
			"body_prefix", prefix(body, bodyLogPrefix),
		)
		return failure(contractErr)
	}

	return &Outcome{
		StatusCode: resp.StatusCode,
		Body:       json.RawMessage(body),
		Kind:       KindOK,
	}
}

// fetch performs the upstream call inside its own span.
func (h *Handler) fetch(ctx context.Context, orderID string) (*upstream.Response, error) {
	ctx, span := h.tracer.Start(ctx, tracing.SpanUpstreamFetch,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	start := h.now()
	resp, err := h.client.Fetch(ctx, orderID)
	h.recorder.RecordUpstream(upstreamResult(err), h.now().Sub(start))

	if err != nil {
		tracing.SetUpstreamAttributes(span, h.client.BaseURL(), 0)
		tracing.SetError(span, err)
		return nil, err
	}

	tracing.SetUpstreamAttributes(span, h.client.BaseURL(), resp.StatusCode)
	return resp, nil
}

func (h *Handler) logOutcome(ctx context.Context, orderID string, out *Outcome, duration time.Duration) {
	attrs := []any{
		"request_id", middleware.GetRequestID(ctx),
		"order_id", orderID,
		"upstream", h.client.BaseURL(),
		"kind", out.Kind,
		"status", out.StatusCode,
		"duration_ms", duration.Milliseconds(),
	}
	if out.Err != nil {
		attrs = append(attrs, "error", out.Err)
	}

	switch out.Kind {
	case KindOK:
		h.log().InfoContext(ctx, "tracking request relayed", attrs...)
	case KindClientInput, KindUpstreamContract:
		h.log().WarnContext(ctx, "tracking request rejected", attrs...)
	default:
		h.log().ErrorContext(ctx, "tracking request failed", attrs...)
	}
}

func (h *Handler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

// failure builds the error Outcome for err.
func failure(err error) *Outcome {
	return &Outcome{
		StatusCode: HTTPStatus(err),
		Body:       proxy.MarshalError(Message(err)),
		Kind:       Kind(err),
		Err:        err,
	}
}

func prefix(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

type nopRecorder struct{}

func (nopRecorder) RecordOutcome(string, int, time.Duration) {}
func (nopRecorder) RecordUpstream(string, time.Duration)     {}
