package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/trackrelay/internal/upstreamtest"
	"mercator-hq/trackrelay/pkg/upstream"
)

func newClient(t *testing.T, baseURL, token string, timeout time.Duration) *upstream.Client {
	t.Helper()
	client, err := upstream.NewClient(upstream.Config{
		BaseURL: baseURL,
		Token:   token,
		Timeout: timeout,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandler_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		target     string
		upstream   upstreamtest.MockResponse
		wantStatus int
		wantBody   string
		wantKind   string
		wantCalls  int
	}{
		{
			name:       "missing order id",
			token:      "secret",
			target:     "/apps/parceltrack",
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Order ID (channel_order_no) is required."}`,
			wantKind:   KindClientInput,
			wantCalls:  0,
		},
		{
			name:       "empty order id",
			token:      "secret",
			target:     "/apps/parceltrack?channel_order_no=",
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Order ID (channel_order_no) is required."}`,
			wantKind:   KindClientInput,
			wantCalls:  0,
		},
		{
			name:       "missing credential",
			token:      "",
			target:     "/apps/parceltrack?channel_order_no=A1",
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Tracking service API token configuration error on server. Please contact support."}`,
			wantKind:   KindServerConfiguration,
			wantCalls:  0,
		},
		{
			name:       "json passthrough",
			token:      "secret",
			target:     "/apps/parceltrack?channel_order_no=A1",
			upstream:   upstreamtest.MockResponse{StatusCode: http.StatusOK, Body: `{"status":"delivered"}`},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"delivered"}`,
			wantKind:   KindOK,
			wantCalls:  1,
		},
		{
			name:       "upstream error status passthrough",
			token:      "secret",
			target:     "/apps/parceltrack?channel_order_no=A1",
			upstream:   upstreamtest.MockResponse{StatusCode: http.StatusNotFound, Body: `{"error":"not found"}`},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"not found"}`,
			wantKind:   KindOK,
			wantCalls:  1,
		},
		{
			name:       "body bytes kept verbatim",
			token:      "secret",
			target:     "/apps/parceltrack?channel_order_no=A1",
			upstream:   upstreamtest.MockResponse{StatusCode: http.StatusOK, Body: "{ \"b\": 2,\n  \"a\": [1, 2] }"},
			wantStatus: http.StatusOK,
			wantBody:   "{ \"b\": 2,\n  \"a\": [1, 2] }",
			wantKind:   KindOK,
			wantCalls:  1,
		},
		{
			name:       "byte order mark stripped",
			token:      "secret",
			target:     "/apps/parceltrack?channel_order_no=A1",
			upstream:   upstreamtest.MockResponse{StatusCode: http.StatusOK, Body: "\xEF\xBB\xBF{\"status\":\"delivered\"}"},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"delivered"}`,
			wantKind:   KindOK,
			wantCalls:  1,
		},
		{
			name:       "non-json with success status",
			token:      "secret",
			target:     "/apps/parceltrack?channel_order_no=A1",
			upstream:   upstreamtest.MockResponse{StatusCode: http.StatusOK, Body: "not json at all"},
			wantStatus: http.StatusOK,
			wantBody:   `{"error":"Received an invalid response from the upstream tracking service. Status: 200"}`,
			wantKind:   KindUpstreamContract,
			wantCalls:  1,
		},
		{
			name:       "non-json gateway error",
			token:      "secret",
			target:     "/apps/parceltrack?channel_order_no=A1",
			upstream:   upstreamtest.MockResponse{StatusCode: http.StatusBadGateway, Body: "<html>Bad Gateway</html>"},
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"error":"Received an invalid response from the upstream tracking service. Status: 502"}`,
			wantKind:   KindUpstreamContract,
			wantCalls:  1,
		},
		{
			name:       "empty body",
			token:      "secret",
			target:     "/apps/parceltrack?channel_order_no=A1",
			upstream:   upstreamtest.MockResponse{StatusCode: http.StatusOK, Body: ""},
			wantStatus: http.StatusOK,
			wantBody:   `{"error":"Received an invalid response from the upstream tracking service. Status: 200"}`,
			wantKind:   KindUpstreamContract,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := upstreamtest.NewMockServer()
			defer mock.Close()
			if tt.upstream.StatusCode != 0 {
				mock.SetResponse(tt.upstream)
			}

			h := New(newClient(t, mock.URL(), tt.token, time.Second), WithLogger(quietLogger()))

			rec := serve(h, tt.target)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Body.String(); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if got := mock.RequestCount(); got != tt.wantCalls {
				t.Errorf("upstream calls = %d, want %d", got, tt.wantCalls)
			}

			out := h.Track(context.Background(), orderFromTarget(tt.target))
			if out.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", out.Kind, tt.wantKind)
			}
		})
	}
}

func orderFromTarget(target string) string {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return req.URL.Query().Get("channel_order_no")
}

func TestHandler_ConnectionFailure(t *testing.T) {
	h := New(newClient(t, upstreamtest.DeadURL(), "secret", time.Second), WithLogger(quietLogger()))

	rec := serve(h, "/apps/parceltrack?channel_order_no=A1")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	want := `{"error":"Service Unavailable. Failed to connect to the tracking service via proxy."}`
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestHandler_Timeout(t *testing.T) {
	mock := upstreamtest.NewMockServer()
	defer mock.Close()
	mock.SetResponse(upstreamtest.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"status":"late"}`,
		Delay:      2 * time.Second,
	})

	h := New(newClient(t, mock.URL(), "secret", 50*time.Millisecond), WithLogger(quietLogger()))

	out := h.Track(context.Background(), "A1")

	if out.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", out.StatusCode)
	}
	if out.Kind != KindUpstreamUnavailable {
		t.Errorf("Kind = %q, want %q", out.Kind, KindUpstreamUnavailable)
	}
	if got := upstreamResult(out.Err); got != "timeout" {
		t.Errorf("upstream result = %q, want timeout", got)
	}
}

func TestHandler_OutboundRequest(t *testing.T) {
	mock := upstreamtest.NewMockServer()
	defer mock.Close()

	h := New(newClient(t, mock.URL(), "secret-token", time.Second), WithLogger(quietLogger()))

	rec := serve(h, "/apps/parceltrack?channel_order_no=A%20B%26C")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	req, ok := mock.LastRequest()
	if !ok {
		t.Fatal("upstream received no request")
	}
	if req.Method != http.MethodGet {
		t.Errorf("method = %s, want GET", req.Method)
	}
	if req.RawQuery != "channel_order_no=A%20B%26C" {
		t.Errorf("RawQuery = %q, want channel_order_no=A%%20B%%26C", req.RawQuery)
	}
	if req.OrderID != "A B&C" {
		t.Errorf("decoded order ID = %q, want %q", req.OrderID, "A B&C")
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"Access-Token": "secret-token",
	}
	for name, want := range headers {
		if got := req.Header.Get(name); got != want {
			t.Errorf("header %s = %q, want %q", name, got, want)
		}
	}
	if got := req.Header.Get("Traceparent"); got != "" {
		t.Errorf("traceparent forwarded upstream: %q", got)
	}
}

func TestHandler_Idempotent(t *testing.T) {
	mock := upstreamtest.NewMockServer()
	defer mock.Close()
	mock.SetResponse(upstreamtest.MockResponse{StatusCode: http.StatusOK, Body: `{"status":"in_transit"}`})

	h := New(newClient(t, mock.URL(), "secret", time.Second), WithLogger(quietLogger()))

	first := serve(h, "/apps/parceltrack?channel_order_no=A1")
	second := serve(h, "/apps/parceltrack?channel_order_no=A1")

	if first.Code != second.Code || first.Body.String() != second.Body.String() {
		t.Errorf("responses differ: %d %q vs %d %q",
			first.Code, first.Body.String(), second.Code, second.Body.String())
	}
	if mock.RequestCount() != 2 {
		t.Errorf("upstream calls = %d, want one per request", mock.RequestCount())
	}
}

func TestHandler_Concurrent(t *testing.T) {
	mock := upstreamtest.NewMockServer()
	defer mock.Close()
	mock.SetResponse(upstreamtest.MockResponse{StatusCode: http.StatusOK, Body: `{"ok":true}`})

	h := New(newClient(t, mock.URL(), "secret", time.Second), WithLogger(quietLogger()))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if out := h.Track(context.Background(), "A1"); out.StatusCode != http.StatusOK {
				t.Errorf("StatusCode = %d, want 200", out.StatusCode)
			}
		}()
	}
	wg.Wait()

	if mock.RequestCount() != n {
		t.Errorf("upstream calls = %d, want %d", mock.RequestCount(), n)
	}
}

func TestHandler_OversizedBody(t *testing.T) {
	mock := upstreamtest.NewMockServer()
	defer mock.Close()
	// A cut-off run of digits is still a valid JSON number.
	mock.SetResponse(upstreamtest.MockResponse{
		StatusCode: http.StatusOK,
		Body:       strings.Repeat("1", upstream.MaxBodyBytes+10),
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	h := New(newClient(t, mock.URL(), "secret", 5*time.Second), WithLogger(logger))

	rec := serve(h, "/apps/parceltrack?channel_order_no=A1")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	want := `{"error":"Received an invalid response from the upstream tracking service. Status: 200"}`
	if rec.Body.String() != want {
		t.Errorf("body = %.80q, want %q", rec.Body.String(), want)
	}
	if !strings.Contains(buf.String(), "upstream body exceeds size limit") {
		t.Errorf("size limit not logged: %.200s", buf.String())
	}

	out := h.Track(context.Background(), "A1")
	if out.Kind != KindUpstreamContract {
		t.Errorf("Kind = %q, want %q", out.Kind, KindUpstreamContract)
	}
	if !errors.Is(out.Err, ErrBodyTooLarge) {
		t.Errorf("Err = %v, want ErrBodyTooLarge", out.Err)
	}
}

type panicFetcher struct{}

func (panicFetcher) Fetch(context.Context, string) (*upstream.Response, error) {
	panic("boom")
}
func (panicFetcher) Configured() bool { return true }
func (panicFetcher) BaseURL() string  { return "https://upstream.test/track" }

func TestHandler_RecoversPanic(t *testing.T) {
	h := New(panicFetcher{}, WithLogger(quietLogger()))

	out := h.Track(context.Background(), "A1")

	if out.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", out.StatusCode)
	}
	if out.Kind != KindUpstreamUnavailable {
		t.Errorf("Kind = %q, want %q", out.Kind, KindUpstreamUnavailable)
	}
	if string(out.Body) != `{"error":"Service Unavailable. Failed to connect to the tracking service via proxy."}` {
		t.Errorf("Body = %s", out.Body)
	}
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []string
	upstream []string
}

func (r *fakeRecorder) RecordOutcome(kind string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, kind+":"+http.StatusText(status))
}

func (r *fakeRecorder) RecordUpstream(result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upstream = append(r.upstream, result)
}

func TestHandler_RecordsMetrics(t *testing.T) {
	mock := upstreamtest.NewMockServer()
	defer mock.Close()

	recorder := &fakeRecorder{}
	h := New(newClient(t, mock.URL(), "secret", time.Second),
		WithLogger(quietLogger()),
		WithRecorder(recorder),
	)

	h.Track(context.Background(), "")
	h.Track(context.Background(), "A1")

	wantOutcomes := []string{"client_input:Bad Request", "ok:OK"}
	if strings.Join(recorder.outcomes, ",") != strings.Join(wantOutcomes, ",") {
		t.Errorf("outcomes = %v, want %v", recorder.outcomes, wantOutcomes)
	}
	if len(recorder.upstream) != 1 || recorder.upstream[0] != "response" {
		t.Errorf("upstream results = %v, want [response]", recorder.upstream)
	}
}

func TestHandler_LogsOneLinePerRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	h := New(newClient(t, "http://unused.invalid/track", "", time.Second), WithLogger(logger))

	h.Track(context.Background(), "A1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("logged %d lines, want 1: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
	if entry["kind"] != KindServerConfiguration {
		t.Errorf("kind = %v, want %s", entry["kind"], KindServerConfiguration)
	}
	if entry["order_id"] != "A1" {
		t.Errorf("order_id = %v, want A1", entry["order_id"])
	}
	if entry["upstream"] != "http://unused.invalid/track" {
		t.Errorf("upstream = %v", entry["upstream"])
	}
}

func TestHandler_Spans(t *testing.T) {
	mock := upstreamtest.NewMockServer()
	defer mock.Close()
	mock.SetResponse(upstreamtest.MockResponse{StatusCode: http.StatusNotFound, Body: `{"error":"not found"}`})

	exporter := tracetest.NewInMemoryExporter()
	provider := trace.NewTracerProvider(trace.WithSyncer(exporter))
	defer provider.Shutdown(context.Background())

	h := New(newClient(t, mock.URL(), "secret", time.Second),
		WithLogger(quietLogger()),
		WithTracer(provider.Tracer("test")),
	)
	h.Track(context.Background(), "A1")

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("exported %d spans, want 2", len(spans))
	}
	if spans[0].Name != "upstream.fetch" || spans[1].Name != "relay.track" {
		t.Errorf("span names = %q, %q", spans[0].Name, spans[1].Name)
	}
}
