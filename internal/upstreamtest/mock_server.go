// Package upstreamtest provides a fake tracking API for tests.
package upstreamtest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a mock tracking API. It records every request it receives
// and answers with the configured MockResponse.
type MockServer struct {
	server   *httptest.Server
	response MockResponse
	requests []RecordedRequest
	mu       sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
	Headers    map[string]string
}

// RecordedRequest is what the mock saw for one call.
type RecordedRequest struct {
	Method   string
	RawQuery string
	OrderID  string
	Header   http.Header
}

// NewMockServer creates a mock server answering 200 with an empty JSON object.
func NewMockServer() *MockServer {
	ms := &MockServer{
		response: MockResponse{StatusCode: http.StatusOK, Body: `{}`},
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock tracking endpoint.
func (ms *MockServer) URL() string {
	return ms.server.URL + "/api/v1/track_order"
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse sets the response for subsequent requests.
func (ms *MockServer) SetResponse(response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.response = response
}

// RequestCount returns the number of requests received.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.requests)
}

// Requests returns a copy of the recorded requests.
func (ms *MockServer) Requests() []RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	out := make([]RecordedRequest, len(ms.requests))
	copy(out, ms.requests)
	return out
}

// LastRequest returns the most recent request, or false if none arrived.
func (ms *MockServer) LastRequest() (RecordedRequest, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.requests) == 0 {
		return RecordedRequest{}, false
	}
	return ms.requests[len(ms.requests)-1], true
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	ms.requests = append(ms.requests, RecordedRequest{
		Method:   r.Method,
		RawQuery: r.URL.RawQuery,
		OrderID:  r.URL.Query().Get("channel_order_no"),
		Header:   r.Header.Clone(),
	})
	response := ms.response
	ms.mu.Unlock()

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(response.StatusCode)
	_, _ = w.Write([]byte(response.Body))
}

// DeadURL returns the URL of a server that has already been shut down, so
// connecting to it fails.
func DeadURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/api/v1/track_order"
	srv.Close()
	return url
}
