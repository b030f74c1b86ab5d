package serverless

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"mercator-hq/trackrelay/pkg/proxy"
)

// LambdaHandler is the function signature lambda.Start accepts.
type LambdaHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// NewLambdaHandler adapts h to API Gateway proxy events. The event is
// rebuilt as an *http.Request so the HTTP and function paths share every
// behaviour, including CORS and request IDs.
func NewLambdaHandler(h http.Handler) LambdaHandler {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		req, err := toHTTPRequest(ctx, event)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}

		rw := newBufferedResponse()
		h.ServeHTTP(rw, req)
		return rw.toProxyResponse(), nil
	}
}

// toHTTPRequest converts an API Gateway event into a server request.
func toHTTPRequest(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	method := event.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}
	path := event.Path
	if path == "" {
		path = "/"
	}

	u := &url.URL{Path: path, RawQuery: queryValues(event).Encode()}

	req, err := http.NewRequestWithContext(ctx, method, u.RequestURI(), strings.NewReader(event.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request from event: %w", err)
	}
	req.RequestURI = u.RequestURI()

	for name, values := range event.MultiValueHeaders {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	for name, v := range event.Headers {
		if req.Header.Get(name) == "" {
			req.Header.Set(name, v)
		}
	}
	if req.Header.Get(proxy.RequestIDHeader) == "" && event.RequestContext.RequestID != "" {
		req.Header.Set(proxy.RequestIDHeader, event.RequestContext.RequestID)
	}
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	}
	req.RemoteAddr = event.RequestContext.Identity.SourceIP

	return req, nil
}

// queryValues prefers the multi-value map, which API Gateway fills when
// the function is configured for it.
func queryValues(event events.APIGatewayProxyRequest) url.Values {
	values := url.Values{}
	if len(event.MultiValueQueryStringParameters) > 0 {
		for k, vs := range event.MultiValueQueryStringParameters {
			for _, v := range vs {
				values.Add(k, v)
			}
		}
		return values
	}
	for k, v := range event.QueryStringParameters {
		values.Set(k, v)
	}
	return values
}

// bufferedResponse collects a handler's response for a proxy event reply.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header)}
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) toProxyResponse() events.APIGatewayProxyResponse {
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}

	headers := make(map[string]string, len(b.header))
	multi := make(map[string][]string, len(b.header))
	for name, values := range b.header {
		if len(values) == 0 {
			continue
		}
		headers[name] = values[0]
		multi[name] = values
	}

	return events.APIGatewayProxyResponse{
		StatusCode:        status,
		Headers:           headers,
		MultiValueHeaders: multi,
		Body:              b.body.String(),
	}
}
