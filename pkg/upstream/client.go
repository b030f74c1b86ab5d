package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// OrderParam is the query parameter carrying the order identifier.
	OrderParam = "channel_order_no"

	// TokenHeader carries the upstream credential.
	TokenHeader = "access-token"

	// DefaultTimeout bounds a call when Config.Timeout is zero.
	DefaultTimeout = 15 * time.Second

	// MaxBodyBytes caps how much of an upstream body is kept. Longer bodies
	// are cut at this length and flagged with Response.Truncated.
	MaxBodyBytes = 8 << 20
)

// Config contains the settings for a Client.
type Config struct {
	// BaseURL is the tracking endpoint. Existing query parameters are kept.
	BaseURL string

	// Token is sent in the access-token header.
	Token string

	// Timeout bounds one call including reading the body.
	Timeout time.Duration

	// MaxIdleConns, MaxIdleConnsPerHost and IdleConnTimeout size the pool.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// Transport overrides the pooled transport. Used by tests.
	Transport http.RoundTripper
}

// Response is an upstream reply with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Truncated is set when the upstream sent more than MaxBodyBytes.
	Truncated bool
}

// Client performs tracking lookups against the upstream API.
type Client struct {
	base    *url.URL
	token   string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a client with connection pooling.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("upstream base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse upstream base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("upstream base URL %q must use http or https", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.IdleConnTimeout,
			ForceAttemptHTTP2:   true,
		}
	}

	return &Client{
		base:    base,
		token:   cfg.Token,
		timeout: timeout,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}, nil
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.token != ""
}

// BaseURL returns the configured tracking endpoint.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Timeout returns the per-call bound.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// BuildURL returns the tracking URL for orderID. The identifier is
// percent-encoded, with spaces as %20 rather than '+'.
func (c *Client) BuildURL(orderID string) string {
	u := *c.base
	param := OrderParam + "=" + strings.ReplaceAll(url.QueryEscape(orderID), "+", "%20")
	if u.RawQuery != "" {
		u.RawQuery += "&" + param
	} else {
		u.RawQuery = param
	}
	return u.String()
}

// Fetch issues one GET for orderID and returns the raw reply.
func (c *Client) Fetch(ctx context.Context, orderID string) (*Response, error) {
	target := c.BuildURL(orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{Op: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(TokenHeader, c.token)

	slog.DebugContext(ctx, "sending request to upstream",
		"url", target,
		"timeout", c.timeout.String(),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "request", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, &TransportError{Op: "read body", StatusCode: resp.StatusCode, Cause: err}
	}

	truncated := len(body) > MaxBodyBytes
	if truncated {
		body = body[:MaxBodyBytes]
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Truncated:  truncated,
	}, nil
}

// Close releases pooled connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
