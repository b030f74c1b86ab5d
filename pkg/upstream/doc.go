// Package upstream is the HTTP client for the tracking API the relay fronts.
//
// A Client owns one pooled http.Client for the life of the process and makes
// exactly one GET per Fetch call; there are no retries. Every call is bounded
// by the configured timeout and by the caller's context, so a caller that
// disconnects cancels the outbound request.
//
//	client, err := upstream.NewClient(upstream.Config{
//	    BaseURL: "https://app.parcelx.in/api/v1/track_order",
//	    Token:   os.Getenv("UPSTREAM_API_TOKEN"),
//	    Timeout: 15 * time.Second,
//	})
//	resp, err := client.Fetch(ctx, "ORD-1001")
//
// Fetch returns the status code and the raw body without decoding it. When no
// HTTP response could be obtained, or its body could not be read, the error
// is a *TransportError.
package upstream
