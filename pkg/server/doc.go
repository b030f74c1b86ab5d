// Package server runs the tracking relay as a long-lived HTTP server.
//
// Routes:
//
//	GET /apps/parceltrack?channel_order_no=<id>   tracking relay
//	GET /health                                   liveness
//	GET /ready                                    readiness (503 without credential)
//	GET /version                                  build information
//	GET /metrics                                  Prometheus exposition, when enabled
//
// Unknown paths answer 404 and other methods 405, both as JSON error
// envelopes. Start serves until its context is cancelled and then drains
// in-flight requests for up to server.shutdown_timeout.
package server
