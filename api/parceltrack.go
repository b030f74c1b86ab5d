// Package handler is the Vercel Go function for /api/parceltrack.
package handler

import (
	"net/http"

	"mercator-hq/trackrelay/pkg/serverless"
)

// Handler is the entry point for Vercel's Go runtime.
func Handler(w http.ResponseWriter, r *http.Request) {
	serverless.ServeHTTP(w, r)
}
