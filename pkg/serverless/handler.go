package serverless

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"mercator-hq/trackrelay/internal/app"
	"mercator-hq/trackrelay/pkg/config"
	"mercator-hq/trackrelay/pkg/proxy"
	"mercator-hq/trackrelay/pkg/proxy/middleware"
	"mercator-hq/trackrelay/pkg/relay"
	"mercator-hq/trackrelay/pkg/telemetry/health"
)

// Build information, set with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// MethodNotAllowedMessage is returned for methods other than GET and OPTIONS.
const MethodNotAllowedMessage = "Method not allowed."

var (
	initOnce sync.Once
	shared   http.Handler
	initErr  error
)

// Handler returns the process-wide handler, building it from the
// environment on first use.
func Handler() (http.Handler, error) {
	initOnce.Do(func() {
		cfg, err := config.FromEnv()
		if err != nil {
			initErr = err
			return
		}

		a, err := app.New(cfg, health.VersionInfo{
			Version:   Version,
			Commit:    Commit,
			BuildTime: BuildTime,
		}, app.Options{})
		if err != nil {
			initErr = err
			return
		}
		shared = NewHTTPHandler(a)
	})
	return shared, initErr
}

// ServeHTTP serves one request with the process-wide handler. A broken
// configuration is answered with a 500 server configuration error.
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h, err := Handler()
	if err != nil {
		writeInitError(w, r, err)
		return
	}
	h.ServeHTTP(w, r)
}

// writeInitError answers a request that arrived while the handler could not
// be built. An unreadable token file keeps the credential message; every
// other load failure gets the generic configuration message.
func writeInitError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "tracking relay is misconfigured",
		"kind", relay.KindServerConfiguration,
		"error", err,
	)

	msg := relay.MsgServerMisconfigured
	if errors.Is(err, config.ErrTokenFile) {
		msg = relay.MsgCredentialMissing
	}
	_ = proxy.WriteError(w, http.StatusInternalServerError, msg)
}

// NewHTTPHandler wraps the relay of a with the server's middleware. The
// platform routes by file, so every path reaches the relay.
func NewHTTPHandler(a *app.App) http.Handler {
	cors := middleware.NewCORS(&middleware.CORSConfig{
		Enabled:          a.Config.Server.CORS.Enabled,
		AllowedOrigins:   a.Config.Server.CORS.AllowedOrigins,
		AllowedMethods:   a.Config.Server.CORS.AllowedMethods,
		AllowedHeaders:   a.Config.Server.CORS.AllowedHeaders,
		ExposedHeaders:   a.Config.Server.CORS.ExposedHeaders,
		MaxAge:           a.Config.Server.CORS.MaxAge,
		AllowCredentials: a.Config.Server.CORS.AllowCredentials,
	})

	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET, OPTIONS")
			_ = proxy.WriteError(w, http.StatusMethodNotAllowed, MethodNotAllowedMessage)
			return
		}
		a.Relay.ServeHTTP(w, r)
	})

	h = cors.Handler(h)
	h = middleware.LoggingMiddleware(h)
	h = middleware.RequestIDMiddleware(h)
	h = middleware.RecoveryMiddleware(h)
	return h
}
