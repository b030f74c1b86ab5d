// Package config provides configuration management for the tracking relay.
//
// Configuration comes from built-in defaults, an optional YAML file, an
// optional dotenv file and the process environment, in that order of
// increasing precedence:
//
//	cfg, err := config.Load(config.Options{Path: "trackrelay.yaml"})
//
// # Environment Variables
//
//   - PORT: listen port (default 3000)
//   - UPSTREAM_API_URL_BASE: tracking endpoint (default https://app.parcelx.in/api/v1/track_order)
//   - UPSTREAM_API_TOKEN: access-token credential; may be empty at startup
//   - UPSTREAM_API_TOKEN_FILE: file holding the credential, read when UPSTREAM_API_TOKEN is empty
//   - UPSTREAM_TIMEOUT: bound on one upstream call, e.g. "15s"
//   - CORS_ALLOWED_ORIGINS: comma-separated caller origins
//   - LOG_LEVEL, LOG_FORMAT, METRICS_ENABLED, TRACING_ENABLED
//
// Variables set in the process environment win over the dotenv file.
//
// # Validation
//
// Validation collects every problem and reports them together:
//
//	configuration validation failed with 2 errors:
//	  - upstream.base_url: URL scheme must be http or https
//	  - telemetry.logging.level: invalid logging level "loud": ...
//
// A missing upstream token is deliberately not a validation error; the relay
// starts, logs a warning, and answers tracking requests with a configuration
// error until the token is supplied.
//
// # Example Configuration
//
//	server:
//	  port: 3000
//	  cors:
//	    allowed_origins:
//	      - "https://shop.example.com"
//
//	upstream:
//	  base_url: "https://app.parcelx.in/api/v1/track_order"
//	  timeout: "15s"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Reloading
//
// Watcher re-reads the file on change. Callers apply only the CORS allow-list
// and the log level from a reload.
package config
