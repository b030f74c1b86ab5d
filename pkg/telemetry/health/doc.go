// Package health provides the liveness, readiness and version endpoints.
//
// # Endpoints
//
//   - /health: liveness, always 200 while the process runs
//   - /ready: readiness, 200 when every registered check passes, else 503
//   - /version: build information
//
// Liveness never depends on the upstream credential, so a relay started
// without UPSTREAM_API_TOKEN still answers /health. Readiness registers
// CredentialCheck so orchestrators can hold traffic back until the token
// is configured.
//
// # Usage
//
//	checker := health.New(cfg.Telemetry.Health.Message, cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("upstream_credential", health.CredentialCheck(client.Configured))
//
//	handlers := checker.CreateHandlers(version, commit, buildTime)
//	r.Get("/health", handlers.LivenessHandler)
//	r.Get("/ready", handlers.ReadinessHandler)
//	r.Get("/version", handlers.VersionHandler)
package health
