// Package app assembles the relay components from a configuration. The
// server binary and the serverless entry points share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/trackrelay/pkg/config"
	"mercator-hq/trackrelay/pkg/relay"
	"mercator-hq/trackrelay/pkg/telemetry/health"
	"mercator-hq/trackrelay/pkg/telemetry/logging"
	"mercator-hq/trackrelay/pkg/telemetry/metrics"
	"mercator-hq/trackrelay/pkg/telemetry/tracing"
	"mercator-hq/trackrelay/pkg/upstream"
)

// CredentialCheckName is the readiness check for the upstream token.
const CredentialCheckName = "upstream_credential"

// Options tune assembly. The zero value is production behaviour.
type Options struct {
	// LogWriter receives log output. Defaults to stdout.
	LogWriter io.Writer

	// Registry receives metrics. Defaults to a fresh registry with the Go
	// and process collectors.
	Registry *prometheus.Registry

	// KeepDefaultLogger leaves slog.Default untouched.
	KeepDefaultLogger bool
}

// App holds the wired components.
type App struct {
	Config  *config.Config
	Logger  *logging.Logger
	Client  *upstream.Client
	Relay   *relay.Handler
	Health  *health.Checker
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Version health.VersionInfo
}

// New builds every component from cfg. A missing upstream token is not an
// error; it is logged and reported by readiness.
func New(cfg *config.Config, version health.VersionInfo, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Secrets:   []string{cfg.Upstream.Token},
		Writer:    opts.LogWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if !opts.KeepDefaultLogger {
		slog.SetDefault(logger.Slog())
	}

	client, err := upstream.NewClient(upstream.Config{
		BaseURL:             cfg.Upstream.BaseURL,
		Token:               cfg.Upstream.Token,
		Timeout:             cfg.Upstream.Timeout,
		MaxIdleConns:        cfg.Upstream.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Upstream.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Upstream.IdleConnTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version.Version)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, opts.Registry)
	collector.SetCredentialConfigured(client.Configured())

	checker := health.New(cfg.Telemetry.Health.Message, cfg.Telemetry.Health.CheckTimeout)
	checker.RegisterCheck(CredentialCheckName, health.CredentialCheck(client.Configured))

	handler := relay.New(client,
		relay.WithLogger(logger.Slog()),
		relay.WithRecorder(collector),
		relay.WithTracer(tracer.Tracer()),
	)

	if !client.Configured() {
		logger.Slog().Warn("upstream API token is not configured; tracking requests will fail until "+config.EnvUpstreamToken+" is set",
			"kind", relay.KindServerConfiguration,
		)
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Client:  client,
		Relay:   handler,
		Health:  checker,
		Metrics: collector,
		Tracer:  tracer,
		Version: version,
	}, nil
}

// ApplyReload re-applies the reloadable logging settings. The upstream
// target and credential keep their startup values.
func (a *App) ApplyReload(cfg *config.Config) {
	if err := a.Logger.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
		a.Logger.Slog().Warn("ignoring invalid log level on reload", "error", err)
	} else {
		a.Logger.Slog().Info("log level updated", "level", a.Logger.Level().String())
	}

	if cfg.Upstream.BaseURL != a.Config.Upstream.BaseURL || cfg.Upstream.Token != a.Config.Upstream.Token {
		a.Logger.Slog().Warn("upstream settings changed on disk; restart to apply")
	}
}

// Close flushes spans and releases pooled connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
	}
	if err := a.Client.Close(); err != nil {
		errs = append(errs, fmt.Errorf("upstream client close: %w", err))
	}
	return errors.Join(errs...)
}
