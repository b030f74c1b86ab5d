package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/trackrelay/internal/app"
	"mercator-hq/trackrelay/pkg/cli"
	"mercator-hq/trackrelay/pkg/config"
	"mercator-hq/trackrelay/pkg/server"
)

var runFlags struct {
	port     int
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the tracking relay server",
	Long: `Start the tracking relay HTTP server.

The server answers GET /apps/parceltrack?channel_order_no=<id> plus /health,
/ready, /version and /metrics. When --config names a file, changes to its
CORS allow-list and log level are applied without a restart.

A missing UPSTREAM_API_TOKEN is not fatal: the server starts, /ready reports
503 and tracking requests fail with a configuration error until it is set.

Examples:
  # Start with environment configuration
  trackrelay run

  # Start with a config file
  trackrelay run --config /etc/trackrelay/config.yaml

  # Override the port
  trackrelay run --port 8080

  # Validate config without starting the server
  trackrelay run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runFlags.port, "port", "p", 0, "override listen port")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	opts := loadOptions()
	opts.Overrides = applyRunFlags

	cfg, err := config.Load(opts)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	a, err := app.New(cfg, versionInfo(), app.Options{})
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	srv, err := server.New(&cfg.Server, server.Dependencies{
		Relay:   a.Relay,
		Health:  a.Health,
		Metrics: a.Metrics,
		Tracer:  a.Tracer,
		Version: versionInfo(),
	})
	if err != nil {
		_ = a.Close(context.Background())
		return cli.NewCommandError("run", err)
	}

	printBanner(cmd, cfg)

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})

	if opts.Path != "" {
		watcher, err := config.NewWatcher(opts, func(next *config.Config) {
			srv.UpdateCORS(next.Server.CORS)
			a.ApplyReload(next)
		}, a.Logger.Slog())
		if err != nil {
			slog.Warn("config hot reload disabled", "error", err)
		} else {
			g.Go(func() error {
				return watchConfig(gctx, watcher)
			})
		}
	}

	runErr := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		slog.Warn("error releasing resources", "error", err)
	}

	if runErr != nil {
		return cli.NewCommandError("run", runErr)
	}
	return nil
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Trackrelay %s\n", Version)
	fmt.Fprintf(out, "  listen:   %s\n", cfg.Server.Address())
	fmt.Fprintf(out, "  upstream: %s (timeout %s)\n", cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	if cfg.Upstream.TokenConfigured() {
		fmt.Fprintln(out, "  token:    configured")
	} else {
		fmt.Fprintln(out, "  token:    MISSING (set "+config.EnvUpstreamToken+")")
	}
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "  metrics:  %s\n", cfg.Telemetry.Metrics.Path)
	}
	if cfg.Telemetry.Tracing.Enabled {
		fmt.Fprintf(out, "  tracing:  %s\n", cfg.Telemetry.Tracing.Endpoint)
	}
}

// applyRunFlags copies the run command's flag overrides onto cfg. It runs on
// the initial load and again on every config reload.
func applyRunFlags(cfg *config.Config) {
	if runFlags.port != 0 {
		cfg.Server.Port = runFlags.port
		cfg.Server.ListenAddress = ""
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
}

type configWatcher interface {
	Run(ctx context.Context) error
}

// watchConfig runs w until ctx ends. A watcher failure only disables hot
// reload; the server keeps running.
func watchConfig(ctx context.Context, w configWatcher) error {
	if err := w.Run(ctx); err != nil {
		slog.Error("config watcher failed, hot reload disabled", "error", err)
	}
	return nil
}
