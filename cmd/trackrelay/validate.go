package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/trackrelay/pkg/cli"
	"mercator-hq/trackrelay/pkg/config"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load and validate the configuration without starting the server.

Every problem is reported with its field path. A missing upstream token is
reported as a warning since the server can start without it.

Examples:
  # Validate environment configuration
  trackrelay validate

  # Validate a config file with JSON output
  trackrelay validate --config config.yaml --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
}

// validationReport summarises an effective configuration.
type validationReport struct {
	Valid           bool     `json:"valid"`
	Address         string   `json:"address"`
	UpstreamBaseURL string   `json:"upstream_base_url"`
	UpstreamTimeout string   `json:"upstream_timeout"`
	TokenConfigured bool     `json:"token_configured"`
	AllowedOrigins  []string `json:"allowed_origins"`
	MetricsEnabled  bool     `json:"metrics_enabled"`
	TracingEnabled  bool     `json:"tracing_enabled"`
	Warnings        []string `json:"warnings,omitempty"`
}

func (r validationReport) String() string {
	var b strings.Builder
	b.WriteString("✓ Configuration valid\n")
	fmt.Fprintf(&b, "  address:         %s\n", r.Address)
	fmt.Fprintf(&b, "  upstream:        %s\n", r.UpstreamBaseURL)
	fmt.Fprintf(&b, "  timeout:         %s\n", r.UpstreamTimeout)
	fmt.Fprintf(&b, "  allowed origins: %s\n", strings.Join(r.AllowedOrigins, ", "))
	fmt.Fprintf(&b, "  metrics:         %t\n", r.MetricsEnabled)
	fmt.Fprintf(&b, "  tracing:         %t", r.TracingEnabled)
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "\n! %s", w)
	}
	return b.String()
}

func buildReport(cfg *config.Config) validationReport {
	report := validationReport{
		Valid:           true,
		Address:         cfg.Server.Address(),
		UpstreamBaseURL: cfg.Upstream.BaseURL,
		UpstreamTimeout: cfg.Upstream.Timeout.String(),
		TokenConfigured: cfg.Upstream.TokenConfigured(),
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		MetricsEnabled:  cfg.Telemetry.Metrics.Enabled,
		TracingEnabled:  cfg.Telemetry.Tracing.Enabled,
	}
	if !report.TokenConfigured {
		report.Warnings = append(report.Warnings,
			config.EnvUpstreamToken+" is not set; tracking requests will fail with a configuration error")
	}
	return report
}

func validateConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateFlags.format)
	if err != nil {
		return err
	}

	cfg, err := config.Load(loadOptions())
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), buildReport(cfg))
}
