package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/trackrelay/pkg/cli"
	"mercator-hq/trackrelay/pkg/config"
)

var (
	// Global flags
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "trackrelay",
	Short: "Trackrelay - parcel tracking relay",
	Long: `Trackrelay relays parcel tracking lookups to the upstream tracking API.

Callers never see the upstream access token: it is read from
UPSTREAM_API_TOKEN (or a .env file) and injected server-side.

Configuration precedence, lowest first:
  built-in defaults < --config YAML file < .env file < process environment`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "optional YAML config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file for variables missing from the environment")
}

// loadOptions returns the config loading options from the global flags.
func loadOptions() config.Options {
	return config.Options{
		Path:    cfgFile,
		EnvFile: envFile,
	}
}
