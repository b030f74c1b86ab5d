package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names recognised by Load.
const (
	EnvPort              = "PORT"
	EnvUpstreamBaseURL   = "UPSTREAM_API_URL_BASE"
	EnvUpstreamToken     = "UPSTREAM_API_TOKEN"
	EnvUpstreamTokenFile = "UPSTREAM_API_TOKEN_FILE"
	EnvUpstreamTimeout   = "UPSTREAM_TIMEOUT"
	EnvAllowedOrigins    = "CORS_ALLOWED_ORIGINS"
	EnvLogLevel          = "LOG_LEVEL"
	EnvLogFormat         = "LOG_FORMAT"
	EnvMetricsEnabled    = "METRICS_ENABLED"
	EnvTracingEnabled    = "TRACING_ENABLED"
)

// DefaultEnvFile is the dotenv file read when Options.EnvFile is empty.
const DefaultEnvFile = ".env"

// Options controls where Load reads configuration from.
type Options struct {
	// Path is an optional YAML configuration file. Empty means defaults
	// and environment only.
	Path string

	// EnvFile is a dotenv file consulted for variables missing from the
	// process environment. A missing file is not an error.
	EnvFile string

	// LookupEnv resolves environment variables. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// Overrides is applied after the environment, so command-line flags win
	// over every other source. The watcher reuses it on each reload.
	Overrides func(*Config)
}

// ErrTokenFile wraps failures to read the upstream token file.
var ErrTokenFile = errors.New("upstream token file")

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use Load for that.
func LoadConfig(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Load builds the runtime configuration. The loading sequence is:
//
//  1. Built-in defaults
//  2. YAML file (if opts.Path is set)
//  3. Dotenv file values for variables not set in the process environment
//  4. Process environment
//  5. opts.Overrides
//  6. Token file, when no token was supplied directly
//  7. Validation
func Load(opts Options) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if opts.Path != "" {
		cfg, err = readFile(opts.Path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = Default()
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if err := applyEnvOverrides(cfg, func(key string) (string, bool) {
		if val, ok := lookup(key); ok {
			return val, true
		}
		val, ok := dotenv[key]
		return val, ok
	}); err != nil {
		return nil, err
	}

	if opts.Overrides != nil {
		opts.Overrides(cfg)
	}

	if cfg.Upstream.Token == "" && cfg.Upstream.TokenFile != "" {
		token, err := ReadSecretFile(cfg.Upstream.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTokenFile, err)
		}
		cfg.Upstream.Token = token
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FromEnv loads configuration from defaults and the process environment
// only. Serverless entry points use it since they ship without files.
func FromEnv() (*Config, error) {
	return Load(Options{})
}

// readFile parses a YAML file over the built-in defaults.
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// readEnvFile reads a dotenv file without touching the process environment.
func readEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %q: %w", path, err)
	}
	return values, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric or duration values are reported rather than ignored.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []FieldError

	if val, ok := lookup(EnvPort); ok && val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			errs = append(errs, FieldError{Field: EnvPort, Message: fmt.Sprintf("invalid port %q", val)})
		} else {
			cfg.Server.Port = port
			cfg.Server.ListenAddress = ""
		}
	}

	if val, ok := lookup(EnvUpstreamBaseURL); ok && val != "" {
		cfg.Upstream.BaseURL = val
	}
	if val, ok := lookup(EnvUpstreamToken); ok {
		cfg.Upstream.Token = strings.TrimSpace(val)
	}
	if val, ok := lookup(EnvUpstreamTokenFile); ok && val != "" {
		cfg.Upstream.TokenFile = val
	}
	if val, ok := lookup(EnvUpstreamTimeout); ok && val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			errs = append(errs, FieldError{Field: EnvUpstreamTimeout, Message: fmt.Sprintf("invalid duration %q", val)})
		} else {
			cfg.Upstream.Timeout = d
		}
	}

	if val, ok := lookup(EnvAllowedOrigins); ok && val != "" {
		cfg.Server.CORS.AllowedOrigins = SplitList(val)
	}

	if val, ok := lookup(EnvLogLevel); ok && val != "" {
		cfg.Telemetry.Logging.Level = strings.ToLower(val)
	}
	if val, ok := lookup(EnvLogFormat); ok && val != "" {
		cfg.Telemetry.Logging.Format = strings.ToLower(val)
	}
	if val, ok := lookup(EnvMetricsEnabled); ok && val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			errs = append(errs, FieldError{Field: EnvMetricsEnabled, Message: fmt.Sprintf("invalid boolean %q", val)})
		} else {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val, ok := lookup(EnvTracingEnabled); ok && val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			errs = append(errs, FieldError{Field: EnvTracingEnabled, Message: fmt.Sprintf("invalid boolean %q", val)})
		} else {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// SplitList splits a comma-separated list, trimming blanks.
func SplitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
