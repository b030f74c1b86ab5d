package config

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesTriggers(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
	}

	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 callback, got %d", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })

	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("expected no callbacks after Stop, got %d", got)
	}
}

func TestNewWatcher_RequiresPath(t *testing.T) {
	if _, err := NewWatcher(Options{}, nil, nil); err == nil {
		t.Fatal("expected error without a path")
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "server:\n  cors:\n    allowed_origins: [\"https://a.example.com\"]\n")

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(Options{
		Path:      path,
		EnvFile:   filepath.Join(dir, "none.env"),
		LookupEnv: envMap(nil),
	}, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, dir, "config.yaml", "server:\n  cors:\n    allowed_origins: [\"https://b.example.com\"]\n")

	select {
	case cfg := <-reloaded:
		if got := cfg.Server.CORS.AllowedOrigins; len(got) != 1 || got[0] != "https://b.example.com" {
			t.Errorf("unexpected reloaded origins %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_ReloadKeepsOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "telemetry:\n  logging:\n    level: info\n")

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(Options{
		Path:      path,
		EnvFile:   filepath.Join(dir, "none.env"),
		LookupEnv: envMap(nil),
		Overrides: func(c *Config) {
			c.Telemetry.Logging.Level = "debug"
		},
	}, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	time.Sleep(50 * time.Millisecond)
	writeFile(t, dir, "config.yaml", "telemetry:\n  logging:\n    level: error\n")

	select {
	case cfg := <-reloaded:
		if cfg.Telemetry.Logging.Level != "debug" {
			t.Errorf("reloaded level = %q, want debug from overrides", cfg.Telemetry.Logging.Level)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
