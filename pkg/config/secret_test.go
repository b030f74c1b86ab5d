package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestReadSecretFile(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string, mode os.FileMode) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), mode); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(path, mode); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"owner only", write("token", "  secret-token\n", 0o600), "secret-token", false},
		{"read only", write("token-ro", "ro-token", 0o400), "ro-token", false},
		{"world readable", write("token-open", "open", 0o644), "", true},
		{"missing", filepath.Join(dir, "nope"), "", true},
		{"directory", dir, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadSecretFile(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadSecretFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ReadSecretFile() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_TokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	if err := os.WriteFile(path, []byte("file-token\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("used when token unset", func(t *testing.T) {
		cfg, err := Load(Options{
			EnvFile:   filepath.Join(dir, "missing.env"),
			LookupEnv: envMap(map[string]string{EnvUpstreamTokenFile: path}),
		})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Upstream.Token != "file-token" {
			t.Errorf("Token = %q, want file-token", cfg.Upstream.Token)
		}
	})

	t.Run("direct token wins", func(t *testing.T) {
		cfg, err := Load(Options{
			EnvFile: filepath.Join(dir, "missing.env"),
			LookupEnv: envMap(map[string]string{
				EnvUpstreamTokenFile: path,
				EnvUpstreamToken:     "env-token",
			}),
		})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Upstream.Token != "env-token" {
			t.Errorf("Token = %q, want env-token", cfg.Upstream.Token)
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := Load(Options{
			EnvFile:   filepath.Join(dir, "missing.env"),
			LookupEnv: envMap(map[string]string{EnvUpstreamTokenFile: filepath.Join(dir, "nope")}),
		})
		if !errors.Is(err, ErrTokenFile) {
			t.Errorf("Load() error = %v, want ErrTokenFile", err)
		}
	})
}
