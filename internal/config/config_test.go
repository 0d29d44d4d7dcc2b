package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "skiff-chaos.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
cluster:
  addresses:
    - /ip4/127.0.0.1/tcp/9190
    - /ip4/127.0.0.1/tcp/9290
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(cfg.Cluster.Addresses) != 2 {
		t.Errorf("addresses = %v", cfg.Cluster.Addresses)
	}

	if got := cfg.Run.Keys; len(got) != 3 || got[0] != "a" {
		t.Errorf("default keys = %v, want [a b c]", got)
	}

	if cfg.RunDuration != 30*time.Second {
		t.Errorf("default duration = %v, want 30s", cfg.RunDuration)
	}

	if cfg.RunSettle != time.Second {
		t.Errorf("default settle = %v, want 1s", cfg.RunSettle)
	}

	if cfg.RequestTimeout != 2*time.Second {
		t.Errorf("default request timeout = %v, want 2s", cfg.RequestTimeout)
	}
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
cluster:
  addresses: [/ip4/127.0.0.1/tcp/9190]
run:
  duration: 2m
  settle: 500ms
  keys: [x, y]
client:
  request_timeout: 5s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.RunDuration != 2*time.Minute {
		t.Errorf("duration = %v, want 2m", cfg.RunDuration)
	}

	if cfg.RunSettle != 500*time.Millisecond {
		t.Errorf("settle = %v, want 500ms", cfg.RunSettle)
	}

	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("request timeout = %v, want 5s", cfg.RequestTimeout)
	}

	if len(cfg.Run.Keys) != 2 {
		t.Errorf("keys = %v, want [x y]", cfg.Run.Keys)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"No Addresses", "run:\n  duration: 10s\n"},
		{"Bad Duration", "cluster:\n  addresses: [/ip4/127.0.0.1/tcp/9190]\nrun:\n  duration: soon\n"},
		{"Negative Duration", "cluster:\n  addresses: [/ip4/127.0.0.1/tcp/9190]\nrun:\n  duration: -5s\n"},
		{"Invalid YAML", "cluster: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load succeeded on invalid config")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load succeeded on missing file")
	}
}
