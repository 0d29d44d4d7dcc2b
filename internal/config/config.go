package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// DefaultPath is where Load looks when no config path is given.
const DefaultPath = "skiff-chaos.yaml"

// Cluster describes how to reach the cluster under test.
type Cluster struct {
	// Addresses are the members' cluster-internal multiaddrs, e.g.
	// "/ip4/127.0.0.1/tcp/9190". Client endpoints are derived from these.
	Addresses []string `yaml:"addresses"`

	// HostOverride replaces every address's host when translating to a
	// client endpoint. Used when the cluster advertises internal hostnames.
	HostOverride string `yaml:"host_override"`
}

// Run describes one resilience run.
type Run struct {
	Duration string   `yaml:"duration"`
	Settle   string   `yaml:"settle"`
	Keys     []string `yaml:"keys"`
}

// Client holds request-level settings.
type Client struct {
	RequestTimeout string `yaml:"request_timeout"`
}

// Diag configures the log-capture sink.
type Diag struct {
	Capacity int `yaml:"capacity"`
}

// Metrics configures the optional Prometheus listener. An empty address
// disables it.
type Metrics struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Cluster Cluster `yaml:"cluster"`
	Run     Run     `yaml:"run"`
	Client  Client  `yaml:"client"`
	Diag    Diag    `yaml:"diag"`
	Metrics Metrics `yaml:"metrics"`

	// Parsed durations, populated by Load.
	RunDuration    time.Duration `yaml:"-"`
	RunSettle      time.Duration `yaml:"-"`
	RequestTimeout time.Duration `yaml:"-"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %q not found\nCreate one listing the cluster's advertised addresses", path)
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(bytes, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// normalize applies defaults and validates, so nothing downstream has to
// re-check configuration.
func (cfg *Config) normalize() error {
	if len(cfg.Cluster.Addresses) == 0 {
		return fmt.Errorf("cluster.addresses cannot be empty")
	}

	if len(cfg.Run.Keys) == 0 {
		cfg.Run.Keys = []string{"a", "b", "c"}
	}

	var err error
	if cfg.RunDuration, err = parseDuration("run.duration", cfg.Run.Duration, 30*time.Second); err != nil {
		return err
	}

	if cfg.RunSettle, err = parseDuration("run.settle", cfg.Run.Settle, time.Second); err != nil {
		return err
	}

	if cfg.RequestTimeout, err = parseDuration("client.request_timeout", cfg.Client.RequestTimeout, 2*time.Second); err != nil {
		return err
	}

	return nil
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}

	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", field, value)
	}

	return d, nil
}
