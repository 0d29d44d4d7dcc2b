// Package cli implements the skiff-chaos command actions.
package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"

	"github.com/hitchyjs/skiff/internal/config"
)

var (
	green     = color.New(color.FgGreen).SprintFunc()
	red       = color.New(color.FgRed).SprintFunc()
	yellow    = color.New(color.FgYellow).SprintFunc()
	bold      = color.New(color.Bold).SprintFunc()
	checkMark = green("✓")
	crossMark = red("✗")
)

// setupLogger installs the tint slog handler on stderr. Debug level is
// opted into per command.
func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})))
}

// loadConfig loads the run configuration and applies environment
// overrides. SKIFF_HOST_OVERRIDE fills in the host override when the file
// leaves it empty, which is how local test clusters are usually reached.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cfg.Cluster.HostOverride == "" {
		cfg.Cluster.HostOverride = os.Getenv("SKIFF_HOST_OVERRIDE")
	}

	return cfg, nil
}
