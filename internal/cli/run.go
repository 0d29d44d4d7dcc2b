package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	commands "github.com/urfave/cli/v3"

	"github.com/hitchyjs/skiff/internal/client"
	"github.com/hitchyjs/skiff/internal/cluster"
	"github.com/hitchyjs/skiff/internal/metrics"
	"github.com/hitchyjs/skiff/internal/resilience"
)

// Run executes one resilience run against the configured cluster.
func Run(ctx context.Context, cmd *commands.Command) error {
	setupLogger(cmd.Bool("debug"))

	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if d := cmd.Duration("duration"); d > 0 {
		cfg.RunDuration = d
	}

	members, err := cluster.Members(cfg.Cluster.Addresses, cfg.Cluster.HostOverride)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				slog.Error("Metrics listener stopped", "error", err)
			}
		}()
	}

	verbose := cmd.Bool("verbose")

	c := client.New(members, client.Options{
		Keys:         cfg.Run.Keys,
		Timeout:      cfg.RequestTimeout,
		HostOverride: cfg.Cluster.HostOverride,
	})

	runner := resilience.New(c, cfg.Run.Keys, resilience.Options{
		Duration: cfg.RunDuration,
		Settle:   cfg.RunSettle,
		OnProgress: func(p resilience.Progress) {
			if verbose {
				fmt.Printf("  %s %s %s=%d (%d completed)\n",
					checkMark, p.Op, p.Key, p.Value, p.Stats.Completed)
			}
		},
	})

	start := time.Now()
	runErr := runner.Run(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)
	stats := runner.Stats()

	if runErr != nil {
		fmt.Printf("\n%s %s\n\n%s\n", bold("FAILED"), crossMark, runErr)
		fmt.Printf("\n%d/%d operations completed before failure (took %s)\n",
			stats.Completed, stats.Started, elapsed)
		return fmt.Errorf("resilience run %s failed", runner.ID())
	}

	fmt.Printf("\n%s %s\n", bold("PASSED"), checkMark)
	fmt.Printf("\n%d operations completed (took %s)\n", stats.Completed, elapsed)
	return nil
}
