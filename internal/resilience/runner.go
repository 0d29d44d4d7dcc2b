// Package resilience runs bounded-duration randomized workloads against a
// replicated key-value cluster and resolves an overall pass/fail outcome.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitchyjs/skiff/internal/client"
	"github.com/hitchyjs/skiff/internal/metrics"
)

const (
	defaultDuration = 30 * time.Second
	defaultSettle   = time.Second
)

// Options configures a Runner. Zero values fall back to defaults.
type Options struct {
	// Duration bounds the run. The check happens only between operations,
	// never mid-operation.
	Duration time.Duration

	// Settle is the pause between warm-up and steady-state.
	Settle time.Duration

	// Rand drives key and operation selection; tests inject a seeded source.
	Rand *rand.Rand

	// OnProgress, if set, is called after every completed steady-state
	// operation.
	OnProgress func(Progress)
}

// Runner drives one resilience run: a sequential warm-up put per key, then
// randomized puts and gets until the configured duration has elapsed.
// Operations are strictly serialized; one fatal error ends the whole run.
type Runner struct {
	client   *client.Client
	keys     []string
	duration time.Duration
	settle   time.Duration
	rng      *rand.Rand
	notify   func(Progress)

	id      string
	created time.Time
	stats   Stats
}

// New creates a runner over an existing client. The duration clock starts
// here, at construction.
func New(c *client.Client, keys []string, opts Options) *Runner {
	if opts.Duration == 0 {
		opts.Duration = defaultDuration
	}

	if opts.Settle == 0 {
		opts.Settle = defaultSettle
	}

	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Runner{
		client:   c,
		keys:     keys,
		duration: opts.Duration,
		settle:   opts.Settle,
		rng:      opts.Rand,
		notify:   opts.OnProgress,
		id:       uuid.NewString(),
		created:  time.Now(),
	}
}

// ID returns the run's identifier, carried through logs.
func (r *Runner) ID() string {
	return r.id
}

// Stats returns the operation counters accumulated so far.
func (r *Runner) Stats() Stats {
	return r.stats
}

// Run executes warm-up then steady-state. A nil return means the run
// Completed; any error means it Failed and describes the first fatal
// condition encountered.
func (r *Runner) Run(ctx context.Context) error {
	slog.Info("Starting resilience run",
		"run", r.id, "keys", strings.Join(r.keys, ""), "duration", r.duration)

	if err := r.warmUp(ctx); err != nil {
		return err
	}

	time.Sleep(r.settle)

	return r.steadyState(ctx)
}

// warmUp writes an initial value for every key, sequentially and in fixed
// key order, so steady-state reads always have an expectation to check.
func (r *Runner) warmUp(ctx context.Context) error {
	for _, key := range r.keys {
		r.stats.Started++
		metrics.OpsStarted.WithLabelValues(string(OpPut)).Inc()

		value, err := r.client.Put(ctx, key)
		if err != nil {
			return fmt.Errorf("warm-up put for key %q: %w", key, err)
		}

		r.stats.Completed++
		metrics.OpsCompleted.WithLabelValues(string(OpPut)).Inc()
		slog.Debug("Warm-up put acknowledged", "run", r.id, "key", key, "value", value)
	}

	return nil
}

func (r *Runner) steadyState(ctx context.Context) error {
	for {
		key := r.keys[r.rng.Intn(len(r.keys))]

		op := OpGet
		if r.rng.Intn(2) == 0 {
			op = OpPut
		}

		r.stats.Started++
		metrics.OpsStarted.WithLabelValues(string(op)).Inc()

		var (
			value int
			err   error
		)
		if op == OpPut {
			value, err = r.client.Put(ctx, key)
		} else {
			value, err = r.client.Get(ctx, key)
		}

		if err != nil {
			slog.Error("Resilience run failed",
				"run", r.id, "op", op, "key", key, "error", err)
			return err
		}

		r.stats.Completed++
		metrics.OpsCompleted.WithLabelValues(string(op)).Inc()

		if r.notify != nil {
			r.notify(Progress{Op: op, Key: key, Value: value, Stats: r.stats})
		}

		// The exit condition is only checked between operations; an
		// operation in flight always runs to success or fatal failure.
		if time.Since(r.created) >= r.duration {
			slog.Info("Resilience run completed",
				"run", r.id, "started", r.stats.Started, "completed", r.stats.Completed)
			return nil
		}
	}
}
