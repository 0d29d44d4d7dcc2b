// Package client implements the resilience test client: it drives single
// put/get operations against a replicated key-value cluster through as many
// attempts as the classifier allows, and verifies that reads observe the
// values previous writes produced.
package client

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hitchyjs/skiff/internal/cluster"
	"github.com/hitchyjs/skiff/internal/metrics"
)

const (
	// defaultTimeout is the per-call ceiling; a call that exceeds it
	// becomes a transport-level failure.
	defaultTimeout = 2 * time.Second

	// secondChanceDelay is waited before retrying a read that returned a
	// stale value, to tolerate read-after-write visibility lag.
	secondChanceDelay = 200 * time.Millisecond
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	// Keys is the fixed key alphabet the run operates on.
	Keys []string

	// Alive is the liveness oracle over cluster-internal addresses.
	Alive cluster.Liveness

	// Rand drives endpoint selection; tests inject a seeded source.
	Rand *rand.Rand

	// Timeout is the per-request ceiling.
	Timeout time.Duration

	// HostOverride replaces hosts when translating redirect targets.
	HostOverride string
}

// Client executes one logical operation at a time against the cluster.
// A single instance never issues concurrent requests, so its state needs
// no locking; concurrency is achieved by running independent instances.
type Client struct {
	selector   *Selector
	classifier *Classifier
	tracker    *Tracker
	http       *http.Client

	// leaderHint is recalled from the most recent redirect signal. It is
	// informational only: selection does not prefer it.
	leaderHint *cluster.Endpoint
}

// New creates a client over the given cluster members.
func New(members []cluster.Member, opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		selector:   NewSelector(members, opts.Alive, opts.Rand),
		classifier: NewClassifier(opts.Alive, opts.HostOverride),
		tracker:    NewTracker(opts.Keys),
		http:       &http.Client{Timeout: timeout},
	}
}

// Tracker returns the expected-value table backing this client.
func (c *Client) Tracker() *Tracker {
	return c.tracker
}

// LeaderHint returns the best-known leader endpoint, or nil.
func (c *Client) LeaderHint() *cluster.Endpoint {
	return c.leaderHint
}

// Put writes the next value for key and returns it. The expected value is
// bumped before the first attempt; however many retries the write needs,
// the cluster ends up acknowledging exactly this value.
func (c *Client) Put(ctx context.Context, key string) (int, error) {
	value := c.tracker.Bump(key)
	payload := strconv.Itoa(value)

	for {
		member, err := c.selector.Pick()
		if err != nil {
			return 0, err
		}

		status, body, err := c.do(ctx, http.MethodPut, member.Endpoint, key, payload)
		if err != nil {
			if err := c.applyDecision(c.classifier.Transport(err)); err != nil {
				return 0, err
			}

			continue
		}

		if status == http.StatusCreated {
			return value, nil
		}

		if err := c.applyDecision(c.classifier.Response(member, status, body)); err != nil {
			return 0, err
		}
	}
}

// Get reads key and validates the response against the expected value. The
// expectation is captured once at the start of the operation and held
// across retries. One stale response earns a single second chance; a
// second mismatch is a consistency violation.
func (c *Client) Get(ctx context.Context, key string) (int, error) {
	expected := c.tracker.ExpectedOf(key)
	secondChance := false

	for {
		member, err := c.selector.Pick()
		if err != nil {
			return 0, err
		}

		status, body, err := c.do(ctx, http.MethodGet, member.Endpoint, key, "")
		if err != nil {
			if err := c.applyDecision(c.classifier.Transport(err)); err != nil {
				return 0, err
			}

			continue
		}

		if status == http.StatusOK {
			actual := strings.TrimSpace(string(body))
			if actual == strconv.Itoa(expected) {
				return expected, nil
			}

			if !secondChance {
				secondChance = true
				metrics.SecondChances.Inc()
				slog.Debug("Stale read, retrying once",
					"key", key, "expected", expected, "actual", actual,
					"endpoint", member.Endpoint.String())

				time.Sleep(secondChanceDelay)
				continue
			}

			return 0, &ConsistencyError{
				Endpoint: member.Endpoint,
				Key:      key,
				Expected: expected,
				Actual:   actual,
			}
		}

		if err := c.applyDecision(c.classifier.Response(member, status, body)); err != nil {
			return 0, err
		}
	}
}

// do issues a single request and returns the status and body. Any error
// means the request never completed and is subject to transport
// classification.
func (c *Client) do(ctx context.Context, method string, endpoint cluster.Endpoint, key, payload string) (int, []byte, error) {
	var body io.Reader
	if payload != "" {
		body = strings.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.URL("/"+key), body)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, data, nil
}

// applyDecision carries out a classifier decision, returning the fatal
// error if the operation must stop. All other decisions update the leader
// hint as instructed, wait if told to, and signal the caller to retry.
func (c *Client) applyDecision(d Decision) error {
	switch d.Action {
	case Fatal:
		return d.Err

	case Redirect:
		metrics.Redirects.Inc()
		c.setHint(d.Leader)

	case RetryAfter:
		time.Sleep(d.Delay)
	}

	if d.ClearHint {
		c.setHint(nil)
	}

	metrics.Retries.Inc()
	return nil
}

func (c *Client) setHint(hint *cluster.Endpoint) {
	switch {
	case hint != nil:
		slog.Debug("Leader hint updated", "leader", hint.String())
	case c.leaderHint != nil:
		slog.Debug("Leader hint cleared")
	}

	c.leaderHint = hint
}
