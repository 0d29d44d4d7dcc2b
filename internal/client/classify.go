package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hitchyjs/skiff/internal/cluster"
)

// Action is the classifier's verdict on a failed attempt.
type Action int

const (
	// RetryNow retries on the next scheduling tick, no delay.
	RetryNow Action = iota
	// RetryAfter retries after Decision.Delay.
	RetryAfter
	// Redirect updates (or clears) the leader hint and retries immediately.
	Redirect
	// Fatal terminates the operation with Decision.Err.
	Fatal
)

// Decision is the outcome of classifying a response or transport failure.
type Decision struct {
	Action Action
	Delay  time.Duration

	// Leader is the redirect target translated to a client endpoint, or nil
	// when the redirect signal carried no usable leader address.
	Leader *cluster.Endpoint

	// ClearHint drops the leader hint. Set on transport-level failures,
	// where nothing can be assumed about the topology anymore.
	ClearHint bool

	Err error
}

const (
	// Delay before retrying a connection refusal reported by a node the
	// oracle considers dead. Node restarts take on the order of a second.
	refusedRetryDelay = time.Second

	// Delay before retrying after a transport-level failure.
	transportRetryDelay = 100 * time.Millisecond
)

// Classifier maps cluster error signals and transport failures onto retry
// decisions per a closed decision table.
type Classifier struct {
	alive        cluster.Liveness
	hostOverride string
}

// NewClassifier creates a classifier. The liveness oracle is consulted to
// distinguish expected from anomalous connection refusals; hostOverride is
// applied when translating redirect targets.
func NewClassifier(alive cluster.Liveness, hostOverride string) *Classifier {
	if alive == nil {
		alive = cluster.AlwaysAlive
	}

	return &Classifier{alive: alive, hostOverride: hostOverride}
}

// Response classifies a completed non-success response from member. The
// body is expected to carry a structured error with an "error.code" field
// and an optional "error.leader" multiaddr.
func (c *Classifier) Response(member cluster.Member, status int, body []byte) Decision {
	code := gjson.GetBytes(body, "error.code").String()

	switch code {
	case "ENOTLEADER", "ENOMAJORITY", "EOUTDATEDTERM":
		return c.redirect(body)

	case "ETIMEDOUT":
		return Decision{Action: RetryNow}

	case "ECONNREFUSED":
		if c.alive(member.Addr) {
			// A live node refusing connections is not a recognized
			// failure mode.
			return Decision{Action: Fatal, Err: fmt.Errorf(
				"live node %s refused connection: %w", member.Addr,
				&UnexpectedResponseError{Endpoint: member.Endpoint, Status: status, Body: string(body)})}
		}

		return Decision{Action: RetryAfter, Delay: refusedRetryDelay}

	default:
		return Decision{Action: Fatal, Err: &UnexpectedResponseError{
			Endpoint: member.Endpoint,
			Status:   status,
			Body:     string(body),
		}}
	}
}

// redirect builds a Redirect decision, translating the leader address from
// the payload when present. A missing or untranslatable address clears the
// hint instead.
func (c *Classifier) redirect(body []byte) Decision {
	leader := gjson.GetBytes(body, "error.leader")
	if !leader.Exists() || leader.String() == "" {
		return Decision{Action: Redirect}
	}

	endpoint, err := cluster.FromMultiaddr(leader.String(), c.hostOverride)
	if err != nil {
		slog.Debug("Ignoring untranslatable leader address", "leader", leader.String(), "error", err)
		return Decision{Action: Redirect}
	}

	return Decision{Action: Redirect, Leader: &endpoint}
}

// Transport classifies a request that never completed. Connection refusals,
// resets, and timeouts are transient during fault injection; anything else
// is fatal.
func (c *Classifier) Transport(err error) Decision {
	if retryableTransport(err) {
		return Decision{Action: RetryAfter, Delay: transportRetryDelay, ClearHint: true}
	}

	return Decision{Action: Fatal, Err: err}
}

func retryableTransport(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
