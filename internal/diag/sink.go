// Package diag collects log lines emitted by cluster nodes during a test
// run. The sink is a diagnostic collaborator only: the resilience client's
// core logic never reads from it.
package diag

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hitchyjs/skiff/pkg/threadsafe"
)

const (
	// DefaultCapacity bounds the ring buffer when none is configured.
	DefaultCapacity = 1000

	defaultPollInterval = 100 * time.Millisecond
	defaultQuietFor     = time.Second
	defaultMaxWait      = 5 * time.Second
)

// Record is one captured log line, labeled with the emitting peer.
type Record struct {
	Message string
	Peer    string
	At      time.Time
}

// Sink is a bounded ring buffer of records. When full, the oldest record
// is dropped to make room. Record may be called from any goroutine.
type Sink struct {
	mu       sync.Mutex
	records  []Record
	capacity int
	total    int

	perPeer *threadsafe.Map[string, int]

	poll     time.Duration
	quietFor time.Duration
	maxWait  time.Duration
}

// NewSink creates a sink with the given capacity; capacity <= 0 falls back
// to DefaultCapacity.
func NewSink(capacity int) *Sink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Sink{
		capacity: capacity,
		perPeer:  threadsafe.NewMap[string, int](),
		poll:     defaultPollInterval,
		quietFor: defaultQuietFor,
		maxWait:  defaultMaxWait,
	}
}

// WithTiming overrides the quiescence polling parameters: the polling
// interval, how long the sink must stay unchanged to count as quiet, and
// the total time to wait before giving up.
func (s *Sink) WithTiming(poll, quietFor, maxWait time.Duration) *Sink {
	s.poll = poll
	s.quietFor = quietFor
	s.maxWait = maxWait
	return s
}

// Record stores a log line from the given peer, dropping the oldest
// buffered record if the sink is full.
func (s *Sink) Record(message, peer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == s.capacity {
		s.records = s.records[1:]
	}

	s.records = append(s.records, Record{Message: message, Peer: peer, At: time.Now()})
	s.total++

	s.perPeer.Update(peer, func(n int) int { return n + 1 })
}

// Len returns the number of currently buffered records.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Total returns the number of records ever received, including dropped ones.
func (s *Sink) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.total
}

// PeerCount returns how many records the given peer has emitted.
func (s *Sink) PeerCount(peer string) int {
	n, _ := s.perPeer.Get(peer)
	return n
}

// WaitQuiet polls the sink and returns true once no new record has arrived
// for the quiet period. It gives up and returns false after the maximum
// wait, or when ctx is cancelled.
func (s *Sink) WaitQuiet(ctx context.Context) bool {
	deadline := time.Now().Add(s.maxWait)
	last := s.Total()
	quietSince := time.Now()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(s.poll):
			current := s.Total()
			if current != last {
				last = current
				quietSince = time.Now()
				continue
			}

			if time.Since(quietSince) >= s.quietFor {
				return true
			}
		}
	}

	return false
}

// Dump writes all currently buffered records to w, oldest first.
func (s *Sink) Dump(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		fmt.Fprintf(w, "%s [%s] %s\n", record.At.Format(time.RFC3339), record.Peer, record.Message)
	}
}

// Flush waits for quiescence and then dumps the backlog. The dump happens
// regardless of whether quiescence was reached before the maximum wait.
func (s *Sink) Flush(ctx context.Context, w io.Writer) bool {
	quiet := s.WaitQuiet(ctx)
	s.Dump(w)
	return quiet
}
