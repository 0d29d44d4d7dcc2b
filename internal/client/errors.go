package client

import (
	"errors"
	"fmt"

	"github.com/hitchyjs/skiff/internal/cluster"
)

// ErrSelectionExhausted is returned when no live endpoint was found within
// the selector's draw budget.
var ErrSelectionExhausted = errors.New("no live endpoint found")

// ConsistencyError reports a read that did not observe the expected value
// even after its second chance.
type ConsistencyError struct {
	Endpoint cluster.Endpoint
	Key      string
	Expected int
	Actual   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency violation at %s: key %q expected %d, got %q",
		e.Endpoint, e.Key, e.Expected, e.Actual)
}

// UnexpectedResponseError reports a response that matched no known cluster
// failure mode. It carries the raw payload so a run can be diagnosed
// without re-running.
type UnexpectedResponseError struct {
	Endpoint cluster.Endpoint
	Status   int
	Body     string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response from %s: status %d, body %q",
		e.Endpoint, e.Status, e.Body)
}
