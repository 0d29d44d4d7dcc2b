package client

import (
	"math/rand"
	"time"

	"github.com/hitchyjs/skiff/internal/cluster"
)

// maxDraws bounds the random search for a live endpoint. The endpoint list
// is small and liveness only fluctuates transiently, so a generous number
// of independent draws beats exhaustive search.
const maxDraws = 100

// Selector picks a candidate cluster member for the next attempt. It keeps
// no state between calls: every pick is a fresh uniform draw.
type Selector struct {
	members []cluster.Member
	alive   cluster.Liveness
	rng     *rand.Rand
}

// NewSelector creates a selector over the given members. A nil liveness
// oracle defaults to always-alive; a nil rng is seeded from the clock.
// Tests inject a fixed-seed rng to make selection deterministic.
func NewSelector(members []cluster.Member, alive cluster.Liveness, rng *rand.Rand) *Selector {
	if alive == nil {
		alive = cluster.AlwaysAlive
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Selector{members: members, alive: alive, rng: rng}
}

// Pick returns the first randomly drawn member whose cluster-internal
// address the liveness oracle reports as reachable. After maxDraws failed
// draws it returns ErrSelectionExhausted.
func (s *Selector) Pick() (cluster.Member, error) {
	for range maxDraws {
		member := s.members[s.rng.Intn(len(s.members))]
		if s.alive(member.Addr) {
			return member, nil
		}
	}

	return cluster.Member{}, ErrSelectionExhausted
}
