package client

// Tracker maintains the value each key is expected to hold. Values start at
// -1 (never written) and are bumped before each put attempt. Operations are
// serialized per client instance, so no locking is needed here.
type Tracker struct {
	values map[string]int
}

// NewTracker creates a tracker for a fixed key alphabet. Keys are never
// added or removed after construction.
func NewTracker(keys []string) *Tracker {
	values := make(map[string]int, len(keys))
	for _, key := range keys {
		values[key] = -1
	}

	return &Tracker{values: values}
}

// Bump increments the expected value for key and returns the new value.
// The first bump of a key yields 0.
func (t *Tracker) Bump(key string) int {
	t.values[key]++
	return t.values[key]
}

// ExpectedOf returns the value key is expected to hold, or -1 if the key
// has never been written.
func (t *Tracker) ExpectedOf(key string) int {
	value, ok := t.values[key]
	if !ok {
		return -1
	}

	return value
}
