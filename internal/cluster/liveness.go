package cluster

// Liveness reports whether the node behind a cluster-internal address
// should currently be considered reachable. The oracle is supplied by the
// surrounding test framework, which knows which nodes it has stopped.
type Liveness func(addr string) bool

// AlwaysAlive is the default oracle used when no fault injection is active.
func AlwaysAlive(string) bool { return true }
