package resilience

// Stats counts operations over one run. Observability only: run outcomes
// never depend on these counters.
type Stats struct {
	Started   int
	Completed int
}

// Op identifies the kind of a single operation.
type Op string

const (
	OpPut Op = "put"
	OpGet Op = "get"
)

// Progress describes one completed steady-state operation.
type Progress struct {
	Op    Op
	Key   string
	Value int
	Stats Stats
}
