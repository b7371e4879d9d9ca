// Package fpfilter suppresses matches that are lexically present but carry
// no data: comments, bare declarations, SQL field lists and markup noise.
package fpfilter

// Filter evaluates a heuristic chain with short-circuit OR.
// A Filter holds no mutable state and is safe for concurrent use.
type Filter struct {
	heuristics []Heuristic
}

// New creates a filter running the default heuristics.
func New() *Filter {
	return &Filter{heuristics: DefaultHeuristics()}
}

// NewWithHeuristics creates a filter running the given heuristics in order.
func NewWithHeuristics(heuristics []Heuristic) *Filter {
	return &Filter{heuristics: heuristics}
}

// Heuristics returns the chain in evaluation order.
func (f *Filter) Heuristics() []Heuristic {
	return f.heuristics
}

// Check returns the name of the first heuristic that classifies c as
// noise, and whether any did.
func (f *Filter) Check(c Candidate) (string, bool) {
	for _, h := range f.heuristics {
		if h.Check(c) {
			return h.Name, true
		}
	}
	return "", false
}
