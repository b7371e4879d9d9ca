package matcher

import "github.com/truconsent/truscanner/pkg/types"

type lineKey struct {
	element *types.PatternElement
	line    int
}

// LineDeduplicator enforces at most one finding per element per line.
// It is not safe for concurrent use; the matcher creates one per call.
type LineDeduplicator struct {
	seen map[lineKey]bool
}

// NewLineDeduplicator creates an empty deduplicator.
func NewLineDeduplicator() *LineDeduplicator {
	return &LineDeduplicator{seen: make(map[lineKey]bool)}
}

// IsClaimed returns true if the element already reported on line.
func (d *LineDeduplicator) IsClaimed(e *types.PatternElement, line int) bool {
	return d.seen[lineKey{e, line}]
}

// Claim marks line as reported for the element.
func (d *LineDeduplicator) Claim(e *types.PatternElement, line int) {
	d.seen[lineKey{e, line}] = true
}
