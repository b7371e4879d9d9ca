package types

import (
	"sort"

	"github.com/dlclark/regexp2"
)

// Sensitivity levels carried by catalog elements.
const (
	SensitivityLow      = "low"
	SensitivityMedium   = "medium"
	SensitivityHigh     = "high"
	SensitivityCritical = "critical"
)

// Pattern is one compiled expression of a PatternElement.
type Pattern struct {
	Source   string          // raw expression as written in the catalog
	Regexp   *regexp2.Regexp // compiled form
	Keywords []string        // lowercase hint words extracted from Source
}

// PatternElement is a named privacy concept with its matching expressions.
// Elements are immutable once loaded.
type PatternElement struct {
	Name        string
	Category    string
	Patterns    []*Pattern
	Keywords    []string // union of pattern keywords, sorted
	Tags        map[string]any
	IsSensitive bool
	Sensitivity string
	SourceFile  string // catalog file the element was read from
}

// UnionKeywords recomputes Keywords from the element's patterns.
func (e *PatternElement) UnionKeywords() {
	seen := make(map[string]bool)
	var out []string
	for _, p := range e.Patterns {
		for _, k := range p.Keywords {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	e.Keywords = out
}

// Catalog is an immutable snapshot of loaded elements plus the diagnostics
// collected while loading them.
type Catalog struct {
	Elements    []*PatternElement
	Diagnostics []error
}

// Len returns the number of usable elements.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Elements)
}

// Lookup returns the first element with the given name.
func (c *Catalog) Lookup(name string) (*PatternElement, bool) {
	if c == nil {
		return nil, false
	}
	for _, e := range c.Elements {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}
