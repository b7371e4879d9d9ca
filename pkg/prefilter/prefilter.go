package prefilter

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/truconsent/truscanner/pkg/types"
)

// Prefilter uses Aho-Corasick for efficient keyword gating of elements.
// It is read-only after New and safe for concurrent use.
type Prefilter struct {
	matcher  *ahocorasick.Matcher
	keywords []string // keyword at each automaton index
	elements []*types.PatternElement
	gated    map[*types.PatternElement]bool // every pattern of the element has keywords
}

// Selection is an element that passed the gate, with the subset of its
// patterns that still need to run.
type Selection struct {
	Element  *types.PatternElement
	Patterns []*types.Pattern
}

// Hits is the set of keywords found in one text.
type Hits map[string]bool

// Any reports whether keywords is empty or at least one keyword was hit.
func (h Hits) Any(keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, k := range keywords {
		if h[k] {
			return true
		}
	}
	return false
}

// New creates a prefilter over the given elements.
func New(elements []*types.PatternElement) *Prefilter {
	pf := &Prefilter{
		elements: elements,
		gated:    make(map[*types.PatternElement]bool, len(elements)),
	}

	// Collect all distinct keywords across elements and their patterns
	seen := make(map[string]bool)
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			pf.keywords = append(pf.keywords, k)
		}
	}
	for _, e := range elements {
		for _, k := range e.Keywords {
			add(k)
		}
		gated := len(e.Keywords) > 0
		for _, p := range e.Patterns {
			if len(p.Keywords) == 0 {
				gated = false
			}
			for _, k := range p.Keywords {
				add(k)
			}
		}
		pf.gated[e] = gated
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}
	return pf
}

// Keywords returns every distinct keyword known to the automaton.
func (pf *Prefilter) Keywords() []string {
	return pf.keywords
}

// Hits lowercases text once and returns the keywords it contains.
func (pf *Prefilter) Hits(text string) Hits {
	hits := make(Hits)
	if pf.matcher == nil || text == "" {
		return hits
	}
	for _, idx := range pf.matcher.Match([]byte(strings.ToLower(text))) {
		hits[pf.keywords[idx]] = true
	}
	return hits
}

// Filter returns the elements that might match text, in catalog order.
//
// An element is dropped when it has keywords and none of them occur in the
// text. Inside a kept element, a pattern is dropped when its own keywords
// are non-empty and all missed. Patterns without keywords always run, so an
// element holding one is never dropped.
func (pf *Prefilter) Filter(text string) []Selection {
	hits := pf.Hits(text)

	var result []Selection
	for _, e := range pf.elements {
		if pf.gated[e] && !hits.Any(e.Keywords) {
			continue
		}
		sel := Selection{Element: e}
		for _, p := range e.Patterns {
			if hits.Any(p.Keywords) {
				sel.Patterns = append(sel.Patterns, p)
			}
		}
		if len(sel.Patterns) > 0 {
			result = append(result, sel)
		}
	}
	return result
}
