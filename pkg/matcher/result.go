package matcher

import (
	"github.com/truconsent/truscanner/pkg/types"
)

// PatternStatus represents how a pattern run against one text ended.
type PatternStatus int

const (
	// PatternCompleted indicates the pattern scanned the whole text
	PatternCompleted PatternStatus = iota
	// PatternTimedOut indicates regexp2 hit its match timeout
	PatternTimedOut
	// PatternError indicates regexp2 returned another error
	PatternError
)

// String returns the string representation of PatternStatus
func (ps PatternStatus) String() string {
	switch ps {
	case PatternCompleted:
		return "completed"
	case PatternTimedOut:
		return "timeout"
	case PatternError:
		return "error"
	default:
		return "unknown"
	}
}

// PatternStat records one pattern execution.
type PatternStat struct {
	Element string        // element name
	Pattern string        // raw pattern source
	Status  PatternStatus // execution status
	Matches int           // raw matches, before filtering and deduplication
	Error   error         // set when Status is not PatternCompleted
}

// Summary provides aggregate statistics for one text.
type Summary struct {
	Elements        int            // elements in the catalog
	ElementsSkipped int            // elements dropped by the keyword pre-filter
	PatternsRun     int            // patterns executed
	TimedOut        int            // patterns that timed out
	Errors          int            // patterns that failed otherwise
	Suppressed      map[string]int // discarded matches per heuristic name
	Duplicates      int            // matches dropped because the line was already claimed
}

// Result contains findings and execution statistics.
type Result struct {
	Findings []types.Finding
	Stats    []PatternStat
	Summary  Summary
}
