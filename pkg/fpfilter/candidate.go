package fpfilter

import "strings"

// Candidate is one raw match positioned inside its line.
type Candidate struct {
	Line    string // full line, without the newline
	Trimmed string // Line with surrounding whitespace removed
	Before  string // part of Line preceding the match
	Matched string // matched text, cut at the end of the line
	After   string // part of Line following the match
}

// NewCandidate builds a candidate from a line, the rune column where the
// match starts, and the matched text. Matched text running past the end of
// the line is cut at the first newline.
func NewCandidate(line string, column int, matched string) Candidate {
	if i := strings.IndexByte(matched, '\n'); i >= 0 {
		matched = matched[:i]
	}
	matched = strings.TrimSuffix(matched, "\r")

	runes := []rune(line)
	if column < 0 {
		column = 0
	}
	if column > len(runes) {
		column = len(runes)
	}
	end := column + len([]rune(matched))
	if end > len(runes) {
		end = len(runes)
	}

	return Candidate{
		Line:    line,
		Trimmed: strings.TrimSpace(line),
		Before:  string(runes[:column]),
		Matched: string(runes[column:end]),
		After:   string(runes[end:]),
	}
}
