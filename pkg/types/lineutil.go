package types

import (
	"sort"
	"strings"
)

// LineIndex maps match offsets to 1-indexed line numbers.
// Offsets are rune offsets, which is what regexp2 reports.
// Lines are split lazily the first time content is requested.
type LineIndex struct {
	text   string
	starts []int
	lines  []string
}

// NewLineIndex records the start offset of every line in text.
func NewLineIndex(text string) *LineIndex {
	starts := make([]int, 1, 64)
	pos := 0
	for _, r := range text {
		pos++
		if r == '\n' {
			starts = append(starts, pos)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// Line returns the 1-indexed line containing offset: the number of line
// starts that are <= offset.
func (x *LineIndex) Line(offset int) int {
	return sort.Search(len(x.starts), func(i int) bool {
		return x.starts[i] > offset
	})
}

// LineStart returns the rune offset at which line begins.
func (x *LineIndex) LineStart(line int) int {
	if line < 1 || line > len(x.starts) {
		return 0
	}
	return x.starts[line-1]
}

// Column returns the rune offset of offset within its line (0-based).
func (x *LineIndex) Column(offset int) int {
	return offset - x.LineStart(x.Line(offset))
}

// LineCount returns the number of lines in the text.
func (x *LineIndex) LineCount() int {
	return len(x.starts)
}

// Content returns the raw text of a 1-indexed line, without its newline.
func (x *LineIndex) Content(line int) string {
	if x.lines == nil {
		x.lines = strings.Split(x.text, "\n")
	}
	if line < 1 || line > len(x.lines) {
		return ""
	}
	return strings.TrimSuffix(x.lines[line-1], "\r")
}
