package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Color modes accepted by ColorEnabled.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ColorEnabled resolves a color mode for output written to f. Auto enables
// color only on a terminal with NO_COLOR unset.
func ColorEnabled(mode string, f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// styles holds the color formatters for human output.
type styles struct {
	findingHeading *color.Color
	element        *color.Color
	heading        *color.Color
	match          *color.Color
	metadata       *color.Color
	sensitivity    map[string]*color.Color
}

// newStyles creates color formatters; enabled=false yields plain text.
func newStyles(enabled bool) *styles {
	s := &styles{
		findingHeading: color.New(color.Bold, color.FgHiWhite),
		element:        color.New(color.Bold, color.FgHiBlue),
		heading:        color.New(color.Bold),
		match:          color.New(color.FgYellow),
		metadata:       color.New(color.FgHiBlue),
		sensitivity: map[string]*color.Color{
			"critical": color.New(color.Bold, color.FgHiRed),
			"high":     color.New(color.FgRed),
			"medium":   color.New(color.FgYellow),
			"low":      color.New(color.FgGreen),
		},
	}

	all := []*color.Color{s.findingHeading, s.element, s.heading, s.match, s.metadata}
	for _, c := range s.sensitivity {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func (s *styles) level(sensitivity string) *color.Color {
	if c, ok := s.sensitivity[strings.ToLower(sensitivity)]; ok {
		return c
	}
	return s.metadata
}

// snippetParts holds separated snippet components for colored output
type snippetParts struct {
	prefix   string // "..." if truncated at start
	before   string
	matching string
	after    string
	suffix   string // "..." if truncated at end
}

// splitSnippet locates matched inside line and cuts a window of at most
// maxLen runes centered on it.
func splitSnippet(line, matched string, maxLen int) snippetParts {
	i := strings.Index(line, matched)
	if matched == "" || i < 0 {
		return snippetParts{before: truncate(line, maxLen)}
	}
	before := []rune(line[:i])
	matching := []rune(matched)
	after := []rune(line[i+len(matched):])

	if len(before)+len(matching)+len(after) <= maxLen {
		return snippetParts{before: string(before), matching: matched, after: string(after)}
	}

	// match alone exceeds the window
	if len(matching) >= maxLen {
		return snippetParts{prefix: "...", matching: string(matching[:maxLen-6]), suffix: "..."}
	}

	full := []rune(line)
	matchStart := len(before)
	matchEnd := matchStart + len(matching)

	// reserve room for "..." on each side
	half := (maxLen - len(matching) - 6) / 2
	start := matchStart - half
	end := matchEnd + half
	if start < 0 {
		end -= start
		start = 0
	}
	if end > len(full) {
		start -= end - len(full)
		if start < 0 {
			start = 0
		}
		end = len(full)
	}

	parts := snippetParts{
		before:   string(full[start:matchStart]),
		matching: matched,
		after:    string(full[matchEnd:end]),
	}
	if start > 0 {
		parts.prefix = "..."
	}
	if end < len(full) {
		parts.suffix = "..."
	}
	return parts
}

// WriteHuman writes the terminal report, one block per finding followed by
// the category summary.
func WriteHuman(w io.Writer, s Scan, colored bool) error {
	st := newStyles(colored)
	var b strings.Builder

	total := len(s.Findings)
	for i, f := range s.Findings {
		fmt.Fprintf(&b, "%s %s %s\n",
			st.findingHeading.Sprintf("Finding %d/%d", i+1, total),
			st.element.Sprint(f.ElementName),
			st.level(f.Sensitivity).Sprintf("[%s]", f.Sensitivity))
		fmt.Fprintf(&b, "%s %s\n", st.heading.Sprint("Category:"), st.metadata.Sprint(f.ElementCategory))
		fmt.Fprintf(&b, "%s %s:%d\n", st.heading.Sprint("File:"), fileOf(f), f.LineNumber)

		p := splitSnippet(f.LineContent, f.MatchedText, contextWidth)
		fmt.Fprintf(&b, "%s %s%s%s%s%s\n\n",
			st.heading.Sprint("Line:"),
			p.prefix, p.before, st.match.Sprint(p.matching), p.after, p.suffix)
	}

	id := ""
	if s.Record.ID != "" {
		id = " (" + st.heading.Sprint("id") + " " + st.metadata.Sprint(s.Record.ID) + ")"
	}
	fmt.Fprintf(&b, "%s%s\n", st.findingHeading.Sprintf("Scanned %s", s.Record.Target), id)
	fmt.Fprintf(&b, "%d files, %d data elements configured, %d findings",
		s.Record.FilesScanned, s.Record.ConfiguredElements, total)
	if s.Record.Duration > 0 {
		fmt.Fprintf(&b, " in %s", seconds(s.Record.Duration))
	}
	b.WriteString("\n")

	if total > 0 {
		b.WriteString("\n" + st.heading.Sprint("By category:") + "\n")
		for _, c := range SummarizeCategories(s.Findings) {
			fmt.Fprintf(&b, "  %s: %d (%d distinct)\n", st.element.Sprint(c.Category), c.Total, len(c.Elements))
		}
		b.WriteString(st.heading.Sprint("By sensitivity:") + "\n")
		for _, c := range SummarizeSensitivity(s.Findings) {
			fmt.Fprintf(&b, "  %s: %d\n", st.level(c.Name).Sprint(capitalize(c.Name)), c.Count)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
