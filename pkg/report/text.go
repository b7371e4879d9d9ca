package report

import (
	"fmt"
	"io"
	"strings"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

const contextWidth = 100

// WriteText writes the plain-text report.
func WriteText(w io.Writer, s Scan) error {
	var b strings.Builder
	b.WriteString(heavyRule + "\n")
	b.WriteString("TRUSCANNER REPORT\n")
	b.WriteString(heavyRule + "\n")
	writeTextHeader(&b, s)

	if len(s.Findings) == 0 {
		b.WriteString("\nNo data elements found.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "\nTotal Findings: %d\n\n", len(s.Findings))
	b.WriteString(lightRule + "\n")

	for _, group := range GroupByFile(s.Findings) {
		fmt.Fprintf(&b, "\nFile: %s\n", group.Name)
		fmt.Fprintf(&b, "   Found %d data element(s)\n\n", len(group.Findings))
		for _, f := range group.Findings {
			fmt.Fprintf(&b, "   [%s] Line %d: %s\n", f.Sensitivity, f.LineNumber, f.ElementName)
			fmt.Fprintf(&b, "      Category: %s\n", f.ElementCategory)
			fmt.Fprintf(&b, "      Sensitivity: %s\n", f.Sensitivity)
			fmt.Fprintf(&b, "      Matched: %s\n", f.MatchedText)
			fmt.Fprintf(&b, "      Context: %s\n", truncate(f.LineContent, contextWidth))
			if len(f.Tags) > 0 {
				fmt.Fprintf(&b, "      Tags: %s\n", formatTags(f.Tags))
			}
			b.WriteString("\n")
		}
		b.WriteString(lightRule + "\n")
	}

	b.WriteString("\nSUMMARY BY CATEGORY\n\n")
	for _, c := range SummarizeCategories(s.Findings) {
		fmt.Fprintf(&b, "   %s: %d (%d distinctive elements)\n", c.Category, c.Total, len(c.Elements))
		for _, e := range c.Elements {
			fmt.Fprintf(&b, "      - %s: %d\n", e.Name, e.Count)
		}
	}

	b.WriteString("\nSUMMARY BY SENSITIVITY\n\n")
	for _, c := range SummarizeSensitivity(s.Findings) {
		fmt.Fprintf(&b, "   %s: %d\n", capitalize(c.Name), c.Count)
	}
	b.WriteString("\n" + heavyRule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextHeader(b *strings.Builder, s Scan) {
	r := s.Record
	if r.ID != "" {
		fmt.Fprintf(b, "Scan Report ID: %s\n", r.ID)
	}
	if r.Target != "" {
		fmt.Fprintf(b, "Target: %s\n", r.Target)
	}
	if !r.StartedAt.IsZero() {
		fmt.Fprintf(b, "Date: %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(b, "Files Scanned: %d\n", r.FilesScanned)
	fmt.Fprintf(b, "Data Elements Configured: %d\n", r.ConfiguredElements)
	if r.Duration > 0 {
		fmt.Fprintf(b, "Time Taken: %s\n", seconds(r.Duration))
	}
}
