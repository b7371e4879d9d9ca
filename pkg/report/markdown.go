package report

import (
	"fmt"
	"io"
	"strings"
)

var cellEscaper = strings.NewReplacer("|", `\|`, "\r", "", "\n", " ")

// WriteMarkdown writes the markdown report.
func WriteMarkdown(w io.Writer, s Scan) error {
	var b strings.Builder
	r := s.Record

	b.WriteString("# truscanner Report\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	if r.ID != "" {
		fmt.Fprintf(&b, "| Scan Report ID | `%s` |\n", r.ID)
	}
	if r.Target != "" {
		fmt.Fprintf(&b, "| Target | %s |\n", cell(r.Target))
	}
	if !r.StartedAt.IsZero() {
		fmt.Fprintf(&b, "| Date | %s |\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "| Files Scanned | %d |\n", r.FilesScanned)
	fmt.Fprintf(&b, "| Data Elements Configured | %d |\n", r.ConfiguredElements)
	fmt.Fprintf(&b, "| Total Findings | %d |\n", len(s.Findings))
	if r.Duration > 0 {
		fmt.Fprintf(&b, "| Time Taken | %s |\n", seconds(r.Duration))
	}

	if len(s.Findings) == 0 {
		b.WriteString("\nNo data elements found.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("\n## Findings\n")
	for _, group := range GroupByFile(s.Findings) {
		fmt.Fprintf(&b, "\n### %s\n\n", cell(group.Name))
		b.WriteString("| Line | Data Element | Category | Sensitivity | Matched |\n")
		b.WriteString("|---:|---|---|---|---|\n")
		for _, f := range group.Findings {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				f.LineNumber, cell(f.ElementName), cell(f.ElementCategory), cell(f.Sensitivity), cell(f.MatchedText))
		}
	}

	b.WriteString("\n## Summary by Category\n\n")
	b.WriteString("| Category | Findings | Distinct Elements |\n|---|---:|---:|\n")
	for _, c := range SummarizeCategories(s.Findings) {
		fmt.Fprintf(&b, "| %s | %d | %d |\n", cell(c.Category), c.Total, len(c.Elements))
	}

	b.WriteString("\n## Summary by Sensitivity\n\n")
	b.WriteString("| Sensitivity | Findings |\n|---|---:|\n")
	for _, c := range SummarizeSensitivity(s.Findings) {
		fmt.Fprintf(&b, "| %s | %d |\n", capitalize(c.Name), c.Count)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func cell(s string) string {
	return cellEscaper.Replace(s)
}
