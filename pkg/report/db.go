package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/truconsent/truscanner/pkg/types"
)

// DBScan is a finished database scan ready for rendering.
type DBScan struct {
	ID        string
	Database  string // connection description with credentials removed
	StartedAt time.Time
	Duration  time.Duration
	Findings  []types.ColumnFinding
}

// WriteDBText writes the database report as a fixed-width table sorted by
// schema, table and column.
func WriteDBText(w io.Writer, s DBScan) error {
	var b strings.Builder
	b.WriteString("truscanner Database Report\n\n")
	if s.ID != "" {
		fmt.Fprintf(&b, "Scan Report ID: %s\n", s.ID)
	}
	if s.Database != "" {
		fmt.Fprintf(&b, "Database: %s\n", s.Database)
	}
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	}

	if len(s.Findings) == 0 {
		b.WriteString("\nNo data elements found in database.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("\nSummary\n" + lightRule + "\n")
	fmt.Fprintf(&b, "Total Findings: %d\n", len(s.Findings))
	if s.Duration > 0 {
		fmt.Fprintf(&b, "Time Taken: %s\n", seconds(s.Duration))
	}
	schemas := make(map[string]bool)
	tables := make(map[[2]string]bool)
	categories := make(map[string]int)
	for _, f := range s.Findings {
		schemas[f.SchemaName] = true
		tables[[2]string{f.SchemaName, f.TableName}] = true
		categories[f.ElementCategory]++
	}
	fmt.Fprintf(&b, "Schemas with data elements: %d\n", len(schemas))
	fmt.Fprintf(&b, "Tables with data elements: %d\n", len(tables))

	b.WriteString("\nFindings by Category\n" + lightRule + "\n")
	for _, c := range sortedCounts(categories) {
		fmt.Fprintf(&b, "%s: %d\n", c.Name, c.Count)
	}

	b.WriteString("\nDetailed Findings\n" + lightRule + "\n")
	fmt.Fprintf(&b, "%-20s %-30s %-30s %-8s %s\n", "Schema", "Table", "Column", "Source", "Data Element")
	b.WriteString(lightRule + "\n")
	for _, f := range SortColumnFindings(s.Findings) {
		fmt.Fprintf(&b, "%-20s %-30s %-30s %-8s %s\n",
			clip(f.SchemaName, 20), clip(f.TableName, 30), clip(f.ColumnName, 30), f.Source, f.ElementName)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// DBJSONReport is the document written by WriteDBJSON.
type DBJSONReport struct {
	Application         string                `json:"application"`
	ReportType          string                `json:"report_type"`
	ScanReportID        string                `json:"scan_report_id"`
	Timestamp           time.Time             `json:"timestamp"`
	DatabaseInfo        string                `json:"database_info"`
	ScanDurationSeconds float64               `json:"scan_duration_seconds"`
	TotalFindings       int                   `json:"total_findings"`
	Findings            []types.ColumnFinding `json:"findings"`
}

// WriteDBJSON writes the database report as indented JSON.
func WriteDBJSON(w io.Writer, s DBScan) error {
	findings := s.Findings
	if findings == nil {
		findings = []types.ColumnFinding{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(DBJSONReport{
		Application:         application,
		ReportType:          "database_schema",
		ScanReportID:        s.ID,
		Timestamp:           s.StartedAt,
		DatabaseInfo:        s.Database,
		ScanDurationSeconds: s.Duration.Seconds(),
		TotalFindings:       len(findings),
		Findings:            findings,
	})
}

// SortColumnFindings returns a copy of findings ordered by schema, table
// and column, keeping the original order otherwise.
func SortColumnFindings(findings []types.ColumnFinding) []types.ColumnFinding {
	out := append([]types.ColumnFinding(nil), findings...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SchemaName != b.SchemaName {
			return a.SchemaName < b.SchemaName
		}
		if a.TableName != b.TableName {
			return a.TableName < b.TableName
		}
		return a.ColumnName < b.ColumnName
	})
	return out
}

// clip shortens s to width runes, marking the cut with "..".
func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-2]) + ".."
}
