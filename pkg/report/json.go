package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/truconsent/truscanner/pkg/types"
)

const application = "truscanner"

// JSONReport is the document written by WriteJSON.
type JSONReport struct {
	Application            string          `json:"application"`
	ScanReportID           string          `json:"scan_report_id"`
	DirectoryScanned       string          `json:"directory_scanned"`
	Timestamp              time.Time       `json:"timestamp"`
	ConfiguredDataElements int             `json:"configured_data_elements"`
	FilesScanned           int             `json:"files_scanned"`
	TotalFindings          int             `json:"total_findings"`
	ScanDurationSeconds    float64         `json:"scan_duration_seconds"`
	Findings               []types.Finding `json:"findings"`
}

// NewJSONReport builds the JSON document for s.
func NewJSONReport(s Scan) JSONReport {
	findings := s.Findings
	if findings == nil {
		findings = []types.Finding{}
	}
	return JSONReport{
		Application:            application,
		ScanReportID:           s.Record.ID,
		DirectoryScanned:       s.Record.Target,
		Timestamp:              s.Record.StartedAt,
		ConfiguredDataElements: s.Record.ConfiguredElements,
		FilesScanned:           s.Record.FilesScanned,
		TotalFindings:          len(findings),
		ScanDurationSeconds:    s.Record.Duration.Seconds(),
		Findings:               findings,
	}
}

// WriteJSON writes the indented JSON report.
func WriteJSON(w io.Writer, s Scan) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewJSONReport(s))
}
