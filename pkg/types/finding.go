package types

import (
	"maps"
	"time"
)

// Finding sources. A combined pipeline can tell engines apart by these.
const (
	SourceRegex    = "Regex"
	SourceMetadata = "Metadata"
	SourceContent  = "Content"
)

// Finding is one occurrence of a pattern element on a line of scanned text.
// Element data is copied in, so findings stay valid without the catalog.
type Finding struct {
	LineNumber      int            `json:"line_number"`
	LineContent     string         `json:"line_content"`
	MatchedText     string         `json:"matched_text"`
	ElementName     string         `json:"element_name"`
	ElementCategory string         `json:"element_category"`
	IsSensitive     bool           `json:"is_sensitive"`
	Sensitivity     string         `json:"sensitivity"`
	Tags            map[string]any `json:"tags,omitempty"`
	Context         string         `json:"context"`
	Filename        string         `json:"filename,omitempty"`
	Source          string         `json:"source"`
}

// NewFinding builds a finding for element e at the given line.
func NewFinding(e *PatternElement, line int, lineContent, matched, context string) Finding {
	return Finding{
		LineNumber:      line,
		LineContent:     lineContent,
		MatchedText:     matched,
		ElementName:     e.Name,
		ElementCategory: e.Category,
		IsSensitive:     e.IsSensitive,
		Sensitivity:     e.Sensitivity,
		Tags:            maps.Clone(e.Tags),
		Context:         context,
		Source:          SourceRegex,
	}
}

// ColumnFinding is a database-variant finding, addressed by schema, table
// and column instead of line.
type ColumnFinding struct {
	SchemaName      string         `json:"schema_name"`
	TableName       string         `json:"table_name"`
	ColumnName      string         `json:"column_name"`
	ColumnType      string         `json:"column_type,omitempty"`
	ElementName     string         `json:"element_name"`
	ElementCategory string         `json:"element_category"`
	MatchedText     string         `json:"matched_text"`
	Tags            map[string]any `json:"tags,omitempty"`
	Source          string         `json:"source"`
	RowIndex        int            `json:"row_index,omitempty"`
}

// ScanRecord summarizes one completed scan.
type ScanRecord struct {
	ID                 string        `json:"scan_report_id"`
	Target             string        `json:"directory_scanned"`
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"-"`
	FilesScanned       int           `json:"files_scanned"`
	ConfiguredElements int           `json:"configured_data_elements"`
	TotalFindings      int           `json:"total_findings"`
}
