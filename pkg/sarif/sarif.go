package sarif

import (
	"encoding/json"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/truconsent/truscanner/pkg/types"
)

// SARIF 2.1.0 constants
const (
	SchemaURI   = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version     = "2.1.0"
	ToolName    = "truscanner"
	ToolVersion = "0.1.0"
)

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule describes one catalog element.
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ShortDescription ShortDescription `json:"shortDescription"`
	Properties       map[string]any   `json:"properties,omitempty"`
}

// ShortDescription contains rule description text
type ShortDescription struct {
	Text string `json:"text"`
}

// Result represents a single finding
type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
}

// Message contains the result message
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region specifies the line/column range. Columns are 1-based and counted
// in characters; zero means unknown.
type Region struct {
	StartLine   int      `json:"startLine"`
	StartColumn int      `json:"startColumn,omitempty"`
	EndLine     int      `json:"endLine,omitempty"`
	EndColumn   int      `json:"endColumn,omitempty"`
	Snippet     *Snippet `json:"snippet,omitempty"`
}

// Snippet contains the matched text
type Snippet struct {
	Text string `json:"text"`
}

// NewReport creates a new SARIF report with initialized structure
func NewReport() *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: ToolVersion,
						Rules:   []Rule{},
					},
				},
				Results: []Result{},
			},
		},
	}
}

// AddElement adds a catalog element as a rule. Elements already present
// are ignored.
func (r *Report) AddElement(e *types.PatternElement) {
	r.addRule(e.Name, e.Category, e.Sensitivity)
}

func (r *Report) addRule(name, category, sensitivity string) {
	id := RuleID(name)
	for _, existing := range r.Runs[0].Tool.Driver.Rules {
		if existing.ID == id {
			return
		}
	}
	r.Runs[0].Tool.Driver.Rules = append(r.Runs[0].Tool.Driver.Rules, Rule{
		ID:   id,
		Name: name,
		ShortDescription: ShortDescription{
			Text: name + " (" + category + ")",
		},
		Properties: map[string]any{
			"category":    category,
			"sensitivity": sensitivity,
		},
	})
}

// AddFinding adds a finding as a result. A finding whose element has no
// rule yet gets one.
func (r *Report) AddFinding(f types.Finding) {
	r.addRule(f.ElementName, f.ElementCategory, f.Sensitivity)

	path := f.Filename
	if path == "" {
		path = f.Context
	}

	region := Region{StartLine: f.LineNumber}
	if col := matchColumn(f.LineContent, f.MatchedText); col > 0 {
		region.StartColumn = col
		region.EndLine = f.LineNumber
		region.EndColumn = col + utf8.RuneCountInString(f.MatchedText)
	}
	if f.MatchedText != "" {
		region.Snippet = &Snippet{Text: f.MatchedText}
	}

	r.Runs[0].Results = append(r.Runs[0].Results, Result{
		RuleID: RuleID(f.ElementName),
		Level:  Level(f.Sensitivity),
		Message: Message{
			Text: f.ElementName + " found",
		},
		Locations: []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{
						URI: formatFileURI(path),
					},
					Region: region,
				},
			},
		},
	})
}

// Build creates a report with one rule per catalog element and one result
// per finding. cat may be nil.
func Build(cat *types.Catalog, findings []types.Finding) *Report {
	r := NewReport()
	if cat != nil {
		for _, e := range cat.Elements {
			r.AddElement(e)
		}
	}
	for _, f := range findings {
		r.AddFinding(f)
	}
	return r
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Write encodes the report to w.
func (r *Report) Write(w io.Writer) error {
	data, err := r.ToJSON()
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// RuleID derives a stable rule identifier from an element name,
// e.g. "Email Address" becomes "email-address".
func RuleID(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// Level maps an element sensitivity to a SARIF result level.
func Level(sensitivity string) string {
	switch strings.ToLower(sensitivity) {
	case types.SensitivityCritical, types.SensitivityHigh:
		return "error"
	case types.SensitivityLow:
		return "note"
	default:
		return "warning"
	}
}

// matchColumn returns the 1-based character column of matched in line,
// or 0 when it does not occur.
func matchColumn(line, matched string) int {
	if matched == "" {
		return 0
	}
	i := strings.Index(line, matched)
	if i < 0 {
		return 0
	}
	return utf8.RuneCountInString(line[:i]) + 1
}

// formatFileURI converts a file path to SARIF URI format
// Absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		// Normalize path separators for URI format
		path = filepath.ToSlash(path)
		// Ensure path starts with /
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	// Relative paths stay as-is
	return filepath.ToSlash(path)
}
