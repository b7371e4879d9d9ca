package dbscan

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"

	"github.com/truconsent/truscanner/pkg/catalog"
	"github.com/truconsent/truscanner/pkg/types"
)

// DefaultSampleSize is the number of rows read per table for content scanning.
const DefaultSampleSize = 10

const (
	emailAddress   = "Email Address"
	phoneNumber    = "Phone Number"
	emailOpenRates = "Email Open Rates"
	workEmail      = "Work Email"
)

// TextScanner scans a value and returns its findings. *truscanner.Scanner
// satisfies it.
type TextScanner interface {
	ScanText(text, context string) []types.Finding
}

// ScannerConfig configures a database Scanner.
type ScannerConfig struct {
	Catalog *types.Catalog

	// Text scans sampled row values. Nil disables content scanning.
	Text TextScanner

	// SampleSize is the rows read per table (0 = DefaultSampleSize,
	// negative = no content scanning).
	SampleSize int

	Logger *zap.Logger
}

// columnPattern is a case-insensitive pattern matched against column names.
type columnPattern struct {
	element *types.PatternElement
	re      *regexp2.Regexp
}

// Scanner finds data elements in column names and sampled rows.
type Scanner struct {
	patterns   []columnPattern
	text       TextScanner
	sampleSize int
	logger     *zap.Logger
}

// Stats counts what a database scan visited.
type Stats struct {
	Schemas     int
	Tables      int
	Columns     int
	RowsSampled int
	Errors      []error
}

// NewScanner compiles the catalog for column-name matching.
func NewScanner(cfg ScannerConfig) *Scanner {
	s := &Scanner{
		text:       cfg.Text,
		sampleSize: cfg.SampleSize,
		logger:     cfg.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.sampleSize == 0 {
		s.sampleSize = DefaultSampleSize
	}
	if cfg.Catalog == nil {
		return s
	}
	for _, e := range cfg.Catalog.Elements {
		for _, p := range e.Patterns {
			re, err := catalog.CompilePattern(p.Source, regexp2.IgnoreCase)
			if err != nil {
				s.logger.Debug("pattern unusable for column names",
					zap.String("element", e.Name), zap.String("pattern", p.Source), zap.Error(err))
				continue
			}
			s.patterns = append(s.patterns, columnPattern{element: e, re: re})
		}
	}
	return s
}

// ScanColumnName returns the elements a column name refers to: at most
// one, after resolving overlapping email and phone elements.
func (s *Scanner) ScanColumnName(name string) []*types.PatternElement {
	if name == "" {
		return nil
	}
	var matches []*types.PatternElement
	seen := make(map[string]bool)
	for _, p := range s.patterns {
		if seen[p.element.Name] {
			continue
		}
		if ok, err := p.re.MatchString(name); err == nil && ok {
			seen[p.element.Name] = true
			matches = append(matches, p.element)
		}
	}
	return resolveColumnMatches(name, matches)
}

func resolveColumnMatches(name string, matches []*types.PatternElement) []*types.PatternElement {
	if len(matches) == 0 {
		return nil
	}
	lower := strings.ToLower(name)

	byName := func(want string) []*types.PatternElement {
		for _, m := range matches {
			if m.Name == want {
				return []*types.PatternElement{m}
			}
		}
		return nil
	}

	switch lower {
	case "email":
		if m := byName(emailAddress); m != nil {
			return m
		}
	case "phone", "mobile":
		if m := byName(phoneNumber); m != nil {
			return m
		}
	}

	kept := matches
	if strings.Contains(lower, "email") {
		kept = nil
		for _, m := range matches {
			switch {
			case m.Name == emailOpenRates && !strings.Contains(lower, "rate") && !strings.Contains(lower, "open"):
			case m.Name == workEmail && !strings.Contains(lower, "work") && !strings.Contains(lower, "job"):
			default:
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			kept = matches
		}
	}

	for _, m := range kept {
		if m.Name == emailAddress {
			return []*types.PatternElement{m}
		}
	}
	return kept[:1]
}

// ScanTableContent scans sampled rows. Each element is reported once per
// column, at the first row (1-based) where it occurs.
func (s *Scanner) ScanTableContent(schema, table string, columns []Column, sample *Sample) []types.ColumnFinding {
	if s.text == nil || sample == nil {
		return nil
	}
	colTypes := make(map[string]string, len(columns))
	for _, c := range columns {
		colTypes[c.Name] = c.Type
	}

	var findings []types.ColumnFinding
	seen := make(map[string]bool)
	for r, row := range sample.Rows {
		for i, value := range row {
			if i >= len(sample.Columns) {
				break
			}
			text := stringify(value)
			if strings.TrimSpace(text) == "" {
				continue
			}
			col := sample.Columns[i]
			for _, f := range s.text.ScanText(text, qualifiedName(schema, table, col)) {
				key := col + "\x00" + f.ElementName
				if seen[key] {
					continue
				}
				seen[key] = true
				findings = append(findings, types.ColumnFinding{
					SchemaName:      schema,
					TableName:       table,
					ColumnName:      col,
					ColumnType:      colTypes[col],
					ElementName:     f.ElementName,
					ElementCategory: f.ElementCategory,
					MatchedText:     f.MatchedText,
					Tags:            f.Tags,
					Source:          types.SourceContent,
					RowIndex:        r + 1,
				})
			}
		}
	}
	return findings
}

// ScanDatabase scans every table of every schema. Failures on one schema
// or table are logged, recorded in Stats and skipped.
func (s *Scanner) ScanDatabase(ctx context.Context, a Adapter) ([]types.ColumnFinding, *Stats, error) {
	stats := &Stats{}
	schemas, err := a.Schemas(ctx)
	if err != nil {
		return nil, stats, err
	}
	if len(schemas) == 0 {
		// single unnamed schema
		schemas = []string{""}
	}

	findings := []types.ColumnFinding{}
	for _, schema := range schemas {
		if err := ctx.Err(); err != nil {
			return findings, stats, err
		}
		tables, err := a.Tables(ctx, schema)
		if err != nil {
			s.fail(stats, err, zap.String("schema", displaySchema(schema)))
			continue
		}
		stats.Schemas++

		for _, table := range tables {
			if err := ctx.Err(); err != nil {
				return findings, stats, err
			}
			found, err := s.scanTable(ctx, a, schema, table, stats)
			if err != nil {
				s.fail(stats, err, zap.String("schema", displaySchema(schema)), zap.String("table", table))
				continue
			}
			findings = append(findings, found...)
		}
	}

	s.logger.Info("database scanned",
		zap.String("kind", a.Kind()),
		zap.Int("schemas", stats.Schemas),
		zap.Int("tables", stats.Tables),
		zap.Int("findings", len(findings)))
	return findings, stats, nil
}

func (s *Scanner) scanTable(ctx context.Context, a Adapter, schema, table string, stats *Stats) ([]types.ColumnFinding, error) {
	columns, err := a.Columns(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	stats.Tables++
	stats.Columns += len(columns)
	shown := displaySchema(schema)

	var findings []types.ColumnFinding
	for _, c := range columns {
		for _, e := range s.ScanColumnName(c.Name) {
			findings = append(findings, types.ColumnFinding{
				SchemaName:      shown,
				TableName:       table,
				ColumnName:      c.Name,
				ColumnType:      c.Type,
				ElementName:     e.Name,
				ElementCategory: e.Category,
				MatchedText:     c.Name,
				Tags:            maps.Clone(e.Tags),
				Source:          types.SourceMetadata,
			})
		}
	}

	if s.text == nil || s.sampleSize < 0 {
		return findings, nil
	}
	sample, err := a.SampleRows(ctx, schema, table, s.sampleSize)
	if err != nil {
		// column-name findings stand on their own
		s.fail(stats, err, zap.String("schema", shown), zap.String("table", table))
		return findings, nil
	}
	stats.RowsSampled += len(sample.Rows)
	return append(findings, s.ScanTableContent(shown, table, columns, sample)...), nil
}

func (s *Scanner) fail(stats *Stats, err error, fields ...zap.Field) {
	stats.Errors = append(stats.Errors, err)
	s.logger.Warn("skipping database object", append(fields, zap.Error(err))...)
}

// stringify renders a driver value as text.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// displaySchema names the unnamed schema in findings.
func displaySchema(schema string) string {
	if schema == "" {
		return "default"
	}
	return schema
}

func qualifiedName(schema, table, column string) string {
	if schema == "" {
		return table + "." + column
	}
	return schema + "." + table + "." + column
}
