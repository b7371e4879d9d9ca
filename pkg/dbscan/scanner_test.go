package dbscan

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truconsent/truscanner/pkg/catalog"
	"github.com/truconsent/truscanner/pkg/matcher"
	"github.com/truconsent/truscanner/pkg/types"
)

const columnCatalog = `{
  "sources": [
    {"name": "Email Open Rates", "category": "Behavioral Data", "patterns": ["email"]},
    {"name": "Work Email", "category": "Professional Information", "patterns": ["email", "work"]},
    {
      "name": "Email Address",
      "category": "Contact Information",
      "patterns": ["[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\\.[A-Za-z]{2,}", "email"],
      "tags": {"gdpr": true}
    },
    {
      "name": "Phone Number",
      "category": "Contact Information",
      "patterns": ["phone|mobile|cell", "\\b\\d{3}-\\d{3}-\\d{4}\\b"]
    },
    {
      "name": "Social Security Number",
      "category": "Government-Issued Identifiers",
      "patterns": ["\\b\\d{3}-\\d{2}-\\d{4}\\b", "ssn"]
    },
    {"name": "Full Name", "category": "Personal Identifiable Information", "patterns": ["full_?name"]}
  ]
}`

func testCatalog(t *testing.T) *types.Catalog {
	t.Helper()
	elements, diags := catalog.NewLoader().Parse("columns.json", []byte(columnCatalog))
	require.Empty(t, diags)
	return &types.Catalog{Elements: elements}
}

func newTestScanner(t *testing.T) *Scanner {
	t.Helper()
	cat := testCatalog(t)
	return NewScanner(ScannerConfig{
		Catalog: cat,
		Text:    textScanner{matcher.New(matcher.Config{Catalog: cat})},
	})
}

// textScanner adapts a matcher to TextScanner.
type textScanner struct{ m *matcher.Matcher }

func (s textScanner) ScanText(text, context string) []types.Finding {
	return s.m.Match(text, context)
}

func elementNames(elements []*types.PatternElement) []string {
	var names []string
	for _, e := range elements {
		names = append(names, e.Name)
	}
	return names
}

func TestScanColumnName(t *testing.T) {
	s := newTestScanner(t)

	tests := []struct {
		column string
		want   []string
	}{
		{"email", []string{"Email Address"}},
		{"EMAIL", []string{"Email Address"}},
		{"user_email", []string{"Email Address"}},
		{"work_email", []string{"Email Address"}},
		{"email_open_rate", []string{"Email Address"}},
		{"phone", []string{"Phone Number"}},
		{"mobile", []string{"Phone Number"}},
		{"cell_number", []string{"Phone Number"}},
		{"user_ssn", []string{"Social Security Number"}},
		{"FullName", []string{"Full Name"}},
		{"created_at", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, elementNames(s.ScanColumnName(tt.column)))
		})
	}
}

func TestScanColumnName_RevertsWhenEverythingFiltered(t *testing.T) {
	cat := testCatalog(t)
	var narrowed []*types.PatternElement
	for _, e := range cat.Elements {
		if e.Name == "Email Open Rates" || e.Name == "Work Email" {
			narrowed = append(narrowed, e)
		}
	}
	s := NewScanner(ScannerConfig{Catalog: &types.Catalog{Elements: narrowed}})

	assert.Equal(t, []string{"Email Open Rates"}, elementNames(s.ScanColumnName("contact_email")))
	assert.Equal(t, []string{"Work Email"}, elementNames(s.ScanColumnName("job_email")))
}

func TestScanColumnName_NoCatalog(t *testing.T) {
	s := NewScanner(ScannerConfig{})
	assert.Empty(t, s.ScanColumnName("email"))
}

func TestScanTableContent(t *testing.T) {
	s := newTestScanner(t)
	columns := []Column{{Name: "contact", Type: "TEXT"}, {Name: "notes", Type: "TEXT"}}
	sample := &Sample{
		Columns: []string{"contact", "notes"},
		Rows: [][]any{
			{nil, ""},
			{[]byte("alice@corp.io"), "call 555-123-4567"},
			{"bob@corp.io", "  "},
		},
	}

	findings := s.ScanTableContent("main", "people", columns, sample)
	require.Len(t, findings, 2)

	assert.Equal(t, "contact", findings[0].ColumnName)
	assert.Equal(t, "TEXT", findings[0].ColumnType)
	assert.Equal(t, "Email Address", findings[0].ElementName)
	assert.Equal(t, "alice@corp.io", findings[0].MatchedText)
	assert.Equal(t, 2, findings[0].RowIndex)
	assert.Equal(t, types.SourceContent, findings[0].Source)

	assert.Equal(t, "notes", findings[1].ColumnName)
	assert.Equal(t, "Phone Number", findings[1].ElementName)
}

func TestScanTableContent_NoTextScanner(t *testing.T) {
	s := NewScanner(ScannerConfig{Catalog: testCatalog(t)})
	sample := &Sample{Columns: []string{"c"}, Rows: [][]any{{"alice@corp.io"}}}
	assert.Nil(t, s.ScanTableContent("main", "t", nil, sample))
}

func TestStringify(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "", stringify(nil))
	assert.Equal(t, "abc", stringify([]byte("abc")))
	assert.Equal(t, "42", stringify(int64(42)))
	assert.Equal(t, "2024-03-01T12:00:00Z", stringify(ts))
}

func newSQLiteFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crm.db")
	db, err := sqlx.Connect("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	db.MustExec(`CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT, phone TEXT, notes TEXT)`)
	db.MustExec(`CREATE TABLE orders (id INTEGER PRIMARY KEY, amount REAL)`)
	db.MustExec(`INSERT INTO users (email, phone, notes) VALUES (?, ?, ?)`, "alice@corp.io", "555-123-4567", "ssn 123-45-6789")
	db.MustExec(`INSERT INTO users (email, phone, notes) VALUES (?, ?, ?)`, "bob@corp.io", nil, "")
	db.MustExec(`INSERT INTO orders (amount) VALUES (?)`, 12.5)
	return path
}

func TestSQLAdapter_SQLite(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, Config{Driver: "sqlite", DSN: newSQLiteFixture(t)})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, DriverSQLite, a.Kind())

	schemas, err := a.Schemas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, schemas)

	tables, err := a.Tables(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)

	columns, err := a.Columns(ctx, "main", "users")
	require.NoError(t, err)
	assert.Equal(t, []Column{
		{Name: "id", Type: "INTEGER"},
		{Name: "email", Type: "TEXT"},
		{Name: "phone", Type: "TEXT"},
		{Name: "notes", Type: "TEXT"},
	}, columns)

	sample, err := a.SampleRows(ctx, "main", "users", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email", "phone", "notes"}, sample.Columns)
	require.Len(t, sample.Rows, 1)
	assert.Equal(t, "alice@corp.io", stringify(sample.Rows[0][1]))
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Config{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Driver: "sqlite"})
	assert.Error(t, err)
}

func TestScanDatabase_SQLite(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, Config{Driver: "sqlite", DSN: newSQLiteFixture(t)})
	require.NoError(t, err)
	defer a.Close()

	findings, stats, err := newTestScanner(t).ScanDatabase(ctx, a)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Schemas)
	assert.Equal(t, 2, stats.Tables)
	assert.Equal(t, 6, stats.Columns)
	assert.Equal(t, 3, stats.RowsSampled)
	assert.Empty(t, stats.Errors)

	type key struct{ table, column, element, source string }
	got := make(map[key]types.ColumnFinding)
	for _, f := range findings {
		assert.Equal(t, "main", f.SchemaName)
		got[key{f.TableName, f.ColumnName, f.ElementName, f.Source}] = f
	}

	meta, ok := got[key{"users", "email", "Email Address", types.SourceMetadata}]
	require.True(t, ok)
	assert.Equal(t, "email", meta.MatchedText)
	assert.Equal(t, "TEXT", meta.ColumnType)
	assert.Equal(t, map[string]any{"gdpr": true}, meta.Tags)

	assert.Contains(t, got, key{"users", "phone", "Phone Number", types.SourceMetadata})

	content, ok := got[key{"users", "email", "Email Address", types.SourceContent}]
	require.True(t, ok)
	assert.Equal(t, "alice@corp.io", content.MatchedText)
	assert.Equal(t, 1, content.RowIndex)

	assert.Contains(t, got, key{"users", "phone", "Phone Number", types.SourceContent})
	assert.Contains(t, got, key{"users", "notes", "Social Security Number", types.SourceContent})

	for k := range got {
		assert.NotEqual(t, "orders", k.table, "orders holds no data elements")
	}
}

// fakeAdapter serves canned metadata and fails on request.
type fakeAdapter struct {
	schemas    []string
	tables     map[string][]string
	columns    map[string][]Column
	samples    map[string]*Sample
	failTables map[string]bool
	failCols   map[string]bool
	failSample map[string]bool
}

var errFake = errors.New("permission denied")

func (f *fakeAdapter) Kind() string { return "fake" }

func (f *fakeAdapter) Schemas(context.Context) ([]string, error) { return f.schemas, nil }

func (f *fakeAdapter) Tables(_ context.Context, schema string) ([]string, error) {
	if f.failTables[schema] {
		return nil, errFake
	}
	return f.tables[schema], nil
}

func (f *fakeAdapter) Columns(_ context.Context, _, table string) ([]Column, error) {
	if f.failCols[table] {
		return nil, errFake
	}
	return f.columns[table], nil
}

func (f *fakeAdapter) SampleRows(_ context.Context, _, table string, _ int) (*Sample, error) {
	if f.failSample[table] {
		return nil, errFake
	}
	if s, ok := f.samples[table]; ok {
		return s, nil
	}
	return &Sample{}, nil
}

func (f *fakeAdapter) Close() error { return nil }

func TestScanDatabase_SkipsFailures(t *testing.T) {
	a := &fakeAdapter{
		schemas: []string{"public", "locked"},
		tables:  map[string][]string{"public": {"customers", "secrets", "leads"}},
		columns: map[string][]Column{
			"customers": {{Name: "email", Type: "text"}},
			"leads":     {{Name: "phone", Type: "text"}},
		},
		failTables: map[string]bool{"locked": true},
		failCols:   map[string]bool{"secrets": true},
		failSample: map[string]bool{"leads": true},
	}

	findings, stats, err := newTestScanner(t).ScanDatabase(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Schemas)
	assert.Equal(t, 2, stats.Tables)
	assert.Len(t, stats.Errors, 3)

	require.Len(t, findings, 2)
	assert.Equal(t, "customers", findings[0].TableName)
	assert.Equal(t, "Email Address", findings[0].ElementName)
	assert.Equal(t, "leads", findings[1].TableName)
	assert.Equal(t, "Phone Number", findings[1].ElementName)
}

func TestScanDatabase_DefaultSchema(t *testing.T) {
	a := &fakeAdapter{
		tables:  map[string][]string{"": {"contacts"}},
		columns: map[string][]Column{"contacts": {{Name: "email"}}},
	}

	findings, stats, err := newTestScanner(t).ScanDatabase(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Schemas)
	require.Len(t, findings, 1)
	assert.Equal(t, "default", findings[0].SchemaName)
}

func TestScanDatabase_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &fakeAdapter{schemas: []string{"public"}}
	_, _, err := newTestScanner(t).ScanDatabase(ctx, a)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanDatabase_NoContentSampling(t *testing.T) {
	a := &fakeAdapter{
		schemas: []string{"public"},
		tables:  map[string][]string{"public": {"customers"}},
		columns: map[string][]Column{"customers": {{Name: "notes"}}},
		samples: map[string]*Sample{"customers": {Columns: []string{"notes"}, Rows: [][]any{{"alice@corp.io"}}}},
	}
	cat := testCatalog(t)
	s := NewScanner(ScannerConfig{
		Catalog:    cat,
		Text:       textScanner{matcher.New(matcher.Config{Catalog: cat})},
		SampleSize: -1,
	})

	findings, stats, err := s.ScanDatabase(context.Background(), a)
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Zero(t, stats.RowsSampled)
}
