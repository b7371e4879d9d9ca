package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/truconsent/truscanner/pkg/types"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// scanRow is the scans table layout.
type scanRow struct {
	ID                 string `db:"id"`
	Target             string `db:"target"`
	StartedAt          string `db:"started_at"`
	DurationNS         int64  `db:"duration_ns"`
	FilesScanned       int    `db:"files_scanned"`
	ConfiguredElements int    `db:"configured_elements"`
	TotalFindings      int    `db:"total_findings"`
}

// findingRow is the findings table layout.
type findingRow struct {
	ScanID          string `db:"scan_id"`
	Seq             int    `db:"seq"`
	Filename        string `db:"filename"`
	LineNumber      int    `db:"line_number"`
	LineContent     string `db:"line_content"`
	MatchedText     string `db:"matched_text"`
	ElementName     string `db:"element_name"`
	ElementCategory string `db:"element_category"`
	IsSensitive     bool   `db:"is_sensitive"`
	Sensitivity     string `db:"sensitivity"`
	TagsJSON        string `db:"tags_json"`
	Context         string `db:"context"`
	Source          string `db:"source"`
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one connection keeps ":memory:" databases intact and serializes writers
	db.SetMaxOpenConns(1)

	// Initialize schema
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// AddScan stores a scan record.
func (s *SQLiteStore) AddScan(rec types.ScanRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("scan ID is required")
	}
	_, err := s.db.NamedExec(`
		INSERT OR REPLACE INTO scans (id, target, started_at, duration_ns, files_scanned, configured_elements, total_findings)
		VALUES (:id, :target, :started_at, :duration_ns, :files_scanned, :configured_elements, :total_findings)
	`, toScanRow(rec))
	if err != nil {
		return fmt.Errorf("inserting scan: %w", err)
	}
	return nil
}

// AddFindings appends findings to a stored scan.
func (s *SQLiteStore) AddFindings(scanID string, findings []types.Finding) error {
	if _, err := s.GetScan(scanID); err != nil {
		return err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.Get(&next, "SELECT COALESCE(MAX(seq) + 1, 0) FROM findings WHERE scan_id = ?", scanID); err != nil {
		return fmt.Errorf("reading finding sequence: %w", err)
	}

	stmt, err := tx.PrepareNamed(`
		INSERT INTO findings (scan_id, seq, filename, line_number, line_content, matched_text,
			element_name, element_category, is_sensitive, sensitivity, tags_json, context, source)
		VALUES (:scan_id, :seq, :filename, :line_number, :line_content, :matched_text,
			:element_name, :element_category, :is_sensitive, :sensitivity, :tags_json, :context, :source)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range findings {
		row, err := toFindingRow(scanID, next+i, f)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("inserting finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing findings: %w", err)
	}
	return nil
}

// GetScans retrieves all scan records, newest first.
func (s *SQLiteStore) GetScans() ([]types.ScanRecord, error) {
	var rows []scanRow
	if err := s.db.Select(&rows, "SELECT * FROM scans ORDER BY started_at DESC, id"); err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}

	scans := make([]types.ScanRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		scans = append(scans, rec)
	}
	return scans, nil
}

// GetScan retrieves one scan record.
func (s *SQLiteStore) GetScan(id string) (types.ScanRecord, error) {
	var row scanRow
	err := s.db.Get(&row, "SELECT * FROM scans WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ScanRecord{}, fmt.Errorf("%s: %w", id, ErrScanNotFound)
	}
	if err != nil {
		return types.ScanRecord{}, fmt.Errorf("querying scan: %w", err)
	}
	return row.record()
}

// GetFindings retrieves the findings of a scan.
func (s *SQLiteStore) GetFindings(scanID string) ([]types.Finding, error) {
	if _, err := s.GetScan(scanID); err != nil {
		return nil, err
	}

	var rows []findingRow
	err := s.db.Select(&rows, `
		SELECT scan_id, seq, filename, line_number, line_content, matched_text,
			element_name, element_category, is_sensitive, sensitivity, tags_json, context, source
		FROM findings
		WHERE scan_id = ?
		ORDER BY seq
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}

	findings := make([]types.Finding, 0, len(rows))
	for _, row := range rows {
		f, err := row.finding()
		if err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	return findings, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func toScanRow(rec types.ScanRecord) scanRow {
	return scanRow{
		ID:                 rec.ID,
		Target:             rec.Target,
		StartedAt:          rec.StartedAt.UTC().Format(timeLayout),
		DurationNS:         int64(rec.Duration),
		FilesScanned:       rec.FilesScanned,
		ConfiguredElements: rec.ConfiguredElements,
		TotalFindings:      rec.TotalFindings,
	}
}

func (r scanRow) record() (types.ScanRecord, error) {
	started, err := time.Parse(timeLayout, r.StartedAt)
	if err != nil {
		return types.ScanRecord{}, fmt.Errorf("parsing started_at of scan %s: %w", r.ID, err)
	}
	return types.ScanRecord{
		ID:                 r.ID,
		Target:             r.Target,
		StartedAt:          started,
		Duration:           time.Duration(r.DurationNS),
		FilesScanned:       r.FilesScanned,
		ConfiguredElements: r.ConfiguredElements,
		TotalFindings:      r.TotalFindings,
	}, nil
}

func toFindingRow(scanID string, seq int, f types.Finding) (findingRow, error) {
	tags := "{}"
	if len(f.Tags) > 0 {
		data, err := json.Marshal(f.Tags)
		if err != nil {
			return findingRow{}, fmt.Errorf("marshaling tags: %w", err)
		}
		tags = string(data)
	}
	return findingRow{
		ScanID:          scanID,
		Seq:             seq,
		Filename:        f.Filename,
		LineNumber:      f.LineNumber,
		LineContent:     f.LineContent,
		MatchedText:     f.MatchedText,
		ElementName:     f.ElementName,
		ElementCategory: f.ElementCategory,
		IsSensitive:     f.IsSensitive,
		Sensitivity:     f.Sensitivity,
		TagsJSON:        tags,
		Context:         f.Context,
		Source:          f.Source,
	}, nil
}

func (r findingRow) finding() (types.Finding, error) {
	var tags map[string]any
	if err := json.Unmarshal([]byte(r.TagsJSON), &tags); err != nil {
		return types.Finding{}, fmt.Errorf("unmarshaling tags: %w", err)
	}
	if len(tags) == 0 {
		tags = nil
	}
	return types.Finding{
		LineNumber:      r.LineNumber,
		LineContent:     r.LineContent,
		MatchedText:     r.MatchedText,
		ElementName:     r.ElementName,
		ElementCategory: r.ElementCategory,
		IsSensitive:     r.IsSensitive,
		Sensitivity:     r.Sensitivity,
		Tags:            tags,
		Context:         r.Context,
		Filename:        r.Filename,
		Source:          r.Source,
	}, nil
}
