package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the database files to merge from.
	SourcePaths []string
	// DestPath is the destination database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	ScansMerged      int
	FindingsMerged   int
	SourcesProcessed int
}

// Merge combines the scan history of several databases into one.
// Scans already present in the destination are skipped with their findings.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	// Open/create destination database
	dest, err := NewSQLite(cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer dest.Close()

	stats := &MergeStats{}

	// Process each source database
	for _, sourcePath := range cfg.SourcePaths {
		sourceStats, err := mergeFrom(dest.db, sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.ScansMerged += sourceStats.ScansMerged
		stats.FindingsMerged += sourceStats.FindingsMerged
		stats.SourcesProcessed++
	}

	return stats, nil
}

// mergeFrom copies scans and their findings from a source database.
func mergeFrom(destDB *sqlx.DB, sourcePath string) (*MergeStats, error) {
	source, err := sqlx.Open(DriverName, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening source database: %w", err)
	}
	defer source.Close()

	version, err := schemaVersion(source)
	if err != nil {
		return nil, fmt.Errorf("reading schema version: %w", err)
	}
	if version != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", version)
	}

	var scans []scanRow
	if err := source.Select(&scans, "SELECT * FROM scans"); err != nil {
		return nil, fmt.Errorf("reading scans: %w", err)
	}

	stats := &MergeStats{}

	// Start transaction for efficiency
	tx, err := destDB.Beginx()
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, scan := range scans {
		result, err := tx.NamedExec(`
			INSERT OR IGNORE INTO scans (id, target, started_at, duration_ns, files_scanned, configured_elements, total_findings)
			VALUES (:id, :target, :started_at, :duration_ns, :files_scanned, :configured_elements, :total_findings)
		`, scan)
		if err != nil {
			return nil, fmt.Errorf("merging scan %s: %w", scan.ID, err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			continue
		}
		stats.ScansMerged++

		var findings []findingRow
		err = source.Select(&findings, `
			SELECT scan_id, seq, filename, line_number, line_content, matched_text,
				element_name, element_category, is_sensitive, sensitivity, tags_json, context, source
			FROM findings WHERE scan_id = ? ORDER BY seq
		`, scan.ID)
		if err != nil {
			return nil, fmt.Errorf("reading findings of scan %s: %w", scan.ID, err)
		}
		for _, f := range findings {
			_, err := tx.NamedExec(`
				INSERT INTO findings (scan_id, seq, filename, line_number, line_content, matched_text,
					element_name, element_category, is_sensitive, sensitivity, tags_json, context, source)
				VALUES (:scan_id, :seq, :filename, :line_number, :line_content, :matched_text,
					:element_name, :element_category, :is_sensitive, :sensitivity, :tags_json, :context, :source)
			`, f)
			if err != nil {
				return nil, fmt.Errorf("merging finding: %w", err)
			}
			stats.FindingsMerged++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return stats, nil
}
