package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sqlx.DB) error {
	// Create schema_version table
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	if err := createScansTable(db); err != nil {
		return fmt.Errorf("creating scans table: %w", err)
	}

	if err := createFindingsTable(db); err != nil {
		return fmt.Errorf("creating findings table: %w", err)
	}

	return nil
}

// schemaVersion reads the stored schema version.
func schemaVersion(db *sqlx.DB) (int, error) {
	var version int
	err := db.Get(&version, "SELECT version FROM schema_version LIMIT 1")
	return version, err
}

func createSchemaVersionTable(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Insert version if table is empty
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM schema_version"); err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}

	version, err := schemaVersion(db)
	if err != nil {
		return err
	}
	if version != SchemaVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", version, SchemaVersion)
	}
	return nil
}

func createScansTable(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY NOT NULL,
			target TEXT NOT NULL,
			started_at TEXT NOT NULL,
			duration_ns INTEGER NOT NULL,
			files_scanned INTEGER NOT NULL,
			configured_elements INTEGER NOT NULL,
			total_findings INTEGER NOT NULL
		)
	`)
	return err
}

func createFindingsTable(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS findings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id TEXT NOT NULL REFERENCES scans(id),
			seq INTEGER NOT NULL,
			filename TEXT NOT NULL,
			line_number INTEGER NOT NULL,
			line_content TEXT NOT NULL,
			matched_text TEXT NOT NULL,
			element_name TEXT NOT NULL,
			element_category TEXT NOT NULL,
			is_sensitive INTEGER NOT NULL,
			sensitivity TEXT NOT NULL,
			tags_json TEXT NOT NULL,
			context TEXT NOT NULL,
			source TEXT NOT NULL,
			UNIQUE(scan_id, seq)
		)
	`)
	if err != nil {
		return err
	}

	// Create index for efficient finding lookup by scan
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_findings_scan_id ON findings(scan_id)
	`)
	return err
}
