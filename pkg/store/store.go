// Package store persists scan history: one record per scan and the
// findings it produced.
package store

import (
	"errors"
	"fmt"

	"github.com/truconsent/truscanner/pkg/types"
)

// ErrScanNotFound is returned when a scan ID is not in the store.
var ErrScanNotFound = errors.New("scan not found")

// MemoryPath selects the in-memory store.
const MemoryPath = ":memory:"

// Store provides persistence for scan results.
// This interface abstracts the underlying storage implementation,
// allowing for different backends.
type Store interface {
	// AddScan stores a scan record, replacing one with the same ID.
	AddScan(rec types.ScanRecord) error

	// AddFindings appends findings to a stored scan, keeping their order.
	AddFindings(scanID string, findings []types.Finding) error

	// GetScans retrieves all scan records, newest first.
	GetScans() ([]types.ScanRecord, error)

	// GetScan retrieves one scan record.
	GetScan(id string) (types.ScanRecord, error)

	// GetFindings retrieves the findings of a scan in the order they were added.
	GetFindings(scanID string) ([]types.Finding, error)

	// Close closes the database connection.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store (useful for testing).
	Path string
}

// New creates a store: MemoryStore for ":memory:", SQLiteStore otherwise.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.Path == MemoryPath {
		return NewMemory(), nil
	}
	return NewSQLite(cfg.Path)
}

// Save stores a scan record together with its findings.
func Save(s Store, rec types.ScanRecord, findings []types.Finding) error {
	if err := s.AddScan(rec); err != nil {
		return err
	}
	return s.AddFindings(rec.ID, findings)
}
