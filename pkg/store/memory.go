package store

import (
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/truconsent/truscanner/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu       sync.RWMutex
	scans    map[string]types.ScanRecord
	findings map[string][]types.Finding // keyed by scan ID
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		scans:    make(map[string]types.ScanRecord),
		findings: make(map[string][]types.Finding),
	}
}

// AddScan stores a scan record.
func (m *MemoryStore) AddScan(rec types.ScanRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("scan ID is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scans[rec.ID] = rec
	return nil
}

// AddFindings appends findings to a stored scan.
func (m *MemoryStore) AddFindings(scanID string, findings []types.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.scans[scanID]; !ok {
		return fmt.Errorf("%s: %w", scanID, ErrScanNotFound)
	}
	for _, f := range findings {
		f.Tags = maps.Clone(f.Tags)
		m.findings[scanID] = append(m.findings[scanID], f)
	}
	return nil
}

// GetScans retrieves all scan records, newest first.
func (m *MemoryStore) GetScans() ([]types.ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]types.ScanRecord, 0, len(m.scans))
	for _, rec := range m.scans {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].StartedAt.After(result[j].StartedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// GetScan retrieves one scan record.
func (m *MemoryStore) GetScan(id string) (types.ScanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.scans[id]
	if !ok {
		return types.ScanRecord{}, fmt.Errorf("%s: %w", id, ErrScanNotFound)
	}
	return rec, nil
}

// GetFindings retrieves the findings of a scan.
func (m *MemoryStore) GetFindings(scanID string) ([]types.Finding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.scans[scanID]; !ok {
		return nil, fmt.Errorf("%s: %w", scanID, ErrScanNotFound)
	}

	// Return a copy to avoid external modifications
	result := make([]types.Finding, len(m.findings[scanID]))
	copy(result, m.findings[scanID])
	return result, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
