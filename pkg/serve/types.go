package serve

import (
	"encoding/json"

	"github.com/truconsent/truscanner/pkg/types"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"`    // "scan" | "scan_batch" | "close"
	Payload json.RawMessage `json:"payload"`
}

// ScanPayload is the payload for "scan" requests
type ScanPayload struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// ScanBatchPayload is the payload for "scan_batch" requests
type ScanBatchPayload struct {
	Items []ContentItem `json:"items"`
}

// ContentItem is one piece of text to scan, e.g. an editor buffer.
type ContentItem struct {
	Source  string `json:"source"`  // file name or buffer id, copied into finding context
	Content string `json:"content"` // the text to scan
}

// ScanResult holds the findings for a single item
type ScanResult struct {
	Source   string          `json:"source"`
	Findings []types.Finding `json:"findings"`
}

// BatchScanResult holds the results of a batch, in request order
type BatchScanResult struct {
	Results []ScanResult `json:"results"`
	Total   int          `json:"total"` // findings across all results
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"`              // "ready" | "scan" | "scan_batch" | "error"
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version  string `json:"version"`
	Elements int    `json:"elements"` // catalog elements loaded
}
