// Package serve runs a long-lived scanner that reads NDJSON scan requests
// on one stream and writes NDJSON responses on another.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/truconsent/truscanner/pkg/types"
)

// Version is the server protocol version
const Version = "1.0.0"

// Scanner is what the server needs from a truscanner.Scanner.
type Scanner interface {
	ScanText(text, context string) []types.Finding
	ElementCount() int
}

// Server manages the streaming scanner
type Server struct {
	scanner Scanner
	encoder *json.Encoder
	decoder *json.Decoder
	logger  *zap.Logger
}

// NewServer creates a new streaming server
func NewServer(scanner Scanner, in io.Reader, out io.Writer) *Server {
	return &Server{
		scanner: scanner,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for protocol errors.
func (s *Server) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Run starts the server main loop. It returns nil when the input ends or
// a close request arrives, and the context error on cancellation.
func (s *Server) Run(ctx context.Context) error {
	s.sendReady()

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until input closes or context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(req) {
						return nil
					}
				default:
					if errors.Is(err, io.EOF) {
						return nil
					}
					s.logger.Warn("malformed request", zap.Error(err))
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(req Request) bool {
	switch req.Type {
	case "scan":
		s.handleScan(req.Payload)
	case "scan_batch":
		s.handleScanBatch(req.Payload)
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	s.send("ready", ReadyData{Version: Version, Elements: s.scanner.ElementCount()})
}

func (s *Server) handleScan(payload json.RawMessage) {
	var p ScanPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan", err.Error())
		return
	}
	s.send("scan", s.scan(ContentItem{Source: p.Source, Content: p.Content}))
}

func (s *Server) handleScanBatch(payload json.RawMessage) {
	var p ScanBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan_batch", err.Error())
		return
	}

	result := BatchScanResult{Results: make([]ScanResult, 0, len(p.Items))}
	for _, item := range p.Items {
		r := s.scan(item)
		result.Total += len(r.Findings)
		result.Results = append(result.Results, r)
	}
	s.send("scan_batch", result)
}

func (s *Server) scan(item ContentItem) ScanResult {
	findings := s.scanner.ScanText(item.Content, item.Source)
	if findings == nil {
		findings = []types.Finding{}
	}
	return ScanResult{Source: item.Source, Findings: findings}
}

func (s *Server) send(reqType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(reqType, err.Error())
		return
	}
	if err := s.encoder.Encode(Response{Success: true, Type: reqType, Data: data}); err != nil {
		s.logger.Warn("failed to write response", zap.String("type", reqType), zap.Error(err))
	}
}

func (s *Server) sendError(reqType, msg string) {
	if err := s.encoder.Encode(Response{Success: false, Type: reqType, Error: msg}); err != nil {
		s.logger.Warn("failed to write response", zap.String("type", reqType), zap.Error(err))
	}
}
