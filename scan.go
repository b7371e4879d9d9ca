package truscanner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/truconsent/truscanner/pkg/catalog"
	"github.com/truconsent/truscanner/pkg/report"
	"github.com/truconsent/truscanner/pkg/types"
)

// ErrUnsupportedScheme is returned for targets that are URLs other than file://.
var ErrUnsupportedScheme = errors.New("only local paths or file:// URLs are supported")

// ScanOptions controls a Scan call.
type ScanOptions struct {
	DirOptions

	// PersonalOnly keeps only findings whose category is one of
	// catalog.PersonalCategories.
	PersonalOnly bool
}

// ScanReport is the outcome of Scan.
type ScanReport struct {
	ID                 string        `json:"scan_report_id"`
	Target             string        `json:"directory_scanned"`
	StartedAt          time.Time     `json:"started_at"`
	ConfiguredElements int           `json:"configured_data_elements"`
	FilesScanned       int           `json:"files_scanned"`
	TotalFindings      int           `json:"total_findings"`
	DurationSeconds    float64       `json:"scan_duration_seconds"`
	Duration           time.Duration `json:"-"`
	Findings           []Finding     `json:"findings"`
	ReadErrors         []error       `json:"-"`
}

// Record summarizes the report for storage.
func (r *ScanReport) Record() types.ScanRecord {
	return types.ScanRecord{
		ID:                 r.ID,
		Target:             r.Target,
		StartedAt:          r.StartedAt,
		Duration:           r.Duration,
		FilesScanned:       r.FilesScanned,
		ConfiguredElements: r.ConfiguredElements,
		TotalFindings:      r.TotalFindings,
	}
}

// Scan creates a scanner from scannerOpts and scans pathOrURL with it.
func Scan(ctx context.Context, pathOrURL string, opts ScanOptions, scannerOpts ...Option) (*ScanReport, error) {
	s, err := NewScanner(scannerOpts...)
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx, pathOrURL, opts)
}

// Scan resolves pathOrURL, a local path or file:// URL, and scans the
// file or tree it names.
func (s *Scanner) Scan(ctx context.Context, pathOrURL string, opts ScanOptions) (*ScanReport, error) {
	target, err := ResolveTarget(pathOrURL)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	rep := &ScanReport{
		ID:                 report.NewID(target),
		Target:             target,
		StartedAt:          started,
		ConfiguredElements: s.ElementCount(),
	}

	result, err := s.ScanDirectory(ctx, target, opts.DirOptions)
	if err != nil {
		return nil, err
	}
	rep.Duration = time.Since(started)
	rep.DurationSeconds = rep.Duration.Seconds()
	rep.FilesScanned = result.FilesScanned
	rep.ReadErrors = result.ReadErrors

	findings := result.Findings
	if opts.PersonalOnly {
		findings = personalOnly(findings)
	}
	if findings == nil {
		findings = []Finding{}
	}
	rep.Findings = findings
	rep.TotalFindings = len(findings)

	s.logger.Debug("scan complete",
		zap.String("id", rep.ID),
		zap.String("target", target),
		zap.Duration("duration", rep.Duration))
	return rep, nil
}

// ResolveTarget turns a local path or file:// URL into an absolute path
// that exists. A file URL with a host other than localhost names a UNC
// path. A missing target returns an error wrapping types.ErrPathNotFound.
func ResolveTarget(pathOrURL string) (string, error) {
	path := pathOrURL
	if u, err := url.Parse(pathOrURL); err == nil && len(u.Scheme) > 1 {
		if !strings.EqualFold(u.Scheme, "file") {
			return "", fmt.Errorf("%w: received scheme %q", ErrUnsupportedScheme, u.Scheme)
		}
		path = u.Path
		if u.Host != "" && u.Host != "localhost" {
			path = "//" + u.Host + u.Path
		}
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %s: %w", path, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", abs, types.ErrPathNotFound)
		}
		return "", fmt.Errorf("resolving %s: %w", abs, err)
	}
	return resolved, nil
}

func personalOnly(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if catalog.InCategories(f.ElementCategory, catalog.PersonalCategories) {
			out = append(out, f)
		}
	}
	return out
}
