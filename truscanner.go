// Package truscanner finds privacy-sensitive data elements in source code.
//
// A Scanner holds a catalog of named patterns (email addresses, phone
// numbers, government identifiers and so on) and reports every line where
// one of them occurs, after dropping matches that carry no data such as
// comments, bare declarations and SQL field lists.
//
// # Basic Usage
//
// Create a scanner with the builtin catalog and scan text:
//
//	scanner, err := truscanner.NewScanner()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, f := range scanner.ScanText(`user = "alice@example.com"`, "inline") {
//	    fmt.Printf("line %d: %s (%s)\n", f.LineNumber, f.ElementName, f.MatchedText)
//	}
//
// # Scanning a Tree
//
//	result, err := scanner.ScanDirectory(ctx, "./src", truscanner.DirOptions{Workers: 4})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d findings in %d files\n", len(result.Findings), result.FilesScanned)
package truscanner

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/truconsent/truscanner/pkg/catalog"
	"github.com/truconsent/truscanner/pkg/enum"
	"github.com/truconsent/truscanner/pkg/fpfilter"
	"github.com/truconsent/truscanner/pkg/matcher"
	"github.com/truconsent/truscanner/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/truconsent/truscanner" without subpackages.
type (
	// Finding is one reported data element on one line.
	Finding = types.Finding

	// PatternElement is a named data element with its patterns.
	PatternElement = types.PatternElement

	// Catalog is a loaded set of pattern elements.
	Catalog = types.Catalog

	// FilterConfig selects catalog elements by name and category.
	FilterConfig = catalog.FilterConfig
)

// Scanner finds data elements in text, files and directory trees.
// The catalog is fixed at construction; a Scanner is safe for concurrent use.
type Scanner struct {
	matcher *matcher.Matcher
	catalog *types.Catalog
	logger  *zap.Logger
}

// scannerConfig holds scanner configuration.
type scannerConfig struct {
	catalog    *types.Catalog
	catalogDir string
	filter     catalog.FilterConfig
	fpFilter   *fpfilter.Filter
	logger     *zap.Logger
}

// Option configures a Scanner.
type Option func(*scannerConfig)

// WithCatalog uses an already loaded catalog instead of the builtin one.
func WithCatalog(cat *Catalog) Option {
	return func(c *scannerConfig) {
		c.catalog = cat
	}
}

// WithCatalogDir loads the catalog from a directory of JSON/YAML files.
// A missing directory yields an empty catalog and a logged warning.
func WithCatalogDir(dir string) Option {
	return func(c *scannerConfig) {
		c.catalogDir = dir
	}
}

// WithElementFilter restricts the catalog by element name or category.
func WithElementFilter(filter FilterConfig) Option {
	return func(c *scannerConfig) {
		c.filter = filter
	}
}

// WithFalsePositiveFilter replaces the default heuristic chain.
func WithFalsePositiveFilter(f *fpfilter.Filter) Option {
	return func(c *scannerConfig) {
		c.fpFilter = f
	}
}

// WithLogger sets the logger for catalog diagnostics and skipped files.
func WithLogger(logger *zap.Logger) Option {
	return func(c *scannerConfig) {
		c.logger = logger
	}
}

// NewScanner creates a Scanner with the given options.
//
// By default, the scanner uses the builtin catalog and the default
// false-positive heuristics, and logs nothing.
func NewScanner(opts ...Option) (*Scanner, error) {
	config := &scannerConfig{}
	for _, opt := range opts {
		opt(config)
	}
	if config.logger == nil {
		config.logger = zap.NewNop()
	}

	cat := config.catalog
	if cat == nil {
		loader := catalog.NewLoader()
		if config.catalogDir != "" {
			loader = catalog.NewDirLoader(config.catalogDir)
		}
		cat = loader.WithLogger(config.logger).Load()
	}

	filtered, err := catalog.Filter(cat, config.filter)
	if err != nil {
		return nil, fmt.Errorf("filtering catalog: %w", err)
	}

	return &Scanner{
		matcher: matcher.New(matcher.Config{
			Catalog: filtered,
			Filter:  config.fpFilter,
			Logger:  config.logger,
		}),
		catalog: filtered,
		logger:  config.logger,
	}, nil
}

// ElementCount returns the number of catalog elements in use.
func (s *Scanner) ElementCount() int {
	return s.catalog.Len()
}

// Catalog returns the catalog in use. It must not be modified.
func (s *Scanner) Catalog() *Catalog {
	return s.catalog
}

// ScanText scans text and returns its findings. context is copied into
// every finding, typically the file the text came from.
func (s *Scanner) ScanText(text, context string) []Finding {
	return s.matcher.Match(text, context)
}

// ScanFile reads and scans one file. The file is decoded as text whatever
// its extension.
//
// A missing path returns an error wrapping types.ErrPathNotFound and a
// directory one wrapping types.ErrIsDirectory. A file that exists but cannot
// be read returns a *types.FileReadError.
func (s *Scanner) ScanFile(path string) ([]Finding, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, types.ErrPathNotFound)
		}
		return nil, &types.FileReadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w; use ScanDirectory", path, types.ErrIsDirectory)
	}

	var findings []Finding
	summary, err := enum.NewFilesystemEnumerator(enum.Config{
		Root:   path,
		Logger: s.logger,
	}).Enumerate(context.Background(), func(f enum.File) error {
		findings = append(findings, s.scanEnumerated(f)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(summary.ReadErrors) > 0 {
		return nil, summary.ReadErrors[0]
	}
	return findings, nil
}

// DirOptions controls which files ScanDirectory visits.
// Nil lists use the walker defaults.
type DirOptions struct {
	Extensions       []string
	AllExtensions    bool
	ExcludeDirs      []string
	ExcludeFiles     []string
	IncludeHidden    bool
	RespectGitignore bool
	MaxFileSize      int64
	Workers          int
	Progress         enum.ProgressFunc
}

// DirResult is the outcome of a directory scan.
type DirResult struct {
	Findings     []Finding
	FilesScanned int
	BinarySkips  int
	ReadErrors   []error
}

// ScanDirectory walks root and scans every eligible file, in walk order.
// A root that is a file is scanned on its own. A missing root returns an
// error wrapping types.ErrPathNotFound.
func (s *Scanner) ScanDirectory(ctx context.Context, root string, opts DirOptions) (*DirResult, error) {
	e := enum.NewFilesystemEnumerator(enum.Config{
		Root:             root,
		Extensions:       opts.Extensions,
		AllExtensions:    opts.AllExtensions,
		ExcludeDirs:      opts.ExcludeDirs,
		ExcludeFiles:     opts.ExcludeFiles,
		IncludeHidden:    opts.IncludeHidden,
		RespectGitignore: opts.RespectGitignore,
		MaxFileSize:      opts.MaxFileSize,
		Workers:          opts.Workers,
		Progress:         opts.Progress,
		Logger:           s.logger,
	})

	result := &DirResult{}
	summary, err := e.Enumerate(ctx, func(f enum.File) error {
		result.Findings = append(result.Findings, s.scanEnumerated(f)...)
		return nil
	})
	if summary != nil {
		result.FilesScanned = summary.Files
		result.BinarySkips = summary.Binary
		result.ReadErrors = summary.ReadErrors
	}
	if err != nil {
		if errors.Is(err, types.ErrPathNotFound) {
			return nil, err
		}
		return result, fmt.Errorf("scanning %s: %w", root, err)
	}

	s.logger.Info("directory scanned",
		zap.String("root", root),
		zap.Int("files", result.FilesScanned),
		zap.Int("findings", len(result.Findings)),
		zap.Int("read_errors", len(result.ReadErrors)))
	return result, nil
}

// scanEnumerated scans one walked file and stamps its findings with the path.
func (s *Scanner) scanEnumerated(f enum.File) []Finding {
	findings := s.matcher.Match(f.Content, f.Path)
	for i := range findings {
		findings[i].Filename = f.Path
	}
	return findings
}
