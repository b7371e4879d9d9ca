package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/truconsent/truscanner/pkg/types"
)

// PatternTimeout bounds a single regexp2 evaluation against one text.
const PatternTimeout = 2 * time.Second

// Loader reads catalog documents from a filesystem and compiles them.
type Loader struct {
	fs     fs.FS  // catalog tree
	root   string // walk root within fs
	dir    string // on-disk directory, empty for embedded or custom fs
	logger *zap.Logger
}

// NewLoader creates a loader over the embedded builtin catalog.
func NewLoader() *Loader {
	return &Loader{
		fs:     builtinCatalogFS,
		root:   builtinRoot,
		logger: zap.NewNop(),
	}
}

// NewLoaderWithFS creates a loader over a custom filesystem.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{
		fs:     fsys,
		root:   ".",
		logger: zap.NewNop(),
	}
}

// NewDirLoader creates a loader over an on-disk catalog directory. dir may
// also name a single .json/.yml/.yaml catalog file.
// A missing directory is not an error: Load logs it and returns an empty catalog.
func NewDirLoader(dir string) *Loader {
	return &Loader{
		fs:     os.DirFS(dir),
		root:   ".",
		dir:    dir,
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger used for load diagnostics.
func (l *Loader) WithLogger(logger *zap.Logger) *Loader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Load walks the catalog tree and returns every usable element.
//
// Loading never fails as a whole: unreadable or malformed files, sources
// missing required fields, and patterns that do not compile are skipped,
// logged, and recorded in Catalog.Diagnostics.
func (l *Loader) Load() *types.Catalog {
	cat := &types.Catalog{}

	if l.dir != "" {
		info, err := os.Stat(l.dir)
		if err == nil && info.Mode().IsRegular() && isCatalogFile(l.dir) {
			// a single catalog document passed in place of a directory
			cat.Elements, cat.Diagnostics = l.LoadFile(l.dir)
			l.logger.Info("catalog loaded",
				zap.String("file", l.dir),
				zap.Int("elements", len(cat.Elements)),
				zap.Int("diagnostics", len(cat.Diagnostics)))
			return cat
		}
		if err != nil || !info.IsDir() {
			l.logger.Warn("catalog directory not found, continuing with empty catalog",
				zap.String("dir", l.dir))
			cat.Diagnostics = append(cat.Diagnostics, &types.CatalogLoadError{
				Path: l.dir,
				Err:  types.ErrCatalogMissing,
			})
			return cat
		}
	}

	err := fs.WalkDir(l.fs, l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == l.root && errors.Is(err, fs.ErrNotExist) {
				l.logger.Warn("catalog root not found, continuing with empty catalog", zap.String("root", p))
				err = types.ErrCatalogMissing
			} else {
				l.logger.Warn("skipping unreadable catalog path", zap.String("path", p), zap.Error(err))
			}
			cat.Diagnostics = append(cat.Diagnostics, &types.CatalogLoadError{Path: p, Err: err})
			if d != nil && d.IsDir() && p != l.root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isCatalogFile(p) {
			return nil
		}

		data, err := fs.ReadFile(l.fs, p)
		if err != nil {
			l.logger.Warn("skipping unreadable catalog file", zap.String("path", p), zap.Error(err))
			cat.Diagnostics = append(cat.Diagnostics, &types.CatalogLoadError{Path: p, Err: err})
			return nil
		}

		elements, diags := l.Parse(p, data)
		cat.Elements = append(cat.Elements, elements...)
		cat.Diagnostics = append(cat.Diagnostics, diags...)
		l.logger.Debug("loaded catalog file",
			zap.String("path", p),
			zap.Int("elements", len(elements)))
		return nil
	})
	if err != nil {
		cat.Diagnostics = append(cat.Diagnostics, &types.CatalogLoadError{Path: l.root, Err: err})
	}

	l.logger.Info("catalog loaded",
		zap.Int("elements", len(cat.Elements)),
		zap.Int("diagnostics", len(cat.Diagnostics)))
	return cat
}

// LoadFile parses a single catalog file from disk.
func (l *Loader) LoadFile(filename string) ([]*types.PatternElement, []error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, []error{&types.CatalogLoadError{Path: filename, Err: err}}
	}
	return l.Parse(filename, data)
}

// Parse decodes one catalog document and compiles its sources.
// The document format is chosen from the file extension; anything that is
// not .yml/.yaml is treated as JSON.
func (l *Loader) Parse(name string, data []byte) ([]*types.PatternElement, []error) {
	var doc catalogFile
	var err error
	switch strings.ToLower(path.Ext(name)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		l.logger.Warn("skipping malformed catalog file", zap.String("path", name), zap.Error(err))
		return nil, []error{&types.CatalogLoadError{Path: name, Err: fmt.Errorf("failed to parse: %w", err)}}
	}

	var elements []*types.PatternElement
	var diags []error
	for _, src := range doc.Sources {
		if err := validateSource(src); err != nil {
			l.logger.Warn("skipping invalid catalog source",
				zap.String("path", name),
				zap.String("source", src.Name),
				zap.Error(err))
			diags = append(diags, &types.CatalogLoadError{Path: name, Source: src.Name, Err: err})
			continue
		}

		e, errs := l.convertSource(name, src)
		diags = append(diags, errs...)
		if e == nil {
			continue
		}
		elements = append(elements, e)
	}
	return elements, diags
}

// convertSource compiles a catalog source into an element. It returns nil
// when none of the source's patterns compiled.
func (l *Loader) convertSource(file string, src catalogSource) (*types.PatternElement, []error) {
	var diags []error
	e := &types.PatternElement{
		Name:        src.Name,
		Category:    src.Category,
		Tags:        src.Tags,
		IsSensitive: src.IsSensitive,
		Sensitivity: strings.ToLower(src.Sensitivity),
		SourceFile:  file,
	}
	if e.Sensitivity == "" {
		e.Sensitivity = types.SensitivityLow
	}
	if e.Tags == nil {
		e.Tags = map[string]any{}
	}

	for _, raw := range src.Patterns {
		re, err := CompilePattern(raw, regexp2.None)
		if err != nil {
			l.logger.Warn("skipping invalid pattern",
				zap.String("path", file),
				zap.String("source", src.Name),
				zap.String("pattern", raw),
				zap.Error(err))
			diags = append(diags, &types.CatalogLoadError{Path: file, Source: src.Name, Pattern: raw, Err: err})
			continue
		}
		e.Patterns = append(e.Patterns, &types.Pattern{
			Source:   raw,
			Regexp:   re,
			Keywords: ExtractKeywords(raw),
		})
	}

	if len(e.Patterns) == 0 {
		l.logger.Debug("discarding element without usable patterns",
			zap.String("path", file),
			zap.String("source", src.Name))
		return nil, diags
	}

	e.UnionKeywords()
	if err := ValidateElement(e); err != nil {
		l.logger.Warn("discarding inconsistent element",
			zap.String("path", file),
			zap.String("source", src.Name),
			zap.Error(err))
		return nil, append(diags, &types.CatalogLoadError{Path: file, Source: src.Name, Err: err})
	}
	return e, diags
}

// CompilePattern compiles a catalog expression with regexp2.
// RE2 compatibility mode is tried first; expressions that need the
// Perl-style engine (lookbehind, possessive groups, (?x)) fall back to it.
// Multiline is always set so ^ and $ anchor at line boundaries.
func CompilePattern(pattern string, extra regexp2.RegexOptions) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.RE2|regexp2.Multiline|extra)
	if err != nil {
		re, err = regexp2.Compile(pattern, regexp2.Multiline|extra)
		if err != nil {
			return nil, err
		}
	}
	re.MatchTimeout = PatternTimeout
	return re, nil
}

// isCatalogFile reports whether p has a catalog document extension.
func isCatalogFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".json", ".yml", ".yaml":
		return true
	}
	return false
}
