package types

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogMissing reports that the catalog directory does not exist.
	// Loaders treat it as a warning and return an empty catalog.
	ErrCatalogMissing = errors.New("catalog directory not found")

	// ErrPathNotFound reports a scan root that does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrIsDirectory reports a directory passed where a single file is expected.
	ErrIsDirectory = errors.New("path is a directory")
)

// CatalogLoadError describes a catalog unit (file, source or single
// pattern) that was skipped during loading.
type CatalogLoadError struct {
	Path    string // catalog file
	Source  string // element name, empty for file-level errors
	Pattern string // offending pattern, empty unless a compile failed
	Err     error
}

func (e *CatalogLoadError) Error() string {
	switch {
	case e.Pattern != "":
		return fmt.Sprintf("%s: %s: invalid pattern %q: %v", e.Path, e.Source, e.Pattern, e.Err)
	case e.Source != "":
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Source, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

// FileReadError describes a file the walker could not read.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }
