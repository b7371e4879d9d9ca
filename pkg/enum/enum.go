package enum

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// File is one enumerated source file, decoded as text.
type File struct {
	Path    string // path as walked, rooted at Config.Root
	RelPath string // slash-separated path relative to the root
	Content string // file text; invalid UTF-8 replaced with U+FFFD
	Size    int64  // size in bytes before decoding
}

// Callback receives each file in enumeration order. Returning an error
// stops the walk.
type Callback func(f File) error

// ProgressFunc is called after each file with the number of files handled
// so far, the total and the file's path.
type ProgressFunc func(done, total int, path string)

// Enumerator discovers files to scan from a source.
type Enumerator interface {
	// Enumerate yields files to callback and reports what was skipped.
	Enumerate(ctx context.Context, callback Callback) (*Summary, error)
}

// Summary describes one completed enumeration.
type Summary struct {
	Files      int     // files delivered to the callback
	Binary     int     // files skipped because their content is binary
	ReadErrors []error // *types.FileReadError for files that could not be read
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration. A file root yields only
	// that file, with no name filtering.
	Root string

	// Extensions is the allow-list of file suffixes (nil = DefaultExtensions).
	Extensions []string

	// AllExtensions disables the allow-list; exclusions still apply.
	AllExtensions bool

	// ExcludeDirs are directory names pruned from the walk (nil = DefaultExcludeDirs).
	ExcludeDirs []string

	// ExcludeFiles are exact file names never scanned (nil = DefaultExcludeFiles).
	ExcludeFiles []string

	// ExcludeExtensions are suffixes never scanned (nil = DefaultExcludeExtensions).
	ExcludeExtensions []string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// RespectGitignore skips files matched by the root .gitignore.
	RespectGitignore bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links to files.
	FollowSymlinks bool

	// Workers reads files concurrently when > 1. Delivery order is unchanged.
	Workers int

	// Progress is an optional hook. A panic inside it is recovered.
	Progress ProgressFunc

	// ReadFile replaces os.ReadFile, mainly for tests.
	ReadFile func(path string) ([]byte, error)

	// Logger for skipped files and read errors. Defaults to a no-op logger.
	Logger *zap.Logger
}

// NormalizeExtensions lowercases suffixes and forces a leading dot.
// Blank entries are dropped.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
