package enum

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	gitignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/truconsent/truscanner/pkg/types"
)

// FilesystemEnumerator enumerates files from a filesystem directory.
type FilesystemEnumerator struct {
	config       Config
	extensions   []string
	excludeExts  []string
	excludeDirs  map[string]bool
	excludeFiles map[string]bool
	readFile     func(string) ([]byte, error)
	logger       *zap.Logger
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
// Nil lists in config fall back to the package defaults.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	e := &FilesystemEnumerator{
		config:       config,
		extensions:   NormalizeExtensions(orDefault(config.Extensions, DefaultExtensions)),
		excludeExts:  NormalizeExtensions(orDefault(config.ExcludeExtensions, DefaultExcludeExtensions)),
		excludeDirs:  toSet(orDefault(config.ExcludeDirs, DefaultExcludeDirs)),
		excludeFiles: toSet(orDefault(config.ExcludeFiles, DefaultExcludeFiles)),
		readFile:     config.ReadFile,
		logger:       config.Logger,
	}
	if e.readFile == nil {
		e.readFile = os.ReadFile
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// fileEntry holds metadata collected during the walk phase.
type fileEntry struct {
	path    string
	relPath string
	size    int64
}

// readResult is the outcome of reading one entry.
type readResult struct {
	file   File
	binary bool
	err    error
}

// Enumerate walks the filesystem and yields files in lexical walk order.
// Phase 1: Walk directory tree and collect eligible file paths (fast, sequential).
// Phase 2: Read files and invoke callback, reading ahead in parallel when
// Workers > 1.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback Callback) (*Summary, error) {
	info, err := os.Stat(e.config.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", e.config.Root, types.ErrPathNotFound)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", e.config.Root, err)
	}

	var files []fileEntry
	dirMode := info.IsDir()
	if dirMode {
		files, err = e.walk(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		files = []fileEntry{{path: e.config.Root, relPath: filepath.Base(e.config.Root), size: info.Size()}}
	}

	e.logger.Debug("enumerated files",
		zap.String("root", e.config.Root),
		zap.Int("files", len(files)))

	if e.config.Workers > 1 && len(files) > 1 {
		return e.deliverParallel(ctx, files, dirMode, callback)
	}
	return e.deliverSequential(ctx, files, dirMode, callback)
}

// walk collects eligible files under the root.
func (e *FilesystemEnumerator) walk(ctx context.Context) ([]fileEntry, error) {
	root := e.config.Root

	// Load .gitignore patterns if present
	var ignore *gitignore.GitIgnore
	if e.config.RespectGitignore {
		gitignorePath := filepath.Join(root, ".gitignore")
		if _, err := os.Stat(gitignorePath); err == nil {
			ignore, err = gitignore.CompileIgnoreFile(gitignorePath)
			if err != nil {
				e.logger.Warn("ignoring unreadable .gitignore", zap.String("path", gitignorePath), zap.Error(err))
			}
		}
	}

	var files []fileEntry
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// unreadable subtrees are skipped, not fatal
			e.logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if info != nil && info.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		name := info.Name()
		if info.IsDir() {
			if path == root {
				return nil
			}
			if e.excludeDirs[name] || (!e.config.IncludeHidden && isHidden(name)) {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if !e.config.FollowSymlinks {
				return nil
			}
			target, err := os.Stat(path)
			if err != nil || target.IsDir() {
				return nil
			}
			info = target
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		if !e.config.IncludeHidden && isHidden(name) {
			return nil
		}

		if !e.eligibleName(name) {
			return nil
		}

		if e.config.MaxFileSize > 0 && info.Size() > e.config.MaxFileSize {
			e.logger.Debug("skipping large file", zap.String("path", path), zap.Int64("size", info.Size()))
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if ignore != nil && ignore.MatchesPath(relPath) {
			return nil
		}

		files = append(files, fileEntry{path: path, relPath: relPath, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// eligibleName applies the exact-name, excluded-suffix and allow-list rules.
func (e *FilesystemEnumerator) eligibleName(name string) bool {
	if e.excludeFiles[name] {
		return false
	}
	lower := strings.ToLower(name)
	if hasAnySuffix(lower, e.excludeExts) {
		return false
	}
	if e.config.AllExtensions {
		return true
	}
	return hasAnySuffix(lower, e.extensions)
}

// deliverSequential reads and delivers files one at a time.
func (e *FilesystemEnumerator) deliverSequential(ctx context.Context, files []fileEntry, dirMode bool, callback Callback) (*Summary, error) {
	summary := &Summary{}
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res := e.read(f, dirMode)
		if err := e.deliver(res, summary, callback); err != nil {
			return summary, err
		}
		e.progress(i+1, len(files), f.path)
	}
	return summary, nil
}

// deliverParallel reads up to Workers files at a time, bounded to a small
// read-ahead window, and delivers them in walk order.
func (e *FilesystemEnumerator) deliverParallel(ctx context.Context, files []fileEntry, dirMode bool, callback Callback) (*Summary, error) {
	workers := e.config.Workers

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]chan readResult, len(files))
	for i := range results {
		results[i] = make(chan readResult, 1)
	}
	window := make(chan struct{}, workers*2)

	g := new(errgroup.Group)
	g.SetLimit(workers)

	fed := make(chan struct{})
	go func() {
		defer close(fed)
		for i, f := range files {
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				return
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					results[i] <- readResult{err: ctx.Err()}
					return nil
				}
				results[i] <- e.read(f, dirMode)
				return nil
			})
		}
	}()

	summary := &Summary{}
	var deliverErr error
	for i, f := range files {
		var res readResult
		select {
		case res = <-results[i]:
		case <-ctx.Done():
			deliverErr = ctx.Err()
		}
		if deliverErr != nil {
			break
		}
		<-window

		if errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded) {
			deliverErr = res.err
			break
		}
		if err := e.deliver(res, summary, callback); err != nil {
			deliverErr = err
			break
		}
		e.progress(i+1, len(files), f.path)
	}

	cancel()
	<-fed
	_ = g.Wait()
	return summary, deliverErr
}

// read loads and decodes one file. Binary detection only applies to files
// found by walking a directory.
func (e *FilesystemEnumerator) read(f fileEntry, dirMode bool) readResult {
	content, err := e.readFile(f.path)
	if err != nil {
		return readResult{err: &types.FileReadError{Path: f.path, Err: err}}
	}
	if dirMode && isBinary(content) {
		return readResult{binary: true, file: File{Path: f.path, RelPath: f.relPath}}
	}
	return readResult{file: File{
		Path:    f.path,
		RelPath: f.relPath,
		Content: decode(content),
		Size:    int64(len(content)),
	}}
}

// deliver records a read result and forwards readable files to callback.
func (e *FilesystemEnumerator) deliver(res readResult, summary *Summary, callback Callback) error {
	switch {
	case res.err != nil:
		e.logger.Warn("failed to read file", zap.Error(res.err))
		summary.ReadErrors = append(summary.ReadErrors, res.err)
		return nil
	case res.binary:
		e.logger.Debug("skipping binary file", zap.String("path", res.file.Path))
		summary.Binary++
		return nil
	}
	summary.Files++
	return callback(res.file)
}

// progress invokes the progress hook, containing any panic it raises.
func (e *FilesystemEnumerator) progress(done, total int, path string) {
	if e.config.Progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("progress hook panicked", zap.Any("panic", r), zap.String("path", path))
		}
	}()
	e.config.Progress(done, total, path)
}

// decode turns file bytes into text, replacing invalid UTF-8 and a leading
// byte order mark.
func decode(content []byte) string {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if utf8.Valid(content) {
		return string(content)
	}
	return strings.ToValidUTF8(string(content), "\uFFFD")
}

// isHidden checks if a filename is hidden (starts with .).
// The special entries "." and ".." are NOT considered hidden.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// isBinary detects if content is binary by checking first 8KB for null bytes.
func isBinary(content []byte) bool {
	checkSize := len(content)
	if checkSize > 8192 {
		checkSize = 8192
	}
	return bytes.IndexByte(content[:checkSize], 0) != -1
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func orDefault(list, def []string) []string {
	if list == nil {
		return def
	}
	return list
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[s] = true
	}
	return set
}
