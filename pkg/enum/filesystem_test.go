package enum

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truconsent/truscanner/pkg/types"
)

// countingReader records every path handed to ReadFile.
type countingReader struct {
	mu    sync.Mutex
	paths []string
	fail  map[string]error
	delay func(path string) time.Duration
}

func (r *countingReader) ReadFile(path string) ([]byte, error) {
	r.mu.Lock()
	r.paths = append(r.paths, filepath.Base(path))
	err := r.fail[filepath.Base(path)]
	r.mu.Unlock()

	if r.delay != nil {
		time.Sleep(r.delay(path))
	}
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (r *countingReader) Read() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}
	}
}

func collect(t *testing.T, config Config) ([]File, *Summary) {
	t.Helper()
	var files []File
	summary, err := NewFilesystemEnumerator(config).Enumerate(context.Background(), func(f File) error {
		files = append(files, f)
		return nil
	})
	require.NoError(t, err)
	return files, summary
}

func relPaths(files []File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func TestFilesystemEnumerator_DefaultExtensions(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"app.py":    "print('ok')\n",
		"script.JS": "console.log('ok')\n",
		"native.c":  "int main() { return 0; }\n",
		"README.md": "docs\n",
		"data.json": `{"key": "value"}`,
		"logo.png":  "\x89PNG",
	})

	reader := &countingReader{}
	files, summary := collect(t, Config{Root: tmpDir, ReadFile: reader.ReadFile})

	assert.Equal(t, []string{"app.py", "native.c", "script.JS"}, relPaths(files))
	assert.Equal(t, 3, summary.Files)

	// filtered files are never opened
	assert.Equal(t, []string{"app.py", "native.c", "script.JS"}, reader.Read())
}

func TestFilesystemEnumerator_ExcludedDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"node_modules/lib/index.js": "x",
		"build/out.py":              "x",
		"__pycache__/m.py":          "x",
		".venv/site.py":             "x",
		"vendor/dep.go":             "x",
		"src/ok.py":                 "x",
		"src/deep/also.ts":          "x",
	})

	files, _ := collect(t, Config{Root: tmpDir})
	assert.Equal(t, []string{"src/deep/also.ts", "src/ok.py"}, relPaths(files))
}

func TestFilesystemEnumerator_HiddenFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"visible.py":        "x",
		".hidden.py":        "x",
		".config/secret.py": "x",
	})

	files, _ := collect(t, Config{Root: tmpDir})
	assert.Equal(t, []string{"visible.py"}, relPaths(files))

	files, _ = collect(t, Config{Root: tmpDir, IncludeHidden: true})
	assert.Equal(t, []string{".config/secret.py", ".hidden.py", "visible.py"}, relPaths(files))
}

func TestFilesystemEnumerator_ExcludedFilesAndSuffixes(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"package-lock.json": "{}",
		"go.sum":            "x",
		"bundle.min.js":     "x",
		"icon.PNG":          "x",
		"main.go":           "x",
		"notes.txt":         "x",
	})

	files, _ := collect(t, Config{Root: tmpDir, AllExtensions: true})
	assert.Equal(t, []string{"main.go", "notes.txt"}, relPaths(files))

	files, _ = collect(t, Config{Root: tmpDir})
	assert.Equal(t, []string{"main.go"}, relPaths(files))
}

func TestFilesystemEnumerator_ExtensionOverride(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"README.md": "x",
		"notes.TXT": "x",
		"app.py":    "x",
	})

	files, _ := collect(t, Config{Root: tmpDir, Extensions: []string{"MD", " .txt "}})
	assert.Equal(t, []string{"README.md", "notes.TXT"}, relPaths(files))
}

func TestNormalizeExtensions(t *testing.T) {
	assert.Equal(t, []string{".py", ".js", ".tsx"}, NormalizeExtensions([]string{"py", ".JS", " TSX ", "", "."}))
	assert.Empty(t, NormalizeExtensions(nil))
}

func TestFilesystemEnumerator_SingleFileRoot(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{"README.md": "contact: alice@example.com\n"})

	files, summary := collect(t, Config{Root: filepath.Join(tmpDir, "README.md")})
	require.Len(t, files, 1)
	assert.Equal(t, "README.md", files[0].RelPath)
	assert.Equal(t, "contact: alice@example.com\n", files[0].Content)
	assert.Equal(t, 1, summary.Files)
}

func TestFilesystemEnumerator_MissingRoot(t *testing.T) {
	e := NewFilesystemEnumerator(Config{Root: filepath.Join(t.TempDir(), "nope")})
	_, err := e.Enumerate(context.Background(), func(File) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPathNotFound))
}

func TestFilesystemEnumerator_ReadErrorsAreCollected(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{"a.py": "a", "b.py": "b", "c.py": "c"})

	reader := &countingReader{fail: map[string]error{"b.py": os.ErrPermission}}
	files, summary := collect(t, Config{Root: tmpDir, ReadFile: reader.ReadFile})

	assert.Equal(t, []string{"a.py", "c.py"}, relPaths(files))
	require.Len(t, summary.ReadErrors, 1)

	var readErr *types.FileReadError
	require.True(t, errors.As(summary.ReadErrors[0], &readErr))
	assert.Equal(t, filepath.Join(tmpDir, "b.py"), readErr.Path)
	assert.True(t, errors.Is(summary.ReadErrors[0], os.ErrPermission))
}

func TestFilesystemEnumerator_LossyDecoding(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"latin1.py": "name = 'Jos\xe9'\n",
		"bom.py":    "\xef\xbb\xbfx = 1\n",
	})

	files, _ := collect(t, Config{Root: tmpDir})
	require.Len(t, files, 2)
	assert.Equal(t, "x = 1\n", files[0].Content)
	assert.Equal(t, "name = 'Jos\uFFFD'\n", files[1].Content)
	assert.Equal(t, int64(len("name = 'Jos\xe9'\n")), files[1].Size)
}

func TestFilesystemEnumerator_BinarySkipped(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"blob.py": "abc\x00def",
		"text.py": "abc",
	})

	files, summary := collect(t, Config{Root: tmpDir})
	assert.Equal(t, []string{"text.py"}, relPaths(files))
	assert.Equal(t, 1, summary.Binary)
}

func TestFilesystemEnumerator_MaxFileSize(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"small.py": "x",
		"large.py": strings.Repeat("x", 1024),
	})

	files, _ := collect(t, Config{Root: tmpDir, MaxFileSize: 100})
	assert.Equal(t, []string{"small.py"}, relPaths(files))
}

func TestFilesystemEnumerator_Gitignore(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		".gitignore":        "secret.py\n*.gen.ts\n",
		"secret.py":         "x",
		"api/models.gen.ts": "x",
		"api/routes.ts":     "x",
		"main.py":           "x",
	})

	files, _ := collect(t, Config{Root: tmpDir, RespectGitignore: true})
	assert.Equal(t, []string{"api/routes.ts", "main.py"}, relPaths(files))

	files, _ = collect(t, Config{Root: tmpDir})
	assert.Equal(t, []string{"api/models.gen.ts", "api/routes.ts", "main.py", "secret.py"}, relPaths(files))
}

func TestFilesystemEnumerator_Progress(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{"a.py": "a", "b.py": "b", "c.py": "c"})

	var calls []string
	files, _ := collect(t, Config{
		Root: tmpDir,
		Progress: func(done, total int, path string) {
			calls = append(calls, fmt.Sprintf("%d/%d %s", done, total, filepath.Base(path)))
		},
	})
	assert.Len(t, files, 3)
	assert.Equal(t, []string{"1/3 a.py", "2/3 b.py", "3/3 c.py"}, calls)
}

func TestFilesystemEnumerator_ProgressPanicRecovered(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{"a.py": "a", "b.py": "b"})

	files, _ := collect(t, Config{
		Root:     tmpDir,
		Progress: func(int, int, string) { panic("boom") },
	})
	assert.Len(t, files, 2)
}

func TestFilesystemEnumerator_ParallelPreservesOrder(t *testing.T) {
	tmpDir := t.TempDir()
	contents := make(map[string]string)
	for i := 0; i < 20; i++ {
		contents[fmt.Sprintf("f%02d.py", i)] = fmt.Sprintf("v%d", i)
	}
	writeFiles(t, tmpDir, contents)

	sequential, _ := collect(t, Config{Root: tmpDir})

	// earlier files take longer, so reads complete out of order
	reader := &countingReader{delay: func(path string) time.Duration {
		var n int
		fmt.Sscanf(filepath.Base(path), "f%02d.py", &n)
		return time.Duration(20-n) * time.Millisecond
	}}
	parallel, summary := collect(t, Config{Root: tmpDir, Workers: 4, ReadFile: reader.ReadFile})

	assert.Equal(t, relPaths(sequential), relPaths(parallel))
	assert.Equal(t, 20, summary.Files)
	for i, f := range parallel {
		assert.Equal(t, sequential[i].Content, f.Content)
	}
}

func TestFilesystemEnumerator_CallbackErrorStops(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{"a.py": "a", "b.py": "b", "c.py": "c", "d.py": "d"})

	stop := errors.New("stop")
	for _, workers := range []int{0, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var seen []string
			e := NewFilesystemEnumerator(Config{Root: tmpDir, Workers: workers})
			_, err := e.Enumerate(context.Background(), func(f File) error {
				seen = append(seen, f.RelPath)
				if f.RelPath == "b.py" {
					return stop
				}
				return nil
			})
			assert.ErrorIs(t, err, stop)
			assert.Equal(t, []string{"a.py", "b.py"}, seen)
		})
	}
}

func TestFilesystemEnumerator_ContextCancelled(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{"a.py": "a", "b.py": "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewFilesystemEnumerator(Config{Root: tmpDir})
	_, err := e.Enumerate(ctx, func(File) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".git", true},
		{".env", true},
		{".", false},
		{"..", false},
		{"visible", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isHidden(tt.name); got != tt.want {
				t.Errorf("isHidden(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsBinary(t *testing.T) {
	if isBinary([]byte("plain text")) {
		t.Error("plain text detected as binary")
	}
	if !isBinary([]byte{0x7f, 'E', 'L', 'F', 0x00}) {
		t.Error("NUL content not detected as binary")
	}
	late := append([]byte(strings.Repeat("a", 9000)), 0)
	if isBinary(late) {
		t.Error("NUL beyond the first 8KB should not count")
	}
}
