package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// DirName is the directory created under the output base for reports.
const DirName = "Reports"

const baseName = "truscan_report"

// Format names a report rendering.
type Format string

// Supported report formats.
const (
	FormatHuman    Format = "human"
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatSARIF    Format = "sarif"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHuman, FormatText, FormatMarkdown, FormatJSON, FormatSARIF:
		return f, nil
	case "text":
		return FormatText, nil
	case "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown report format: %q", s)
}

// Ext returns the file extension for the format, including the dot.
// Human output is saved as plain text.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatSARIF:
		return ".sarif"
	default:
		return ".txt"
	}
}

var (
	invalidNameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// SanitizeDirectoryName turns the last element of target into a name safe
// to use as a directory. An empty result becomes "scan_results".
func SanitizeDirectoryName(target string) string {
	name := filepath.Base(filepath.Clean(target))
	name = invalidNameChars.ReplaceAllString(name, "_")
	name = whitespaceRun.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "scan_results"
	}
	return name
}

// NextFilename returns the first unused report filename in dir:
// truscan_report.ext if free, otherwise truscan_reportN.ext with N one past
// the highest number present.
func NextFilename(dir string, format Format) (string, error) {
	ext := format.Ext()
	first := baseName + ext
	if _, err := os.Stat(filepath.Join(dir, first)); os.IsNotExist(err) {
		return first, nil
	} else if err != nil {
		return "", err
	}

	numbered := regexp.MustCompile("^" + regexp.QuoteMeta(baseName) + `(\d+)` + regexp.QuoteMeta(ext) + "$")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := numbered.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%d%s", baseName, highest+1, ext), nil
}

// Path creates <baseDir>/Reports/<sanitized target> and returns the next
// free report path inside it.
func Path(baseDir, target string, format Format) (string, error) {
	dir := filepath.Join(baseDir, DirName, SanitizeDirectoryName(target))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	name, err := NextFilename(dir, format)
	if err != nil {
		return "", fmt.Errorf("choosing report filename: %w", err)
	}
	return filepath.Join(dir, name), nil
}

// Save renders a report into the next free file for target and returns
// the file's path.
func Save(baseDir, target string, format Format, render func(io.Writer) error) (string, error) {
	path, err := Path(baseDir, target, format)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return "", fmt.Errorf("writing report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
