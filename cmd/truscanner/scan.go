package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/truconsent/truscanner"
	"github.com/truconsent/truscanner/pkg/catalog"
	"github.com/truconsent/truscanner/pkg/enum"
	"github.com/truconsent/truscanner/pkg/report"
	"github.com/truconsent/truscanner/pkg/store"
)

var (
	scanCatalogPath   string
	scanInclude       string
	scanExclude       string
	scanExtensions    string
	scanAllExtensions bool
	scanFormat        string
	scanOutputDir     string
	scanStorePath     string
	scanPersonalOnly  bool
	scanWorkers       int
	scanIncludeHidden bool
	scanMaxFileSize   int64
	scanProgress      bool
	scanColor         string
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Scan a directory or file for data elements",
	Long: `Scan a directory, file or file:// URL for privacy-sensitive data elements.

The report is written to stdout. With --output-dir it is also saved under
<dir>/Reports/<target>/truscan_report.<ext>, numbered when a report exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanCatalogPath, "catalog", "", "Data element catalog directory (default: builtin catalog)")
	scanCmd.Flags().StringVar(&scanInclude, "include", "", "Include elements matching regex pattern (comma-separated)")
	scanCmd.Flags().StringVar(&scanExclude, "exclude", "", "Exclude elements matching regex pattern (comma-separated)")
	scanCmd.Flags().StringVar(&scanExtensions, "extensions", "", "File extensions to scan (comma-separated, default: source code)")
	scanCmd.Flags().BoolVar(&scanAllExtensions, "all-extensions", false, "Scan every non-binary file regardless of extension")
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format: human, txt, md, json, sarif")
	scanCmd.Flags().StringVar(&scanOutputDir, "output-dir", "", "Also save the report under this directory")
	scanCmd.Flags().StringVar(&scanStorePath, "store", "", "Record the scan in this history database")
	scanCmd.Flags().BoolVar(&scanPersonalOnly, "personal-only", false, "Report only personal data categories")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Concurrent file readers (default from config)")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 0, "Maximum file size to scan in bytes (default from config)")
	scanCmd.Flags().BoolVar(&scanProgress, "progress", false, "Show scan progress on stderr")
	scanCmd.Flags().StringVar(&scanColor, "color", "auto", "Color output: auto, always, never")
}

func runScan(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(scanFormat)
	if err != nil {
		return err
	}
	c := settings()

	scanner, err := newScanner(scanCatalogPath, scanInclude, scanExclude)
	if err != nil {
		return err
	}

	opts := truscanner.ScanOptions{
		DirOptions: truscanner.DirOptions{
			Extensions:       orNil(c.Scan.Extensions),
			AllExtensions:    scanAllExtensions,
			ExcludeDirs:      orNil(c.Scan.ExcludeDirs),
			ExcludeFiles:     orNil(c.Scan.ExcludeFiles),
			IncludeHidden:    scanIncludeHidden || c.Scan.IncludeHidden,
			RespectGitignore: c.Scan.RespectGitignore,
			MaxFileSize:      c.Scan.MaxFileSize,
			Workers:          c.Scan.Workers,
		},
		PersonalOnly: scanPersonalOnly,
	}
	if scanExtensions != "" {
		opts.Extensions = catalog.ParsePatterns(scanExtensions)
	}
	if scanWorkers > 0 {
		opts.Workers = scanWorkers
	}
	if scanMaxFileSize > 0 {
		opts.MaxFileSize = scanMaxFileSize
	}
	if scanProgress {
		opts.Progress = progressPrinter(cmd.ErrOrStderr())
	}

	rep, err := scanner.Scan(commandContext(cmd), args[0], opts)
	if scanProgress {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	rs := report.Scan{Record: rep.Record(), Findings: rep.Findings, Catalog: scanner.Catalog()}

	out := cmd.OutOrStdout()
	if err := report.Render(out, format, rs, colorFor(out, scanColor)); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	outputDir := scanOutputDir
	if outputDir == "" {
		outputDir = c.Output.Dir
	}
	if outputDir != "" {
		path, err := report.Save(outputDir, rep.Target, format, func(w io.Writer) error {
			return report.Render(w, format, rs, false)
		})
		if err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to: %s\n", path)
	}

	storePath := scanStorePath
	if storePath == "" {
		storePath = c.Output.Store
	}
	if storePath != "" {
		if err := recordScan(storePath, rs); err != nil {
			return err
		}
	}

	logr().Info("scan finished",
		zap.String("id", rep.ID),
		zap.Int("files", rep.FilesScanned),
		zap.Int("findings", rep.TotalFindings),
		zap.Int("read_errors", len(rep.ReadErrors)))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// newScanner builds a scanner from the catalog flags, falling back to the
// catalog settings of the config file.
func newScanner(catalogDir, include, exclude string) (*truscanner.Scanner, error) {
	c := settings()
	if catalogDir == "" {
		catalogDir = c.Catalog.Dir
	}
	filter := truscanner.FilterConfig{
		Include: c.Catalog.Include,
		Exclude: c.Catalog.Exclude,
	}
	if include != "" {
		filter.Include = catalog.ParsePatterns(include)
	}
	if exclude != "" {
		filter.Exclude = catalog.ParsePatterns(exclude)
	}

	opts := []truscanner.Option{
		truscanner.WithElementFilter(filter),
		truscanner.WithLogger(logr()),
	}
	if catalogDir != "" {
		opts = append(opts, truscanner.WithCatalogDir(catalogDir))
	}
	scanner, err := truscanner.NewScanner(opts...)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	if scanner.ElementCount() == 0 {
		logr().Warn("catalog has no data elements", zap.String("dir", catalogDir))
	}
	return scanner, nil
}

// orNil maps an empty configured list to nil so walker defaults apply.
func orNil(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	return list
}

func recordScan(path string, rs report.Scan) error {
	s, err := store.New(store.Config{Path: path})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	if err := store.Save(s, rs.Record, rs.Findings); err != nil {
		return fmt.Errorf("recording scan: %w", err)
	}
	return nil
}

// colorFor resolves the color mode for w, which only gets color when it
// is a terminal.
func colorFor(w io.Writer, mode string) bool {
	f, _ := w.(*os.File)
	return report.ColorEnabled(mode, f)
}

// progressPrinter redraws a single status line on w.
func progressPrinter(w io.Writer) enum.ProgressFunc {
	done := color.New(color.FgHiGreen)
	if f, ok := w.(*os.File); !ok || !report.ColorEnabled(report.ColorAuto, f) {
		done.DisableColor()
	}
	return func(n, total int, path string) {
		fmt.Fprintf(w, "\rScanning files: %s", done.Sprintf("%d/%d", n, total))
	}
}
