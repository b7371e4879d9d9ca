package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/truconsent/truscanner/pkg/report"
	"github.com/truconsent/truscanner/pkg/store"
	"github.com/truconsent/truscanner/pkg/types"
)

// latestScan selects the most recent scan in the store.
const latestScan = "latest"

var (
	reportStore   string
	reportScanID  string
	reportCatalog string
	reportFormat  string
	reportColor   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List or render scans recorded in a history database",
	Long: `Without --scan, list the scans recorded in the store, newest first.
With --scan <id> (or --scan latest), render that scan in the chosen format.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportStore, "store", "", "Scan history database (default from config)")
	reportCmd.Flags().StringVar(&reportScanID, "scan", "", "Scan ID to render, or \"latest\"")
	reportCmd.Flags().StringVar(&reportCatalog, "catalog", "", "Catalog used for SARIF rule metadata (default: builtin catalog)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, txt, md, json, sarif")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
}

func runReport(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}

	path := reportStore
	if path == "" {
		path = settings().Output.Store
	}
	if path == "" {
		return errors.New("no scan history database: pass --store or set output.store")
	}
	if path == store.MemoryPath {
		return errors.New("an in-memory store holds no recorded scans")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	s, err := store.New(store.Config{Path: path})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	if reportScanID == "" {
		scans, err := s.GetScans()
		if err != nil {
			return fmt.Errorf("listing scans: %w", err)
		}
		return outputScanList(cmd, format, scans)
	}

	rec, err := findScan(s, reportScanID)
	if err != nil {
		return err
	}
	findings, err := s.GetFindings(rec.ID)
	if err != nil {
		return fmt.Errorf("reading findings: %w", err)
	}
	if findings == nil {
		findings = []types.Finding{}
	}

	rs := report.Scan{Record: rec, Findings: findings}
	if format == report.FormatSARIF {
		scanner, err := newScanner(reportCatalog, "", "")
		if err != nil {
			return err
		}
		rs.Catalog = scanner.Catalog()
	}

	out := cmd.OutOrStdout()
	return report.Render(out, format, rs, colorFor(out, reportColor))
}

// =============================================================================
// HELPERS
// =============================================================================

func findScan(s store.Store, id string) (types.ScanRecord, error) {
	if id != latestScan {
		rec, err := s.GetScan(id)
		if err != nil {
			return types.ScanRecord{}, fmt.Errorf("scan %s: %w", id, err)
		}
		return rec, nil
	}

	scans, err := s.GetScans()
	if err != nil {
		return types.ScanRecord{}, fmt.Errorf("listing scans: %w", err)
	}
	if len(scans) == 0 {
		return types.ScanRecord{}, fmt.Errorf("latest scan: %w", store.ErrScanNotFound)
	}
	return scans[0], nil
}

func outputScanList(cmd *cobra.Command, format report.Format, scans []types.ScanRecord) error {
	if format == report.FormatJSON {
		if scans == nil {
			scans = []types.ScanRecord{}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(scans)
	}
	if format != report.FormatHuman && format != report.FormatText {
		return fmt.Errorf("format %q needs --scan", format)
	}

	if len(scans) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nNo scans recorded.\n")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tDate\tFiles\tFindings\tTarget\n")
	fmt.Fprintf(w, "--\t----\t-----\t--------\t------\n")
	for _, r := range scans {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.FilesScanned, r.TotalFindings, r.Target)
	}
	return nil
}
