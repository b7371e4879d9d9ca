package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/truconsent/truscanner/pkg/store"
)

var mergeOutput string

var mergeCmd = &cobra.Command{
	Use:   "merge <history.db> <history.db> [history.db...]",
	Short: "Combine scan history databases",
	Long: `Fold the scan history of several databases into one, for example
histories recorded on different machines or CI runners.

A scan whose report ID is already in the output database is skipped along
with its findings, so merging the same source twice is harmless.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Database to merge into (created if missing)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	logr().Debug("merging scan history", zap.Strings("sources", args), zap.String("dest", mergeOutput))

	stats, err := store.Merge(store.MergeConfig{
		SourcePaths: args,
		DestPath:    mergeOutput,
	})
	if err != nil {
		return fmt.Errorf("merging into %s: %w", mergeOutput, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Merged %d databases into %s\n", stats.SourcesProcessed, mergeOutput)
	fmt.Fprintf(out, "  Scans merged:    %d\n", stats.ScansMerged)
	fmt.Fprintf(out, "  Findings merged: %d\n", stats.FindingsMerged)
	return nil
}
