package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/truconsent/truscanner/pkg/types"
)

var (
	catalogPath   string
	catalogFormat string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the data element catalog",
	Long:  "Commands for listing and inspecting data element definitions",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List data elements",
	Long:  "Display every loaded data element with its category and sensitivity",
	RunE:  runCatalogList,
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogListCmd.Flags().StringVar(&catalogPath, "catalog", "", "Data element catalog directory (default: builtin catalog)")
	catalogListCmd.Flags().StringVar(&catalogFormat, "format", "table", "Output format: table, json")
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	scanner, err := newScanner(catalogPath, "", "")
	if err != nil {
		return err
	}
	cat := scanner.Catalog()

	for _, d := range cat.Diagnostics {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", d)
	}

	switch catalogFormat {
	case "json":
		return outputCatalogJSON(cmd, cat)
	case "table":
		return outputCatalogTable(cmd, cat)
	default:
		return fmt.Errorf("unknown output format: %s", catalogFormat)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

type elementJSON struct {
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	IsSensitive bool           `json:"is_sensitive"`
	Sensitivity string         `json:"sensitivity"`
	Patterns    []string       `json:"patterns"`
	Tags        map[string]any `json:"tags,omitempty"`
}

func outputCatalogJSON(cmd *cobra.Command, cat *types.Catalog) error {
	elements := make([]elementJSON, 0, cat.Len())
	for _, e := range cat.Elements {
		patterns := make([]string, 0, len(e.Patterns))
		for _, p := range e.Patterns {
			patterns = append(patterns, p.Source)
		}
		elements = append(elements, elementJSON{
			Name:        e.Name,
			Category:    e.Category,
			IsSensitive: e.IsSensitive,
			Sensitivity: e.Sensitivity,
			Patterns:    patterns,
			Tags:        e.Tags,
		})
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(elements)
}

func outputCatalogTable(cmd *cobra.Command, cat *types.Catalog) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Name\tCategory\tSensitivity\tPatterns\n")
	fmt.Fprintf(w, "----\t--------\t-----------\t--------\n")

	for _, e := range cat.Elements {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", e.Name, e.Category, e.Sensitivity, len(e.Patterns))
	}
	return nil
}
