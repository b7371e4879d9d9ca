package main

import (
	"github.com/spf13/cobra"

	"github.com/truconsent/truscanner/pkg/serve"
)

var serveCatalog string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming scanner for editor integrations",
	Long: `Run truscanner as a long-lived process that accepts scan requests on
stdin and writes findings to stdout, one JSON document per line.

The catalog is loaded once at startup. Requests are processed until stdin
closes, a "close" request arrives or the process is interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveCatalog, "catalog", "", "Data element catalog directory (default: builtin catalog)")
}

func runServe(cmd *cobra.Command, args []string) error {
	scanner, err := newScanner(serveCatalog, "", "")
	if err != nil {
		return err
	}

	srv := serve.NewServer(scanner, cmd.InOrStdin(), cmd.OutOrStdout())
	srv.SetLogger(logr())
	return srv.Run(commandContext(cmd))
}
