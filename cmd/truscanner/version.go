package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/truconsent/truscanner/pkg/catalog"
	"github.com/truconsent/truscanner/pkg/serve"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the truscanner version",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	builtin := catalog.NewLoader().Load()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "truscanner v%s (%s)\n", version, commit)
	fmt.Fprintf(out, "Builtin data elements: %d\n", builtin.Len())
	fmt.Fprintf(out, "Serve protocol: %s\n", serve.Version)
	fmt.Fprintf(out, "Runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}
