package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/truconsent/truscanner/internal/config"
	"github.com/truconsent/truscanner/internal/logger"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	verbose    bool
	quiet      bool

	// set by loadSettings before any subcommand runs
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "truscanner",
	Short: "truscanner - privacy data element scanner",
	Long: `truscanner finds privacy-sensitive data elements such as email addresses,
phone numbers and government identifiers in source code and databases.

It matches a catalog of named patterns against every line, drops matches
that carry no data (comments, bare declarations, SQL field lists) and
reports what remains.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: truscanner.yaml in ., ./configs or ~/.truscanner)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console, json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadSettings reads the config file and builds the logger.
func loadSettings(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}

	c.Logging.Level = resolveLogLevel(c.Logging.Level)
	if logFormat != "" {
		c.Logging.Format = logFormat
	}

	l, err := logger.New(logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	cfg, log = c, l
	return nil
}

// resolveLogLevel applies --log-level, then -v and -q, over the configured level.
func resolveLogLevel(configured string) string {
	switch {
	case logLevel != "":
		return logLevel
	case verbose:
		return "debug"
	case quiet:
		return "error"
	}
	return configured
}

// settings returns the loaded config, or defaults when a command runs
// without the root pre-run.
func settings() *config.Config {
	if cfg == nil {
		return config.GetDefaults()
	}
	return cfg
}

func logr() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
