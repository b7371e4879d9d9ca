package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/truconsent/truscanner/pkg/dbscan"
	"github.com/truconsent/truscanner/pkg/report"
)

var (
	dbDriver     string
	dbDSN        string
	dbSampleSize int
	dbNoContent  bool
	dbCatalog    string
	dbFormat     string
	dbOutputDir  string
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Scan a database schema and sampled rows for data elements",
	Long: `Connect to a PostgreSQL or SQLite database, match column names against
the catalog and scan a sample of each table's rows.`,
	Args: cobra.NoArgs,
	RunE: runDB,
}

func init() {
	dbCmd.Flags().StringVar(&dbDriver, "driver", "", "Database driver: postgres, sqlite (default from config)")
	dbCmd.Flags().StringVar(&dbDSN, "dsn", "", "Connection string or SQLite file path (default from config)")
	dbCmd.Flags().IntVar(&dbSampleSize, "sample-size", 0, "Rows sampled per table (default from config)")
	dbCmd.Flags().BoolVar(&dbNoContent, "no-content", false, "Only match column names, do not read rows")
	dbCmd.Flags().StringVar(&dbCatalog, "catalog", "", "Data element catalog directory (default: builtin catalog)")
	dbCmd.Flags().StringVar(&dbFormat, "format", "human", "Output format: human, txt, json")
	dbCmd.Flags().StringVar(&dbOutputDir, "output-dir", "", "Also save the report under this directory")
}

func runDB(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(dbFormat)
	if err != nil {
		return err
	}
	c := settings()

	driver, dsn, sampleSize := c.Database.Driver, c.Database.DSN, c.Database.SampleSize
	if dbDriver != "" {
		driver = dbDriver
	}
	if dbDSN != "" {
		dsn = dbDSN
	}
	if dbSampleSize > 0 {
		sampleSize = dbSampleSize
	}
	if dbNoContent {
		sampleSize = -1
	}

	scanner, err := newScanner(dbCatalog, "", "")
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	adapter, err := dbscan.Open(ctx, dbscan.Config{Driver: driver, DSN: dsn, Logger: logr()})
	if err != nil {
		return err
	}
	defer adapter.Close()

	started := time.Now()
	findings, stats, err := dbscan.NewScanner(dbscan.ScannerConfig{
		Catalog:    scanner.Catalog(),
		Text:       scanner,
		SampleSize: sampleSize,
		Logger:     logr(),
	}).ScanDatabase(ctx, adapter)
	if err != nil {
		return fmt.Errorf("scanning database: %w", err)
	}

	masked := dbscan.MaskDSN(dsn)
	rs := report.DBScan{
		ID:        report.NewID(masked),
		Database:  adapter.Kind() + " " + masked,
		StartedAt: started,
		Duration:  time.Since(started),
		Findings:  findings,
	}
	if err := report.RenderDB(cmd.OutOrStdout(), format, rs); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	outputDir := dbOutputDir
	if outputDir == "" {
		outputDir = c.Output.Dir
	}
	if outputDir != "" {
		path, err := report.Save(outputDir, "database_"+adapter.Kind(), format, func(w io.Writer) error {
			return report.RenderDB(w, format, rs)
		})
		if err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to: %s\n", path)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Scanned %d schemas, %d tables, %d columns, %d rows sampled\n",
		stats.Schemas, stats.Tables, stats.Columns, stats.RowsSampled)
	if len(stats.Errors) > 0 {
		logr().Warn("some database objects were skipped", zap.Int("errors", len(stats.Errors)))
	}
	return nil
}
