package dbscan

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Config selects and tunes a database connection.
type Config struct {
	Driver          string // postgres or sqlite
	DSN             string // postgres URL/keyword string, or sqlite file path
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	Logger          *zap.Logger
}

// dialect holds the engine-specific catalog queries.
type dialect struct {
	kind      string
	sqlDriver string
	schemas   string
	tables    func(schema string) (query string, args []any)
	columns   func(schema, table string) (query string, args []any)
}

var postgresDialect = dialect{
	kind:      DriverPostgres,
	sqlDriver: "pgx",
	schemas: `
		SELECT schema_name FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema')
		  AND schema_name NOT LIKE 'pg_toast%'
		  AND schema_name NOT LIKE 'pg_temp%'
		ORDER BY schema_name`,
	tables: func(schema string) (string, []any) {
		return `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`, []any{schema}
	},
	columns: func(schema, table string) (string, []any) {
		return `
		SELECT column_name AS name, data_type AS type FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, []any{schema, table}
	},
}

var sqliteDialect = dialect{
	kind:      DriverSQLite,
	sqlDriver: "sqlite",
	schemas:   `SELECT name FROM pragma_database_list WHERE name <> 'temp' ORDER BY seq`,
	tables: func(schema string) (string, []any) {
		return `SELECT name FROM ` + qualify(schema, "sqlite_master") + `
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`, nil
	},
	columns: func(schema, table string) (string, []any) {
		if schema == "" {
			schema = "main"
		}
		return `SELECT name, type FROM pragma_table_info(?, ?) ORDER BY cid`, []any{table, schema}
	},
}

// SQLAdapter implements Adapter over database/sql.
type SQLAdapter struct {
	db      *sqlx.DB
	dialect dialect
	logger  *zap.Logger
}

// Open connects to the database described by cfg and verifies the
// connection.
func Open(ctx context.Context, cfg Config) (*SQLAdapter, error) {
	driver, err := ParseDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	d := sqliteDialect
	if driver == DriverPostgres {
		d = postgresDialect
	}

	db, err := sqlx.ConnectContext(ctx, d.sqlDriver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewSQLAdapter(db, driver, cfg)
}

// NewSQLAdapter wraps an open connection.
func NewSQLAdapter(db *sqlx.DB, driver string, cfg Config) (*SQLAdapter, error) {
	driver, err := ParseDriver(driver)
	if err != nil {
		return nil, err
	}
	d := sqliteDialect
	if driver == DriverPostgres {
		d = postgresDialect
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Debug("database connected",
		zap.String("driver", driver),
		zap.String("dsn", MaskDSN(cfg.DSN)))
	return &SQLAdapter{db: db, dialect: d, logger: logger}, nil
}

// Kind returns the engine name.
func (a *SQLAdapter) Kind() string {
	return a.dialect.kind
}

// Schemas lists the user schemas.
func (a *SQLAdapter) Schemas(ctx context.Context) ([]string, error) {
	var schemas []string
	if err := a.db.SelectContext(ctx, &schemas, a.dialect.schemas); err != nil {
		return nil, fmt.Errorf("listing schemas: %w", err)
	}
	return schemas, nil
}

// Tables lists the base tables of a schema.
func (a *SQLAdapter) Tables(ctx context.Context, schema string) ([]string, error) {
	query, args := a.dialect.tables(schema)
	var tables []string
	if err := a.db.SelectContext(ctx, &tables, query, args...); err != nil {
		return nil, fmt.Errorf("listing tables of %q: %w", schema, err)
	}
	return tables, nil
}

// Columns lists the columns of a table.
func (a *SQLAdapter) Columns(ctx context.Context, schema, table string) ([]Column, error) {
	query, args := a.dialect.columns(schema, table)
	var columns []Column
	if err := a.db.SelectContext(ctx, &columns, query, args...); err != nil {
		return nil, fmt.Errorf("listing columns of %q: %w", table, err)
	}
	return columns, nil
}

// SampleRows reads up to limit rows from a table.
func (a *SQLAdapter) SampleRows(ctx context.Context, schema, table string, limit int) (*Sample, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", qualify(schema, table), limit)
	rows, err := a.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sampling %q: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sampling %q: %w", table, err)
	}
	sample := &Sample{Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("reading row of %q: %w", table, err)
		}
		sample.Rows = append(sample.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows of %q: %w", table, err)
	}
	return sample, nil
}

// Close closes the database connection.
func (a *SQLAdapter) Close() error {
	return a.db.Close()
}

// quoteIdent quotes an SQL identifier for both supported engines.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// qualify builds schema.table, or just table when schema is empty.
func qualify(schema, table string) string {
	if schema == "" {
		return quoteIdent(table)
	}
	return quoteIdent(schema) + "." + quoteIdent(table)
}
