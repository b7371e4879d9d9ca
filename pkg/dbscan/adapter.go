// Package dbscan finds data elements in relational databases, both in
// column names and in sampled row content.
package dbscan

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Column describes one table column.
type Column struct {
	Name string `db:"name"`
	Type string `db:"type"`
}

// Sample holds rows read from a table, with values in Columns order.
type Sample struct {
	Columns []string
	Rows    [][]any
}

// Adapter reads schema metadata and sample rows from one database.
type Adapter interface {
	// Kind names the database engine, e.g. "postgres" or "sqlite".
	Kind() string

	// Schemas lists the user schemas. An empty list means the database
	// has a single unnamed schema.
	Schemas(ctx context.Context) ([]string, error)

	// Tables lists the base tables of a schema.
	Tables(ctx context.Context, schema string) ([]string, error)

	// Columns lists the columns of a table in declaration order.
	Columns(ctx context.Context, schema, table string) ([]Column, error)

	// SampleRows reads up to limit rows from a table.
	SampleRows(ctx context.Context, schema, table string, limit int) (*Sample, error)

	// Close releases the connection.
	Close() error
}

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ParseDriver normalizes a driver name.
func ParseDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg", "pgx":
		return DriverPostgres, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("unsupported database driver %q (want postgres or sqlite)", name)
}

const maskedPassword = "xxxxx"

var keywordPassword = regexp.MustCompile(`(?i)(\bpassword\s*=\s*)('[^']*'|[^\s&;]+)`)

// MaskDSN hides the password in a connection string so it can be logged
// or printed in reports.
func MaskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return keywordPassword.ReplaceAllString(dsn, "${1}"+maskedPassword)
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), maskedPassword)
		}
	}
	if q := u.Query(); q.Has("password") {
		q.Set("password", maskedPassword)
		u.RawQuery = q.Encode()
	}
	return u.String()
}
