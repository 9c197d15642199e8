// Package database holds connection settings and SQL identifier helpers
// shared by the inspector, executor and importer.
package database

import (
	"fmt"
	"strings"
)

// DatabaseType selects the SQL dialect and driver.
type DatabaseType string

const (
	DatabaseTypePostgres DatabaseType = "postgres"
	DatabaseTypeSQLite   DatabaseType = "sqlite"
	DatabaseTypeLibSQL   DatabaseType = "libsql"
)

// PostgresDriver picks the database/sql driver used for Postgres URLs.
type PostgresDriver string

const (
	DriverPQ  PostgresDriver = "lib/pq"
	DriverPGX PostgresDriver = "pgx"
)

type ConnectionConfig struct {
	DatabaseType   DatabaseType
	URL            string
	PostgresDriver PostgresDriver
}

// DetectDatabaseType infers the dialect from a connection string.
func DetectDatabaseType(url string) DatabaseType {
	lower := strings.ToLower(strings.TrimSpace(url))
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DatabaseTypePostgres
	case strings.HasPrefix(lower, "libsql://"), strings.HasPrefix(lower, "wss://"):
		return DatabaseTypeLibSQL
	case strings.HasPrefix(lower, "file:"), strings.HasPrefix(lower, "sqlite://"),
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"),
		lower == ":memory:":
		return DatabaseTypeSQLite
	}
	return DatabaseTypePostgres
}

// NewConnectionConfig builds a config for url, detecting its dialect.
func NewConnectionConfig(url string, driver PostgresDriver) (ConnectionConfig, error) {
	if strings.TrimSpace(url) == "" {
		return ConnectionConfig{}, fmt.Errorf("database url is empty")
	}
	if driver == "" {
		driver = DriverPQ
	}
	if driver != DriverPQ && driver != DriverPGX {
		return ConnectionConfig{}, fmt.Errorf("unsupported postgres driver %q", driver)
	}
	return ConnectionConfig{
		DatabaseType:   DetectDatabaseType(url),
		URL:            url,
		PostgresDriver: driver,
	}, nil
}

// Placeholder returns the n-th (1-based) bind parameter for the dialect.
func (t DatabaseType) Placeholder(n int) string {
	if t == DatabaseTypePostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// IsSQLite is true for both local SQLite files and libSQL servers.
func (t DatabaseType) IsSQLite() bool {
	return t == DatabaseTypeSQLite || t == DatabaseTypeLibSQL
}
