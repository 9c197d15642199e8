// Package driver opens database/sql connections for each supported dialect.
package driver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lockplane/schemaguard/internal/database"
	"github.com/lockplane/schemaguard/internal/driver/postgres"
	"github.com/lockplane/schemaguard/internal/driver/sqlite"
)

// Driver opens connections for one database type.
type Driver interface {
	// Name returns the database driver name
	Name() string

	// OpenConnection opens a pool and pings it before returning.
	OpenConnection(ctx context.Context, cfg database.ConnectionConfig) (*sql.DB, error)
}

// NewDriver creates a new database driver based on the database type.
func NewDriver(databaseType database.DatabaseType) (Driver, error) {
	switch databaseType {
	case database.DatabaseTypePostgres:
		return postgres.NewDriver(), nil
	case database.DatabaseTypeSQLite:
		return sqlite.NewDriver(false), nil
	case database.DatabaseTypeLibSQL:
		return sqlite.NewDriver(true), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", databaseType)
	}
}

// Open is a shortcut for NewDriver followed by OpenConnection.
func Open(ctx context.Context, cfg database.ConnectionConfig) (*sql.DB, error) {
	d, err := NewDriver(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}
	return d.OpenConnection(ctx, cfg)
}
