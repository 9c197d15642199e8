package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lockplane/schemaguard/internal/database"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Driver opens local SQLite files through modernc.org/sqlite, or remote
// libSQL databases when remote is set.
type Driver struct {
	remote bool
}

func NewDriver(remote bool) *Driver {
	return &Driver{remote: remote}
}

func (d *Driver) Name() string {
	if d.remote {
		return "libsql"
	}
	return "sqlite"
}

func (d *Driver) OpenConnection(ctx context.Context, cfg database.ConnectionConfig) (*sql.DB, error) {
	dsn := cfg.URL
	if !d.remote {
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	}

	db, err := sql.Open(d.Name(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if !d.remote {
		// in-memory databases are per connection
		if strings.Contains(dsn, ":memory:") {
			db.SetMaxOpenConns(1)
		}
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	return db, nil
}
