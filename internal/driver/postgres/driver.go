package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/lockplane/schemaguard/internal/database"
)

const pingTimeout = 5 * time.Second

// Driver opens PostgreSQL connections through lib/pq or pgx.
type Driver struct{}

// NewDriver creates a new PostgreSQL driver
func NewDriver() *Driver {
	return &Driver{}
}

// Name returns the database driver name
func (d *Driver) Name() string {
	return "postgres"
}

// OpenConnection opens a pool and runs a ping to test it.
func (d *Driver) OpenConnection(ctx context.Context, cfg database.ConnectionConfig) (*sql.DB, error) {
	driverName := "postgres"
	if cfg.PostgresDriver == database.DriverPGX {
		driverName = "pgx"
	}

	db, err := sql.Open(driverName, withDefaultSSLMode(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// withDefaultSSLMode disables TLS for URLs that do not choose a mode, which
// matches local development databases.
func withDefaultSSLMode(url string) string {
	if !strings.Contains(url, "://") || strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return url + "&sslmode=disable"
	}
	return url + "?sslmode=disable"
}
