package wizard

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lockplane/schemaguard/internal/database"
	"github.com/lockplane/schemaguard/internal/driver"
)

// ValidateEnvironmentName checks if an environment name is valid
func ValidateEnvironmentName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name cannot be empty")
	}
	for _, ch := range name {
		isValid := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-'
		if !isValid {
			return fmt.Errorf("environment name must contain only letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// ValidatePort checks if a port number is valid
func ValidatePort(port string) error {
	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}
	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

// ValidateDriver accepts the Postgres driver names the config file knows.
func ValidateDriver(name string) error {
	switch database.PostgresDriver(name) {
	case "", database.DriverPQ, database.DriverPGX:
		return nil
	}
	return fmt.Errorf("driver must be %q or %q", database.DriverPQ, database.DriverPGX)
}

// ConnectionString builds the database URL for env.
func ConnectionString(env EnvironmentInput) string {
	switch env.DatabaseType {
	case "sqlite":
		return sqlitePath(env.FilePath)
	case "libsql":
		if env.AuthToken != "" {
			return env.URL + "?authToken=" + url.QueryEscape(env.AuthToken)
		}
		return env.URL
	default:
		return postgresURL(env)
	}
}

func postgresURL(env EnvironmentInput) string {
	sslMode := env.SSLMode
	if sslMode == "" {
		if env.Host == "localhost" || env.Host == "127.0.0.1" {
			sslMode = "disable"
		} else {
			sslMode = "require"
		}
	}

	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(env.User, env.Password),
		Host:     env.Host + ":" + env.Port,
		Path:     "/" + env.Database,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

func sqlitePath(p string) string {
	if p == "" {
		return "./schemaguard.db"
	}
	if !strings.HasPrefix(p, "./") && !strings.HasPrefix(p, "/") {
		return "./" + p
	}
	return p
}

// TestConnection opens and pings the database described by env.
func TestConnection(env EnvironmentInput) error {
	cfg, err := database.NewConnectionConfig(ConnectionString(env), database.PostgresDriver(env.Driver))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := driver.Open(ctx, cfg)
	if err != nil {
		return err
	}
	return db.Close()
}
