package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/lockplane/schemaguard/internal/authz"
	"github.com/lockplane/schemaguard/internal/config"
	"github.com/lockplane/schemaguard/internal/database"
	"github.com/lockplane/schemaguard/internal/driver"
	"github.com/lockplane/schemaguard/internal/executor"
	"github.com/lockplane/schemaguard/internal/importer"
	"github.com/lockplane/schemaguard/internal/planner"
)

const allowSchemaChangesEnv = "SCHEMAGUARD_ALLOW_SCHEMA_CHANGES"

// connection is an open database plus the settings it was opened with.
type connection struct {
	db      *sql.DB
	dialect database.DatabaseType
	env     string
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return cfg, nil
}

// connect opens the database named by --database-url, or by the selected
// environment when the flag is empty.
func connect(ctx context.Context, cfg *config.Config) (*connection, error) {
	url := strings.TrimSpace(databaseURL)
	driverName := ""
	envName := "(flag)"
	if url == "" {
		resolved, err := config.ResolveEnvironment(cfg, environmentName)
		if err != nil {
			return nil, err
		}
		url = resolved.DatabaseURL
		driverName = resolved.Driver
		envName = resolved.Name
	}

	connCfg, err := database.NewConnectionConfig(url, database.PostgresDriver(driverName))
	if err != nil {
		return nil, err
	}
	db, err := driver.Open(ctx, connCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", envName, err)
	}
	slog.Debug("connected", "environment", envName, "dialect", connCfg.DatabaseType)
	return &connection{db: db, dialect: connCfg.DatabaseType, env: envName}, nil
}

// targetDialect names the dialect of the selected database without
// connecting to it. It assumes Postgres when nothing is configured.
func targetDialect(cfg *config.Config) database.DatabaseType {
	url := strings.TrimSpace(databaseURL)
	if url == "" {
		resolved, err := config.ResolveEnvironment(cfg, environmentName)
		if err != nil {
			slog.Debug("no database configured, assuming postgres", "error", err)
			return database.DatabaseTypePostgres
		}
		url = resolved.DatabaseURL
	}
	return database.DetectDatabaseType(url)
}

// schemaToken grants schema changes when the flag or the environment
// variable says so. The subject is the local user.
func schemaToken() authz.Token {
	subject := os.Getenv("USER")
	if subject == "" {
		subject = "cli"
	}
	allowed := allowSchemaChanges
	if v, err := strconv.ParseBool(os.Getenv(allowSchemaChangesEnv)); err == nil && v {
		allowed = true
	}
	if !allowed {
		return authz.Token{Subject: subject}
	}
	return authz.AllowSchemaChanges(subject)
}

func plannerOptions(cfg *config.Config) planner.Options {
	opts := planner.DefaultOptions()
	opts.LargeTableThreshold = cfg.Planner.LargeTableThreshold
	opts.BaseSeconds = cfg.Planner.BaseSeconds
	opts.RowsPerUnit = cfg.Planner.RowsPerUnit
	opts.SampleLimit = cfg.Planner.SampleLimit
	opts.Schema = cfg.Planner.Schema
	opts.Logger = slog.Default()
	return opts
}

func executorOptions(cfg *config.Config, dialect database.DatabaseType) (executor.Options, error) {
	policy, err := executor.NewPolicy(cfg.Executor.Allow, cfg.Executor.Deny, cfg.Executor.ProtectedSchemas)
	if err != nil {
		return executor.Options{}, fmt.Errorf("invalid executor policy in %s: %w", config.ConfigFileName, err)
	}
	return executor.Options{
		Policy:      policy,
		Dialect:     dialect,
		ParseCheck:  cfg.Executor.ParseCheck,
		LockTimeout: cfg.Executor.LockTimeout.Duration,
		Logger:      slog.Default(),
	}, nil
}

func importerOptions(cfg *config.Config) importer.Options {
	return importer.Options{
		BatchSize: cfg.Importer.BatchSize,
		Logger:    slog.Default(),
	}
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}
