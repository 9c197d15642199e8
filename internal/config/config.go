// Package config loads schemaguard.toml and resolves named environments.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

const ConfigFileName = "schemaguard.toml"

// EnvironmentConfig describes a single named environment.
type EnvironmentConfig struct {
	DatabaseURL string `toml:"database_url,omitempty"`
	Description string `toml:"description,omitempty"`
	// Driver selects the Postgres driver: "lib/pq" (default) or "pgx".
	Driver string `toml:"driver,omitempty" validate:"omitempty,oneof=lib/pq pgx"`
}

type PlannerConfig struct {
	LargeTableThreshold int64   `toml:"large_table_threshold" validate:"gte=0"`
	BaseSeconds         float64 `toml:"base_seconds" validate:"gt=0"`
	RowsPerUnit         float64 `toml:"rows_per_unit" validate:"gt=0"`
	SampleLimit         int     `toml:"sample_limit" validate:"gt=0,lte=100000"`
	Schema              string  `toml:"schema,omitempty"`
}

type ExecutorConfig struct {
	// Allow and Deny replace the built-in patterns when non-empty.
	Allow            []string `toml:"allow,omitempty"`
	Deny             []string `toml:"deny,omitempty"`
	ProtectedSchemas []string `toml:"protected_schemas,omitempty"`
	ParseCheck       bool     `toml:"parse_check"`
	LockTimeout      Duration `toml:"lock_timeout,omitempty"`
}

type ImporterConfig struct {
	BatchSize int `toml:"batch_size" validate:"gt=0"`
}

type Config struct {
	DefaultEnvironment string                       `toml:"default_environment,omitempty"`
	Environments       map[string]EnvironmentConfig `toml:"environments,omitempty" validate:"dive"`
	Planner            PlannerConfig                `toml:"planner"`
	Executor           ExecutorConfig               `toml:"executor"`
	Importer           ImporterConfig               `toml:"importer"`
	ConfigFilePath     string                       `toml:"-"`
}

// Default returns the configuration used when no file is found. Values read
// from a file are layered over it.
func Default() *Config {
	return &Config{
		Planner: PlannerConfig{
			LargeTableThreshold: 100_000,
			BaseSeconds:         2,
			RowsPerUnit:         10_000,
			SampleLimit:         100,
		},
		Executor: ExecutorConfig{ParseCheck: true},
		Importer: ImporterConfig{BatchSize: 100},
	}
}

// ConfigDir is the directory holding the config file, or "" when defaults
// are in use.
func (c *Config) ConfigDir() string {
	if c.ConfigFilePath == "" {
		return ""
	}
	return filepath.Dir(c.ConfigFilePath)
}

// Validate checks the numeric tunables and environment drivers.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.ActualTag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LoadConfig looks for schemaguard.toml in the working directory and its
// parents, stopping at the first project root.
func LoadConfig() (*Config, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(startDir)
}

func LoadConfigFrom(startDir string) (*Config, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return LoadFile(configPath)
		}

		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return Default(), nil
}

// LoadFile reads one config file over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %s", path, row, col, decodeErr.Error())
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	config.ConfigFilePath = path
	return config, nil
}

// Save writes c as TOML to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// isProjectRoot checks if the directory is a project root based on common markers
func isProjectRoot(dir string) bool {
	for _, marker := range []string{".git", "go.mod", "package.json"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// Duration reads durations such as "5s" from TOML strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration %q is negative", string(b))
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
