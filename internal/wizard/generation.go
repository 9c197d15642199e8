package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lockplane/schemaguard/internal/config"
)

// DefaultEnvironment is what `init --yes` writes: a local Postgres.
func DefaultEnvironment() EnvironmentInput {
	return EnvironmentInput{
		Name:         "local",
		Description:  "Local development database",
		DatabaseType: "postgres",
		Host:         "localhost",
		Port:         "5432",
		Database:     "postgres",
		User:         "postgres",
		Password:     "postgres",
	}
}

// GenerateFiles writes schemaguard.toml and .env.<name> into dir and makes
// sure .gitignore excludes the env file. An environment that already
// exists in the config is only replaced when force is set.
func GenerateFiles(dir string, env EnvironmentInput, force bool) (*InitResult, error) {
	if err := ValidateEnvironmentName(env.Name); err != nil {
		return nil, err
	}

	result := &InitResult{ConfigPath: filepath.Join(dir, config.ConfigFileName)}

	cfg := config.Default()
	if _, err := os.Stat(result.ConfigPath); err == nil {
		cfg, err = config.LoadFile(result.ConfigPath)
		if err != nil {
			return nil, err
		}
		if _, exists := cfg.Environments[env.Name]; exists && !force {
			return nil, fmt.Errorf("environment %q already exists in %s (use --force to replace it)", env.Name, result.ConfigPath)
		}
		result.ConfigUpdated = true
	} else if !os.IsNotExist(err) {
		return nil, err
	} else {
		result.ConfigCreated = true
	}

	if cfg.Environments == nil {
		cfg.Environments = map[string]config.EnvironmentConfig{}
	}
	cfg.Environments[env.Name] = config.EnvironmentConfig{
		Description: env.Description,
		Driver:      env.Driver,
	}
	if cfg.DefaultEnvironment == "" {
		cfg.DefaultEnvironment = env.Name
	}
	if err := cfg.Save(result.ConfigPath); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", result.ConfigPath, err)
	}

	result.EnvFile = filepath.Join(dir, ".env."+env.Name)
	if err := writeEnvFile(result.EnvFile, env); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", result.EnvFile, err)
	}

	updated, err := updateGitignore(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil, fmt.Errorf("failed to update .gitignore: %w", err)
	}
	result.GitignoreUpdated = updated
	return result, nil
}

func writeEnvFile(path string, env EnvironmentInput) error {
	values := map[string]string{}
	switch env.DatabaseType {
	case "sqlite":
		values["SQLITE_DB_PATH"] = ConnectionString(env)
	case "libsql":
		values["LIBSQL_URL"] = env.URL
		values["LIBSQL_AUTH_TOKEN"] = env.AuthToken
	default:
		values["DATABASE_URL"] = ConnectionString(env)
	}

	if err := godotenv.Write(values, path); err != nil {
		return err
	}
	// owner read/write only, the file holds credentials
	return os.Chmod(path, 0o600)
}

// updateGitignore appends an .env.* rule unless one is present. It reports
// whether the file changed.
func updateGitignore(path string) (bool, error) {
	content := ""
	if data, err := os.ReadFile(path); err == nil {
		content = string(data)
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if strings.Contains(content, ".env.*") {
		return false, nil
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "\n# schemaguard environment files hold database credentials\n.env.*\n"
	return true, os.WriteFile(path, []byte(content), 0o644)
}
