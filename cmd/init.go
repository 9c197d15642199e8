package cmd

import (
	"fmt"
	"os"

	"github.com/lockplane/schemaguard/internal/wizard"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create schemaguard.toml and an environment file",
	Long: `Create schemaguard.toml in the current directory with an interactive wizard.
The connection string is written to .env.<environment>, which is added to
.gitignore. With --yes a local Postgres environment is written without
prompting, or a SQLite one when --sqlite is given.`,
	RunE: runInit,
}

var (
	initForce  bool
	initYes    bool
	initSQLite string
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Replace an environment that already exists in schemaguard.toml")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Write the default environment without prompting")
	initCmd.Flags().StringVar(&initSQLite, "sqlite", "", "With --yes, use this SQLite database file instead of Postgres")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	var result *wizard.InitResult
	if initYes {
		env := wizard.DefaultEnvironment()
		if initSQLite != "" {
			env.DatabaseType = "sqlite"
			env.FilePath = initSQLite
		}
		result, err = wizard.GenerateFiles(dir, env, initForce)
	} else {
		result, err = wizard.Run(dir, initForce)
	}
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	out := cmd.OutOrStdout()
	switch {
	case result.ConfigCreated:
		_, _ = fmt.Fprintf(out, "Created %s\n", result.ConfigPath)
	case result.ConfigUpdated:
		_, _ = fmt.Fprintf(out, "Updated %s\n", result.ConfigPath)
	}
	if result.EnvFile != "" {
		_, _ = fmt.Fprintf(out, "Wrote %s\n", result.EnvFile)
	}
	if result.GitignoreUpdated {
		_, _ = fmt.Fprintln(out, "Added .env.* to .gitignore")
	}
	return nil
}
