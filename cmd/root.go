package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose            bool
	environmentName    string
	databaseURL        string
	allowSchemaChanges bool
)

var rootCmd = &cobra.Command{
	Use:   "schemaguard",
	Short: "Impact-aware schema migration planning",
	Long: `schemaguard classifies proposed column changes against the live data they
would touch, generates the DDL for the ones that are safe to run and applies
it in a single transaction. It also bulk-loads rows with per-column type
coercion.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(cmd.ErrOrStderr(), verbose))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&environmentName, "environment", "e", "", "Environment from schemaguard.toml to connect to")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Connection string, overriding the environment")
	rootCmd.PersistentFlags().BoolVar(&allowSchemaChanges, "allow-schema-changes", false, "Authorize schema changes (or set "+allowSchemaChangesEnv+"=true)")
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
