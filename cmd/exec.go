package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lockplane/schemaguard/internal/authz"
	"github.com/lockplane/schemaguard/internal/config"
	"github.com/lockplane/schemaguard/internal/executor"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run a DDL script in a single transaction",
	Long: `Split a SQL script into statements, check each one against the executor
policy and run them all in one transaction. If any statement fails the whole
batch is rolled back. Reads the script from stdin when --file is not given.

With --dry-run the policy check runs without a database connection and
without --allow-schema-changes.`,
	Example: `  schemaguard exec --file migration.sql --allow-schema-changes
  schemaguard exec --dry-run < migration.sql`,
	Args: cobra.NoArgs,
	RunE: runExec,
}

var (
	execFile   string
	execDryRun bool
	execFormat string
)

func init() {
	rootCmd.AddCommand(execCmd)

	execCmd.Flags().StringVarP(&execFile, "file", "f", "", "SQL script to run (default stdin)")
	execCmd.Flags().BoolVar(&execDryRun, "dry-run", false, "Validate the statements without executing them")
	execCmd.Flags().StringVar(&execFormat, "format", "text", "Output format: text or json")
}

func runExec(cmd *cobra.Command, args []string) error {
	if execFormat != "text" && execFormat != "json" {
		return fmt.Errorf("unknown --format %q (use text or json)", execFormat)
	}
	script, err := readScript(cmd, execFile)
	if err != nil {
		return err
	}
	// split later, once the target dialect is known
	statements := []string{script}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if execDryRun {
		return dryRunStatements(cmd, cfg, nil, statements)
	}

	tok := schemaToken()
	if err := authz.RequireAlterSchema(tok); err != nil {
		return err
	}
	conn, err := connect(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeDB(conn.db)
	return executeStatements(cmd, cfg, conn, tok, statements)
}

func readScript(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func dryRunStatements(cmd *cobra.Command, cfg *config.Config, conn *connection, statements []string) error {
	dialect := targetDialect(cfg)
	if conn != nil {
		dialect = conn.dialect
	}
	opts, err := executorOptions(cfg, dialect)
	if err != nil {
		return err
	}
	result, err := executor.New(nil, opts).DryRun(statements)
	reportExecution(cmd, result, err)
	return err
}

func executeStatements(cmd *cobra.Command, cfg *config.Config, conn *connection, tok authz.Token, statements []string) error {
	opts, err := executorOptions(cfg, conn.dialect)
	if err != nil {
		return err
	}
	result, err := executor.New(conn.db, opts).Execute(cmd.Context(), tok, statements)
	reportExecution(cmd, result, err)

	var failed *executor.ExecutionFailedError
	if errors.As(err, &failed) {
		return fmt.Errorf("%w; no statements were applied", err)
	}
	return err
}

// reportExecution prints a successful result, or the per-statement detail
// behind a failed one. The error itself is printed by Execute.
func reportExecution(cmd *cobra.Command, result *executor.Result, err error) {
	if result == nil {
		return
	}
	if cmd.Name() == "exec" && execFormat == "json" {
		_ = writeJSON(cmd.OutOrStdout(), result)
		return
	}
	if err == nil {
		writeExecutionReport(cmd.OutOrStdout(), result)
		return
	}
	stderr := cmd.ErrOrStderr()
	for _, d := range result.Diagnostics {
		_, _ = fmt.Fprintf(stderr, "  statement #%d [%s]: %s\n", d.Statement+1, d.Code, d.Message)
	}
	if result.FailedAt != nil {
		_, _ = fmt.Fprintf(stderr, "  rolled back after statement #%d: %s\n", *result.FailedAt+1, result.Message)
	}
}
