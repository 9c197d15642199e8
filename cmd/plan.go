package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/lockplane/schemaguard/internal/authz"
	"github.com/lockplane/schemaguard/internal/config"
	"github.com/lockplane/schemaguard/internal/documents"
	"github.com/lockplane/schemaguard/internal/inspect"
	"github.com/lockplane/schemaguard/internal/planner"
	"github.com/lockplane/schemaguard/internal/typerules"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Classify proposed column changes against live data",
	Long: `Classify each proposed column change as safe, warning or blocker using
facts read from the database: row counts, NULL counts, referencing foreign
keys and sampled values. Changes that may proceed get the DDL that applies
them; blocked changes get a remediation hint instead.

Facts can also be read from a JSON file with --facts, which is useful for
reviewing a change set without database access.`,
	Example: `  # Plan against the default environment
  schemaguard plan --changes changes.json --allow-schema-changes

  # Save the plan for a later "apply --plan"
  schemaguard plan --changes changes.json --output plan.json --allow-schema-changes

  # Fail a CI job if anything is a blocker
  schemaguard plan --changes changes.json --fail-on blocker --allow-schema-changes`,
	RunE: runPlan,
}

var (
	planChanges string
	planFacts   string
	planFormat  string
	planOutput  string
	planFailOn  string
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planChanges, "changes", "c", "", "JSON file listing the column changes to plan (required)")
	planCmd.Flags().StringVar(&planFacts, "facts", "", "JSON file of impact facts to use instead of querying the database")
	planCmd.Flags().StringVar(&planFormat, "format", "text", "Output format: text or json")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "Also write the plan as JSON to this file")
	planCmd.Flags().StringVar(&planFailOn, "fail-on", "", "Exit non-zero when the plan reaches this severity: warning or blocker")
	_ = planCmd.MarkFlagRequired("changes")
}

func runPlan(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(planFormat)
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown --format %q (use text or json)", planFormat)
	}
	var failOn *typerules.Severity
	if planFailOn != "" {
		s, err := typerules.ParseSeverity(planFailOn)
		if err != nil {
			return fmt.Errorf("invalid --fail-on: %w", err)
		}
		failOn = &s
	}
	tok := schemaToken()
	if err := authz.RequireAlterSchema(tok); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	changes, err := documents.LoadChanges(planChanges)
	if err != nil {
		return err
	}

	var conn *connection
	if planFacts == "" {
		if conn, err = connect(cmd.Context(), cfg); err != nil {
			return err
		}
		defer closeDB(conn.db)
	}
	p, err := newPlanner(cfg, conn, planFacts)
	if err != nil {
		return err
	}

	plan, err := p.Plan(cmd.Context(), tok, changes)
	if err != nil {
		return err
	}

	if planOutput != "" {
		if err := writePlanFile(planOutput, plan); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := writeJSON(out, plan); err != nil {
			return err
		}
	} else {
		writePlanReport(out, plan)
	}

	if failOn != nil && plan.Severity >= *failOn {
		return fmt.Errorf("plan severity is %s", plan.Severity)
	}
	return nil
}

// newPlanner builds a planner over the facts file when one is given, or
// over conn.
func newPlanner(cfg *config.Config, conn *connection, factsPath string) (*planner.Planner, error) {
	opts := plannerOptions(cfg)
	if factsPath != "" {
		opts.Dialect = targetDialect(cfg)
		static, err := inspect.LoadStatic(factsPath)
		if err != nil {
			return nil, err
		}
		return planner.New(static, opts), nil
	}

	opts.Dialect = conn.dialect
	if conn.dialect.IsSQLite() {
		opts.Schema = ""
	}
	inspectOpts := []inspect.Option{inspect.WithLogger(opts.Logger)}
	if opts.Schema != "" {
		inspectOpts = append(inspectOpts, inspect.WithSchema(opts.Schema))
	}
	ins := inspect.NewSQLInspector(conn.db, conn.dialect, inspectOpts...)
	return planner.New(ins, opts), nil
}

func writePlanFile(path string, plan *planner.MigrationPlan) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writeJSON(f, plan); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
