package cmd

import (
	"errors"
	"fmt"

	"github.com/lockplane/schemaguard/internal/authz"
	"github.com/lockplane/schemaguard/internal/documents"
	"github.com/lockplane/schemaguard/internal/planner"
	"github.com/lockplane/schemaguard/internal/wizard"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Plan and apply column changes in one transaction",
	Long: `Plan the given changes, or re-check a saved plan, then run the generated
DDL in a single transaction. A saved plan is re-planned first and refused if
any of the facts it was reviewed against have changed. Plans containing a
blocker are never applied.`,
	Example: `  # Re-check and apply a reviewed plan
  schemaguard apply --plan plan.json --allow-schema-changes

  # Plan and apply without prompting
  schemaguard apply --changes changes.json --yes --allow-schema-changes`,
	RunE: runApply,
}

var (
	applyPlan    string
	applyChanges string
	applyFacts   string
	applyExpect  string
	applyDryRun  bool
	applyYes     bool
)

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVar(&applyPlan, "plan", "", "Reviewed plan file written by \"plan --output\"")
	applyCmd.Flags().StringVarP(&applyChanges, "changes", "c", "", "JSON file listing the column changes to plan and apply")
	applyCmd.Flags().StringVar(&applyFacts, "facts", "", "JSON file of impact facts; only valid with --dry-run")
	applyCmd.Flags().StringVar(&applyExpect, "expect-fingerprint", "", "Refuse to apply unless the facts fingerprint matches this value")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Validate the statements without executing them")
	applyCmd.Flags().BoolVarP(&applyYes, "yes", "y", false, "Apply without asking for confirmation")
	applyCmd.MarkFlagsMutuallyExclusive("plan", "changes")
	applyCmd.MarkFlagsOneRequired("plan", "changes")
}

func runApply(cmd *cobra.Command, args []string) error {
	if applyFacts != "" && !applyDryRun {
		return errors.New("--facts can only be used with --dry-run")
	}
	tok := schemaToken()
	if err := authz.RequireAlterSchema(tok); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var conn *connection
	if applyFacts == "" {
		if conn, err = connect(cmd.Context(), cfg); err != nil {
			return err
		}
		defer closeDB(conn.db)
	}
	p, err := newPlanner(cfg, conn, applyFacts)
	if err != nil {
		return err
	}

	var plan *planner.MigrationPlan
	if applyPlan != "" {
		reviewed, err := documents.LoadPlan(applyPlan)
		if err != nil {
			return err
		}
		plan, err = p.Revalidate(cmd.Context(), tok, reviewed)
		if errors.Is(err, planner.ErrStalePlan) {
			writePlanReport(cmd.ErrOrStderr(), plan)
			return fmt.Errorf("%w; review the plan above and run plan again", err)
		}
		if err != nil {
			return err
		}
	} else {
		changes, err := documents.LoadChanges(applyChanges)
		if err != nil {
			return err
		}
		if plan, err = p.Plan(cmd.Context(), tok, changes); err != nil {
			return err
		}
	}
	if applyExpect != "" && plan.FactsFingerprint != applyExpect {
		writePlanReport(cmd.ErrOrStderr(), plan)
		return fmt.Errorf("%w: expected fingerprint %s, got %s", planner.ErrStalePlan, applyExpect, plan.FactsFingerprint)
	}

	out := cmd.OutOrStdout()
	writePlanReport(out, plan)
	if !plan.Executable() {
		return fmt.Errorf("plan has %d blocker(s) and was not applied", len(plan.Blockers()))
	}
	statements := plan.Statements()
	if len(statements) == 0 {
		_, _ = fmt.Fprintln(out, "Nothing to apply.")
		return nil
	}

	if applyDryRun {
		return dryRunStatements(cmd, cfg, conn, statements)
	}

	if !applyYes {
		ok, err := wizard.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(),
			fmt.Sprintf("Apply %d statement(s)?", len(statements)), statements...)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("apply cancelled")
		}
	}

	return executeStatements(cmd, cfg, conn, tok, statements)
}
