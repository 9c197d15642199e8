package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lockplane/schemaguard/internal/executor"
	"github.com/lockplane/schemaguard/internal/planner"
	"github.com/lockplane/schemaguard/internal/typerules"
	"github.com/lockplane/schemaguard/internal/wizard"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writePlanReport prints a human readable plan, one block per change.
func writePlanReport(w io.Writer, plan *planner.MigrationPlan) {
	_, _ = fmt.Fprintln(w, wizard.RenderHeading("Migration plan "+plan.ID))
	_, _ = fmt.Fprintln(w)

	for i, c := range plan.Changes {
		change := c.Change
		_, _ = fmt.Fprintf(w, "%d. %s  %s %s.%s\n", i+1, wizard.RenderSeverity(c.Severity), change.Operation, change.Table, change.Column)
		if change.OldType != "" || change.NewType != "" {
			_, _ = fmt.Fprintf(w, "   %s %s\n", wizard.RenderLabel("type:"), describeTypes(change))
		}
		if c.Reason != "" {
			_, _ = fmt.Fprintf(w, "   %s %s\n", wizard.RenderLabel("reason:"), c.Reason)
		}
		if c.Error != "" {
			_, _ = fmt.Fprintf(w, "   %s %s\n", wizard.RenderLabel("error:"), c.Error)
		}
		if c.Facts != nil {
			_, _ = fmt.Fprintf(w, "   %s %d rows\n", wizard.RenderLabel("table:"), c.Facts.RowCount)
		}
		if c.Lock != nil {
			_, _ = fmt.Fprintf(w, "   %s %s (%s impact)\n", wizard.RenderLabel("lock:"), c.Lock.Mode, strings.ToLower(c.Lock.Level))
		}
		if c.EstimatedSeconds > 0 {
			_, _ = fmt.Fprintf(w, "   %s ~%ds\n", wizard.RenderLabel("estimate:"), c.EstimatedSeconds)
		}
		for _, stmt := range c.SQL {
			_, _ = fmt.Fprintln(w, wizard.RenderSQL(stmt+";"))
		}
		if r := c.Remediation; r != nil {
			_, _ = fmt.Fprintf(w, "   %s %s\n", wizard.RenderLabel("remediation:"), r.Description)
			for _, stmt := range r.SQL {
				_, _ = fmt.Fprintln(w, wizard.RenderSQL("-- "+stmt))
			}
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "%s %d safe, %d warning, %d blocker\n",
		wizard.RenderLabel("summary:"),
		plan.Count(typerules.Safe), plan.Count(typerules.Warning), plan.Count(typerules.Blocker))
	if plan.EstimatedSeconds > 0 {
		_, _ = fmt.Fprintf(w, "%s ~%ds\n", wizard.RenderLabel("estimated duration:"), plan.EstimatedSeconds)
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", wizard.RenderLabel("fingerprint:"), plan.FactsFingerprint)
	if plan.Executable() {
		_, _ = fmt.Fprintf(w, "Overall: %s\n", wizard.RenderSeverity(plan.Severity))
	} else {
		_, _ = fmt.Fprintf(w, "Overall: %s, the plan cannot be applied\n", wizard.RenderSeverity(plan.Severity))
	}
}

func describeTypes(c planner.ColumnChange) string {
	switch {
	case c.OldType == "":
		return c.NewType.String()
	case c.NewType == "":
		return c.OldType.String()
	}
	return c.OldType.String() + " -> " + c.NewType.String()
}

func writeExecutionReport(w io.Writer, result *executor.Result) {
	for _, d := range result.Diagnostics {
		_, _ = fmt.Fprintf(w, "%s statement #%d: %s\n", wizard.RenderSeverity(typerules.Warning), d.Statement+1, d.Message)
	}
	if !result.Executed {
		_, _ = fmt.Fprintf(w, "Dry run: %d statement(s) passed validation\n", len(result.Statements))
		for _, stmt := range result.Statements {
			_, _ = fmt.Fprintln(w, wizard.RenderSQL(stmt+";"))
		}
		return
	}
	_, _ = fmt.Fprintf(w, "Applied %d statement(s) in %s\n", result.Applied, result.Duration.Round(time.Millisecond))
}
