// Package planner classifies proposed column changes as safe, warning or
// blocker and generates the DDL that applies the ones that may proceed.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lockplane/schemaguard/internal/authz"
	"github.com/lockplane/schemaguard/internal/database"
	"github.com/lockplane/schemaguard/internal/inspect"
	"github.com/lockplane/schemaguard/internal/locks"
	"github.com/lockplane/schemaguard/internal/typerules"
)

const (
	ReasonMalformed        = "malformed change request"
	ReasonInspectionFailed = "could not verify impact"
	ReasonReferenced       = "referenced by other tables"
	ReasonExistingNulls    = "existing NULL values"
	ReasonNoAlterColumn    = "SQLite cannot alter an existing column in place"
)

// Options tune classification. Use DefaultOptions as the starting point.
type Options struct {
	// LargeTableThreshold escalates changes on tables with more rows than
	// this to at least warning. Zero disables the check.
	LargeTableThreshold int64
	BaseSeconds         float64
	RowsPerUnit         float64
	SampleLimit         int
	// Schema qualifies generated table names when set.
	Schema string
	// Dialect of the target database. Empty means Postgres.
	Dialect database.DatabaseType
	Logger  *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		LargeTableThreshold: 100_000,
		BaseSeconds:         2,
		RowsPerUnit:         10_000,
		SampleLimit:         inspect.DefaultSampleLimit,
	}
}

// Planner turns change requests into a MigrationPlan. It holds no mutable
// state and is safe for concurrent use.
type Planner struct {
	inspector inspect.Inspector
	opts      Options
	gen       generator
	logger    *slog.Logger
}

func New(inspector inspect.Inspector, opts Options) *Planner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		inspector: inspector,
		opts:      opts,
		gen:       generator{schema: opts.Schema},
		logger:    logger,
	}
}

// Plan classifies every change against live facts. The token is checked
// before any inspection happens.
func (p *Planner) Plan(ctx context.Context, tok authz.Token, changes []ColumnChange) (*MigrationPlan, error) {
	if err := authz.RequireAlterSchema(tok); err != nil {
		return nil, err
	}

	weight := ChangeWeight(changes)
	rowCounts := make(map[string]int64)
	results := make([]ChangeResult, 0, len(changes))

	for _, change := range changes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, p.planChange(ctx, change, weight, rowCounts))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan := &MigrationPlan{
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
		Changes:          results,
		FactsFingerprint: FactsFingerprint(results),
	}
	for _, r := range results {
		plan.Severity = plan.Severity.Max(r.Severity)
		if r.EstimatedSeconds > plan.EstimatedSeconds {
			plan.EstimatedSeconds = r.EstimatedSeconds
		}
	}

	p.logger.Info("planned migration",
		"plan_id", plan.ID,
		"changes", len(results),
		"severity", plan.Severity.String(),
		"executable", plan.Executable())
	return plan, nil
}

// Revalidate re-plans the changes of a reviewed plan and returns
// ErrStalePlan, along with the fresh plan, if any fact has changed.
func (p *Planner) Revalidate(ctx context.Context, tok authz.Token, reviewed *MigrationPlan) (*MigrationPlan, error) {
	changes := make([]ColumnChange, 0, len(reviewed.Changes))
	for _, c := range reviewed.Changes {
		changes = append(changes, c.Change)
	}

	fresh, err := p.Plan(ctx, tok, changes)
	if err != nil {
		return nil, err
	}
	if fresh.FactsFingerprint != reviewed.FactsFingerprint {
		p.logger.Warn("plan facts changed",
			"reviewed_plan_id", reviewed.ID,
			"plan_id", fresh.ID)
		return fresh, ErrStalePlan
	}
	return fresh, nil
}

func (p *Planner) planChange(ctx context.Context, change ColumnChange, weight int, rowCounts map[string]int64) ChangeResult {
	if err := change.Validate(); err != nil {
		p.logger.Debug("rejected malformed change", "table", change.Table, "column", change.Column, "error", err)
		return malformedResult(change, err)
	}

	req := inspect.Request{
		Table:       change.Table,
		Column:      change.Column,
		NullCount:   change.Operation == OpSetNotNull,
		ForeignKeys: change.Operation == OpDrop,
		Samples:     change.Operation == OpAlterType,
		SampleLimit: p.opts.SampleLimit,
	}
	if n, ok := rowCounts[change.Table]; ok {
		req.KnownRowCount = &n
	}

	facts, err := inspect.Gather(ctx, p.inspector, req)
	if err != nil {
		p.logger.Warn("impact inspection failed", "table", change.Table, "column", change.Column, "error", err)
		return ChangeResult{
			Change:   change,
			Severity: typerules.Blocker,
			Reason:   ReasonInspectionFailed,
			Error:    err.Error(),
			Err:      err,
		}
	}
	rowCounts[change.Table] = facts.RowCount

	return p.Evaluate(change, *facts, weight)
}

// Evaluate classifies one change against known facts. It performs no I/O and
// returns the same result for the same inputs.
func (p *Planner) Evaluate(change ColumnChange, facts inspect.Facts, weight int) ChangeResult {
	if err := change.Validate(); err != nil {
		return malformedResult(change, err)
	}

	r := ChangeResult{Change: change, Facts: &facts}

	switch change.Operation {
	case OpAdd:
		r.Severity, r.Reason = typerules.Safe, "adding a new column"

	case OpDrop:
		if len(facts.ReverseForeignKeys) > 0 {
			r.Severity, r.Reason = typerules.Blocker, ReasonReferenced
			r.Remediation = dropReferencedConstraints(facts.ReverseForeignKeys)
		} else {
			r.Severity, r.Reason = typerules.Safe, "column is not referenced by other tables"
		}

	case OpAlterType:
		v := typerules.Classify(change.OldType, change.NewType, typerules.Samples{
			Values:     facts.SampleValues,
			Exhaustive: facts.SampleExhaustive,
		})
		r.Severity, r.Reason = v.Severity, v.Reason
		if v.Severity == typerules.Blocker {
			r.Remediation = p.gen.expandContract(change)
		}

	case OpSetNotNull:
		if facts.NullCount > 0 {
			r.Severity, r.Reason = typerules.Blocker, ReasonExistingNulls
			r.Remediation = p.gen.backfillNulls(change)
		} else {
			r.Severity, r.Reason = typerules.Safe, "column has no NULL values"
		}

	case OpDropNotNull:
		r.Severity, r.Reason = typerules.Safe, "relaxing a constraint keeps all data"
	}

	if p.opts.Dialect.IsSQLite() && change.Operation.altersColumn() && r.Severity != typerules.Blocker {
		r.Severity, r.Reason = typerules.Blocker, ReasonNoAlterColumn
	}

	p.applyLargeTable(&r, facts.RowCount, weight)

	if r.Severity != typerules.Blocker {
		r.SQL = p.gen.statements(change)
		if impact, ok := locks.Strongest(r.SQL); ok {
			r.Lock = &impact
		}
	}
	return r
}

// applyLargeTable escalates safe changes on large tables to warning and
// attaches a duration estimate. Blockers stay blockers.
func (p *Planner) applyLargeTable(r *ChangeResult, rows int64, weight int) {
	if p.opts.LargeTableThreshold <= 0 || rows <= p.opts.LargeTableThreshold {
		return
	}

	r.EstimatedSeconds = EstimateSeconds(rows, weight, p.opts.BaseSeconds, p.opts.RowsPerUnit)
	note := fmt.Sprintf("large table: %d rows, estimated %ds", rows, r.EstimatedSeconds)

	switch r.Severity {
	case typerules.Safe:
		r.Severity = typerules.Warning
		r.Reason += "; " + note
	case typerules.Warning:
		r.Reason += "; " + note
	}
}

func malformedResult(change ColumnChange, err error) ChangeResult {
	return ChangeResult{
		Change:   change,
		Severity: typerules.Blocker,
		Reason:   ReasonMalformed,
		Error:    err.Error(),
		Err:      err,
	}
}
