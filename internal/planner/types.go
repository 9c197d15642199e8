package planner

import (
	"time"

	"github.com/lockplane/schemaguard/internal/inspect"
	"github.com/lockplane/schemaguard/internal/locks"
	"github.com/lockplane/schemaguard/internal/typerules"
)

// Operation is the kind of column alteration requested.
type Operation string

const (
	OpAdd         Operation = "add"
	OpDrop        Operation = "drop"
	OpAlterType   Operation = "alter_type"
	OpSetNotNull  Operation = "set_not_null"
	OpDropNotNull Operation = "drop_not_null"
)

func (o Operation) Valid() bool {
	switch o {
	case OpAdd, OpDrop, OpAlterType, OpSetNotNull, OpDropNotNull:
		return true
	}
	return false
}

// altersColumn reports whether o rewrites an existing column definition,
// which needs ALTER COLUMN.
func (o Operation) altersColumn() bool {
	return o == OpAlterType || o == OpSetNotNull || o == OpDropNotNull
}

// ColumnChange is a proposed alteration to one column of one table.
type ColumnChange struct {
	Table     string               `json:"table"`
	Column    string               `json:"column"`
	Operation Operation            `json:"operation"`
	OldType   typerules.ColumnType `json:"old_type,omitempty"`
	NewType   typerules.ColumnType `json:"new_type,omitempty"`
	Default   *string              `json:"default,omitempty"`
}

// Remediation is advisory SQL a human may run to unblock a change. It is
// never part of the statements a plan applies.
type Remediation struct {
	Description string   `json:"description"`
	SQL         []string `json:"sql,omitempty"`
}

// ChangeResult is the planner's verdict on one ColumnChange.
type ChangeResult struct {
	Change           ColumnChange       `json:"change"`
	Severity         typerules.Severity `json:"severity"`
	Reason           string             `json:"reason"`
	SQL              []string           `json:"sql"`
	Remediation      *Remediation       `json:"remediation,omitempty"`
	Lock             *locks.LockImpact  `json:"lock,omitempty"`
	EstimatedSeconds int64              `json:"estimated_seconds,omitempty"`
	Facts            *inspect.Facts     `json:"facts,omitempty"`
	Error            string             `json:"error,omitempty"`

	// Err holds the malformed-change or inspection error behind a blocker.
	Err error `json:"-"`
}

// MigrationPlan is the classified result of one planning request. Plans are
// never persisted; re-plan when the facts may have changed.
type MigrationPlan struct {
	ID               string             `json:"id"`
	CreatedAt        time.Time          `json:"created_at"`
	Changes          []ChangeResult     `json:"changes"`
	Severity         typerules.Severity `json:"severity"`
	FactsFingerprint string             `json:"facts_fingerprint"`
	EstimatedSeconds int64              `json:"estimated_seconds,omitempty"`
}

// Executable reports whether no change is a blocker.
func (p *MigrationPlan) Executable() bool {
	return p.Severity != typerules.Blocker
}

// Statements returns every generated statement in change order.
func (p *MigrationPlan) Statements() []string {
	var stmts []string
	for _, c := range p.Changes {
		stmts = append(stmts, c.SQL...)
	}
	return stmts
}

// Blockers returns the changes that prevent execution.
func (p *MigrationPlan) Blockers() []ChangeResult {
	var out []ChangeResult
	for _, c := range p.Changes {
		if c.Severity == typerules.Blocker {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many changes have severity s.
func (p *MigrationPlan) Count(s typerules.Severity) int {
	n := 0
	for _, c := range p.Changes {
		if c.Severity == s {
			n++
		}
	}
	return n
}
