// Package locks predicts which PostgreSQL lock a DDL statement acquires.
package locks

import (
	"fmt"
	"strings"
	"time"
)

// DetectLockMode returns the table lock a single statement acquires.
// Unknown statements are assumed to take ACCESS EXCLUSIVE.
func DetectLockMode(sql string) LockMode {
	s := normalize(sql)
	if s == "" {
		return LockAccessShare
	}

	switch {
	case hasAnyPrefix(s, "CREATE INDEX", "CREATE UNIQUE INDEX"):
		if strings.Contains(s, "CONCURRENTLY") {
			return LockShareUpdateExclusive
		}
		return LockShare

	case strings.HasPrefix(s, "ALTER TABLE"):
		if strings.Contains(s, "VALIDATE CONSTRAINT") {
			return LockShareUpdateExclusive
		}
		return LockAccessExclusive

	case hasAnyPrefix(s, "CREATE TRIGGER", "CREATE OR REPLACE TRIGGER"):
		return LockShareRowExclusive

	case hasAnyPrefix(s, "CREATE TABLE", "CREATE FUNCTION", "CREATE OR REPLACE FUNCTION", "SELECT"):
		return LockAccessShare

	case strings.HasPrefix(s, "CREATE POLICY"):
		return LockAccessExclusive

	case hasAnyPrefix(s, "INSERT", "UPDATE", "DELETE"):
		return LockRowExclusive
	}

	return LockAccessExclusive
}

// Analyze returns the lock impact of a single statement.
func Analyze(sql string) LockImpact {
	mode := DetectLockMode(sql)
	return LockImpact{
		LockMode:     mode,
		Mode:         mode.String(),
		BlocksReads:  mode.BlocksReads(),
		BlocksWrites: mode.BlocksWrites(),
		Impact:       mode.ImpactLevel(),
		Level:        mode.ImpactLevel().String(),
		Explanation:  explain(normalize(sql), mode),
	}
}

// Strongest returns the impact of the statement holding the strongest lock.
func Strongest(statements []string) (LockImpact, bool) {
	var (
		best  LockImpact
		found bool
	)
	for _, stmt := range statements {
		impact := Analyze(stmt)
		if !found || impact.LockMode > best.LockMode {
			best, found = impact, true
		}
	}
	return best, found
}

func explain(s string, mode LockMode) string {
	switch mode {
	case LockAccessExclusive:
		switch {
		case strings.Contains(s, "ADD COLUMN") && strings.Contains(s, "DEFAULT"):
			return "ADD COLUMN with DEFAULT holds an exclusive lock while the default is applied"
		case strings.Contains(s, "ADD COLUMN"), strings.Contains(s, "DROP COLUMN"):
			return "changing table structure requires exclusive access"
		case strings.Contains(s, " TYPE "):
			return "changing a column type may rewrite the entire table"
		case strings.Contains(s, "SET NOT NULL"):
			return "SET NOT NULL scans every row while holding an exclusive lock"
		case strings.Contains(s, "ROW LEVEL SECURITY"), strings.HasPrefix(s, "CREATE POLICY"):
			return "row level security changes require exclusive access"
		}
		return "this operation requires exclusive table access"
	case LockShare:
		return "CREATE INDEX blocks writes during the index build"
	case LockShareRowExclusive:
		return "CREATE TRIGGER blocks writes while the trigger is attached"
	case LockShareUpdateExclusive:
		return "reads and writes continue during this operation"
	case LockRowExclusive:
		return "row-level DML"
	}
	return "no blocking table lock"
}

// LockTimeoutStatement bounds how long the current transaction waits for
// table locks.
func LockTimeoutStatement(d time.Duration) string {
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.Milliseconds())
}

func normalize(sql string) string {
	return strings.Join(strings.Fields(strings.ToUpper(sql)), " ")
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
