package locks

import "fmt"

// LockMode is a PostgreSQL table-level lock mode, ordered by strength.
// See: https://www.postgresql.org/docs/current/explicit-locking.html
type LockMode int

const (
	LockAccessShare          LockMode = iota // SELECT
	LockRowShare                             // SELECT FOR UPDATE/SHARE
	LockRowExclusive                         // INSERT, UPDATE, DELETE
	LockShareUpdateExclusive                 // CREATE INDEX CONCURRENTLY, VALIDATE CONSTRAINT
	LockShare                                // CREATE INDEX
	LockShareRowExclusive                    // CREATE TRIGGER
	LockExclusive                            // REFRESH MATERIALIZED VIEW CONCURRENTLY
	LockAccessExclusive                      // most ALTER TABLE forms
)

var lockModeNames = [...]string{
	"ACCESS SHARE",
	"ROW SHARE",
	"ROW EXCLUSIVE",
	"SHARE UPDATE EXCLUSIVE",
	"SHARE",
	"SHARE ROW EXCLUSIVE",
	"EXCLUSIVE",
	"ACCESS EXCLUSIVE",
}

func (l LockMode) String() string {
	if l < 0 || int(l) >= len(lockModeNames) {
		return fmt.Sprintf("UNKNOWN(%d)", int(l))
	}
	return lockModeNames[l]
}

// BlocksReads returns true if this lock mode blocks SELECT queries
func (l LockMode) BlocksReads() bool {
	return l == LockAccessExclusive
}

// BlocksWrites returns true if this lock mode blocks INSERT/UPDATE/DELETE
func (l LockMode) BlocksWrites() bool {
	return l >= LockShare
}

func (l LockMode) ImpactLevel() ImpactLevel {
	switch {
	case l <= LockRowExclusive:
		return ImpactNone
	case l == LockShareUpdateExclusive:
		return ImpactLow
	case l == LockShare:
		return ImpactMedium
	default:
		return ImpactHigh
	}
}

// ImpactLevel buckets lock modes by how much concurrent traffic they stall.
type ImpactLevel int

const (
	ImpactNone   ImpactLevel = iota
	ImpactLow                // reads and writes continue
	ImpactMedium             // writes wait
	ImpactHigh               // reads and writes wait
)

func (i ImpactLevel) String() string {
	switch i {
	case ImpactNone:
		return "NONE"
	case ImpactLow:
		return "LOW"
	case ImpactMedium:
		return "MEDIUM"
	case ImpactHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LockImpact describes the lock one statement takes on its table.
type LockImpact struct {
	LockMode     LockMode    `json:"-"`
	Mode         string      `json:"lock_mode"`
	BlocksReads  bool        `json:"blocks_reads"`
	BlocksWrites bool        `json:"blocks_writes"`
	Impact       ImpactLevel `json:"-"`
	Level        string      `json:"impact"`
	Explanation  string      `json:"explanation"`
}

// IsHighImpact returns true if the statement blocks at least writes.
func (li LockImpact) IsHighImpact() bool {
	return li.Impact >= ImpactMedium
}
