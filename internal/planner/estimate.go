package planner

import "math"

// rewrites reports whether a change scans or rewrites the whole table.
func rewrites(c ColumnChange) bool {
	switch c.Operation {
	case OpAlterType, OpSetNotNull:
		return true
	case OpAdd:
		return c.Default != nil
	}
	return false
}

// ChangeWeight counts the table-rewriting changes among well-formed changes.
// It is never less than one.
func ChangeWeight(changes []ColumnChange) int {
	n := 0
	for _, c := range changes {
		if c.Validate() == nil && rewrites(c) {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// EstimateSeconds is ceil(rows / rowsPerUnit * weight * baseSeconds).
func EstimateSeconds(rows int64, weight int, baseSeconds, rowsPerUnit float64) int64 {
	if rows <= 0 || rowsPerUnit <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(rows) / rowsPerUnit * float64(weight) * baseSeconds))
}
