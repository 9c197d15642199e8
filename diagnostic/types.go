// Package diagnostic collects per-statement findings from validating a DDL
// batch so callers can report every problem at once.
package diagnostic

import (
	"fmt"
	"strings"
)

// Severity indicates how serious a diagnostic is
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Position is a 0-indexed line and character within a statement.
type Position struct {
	Line      int
	Character int
	Offset    int
}

type Range struct {
	Start Position
	End   Position
}

// Diagnostic is a single finding about one statement of a batch.
type Diagnostic struct {
	Statement int // 0-indexed position in the batch
	Range     Range
	Severity  Severity
	Code      string // e.g. "denied_statement", "syntax_error"
	Message   string
}

func NewDiagnostic(statement int, r Range, severity Severity, code, message string) Diagnostic {
	return Diagnostic{
		Statement: statement,
		Range:     r,
		Severity:  severity,
		Code:      code,
		Message:   message,
	}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("statement %d:%d:%d: %s [%s] %s",
		d.Statement+1, d.Range.Start.Line+1, d.Range.Start.Character+1, d.Severity, d.Code, d.Message)
}

// PositionFromOffset converts a byte offset in content to a Position.
func PositionFromOffset(content string, offset int) Position {
	if offset > len(content) {
		offset = len(content)
	}
	if offset < 0 {
		offset = 0
	}
	before := content[:offset]
	line := strings.Count(before, "\n")
	char := offset
	if i := strings.LastIndex(before, "\n"); i >= 0 {
		char = offset - i - 1
	}
	return Position{Line: line, Character: char, Offset: offset}
}

func RangeFromOffsets(content string, start, end int) Range {
	return Range{
		Start: PositionFromOffset(content, start),
		End:   PositionFromOffset(content, end),
	}
}
