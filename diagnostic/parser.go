package diagnostic

import (
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

var nearTokenPattern = regexp.MustCompile(`at or near "([^"]+)"`)

// CheckSyntax parses sql with the PostgreSQL parser and records a
// syntax_error diagnostic for statement if it does not parse as exactly one
// statement. It reports whether the statement parsed.
func (c *Collector) CheckSyntax(statement int, sql string) bool {
	result, err := pg_query.Parse(sql)
	if err != nil {
		msg := strings.TrimPrefix(err.Error(), "failed to parse SQL: ")
		c.Add(NewDiagnostic(statement, errorRange(sql, msg), SeverityError, "syntax_error", msg))
		return false
	}
	if n := len(result.Stmts); n != 1 {
		c.AddError(statement, sql, "statement_count", "expected exactly one statement")
		return false
	}
	return true
}

// CheckSingleStatement runs the PostgreSQL scanner over sql and records a
// statement_count diagnostic when it holds more than one statement. Unlike
// CheckSyntax it does not need sql to parse.
func (c *Collector) CheckSingleStatement(statement int, sql string) bool {
	parts, err := pg_query.SplitWithScanner(sql, true)
	if err != nil {
		c.AddError(statement, sql, "syntax_error", err.Error())
		return false
	}
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	if n > 1 {
		c.AddError(statement, sql, "statement_count", "expected exactly one statement")
		return false
	}
	return true
}

// errorRange locates the token a parse error points at, falling back to
// the end of the statement.
func errorRange(sql, msg string) Range {
	if m := nearTokenPattern.FindStringSubmatch(msg); len(m) > 1 {
		if offset := strings.Index(sql, m[1]); offset >= 0 {
			return RangeFromOffsets(sql, offset, offset+len(m[1]))
		}
	}
	return RangeFromOffsets(sql, len(sql), len(sql))
}
