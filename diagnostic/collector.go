package diagnostic

import (
	"sort"
)

// Collector collects diagnostics from various analysis passes
type Collector struct {
	diagnostics []Diagnostic
}

func NewCollector() *Collector {
	return &Collector{diagnostics: []Diagnostic{}}
}

// Add adds a diagnostic to the collection
func (c *Collector) Add(diag Diagnostic) {
	c.diagnostics = append(c.diagnostics, diag)
}

// AddError adds an error diagnostic covering a whole statement.
func (c *Collector) AddError(statement int, sql, code, message string) {
	c.Add(NewDiagnostic(statement, RangeFromOffsets(sql, 0, len(sql)), SeverityError, code, message))
}

// AddWarning adds a warning diagnostic covering a whole statement.
func (c *Collector) AddWarning(statement int, sql, code, message string) {
	c.Add(NewDiagnostic(statement, RangeFromOffsets(sql, 0, len(sql)), SeverityWarning, code, message))
}

// All returns all collected diagnostics, sorted by statement and position.
func (c *Collector) All() []Diagnostic {
	sort.SliceStable(c.diagnostics, func(i, j int) bool {
		a, b := c.diagnostics[i], c.diagnostics[j]
		if a.Statement != b.Statement {
			return a.Statement < b.Statement
		}
		return a.Range.Start.Offset < b.Range.Start.Offset
	})
	return c.diagnostics
}

// Errors returns only error-level diagnostics
func (c *Collector) Errors() []Diagnostic {
	var errors []Diagnostic
	for _, d := range c.All() {
		if d.Severity == SeverityError {
			errors = append(errors, d)
		}
	}
	return errors
}

// HasErrors returns true if there are any errors
func (c *Collector) HasErrors() bool {
	for _, d := range c.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the total number of diagnostics
func (c *Collector) Count() int {
	return len(c.diagnostics)
}
