package executor

import (
	"errors"
	"fmt"

	"github.com/lockplane/schemaguard/diagnostic"
)

// ErrEmptyBatch is returned when a batch contains no statements after
// comments are stripped.
var ErrEmptyBatch = errors.New("no statements to execute")

// DisallowedStatementError rejects a whole batch before anything runs. Index
// and Statement identify the first offending statement; Diagnostics lists
// every one.
type DisallowedStatementError struct {
	Index       int
	Statement   string
	Reason      string
	Diagnostics []diagnostic.Diagnostic
}

func (e *DisallowedStatementError) Error() string {
	msg := fmt.Sprintf("statement #%d rejected: %s", e.Index+1, e.Reason)
	if n := len(e.Diagnostics); n > 1 {
		msg += fmt.Sprintf(" (and %d more)", n-1)
	}
	return msg
}

// ExecutionFailedError reports the statement that failed mid-batch. The
// transaction has been rolled back when this is returned.
type ExecutionFailedError struct {
	Index     int
	Statement string
	SQLState  string
	Err       error
}

func (e *ExecutionFailedError) Error() string {
	if e.SQLState != "" {
		return fmt.Sprintf("failed executing statement #%d (SQLSTATE %s): %v", e.Index+1, e.SQLState, e.Err)
	}
	return fmt.Sprintf("failed executing statement #%d: %v", e.Index+1, e.Err)
}

func (e *ExecutionFailedError) Unwrap() error {
	return e.Err
}
