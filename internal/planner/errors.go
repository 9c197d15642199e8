package planner

import (
	"errors"
	"fmt"
)

// ErrStalePlan is returned by Revalidate when the facts behind a reviewed
// plan no longer match the live database.
var ErrStalePlan = errors.New("plan is stale: impact facts changed since it was reviewed")

// MalformedChangeError reports a ColumnChange that violates its shape rules.
type MalformedChangeError struct {
	Change ColumnChange
	Msg    string
	Err    error
}

func (e *MalformedChangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed change to %s.%s: %s: %v", e.Change.Table, e.Change.Column, e.Msg, e.Err)
	}
	return fmt.Sprintf("malformed change to %s.%s: %s", e.Change.Table, e.Change.Column, e.Msg)
}

func (e *MalformedChangeError) Unwrap() error {
	return e.Err
}
