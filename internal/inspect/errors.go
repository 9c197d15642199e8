package inspect

import "fmt"

// InspectionFailedError reports that facts for a column could not be read.
type InspectionFailedError struct {
	Table  string
	Column string
	Op     string
	Err    error
}

func (e *InspectionFailedError) Error() string {
	return fmt.Sprintf("inspection of %s.%s failed during %s: %v", e.Table, e.Column, e.Op, e.Err)
}

func (e *InspectionFailedError) Unwrap() error {
	return e.Err
}
