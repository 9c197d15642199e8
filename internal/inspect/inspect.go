// Package inspect gathers the live facts a migration decision depends on:
// row counts, null counts, referencing foreign keys and value samples.
package inspect

import (
	"context"
	"fmt"
)

// ForeignKeyRef names a constraint on another table that references the
// inspected column.
type ForeignKeyRef struct {
	ReferencingTable string `json:"referencing_table"`
	ConstraintName   string `json:"constraint_name"`
}

// Facts is a read-only snapshot of one column. NullCount, ReverseForeignKeys
// and SampleValues are only populated when the request asked for them.
type Facts struct {
	RowCount           int64           `json:"row_count"`
	NullCount          int64           `json:"null_count"`
	ReverseForeignKeys []ForeignKeyRef `json:"reverse_foreign_keys"`
	SampleValues       []string        `json:"sample_values"`
	SampleExhaustive   bool            `json:"sample_exhaustive"`
}

// Inspector reads facts about a table and column. Implementations must
// release any connection they acquire before returning.
type Inspector interface {
	RowCount(ctx context.Context, table string) (int64, error)
	NullCount(ctx context.Context, table, column string) (int64, error)
	ReverseForeignKeys(ctx context.Context, table, column string) ([]ForeignKeyRef, error)
	// SampleValues returns up to limit non-null values and whether they are
	// all of the column's non-null values.
	SampleValues(ctx context.Context, table, column string, limit int) ([]string, bool, error)
}

// Request selects which facts Gather collects beyond the row count.
type Request struct {
	Table         string
	Column        string
	NullCount     bool
	ForeignKeys   bool
	Samples       bool
	SampleLimit   int
	KnownRowCount *int64
}

// DefaultSampleLimit bounds SampleValues when a request leaves it unset.
const DefaultSampleLimit = 100

// Gather runs the lookups req asks for. Any failure is returned as an
// *InspectionFailedError naming the lookup that failed.
func Gather(ctx context.Context, ins Inspector, req Request) (*Facts, error) {
	facts := &Facts{}

	if req.KnownRowCount != nil {
		facts.RowCount = *req.KnownRowCount
	} else {
		n, err := ins.RowCount(ctx, req.Table)
		if err != nil {
			return nil, failed(req, "row_count", err)
		}
		facts.RowCount = n
	}

	if req.NullCount {
		n, err := ins.NullCount(ctx, req.Table, req.Column)
		if err != nil {
			return nil, failed(req, "null_count", err)
		}
		if n < 0 || n > facts.RowCount {
			return nil, failed(req, "null_count", fmt.Errorf("null count %d outside [0, %d]", n, facts.RowCount))
		}
		facts.NullCount = n
	}

	if req.ForeignKeys {
		refs, err := ins.ReverseForeignKeys(ctx, req.Table, req.Column)
		if err != nil {
			return nil, failed(req, "reverse_foreign_keys", err)
		}
		facts.ReverseForeignKeys = refs
	}

	if req.Samples {
		limit := req.SampleLimit
		if limit <= 0 {
			limit = DefaultSampleLimit
		}
		values, exhaustive, err := ins.SampleValues(ctx, req.Table, req.Column, limit)
		if err != nil {
			return nil, failed(req, "sample_values", err)
		}
		facts.SampleValues = values
		facts.SampleExhaustive = exhaustive
	}

	return facts, nil
}

func failed(req Request, op string, err error) error {
	return &InspectionFailedError{Table: req.Table, Column: req.Column, Op: op, Err: err}
}
