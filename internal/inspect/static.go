package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Static serves facts supplied by the caller instead of querying a database.
// Columns are keyed by "table.column".
type Static struct {
	RowCounts map[string]int64 `json:"row_counts"`
	Columns   map[string]Facts `json:"columns"`
}

func NewStatic() *Static {
	return &Static{RowCounts: map[string]int64{}, Columns: map[string]Facts{}}
}

// LoadStatic reads a Static fact set from a JSON file.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read facts file: %w", err)
	}
	s := NewStatic()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse facts file %s: %w", path, err)
	}
	return s, nil
}

// Set records facts for a column and its table's row count.
func (s *Static) Set(table, column string, facts Facts) *Static {
	s.Columns[table+"."+column] = facts
	s.RowCounts[table] = facts.RowCount
	return s
}

func (s *Static) column(table, column string) (Facts, error) {
	f, ok := s.Columns[table+"."+column]
	if !ok {
		return Facts{}, fmt.Errorf("no facts for column %s.%s", table, column)
	}
	return f, nil
}

func (s *Static) RowCount(_ context.Context, table string) (int64, error) {
	if n, ok := s.RowCounts[table]; ok {
		return n, nil
	}
	for key, f := range s.Columns {
		if strings.HasPrefix(key, table+".") {
			return f.RowCount, nil
		}
	}
	return 0, fmt.Errorf("no facts for table %s", table)
}

func (s *Static) NullCount(_ context.Context, table, column string) (int64, error) {
	f, err := s.column(table, column)
	return f.NullCount, err
}

func (s *Static) ReverseForeignKeys(_ context.Context, table, column string) ([]ForeignKeyRef, error) {
	f, err := s.column(table, column)
	return f.ReverseForeignKeys, err
}

func (s *Static) SampleValues(_ context.Context, table, column string, limit int) ([]string, bool, error) {
	f, err := s.column(table, column)
	if err != nil {
		return nil, false, err
	}
	if limit > 0 && len(f.SampleValues) > limit {
		return f.SampleValues[:limit], false, nil
	}
	return f.SampleValues, f.SampleExhaustive, nil
}
