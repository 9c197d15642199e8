package inspect

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStatic(t *testing.T) {
	s := NewStatic().Set("users", "email", Facts{
		RowCount:     10,
		NullCount:    2,
		SampleValues: []string{"a", "b", "c"},
	})
	ctx := context.Background()

	n, err := s.RowCount(ctx, "users")
	if err != nil || n != 10 {
		t.Errorf("RowCount = %d, %v; want 10", n, err)
	}

	values, exhaustive, err := s.SampleValues(ctx, "users", "email", 2)
	if err != nil || len(values) != 2 || exhaustive {
		t.Errorf("SampleValues = %v, %v, %v; want two partial values", values, exhaustive, err)
	}

	if _, err := s.NullCount(ctx, "users", "missing"); err == nil {
		t.Error("expected error for unknown column")
	}
	if _, err := s.RowCount(ctx, "ghosts"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestLoadStatic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.json")
	content := `{
  "row_counts": {"orders": 150000},
  "columns": {
    "users.id": {"row_count": 5, "reverse_foreign_keys": [{"referencing_table": "orders", "constraint_name": "orders_user_id_fkey"}]}
  }
}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write facts file: %v", err)
	}

	s, err := LoadStatic(path)
	if err != nil {
		t.Fatalf("LoadStatic() error = %v", err)
	}
	refs, err := s.ReverseForeignKeys(context.Background(), "users", "id")
	if err != nil || len(refs) != 1 {
		t.Errorf("ReverseForeignKeys = %+v, %v; want one ref", refs, err)
	}
	n, _ := s.RowCount(context.Background(), "orders")
	if n != 150000 {
		t.Errorf("RowCount(orders) = %d, want 150000", n)
	}
}
