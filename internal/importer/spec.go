// Package importer loads external rows into a table in batches, coercing
// every raw value to its declared column type first.
package importer

import (
	"errors"
	"fmt"

	"github.com/lockplane/schemaguard/internal/database"
	"github.com/lockplane/schemaguard/internal/typerules"
)

// ErrInvalidSpec is wrapped by every ImportSpec validation failure.
var ErrInvalidSpec = errors.New("invalid import spec")

// ConflictStrategy decides what happens when a batch cannot be written.
type ConflictStrategy string

const (
	ConflictFail   ConflictStrategy = "fail"
	ConflictSkip   ConflictStrategy = "skip"
	ConflictUpsert ConflictStrategy = "upsert"
)

func (s ConflictStrategy) Valid() bool {
	switch s {
	case ConflictFail, ConflictSkip, ConflictUpsert:
		return true
	}
	return false
}

// Row maps a source column name to its raw value: a string, number,
// boolean or nil.
type Row map[string]any

// ColumnMapping copies one source column into one target column.
type ColumnMapping struct {
	Source string               `json:"source"`
	Target string               `json:"target"`
	Type   typerules.ColumnType `json:"type"`
}

// ColumnGroup collapses several source columns into one array column.
type ColumnGroup struct {
	Sources []string             `json:"sources"`
	Target  string               `json:"target"`
	Type    typerules.ColumnType `json:"type"`
}

type ImportSpec struct {
	Table            string           `json:"table"`
	Rows             []Row            `json:"rows"`
	Mappings         []ColumnMapping  `json:"mappings"`
	Groups           []ColumnGroup    `json:"groups,omitempty"`
	ConflictStrategy ConflictStrategy `json:"conflict_strategy"`
	// PrimaryKeys are target columns; only used for upsert.
	PrimaryKeys    []string `json:"primary_keys,omitempty"`
	DeleteExisting bool     `json:"delete_existing,omitempty"`
}

// Strategy returns the conflict strategy, defaulting to fail.
func (s *ImportSpec) Strategy() ConflictStrategy {
	if s.ConflictStrategy == "" {
		return ConflictFail
	}
	return s.ConflictStrategy
}

// Validate checks identifiers and types, that every target column is
// written by exactly one mapping or group, and that upsert has keys.
func (s *ImportSpec) Validate() error {
	if err := database.ValidateIdentifier(s.Table); err != nil {
		return fmt.Errorf("%w: table: %v", ErrInvalidSpec, err)
	}
	if !s.Strategy().Valid() {
		return fmt.Errorf("%w: unknown conflict strategy %q", ErrInvalidSpec, s.ConflictStrategy)
	}
	if len(s.Mappings) == 0 && len(s.Groups) == 0 {
		return fmt.Errorf("%w: no column mappings", ErrInvalidSpec)
	}

	targets := make(map[string]bool)
	claim := func(target string) error {
		if err := database.ValidateIdentifier(target); err != nil {
			return fmt.Errorf("%w: target column: %v", ErrInvalidSpec, err)
		}
		if targets[target] {
			return fmt.Errorf("%w: target column %q is mapped more than once", ErrInvalidSpec, target)
		}
		targets[target] = true
		return nil
	}

	for _, g := range s.Groups {
		if err := claim(g.Target); err != nil {
			return err
		}
		if !g.Type.IsArray() {
			return fmt.Errorf("%w: group %q must target an array type, got %q", ErrInvalidSpec, g.Target, g.Type)
		}
		if len(g.Sources) == 0 {
			return fmt.Errorf("%w: group %q has no source columns", ErrInvalidSpec, g.Target)
		}
	}
	for _, m := range s.Mappings {
		if err := claim(m.Target); err != nil {
			return err
		}
		if !m.Type.Valid() {
			return fmt.Errorf("%w: column %q has unknown type %q", ErrInvalidSpec, m.Target, m.Type)
		}
		if m.Source == "" {
			return fmt.Errorf("%w: column %q has no source", ErrInvalidSpec, m.Target)
		}
	}

	if s.Strategy() == ConflictUpsert {
		if len(s.PrimaryKeys) == 0 {
			return fmt.Errorf("%w: upsert requires at least one primary key", ErrInvalidSpec)
		}
		for _, pk := range s.PrimaryKeys {
			if !targets[pk] {
				return fmt.Errorf("%w: primary key %q is not a target column", ErrInvalidSpec, pk)
			}
		}
	}
	return nil
}
