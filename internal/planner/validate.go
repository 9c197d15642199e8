package planner

import (
	"github.com/lockplane/schemaguard/internal/database"
)

// Validate checks identifiers and the type fields each operation requires.
func (c ColumnChange) Validate() error {
	malformed := func(msg string, err error) error {
		return &MalformedChangeError{Change: c, Msg: msg, Err: err}
	}

	if err := database.ValidateIdentifier(c.Table); err != nil {
		return malformed("invalid table name", err)
	}
	if err := database.ValidateIdentifier(c.Column); err != nil {
		return malformed("invalid column name", err)
	}
	if !c.Operation.Valid() {
		return malformed("unknown operation "+string(c.Operation), nil)
	}

	switch c.Operation {
	case OpAdd:
		if c.NewType == "" {
			return malformed("add requires new_type", nil)
		}
		if !c.NewType.Valid() {
			return malformed("unknown new_type "+string(c.NewType), nil)
		}
		if c.OldType != "" {
			return malformed("add does not take old_type", nil)
		}
	case OpAlterType:
		if c.OldType == "" || c.NewType == "" {
			return malformed("alter_type requires old_type and new_type", nil)
		}
		if !c.OldType.Valid() {
			return malformed("unknown old_type "+string(c.OldType), nil)
		}
		if !c.NewType.Valid() {
			return malformed("unknown new_type "+string(c.NewType), nil)
		}
		if c.OldType == c.NewType {
			return malformed("alter_type requires old_type and new_type to differ", nil)
		}
	default:
		if c.OldType != "" || c.NewType != "" {
			return malformed(string(c.Operation)+" does not take type fields", nil)
		}
	}
	return nil
}
