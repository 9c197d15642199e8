package importer

import (
	"fmt"
	"strings"
)

// TransformError reports a row that could not be coerced to its target
// types. Row is 1-based.
type TransformError struct {
	Row    int
	Column string
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("row %d: column %q: %v", e.Row, e.Column, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// Transform builds the target values for one row. Groups are applied
// first and their source columns are not mapped again. Source columns
// missing from the row are left out of the result.
func Transform(spec *ImportSpec, index int, row Row) (map[string]any, error) {
	out := make(map[string]any, len(spec.Mappings)+len(spec.Groups))
	consumed := make(map[string]bool)

	for _, g := range spec.Groups {
		var members []any
		for _, src := range g.Sources {
			consumed[src] = true
			v, ok := row[src]
			if !ok || v == nil {
				continue
			}
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				continue
			}
			members = append(members, v)
		}
		if len(members) == 0 {
			continue
		}
		values := make([]any, 0, len(members))
		for _, m := range members {
			c, err := Coerce(m, g.Type.Element())
			if err != nil {
				return nil, &TransformError{Row: index, Column: g.Target, Err: err}
			}
			values = append(values, c)
		}
		out[g.Target] = values
	}

	for _, m := range spec.Mappings {
		if consumed[m.Source] {
			continue
		}
		raw, ok := row[m.Source]
		if !ok {
			continue
		}
		v, err := Coerce(raw, m.Type)
		if err != nil {
			return nil, &TransformError{Row: index, Column: m.Target, Err: err}
		}
		out[m.Target] = v
	}
	return out, nil
}
