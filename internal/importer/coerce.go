package importer

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lockplane/schemaguard/internal/typerules"
)

var (
	trueTokens  = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true}
	falseTokens = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true}
)

// JSONValue is written as its JSON encoding.
type JSONValue struct {
	V any
}

func (j JSONValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.V)
}

func (j JSONValue) Value() (driver.Value, error) {
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Coerce converts one raw value to the Go value written for type t:
// int64, float64, bool, string, JSONValue, []any for arrays, or nil.
// Only integer and numeric parse failures are errors; other types fall
// back to null, the raw string or a single-element array.
func Coerce(raw any, t typerules.ColumnType) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if t.IsArray() {
		return coerceArray(raw, t.Element())
	}

	s := strings.TrimSpace(rawString(raw))
	if s == "" && t != typerules.Text {
		return nil, nil
	}

	switch t {
	case typerules.Integer:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return n, nil
	case typerules.BigInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a bigint", s)
		}
		return n, nil
	case typerules.Numeric:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not numeric", s)
		}
		return f, nil
	case typerules.Boolean:
		lower := strings.ToLower(s)
		switch {
		case trueTokens[lower]:
			return true, nil
		case falseTokens[lower]:
			return false, nil
		}
		return nil, nil
	case typerules.JSONB:
		if _, ok := raw.(string); !ok {
			return JSONValue{V: raw}, nil
		}
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return JSONValue{V: s}, nil
		}
		return JSONValue{V: v}, nil
	case typerules.Text, typerules.Date, typerules.Timestamp, typerules.UUID:
		return s, nil
	}
	return nil, fmt.Errorf("unsupported column type %q", t)
}

// coerceArray accepts a JSON array, or wraps any other value as a single
// element. Each element is coerced to elem.
func coerceArray(raw any, elem typerules.ColumnType) (any, error) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		if err := json.Unmarshal([]byte(s), &items); err != nil {
			items = []any{s}
		}
	default:
		items = []any{v}
	}

	out := make([]any, 0, len(items))
	for i, item := range items {
		c, err := Coerce(item, elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func rawString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
