// Package typerules classifies column type conversions by how much data they
// can destroy.
package typerules

import (
	"fmt"
	"strings"
)

// ColumnType is the closed set of column types the planner and importer
// understand.
type ColumnType string

const (
	Text         ColumnType = "text"
	Integer      ColumnType = "integer"
	BigInt       ColumnType = "bigint"
	Numeric      ColumnType = "numeric"
	Boolean      ColumnType = "boolean"
	Date         ColumnType = "date"
	Timestamp    ColumnType = "timestamp"
	UUID         ColumnType = "uuid"
	JSONB        ColumnType = "jsonb"
	TextArray    ColumnType = "text_array"
	IntegerArray ColumnType = "integer_array"
	UUIDArray    ColumnType = "uuid_array"
	JSONBArray   ColumnType = "jsonb_array"
)

var allTypes = []ColumnType{
	Text, Integer, BigInt, Numeric, Boolean, Date, Timestamp, UUID, JSONB,
	TextArray, IntegerArray, UUIDArray, JSONBArray,
}

// aliases maps common Postgres spellings onto the canonical tags.
var aliases = map[string]ColumnType{
	"varchar":                     Text,
	"character varying":           Text,
	"char":                        Text,
	"int":                         Integer,
	"int4":                        Integer,
	"int8":                        BigInt,
	"decimal":                     Numeric,
	"bool":                        Boolean,
	"timestamptz":                 Timestamp,
	"timestamp without time zone": Timestamp,
	"timestamp with time zone":    Timestamp,
	"json":                        JSONB,
	"text[]":                      TextArray,
	"varchar[]":                   TextArray,
	"integer[]":                   IntegerArray,
	"int[]":                       IntegerArray,
	"uuid[]":                      UUIDArray,
	"jsonb[]":                     JSONBArray,
	"json_array":                  JSONBArray,
}

// ParseColumnType normalizes a type name. Length modifiers such as
// varchar(255) are dropped before lookup.
func ParseColumnType(s string) (ColumnType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if i := strings.Index(name, "("); i >= 0 {
		if j := strings.Index(name, ")"); j > i {
			name = strings.TrimSpace(name[:i] + name[j+1:])
		}
	}
	if t := ColumnType(name); t.Valid() {
		return t, nil
	}
	if t, ok := aliases[name]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown column type %q", s)
}

// Valid reports whether t is one of the known tags.
func (t ColumnType) Valid() bool {
	for _, known := range allTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t ColumnType) IsArray() bool {
	return strings.HasSuffix(string(t), "_array")
}

// Element returns the scalar element type of an array type, or t itself.
func (t ColumnType) Element() ColumnType {
	if !t.IsArray() {
		return t
	}
	return ColumnType(strings.TrimSuffix(string(t), "_array"))
}

// ArrayOf returns the array type whose element is t, if one exists.
func (t ColumnType) ArrayOf() (ColumnType, bool) {
	if t.IsArray() {
		return "", false
	}
	arr := ColumnType(string(t) + "_array")
	return arr, arr.Valid()
}

// IsIntegral reports whether t is integer or bigint.
func (t ColumnType) IsIntegral() bool {
	return t == Integer || t == BigInt
}

// SQLName renders the type as PostgreSQL DDL.
func (t ColumnType) SQLName() string {
	if t.IsArray() {
		return t.Element().SQLName() + "[]"
	}
	return string(t)
}

func (t ColumnType) String() string {
	return string(t)
}

// UnmarshalText normalizes known spellings. Unknown names are kept verbatim
// so that callers can report them as malformed instead of failing to decode.
func (t *ColumnType) UnmarshalText(b []byte) error {
	parsed, err := ParseColumnType(string(b))
	if err != nil {
		*t = ColumnType(strings.TrimSpace(string(b)))
		return nil
	}
	*t = parsed
	return nil
}
