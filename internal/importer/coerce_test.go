package importer

import (
	"testing"

	"github.com/lockplane/schemaguard/internal/typerules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		typ     typerules.ColumnType
		want    any
		wantErr bool
	}{
		{name: "integer", raw: "42", typ: typerules.Integer, want: int64(42)},
		{name: "integer from number", raw: float64(7), typ: typerules.Integer, want: int64(7)},
		{name: "integer fraction", raw: "4.5", typ: typerules.Integer, wantErr: true},
		{name: "integer overflow", raw: "3000000000", typ: typerules.Integer, wantErr: true},
		{name: "bigint trims", raw: " 3000000000 ", typ: typerules.BigInt, want: int64(3000000000)},
		{name: "bigint garbage", raw: "12abc", typ: typerules.BigInt, wantErr: true},
		{name: "numeric", raw: "1.25", typ: typerules.Numeric, want: 1.25},
		{name: "numeric garbage", raw: "abc", typ: typerules.Numeric, wantErr: true},
		{name: "boolean yes", raw: "Yes", typ: typerules.Boolean, want: true},
		{name: "boolean f", raw: "F", typ: typerules.Boolean, want: false},
		{name: "boolean zero", raw: "0", typ: typerules.Boolean, want: false},
		{name: "boolean native", raw: true, typ: typerules.Boolean, want: true},
		{name: "boolean unknown", raw: "maybe", typ: typerules.Boolean, want: nil},
		{name: "empty integer is null", raw: "", typ: typerules.Integer, want: nil},
		{name: "empty text stays empty", raw: "   ", typ: typerules.Text, want: ""},
		{name: "text trims", raw: " hello ", typ: typerules.Text, want: "hello"},
		{name: "date passes through", raw: "2024-01-02", typ: typerules.Date, want: "2024-01-02"},
		{name: "uuid passes through", raw: "c0a8b7e4-0000-4000-8000-000000000001", typ: typerules.UUID, want: "c0a8b7e4-0000-4000-8000-000000000001"},
		{name: "nil", raw: nil, typ: typerules.Text, want: nil},
		{name: "json object", raw: `{"a":1}`, typ: typerules.JSONB, want: JSONValue{V: map[string]any{"a": float64(1)}}},
		{name: "json fallback", raw: "not json", typ: typerules.JSONB, want: JSONValue{V: "not json"}},
		{name: "json number", raw: float64(3), typ: typerules.JSONB, want: JSONValue{V: float64(3)}},
		{name: "text array", raw: `["a","b"]`, typ: typerules.TextArray, want: []any{"a", "b"}},
		{name: "singleton array", raw: "solo", typ: typerules.TextArray, want: []any{"solo"}},
		{name: "integer array", raw: "[1,2]", typ: typerules.IntegerArray, want: []any{int64(1), int64(2)}},
		{name: "integer array bad element", raw: `["x"]`, typ: typerules.IntegerArray, wantErr: true},
		{name: "empty array is null", raw: "", typ: typerules.UUIDArray, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.raw, tt.typ)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONValue(t *testing.T) {
	v, err := JSONValue{V: map[string]any{"a": []any{1, "b"}}}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1,"b"]}`, v)

	v, err = JSONValue{V: "raw"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `"raw"`, v)
}
