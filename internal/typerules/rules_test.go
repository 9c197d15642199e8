package typerules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		oldType ColumnType
		newType ColumnType
		samples Samples
		want    Severity
		reason  string
	}{
		{"identity", Text, Text, Samples{}, Safe, ReasonIdentical},
		{"identity array", UUIDArray, UUIDArray, Samples{}, Safe, ReasonIdentical},
		{"scalar to own array", Text, TextArray, Samples{}, Safe, ReasonArrayWidening},
		{"integer to integer array", Integer, IntegerArray, Samples{}, Safe, ReasonArrayWidening},
		{"scalar to foreign array", Integer, TextArray, Samples{}, Warning, ReasonUnvalidated},
		{"array to own scalar", TextArray, Text, Samples{}, Blocker, ReasonArrayNarrowing},
		{"array to own scalar with empty exhaustive sample", TextArray, Text, Samples{Exhaustive: true}, Blocker, ReasonArrayNarrowing},
		{"array to other scalar", JSONBArray, Integer, Samples{Values: []string{"{1}"}}, Blocker, ReasonArrayNarrowing},
		{"numeric to integer without samples", Numeric, Integer, Samples{}, Warning, ReasonTruncatesPrecision},
		{"numeric to bigint integral samples", Numeric, BigInt, Samples{Values: []string{"1", "2.000", "-7"}, Exhaustive: true}, Warning, ReasonTruncatesPrecision},
		{"numeric to integer fractional sample", Numeric, Integer, Samples{Values: []string{"1", "2.5"}}, Blocker, ReasonTruncationVerified},
		{"text to integer exhaustive numeric", Text, Integer, Samples{Values: []string{"123", "456", "789"}, Exhaustive: true}, Safe, "all values convert to integer"},
		{"text to integer non-numeric", Text, Integer, Samples{Values: []string{"123", "abc", "789"}, Exhaustive: true}, Blocker, ReasonNonNumeric},
		{"text to integer non-numeric partial", Text, Integer, Samples{Values: []string{"abc"}}, Blocker, ReasonNonNumeric},
		{"text to integer overflow", Text, Integer, Samples{Values: []string{"3000000000"}, Exhaustive: true}, Blocker, ReasonNonNumeric},
		{"text to bigint large value", Text, BigInt, Samples{Values: []string{"3000000000"}, Exhaustive: true}, Safe, "all values convert to bigint"},
		{"text to numeric decimals", Text, Numeric, Samples{Values: []string{" 1.25 ", "-3"}, Exhaustive: true}, Safe, "all values convert to numeric"},
		{"text to integer empty table", Text, Integer, Samples{Exhaustive: true}, Safe, "all values convert to integer"},
		{"bigint to integer", BigInt, Integer, Samples{Values: []string{"1"}, Exhaustive: true}, Warning, ReasonRangeNarrowing},
		{"integer to bigint", Integer, BigInt, Samples{}, Warning, ReasonUnvalidated},
		{"boolean to text", Boolean, Text, Samples{}, Warning, ReasonUnvalidated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.oldType, tt.newType, tt.samples)
			assert.Equal(t, tt.want, got.Severity)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestClassifyPartialSampleStaysCautious(t *testing.T) {
	got := Classify(Text, Integer, Samples{Values: []string{"123", "456", "789"}})
	assert.Equal(t, Warning, got.Severity)
	assert.Contains(t, got.Reason, "does not cover every row")
}

func TestClassifyIsDeterministic(t *testing.T) {
	samples := Samples{Values: []string{"1.5", "2"}}
	first := Classify(Numeric, Integer, samples)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(Numeric, Integer, samples))
	}
}

func TestArrayToScalarIgnoresSamples(t *testing.T) {
	for _, arr := range []ColumnType{TextArray, IntegerArray, UUIDArray, JSONBArray} {
		for _, scalar := range []ColumnType{Text, Integer, BigInt, Numeric, Boolean, Date, Timestamp, UUID, JSONB} {
			got := Classify(arr, scalar, Samples{Values: []string{"1"}, Exhaustive: true})
			assert.Equal(t, Blocker, got.Severity, "%s -> %s", arr, scalar)
		}
	}
}

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		in      string
		want    ColumnType
		wantErr bool
	}{
		{"text", Text, false},
		{"  INTEGER ", Integer, false},
		{"varchar(255)", Text, false},
		{"decimal(10,2)", Numeric, false},
		{"int8", BigInt, false},
		{"text[]", TextArray, false},
		{"uuid_array", UUIDArray, false},
		{"json", JSONB, false},
		{"money", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColumnType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColumnTypeShape(t *testing.T) {
	assert.True(t, TextArray.IsArray())
	assert.False(t, Text.IsArray())
	assert.Equal(t, Integer, IntegerArray.Element())
	assert.Equal(t, "integer[]", IntegerArray.SQLName())
	assert.Equal(t, "jsonb", JSONB.SQLName())

	arr, ok := UUID.ArrayOf()
	assert.True(t, ok)
	assert.Equal(t, UUIDArray, arr)

	_, ok = Boolean.ArrayOf()
	assert.False(t, ok)
}

func TestSeverityOrdering(t *testing.T) {
	assert.True(t, Safe < Warning && Warning < Blocker)
	assert.Equal(t, Blocker, Warning.Max(Blocker))
	assert.Equal(t, Warning, Warning.Max(Safe))

	b, err := Blocker.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"blocker"`, string(b))

	var s Severity
	assert.NoError(t, s.UnmarshalJSON([]byte(`"warning"`)))
	assert.Equal(t, Warning, s)
}
