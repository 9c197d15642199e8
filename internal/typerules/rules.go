package typerules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Reasons attached to verdicts. Callers may match on them.
const (
	ReasonIdentical          = "types are identical"
	ReasonArrayWidening      = "widening a scalar into an array of the same element type"
	ReasonArrayNarrowing     = "array-to-scalar narrowing discards values beyond the first element"
	ReasonTruncatesPrecision = "truncates fractional precision"
	ReasonTruncationVerified = "truncation verified to destroy data"
	ReasonNonNumeric         = "column contains non-numeric values"
	ReasonRangeNarrowing     = "narrowing integer range may overflow"
	ReasonUnvalidated        = "unvalidated conversion — verify manually"
)

// Samples are non-null column values rendered as text. Exhaustive is true
// only when Values holds every non-null value in the column.
type Samples struct {
	Values     []string
	Exhaustive bool
}

// Verdict is the outcome of classifying one conversion.
type Verdict struct {
	Severity Severity
	Reason   string
}

// Classify rates converting a column from oldType to newType. Samples only
// move a verdict between warning and blocker, except that an exhaustive
// sample of text that parses cleanly as a number is safe.
func Classify(oldType, newType ColumnType, samples Samples) Verdict {
	switch {
	case oldType == newType:
		return Verdict{Safe, ReasonIdentical}

	case !oldType.IsArray() && isArrayOf(newType, oldType):
		return Verdict{Safe, ReasonArrayWidening}

	case oldType.IsArray() && !newType.IsArray():
		return Verdict{Blocker, ReasonArrayNarrowing}

	case oldType == Numeric && newType.IsIntegral():
		for _, v := range samples.Values {
			d, err := decimal.NewFromString(strings.TrimSpace(v))
			if err != nil {
				continue
			}
			if !d.IsInteger() {
				return Verdict{Blocker, ReasonTruncationVerified}
			}
		}
		return Verdict{Warning, ReasonTruncatesPrecision}

	case oldType == Text && (newType.IsIntegral() || newType == Numeric):
		for _, v := range samples.Values {
			if !parsesAs(v, newType) {
				return Verdict{Blocker, ReasonNonNumeric}
			}
		}
		if !samples.Exhaustive {
			return Verdict{Warning, fmt.Sprintf("sampled values convert to %s but the sample does not cover every row", newType)}
		}
		return Verdict{Safe, fmt.Sprintf("all values convert to %s", newType)}

	case oldType == BigInt && newType == Integer:
		return Verdict{Warning, ReasonRangeNarrowing}
	}

	return Verdict{Warning, ReasonUnvalidated}
}

func isArrayOf(arr, elem ColumnType) bool {
	want, ok := elem.ArrayOf()
	return ok && arr == want
}

func parsesAs(raw string, t ColumnType) bool {
	s := strings.TrimSpace(raw)
	switch t {
	case Integer:
		_, err := strconv.ParseInt(s, 10, 32)
		return err == nil
	case BigInt:
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	case Numeric:
		_, err := decimal.NewFromString(s)
		return err == nil
	}
	return false
}
