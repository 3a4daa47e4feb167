package constraints

import (
	"math"
	"strings"
)

// numericValue reports v as a float64 when it is one of the numeric kinds the
// engine compares. Booleans are representable as numbers but are deliberately
// not numeric here; treating them as such would silently fold true/false into
// 1/0 in comparisons and reference sets.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		return 0, false
	default:
		return 0, false
	}
}

// compareValues three-way compares two scalars of the same kind: numerics by
// value, strings lexicographically. ok is false when the kinds are not
// mutually ordered.
func compareValues(a, b any) (int, bool) {
	if fa, ok := numericValue(a); ok {
		fb, ok := numericValue(b)
		if !ok {
			return 0, false
		}
		return compareFloats(fa, fb), true
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// equalValues is typed equality between scalar operands: numerics compare by
// value regardless of width, strings and booleans by value, mismatched kinds
// are never equal.
func equalValues(a, b any) bool {
	if fa, ok := numericValue(a); ok {
		fb, ok := numericValue(b)
		return ok && fa == fb
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	default:
		return false
	}
}

// roundTenth rounds a sketch estimate to one decimal place. Set-relation
// verdicts compare the rounded estimate against exactly zero.
func roundTenth(x float64) float64 {
	return math.Round(x*10) / 10
}
