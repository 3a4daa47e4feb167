package sketch

import (
	"fmt"
	"strconv"

	"github.com/axiomhq/hyperloglog"
)

// Distinct is an approximate distinct-count sketch over mixed string and
// numeric items. It wraps the underlying HLL implementation behind the small
// surface the constraint engine needs: insert, cardinality estimate, and an
// approximate set-difference estimate.
type Distinct struct {
	hll *hyperloglog.Sketch
}

func New() *Distinct {
	return &Distinct{hll: hyperloglog.New14()}
}

// Add inserts one item. The same logical value always maps to the same
// canonical encoding, so re-adding a value never changes the estimate.
func (d *Distinct) Add(item any) {
	d.hll.Insert(canonical(item))
}

// Estimate returns the approximate number of distinct items added so far.
func (d *Distinct) Estimate() float64 {
	return float64(d.hll.Estimate())
}

func (d *Distinct) Clone() *Distinct {
	return &Distinct{hll: d.hll.Clone()}
}

// Merge folds other into d, making d an estimate of the union.
func (d *Distinct) Merge(other *Distinct) error {
	if other == nil {
		return nil
	}
	if err := d.hll.Merge(other.hll); err != nil {
		return fmt.Errorf("failed to merge sketches: %w", err)
	}
	return nil
}

// DifferenceEstimate approximates |a \ b|, the number of distinct items in a
// that are not in b, computed as estimate(a ∪ b) - estimate(b). Neither
// operand is mutated.
func DifferenceEstimate(a, b *Distinct) (float64, error) {
	union := b.Clone()
	if err := union.Merge(a); err != nil {
		return 0, err
	}
	est := union.Estimate() - b.Estimate()
	if est < 0 {
		est = 0
	}
	return est, nil
}

// canonical encodes an item for hashing. Strings, numbers, and booleans live
// in disjoint encoding spaces so that e.g. the string "1" and the number 1
// stay distinct. Integer and float forms of the same number collapse.
func canonical(item any) []byte {
	switch v := item.(type) {
	case string:
		return append([]byte("s:"), v...)
	case bool:
		if v {
			return []byte("b:1")
		}
		return []byte("b:0")
	case float64:
		return canonicalFloat(v)
	case float32:
		return canonicalFloat(float64(v))
	case int:
		return canonicalFloat(float64(v))
	case int8:
		return canonicalFloat(float64(v))
	case int16:
		return canonicalFloat(float64(v))
	case int32:
		return canonicalFloat(float64(v))
	case int64:
		return canonicalFloat(float64(v))
	case uint:
		return canonicalFloat(float64(v))
	case uint8:
		return canonicalFloat(float64(v))
	case uint16:
		return canonicalFloat(float64(v))
	case uint32:
		return canonicalFloat(float64(v))
	case uint64:
		return canonicalFloat(float64(v))
	default:
		return append([]byte("o:"), fmt.Sprintf("%v", v)...)
	}
}

func canonicalFloat(f float64) []byte {
	return strconv.AppendFloat([]byte("n:"), f, 'g', -1, 64)
}
