package summary

import (
	"math"

	"github.com/fernlabs/constraints/pkg/sketch"
)

// Builder accumulates a column's streaming values into a Bundle. The
// production statistics layer lives outside this module; Builder is the
// reference producer used by tests and examples. It is not safe for
// concurrent use: one builder per column per worker.
type Builder struct {
	count float64

	// numeric running state (Welford)
	numCount float64
	mean     float64
	m2       float64
	min      float64
	max      float64
	sum      float64

	all     *sketch.Distinct
	strings *sketch.Distinct
	numbers *sketch.Distinct
}

func NewBuilder() *Builder {
	return &Builder{
		min:     math.Inf(1),
		max:     math.Inf(-1),
		all:     sketch.New(),
		strings: sketch.New(),
		numbers: sketch.New(),
	}
}

// Observe folds one raw value into the running state. Strings feed the string
// sketch, numerics feed the numeric stats and sketch. Booleans count toward
// the distinct universe but are not numeric.
func (b *Builder) Observe(v any) {
	b.count++
	b.all.Add(v)

	switch x := v.(type) {
	case string:
		b.strings.Add(x)
		return
	case bool:
		return
	}

	f, ok := asFloat(v)
	if !ok {
		return
	}
	b.numbers.Add(f)
	b.numCount++
	b.sum += f
	if f < b.min {
		b.min = f
	}
	if f > b.max {
		b.max = f
	}
	delta := f - b.mean
	b.mean += delta / b.numCount
	b.m2 += delta * (f - b.mean)
}

// Snapshot renders the current state as a Bundle. The builder keeps
// accumulating afterwards; the returned sketches are copies.
func (b *Builder) Snapshot() *Bundle {
	s := &Summary{
		Count:       b.count,
		Mean:        b.mean,
		Sum:         b.sum,
		UniqueCount: b.all.Estimate(),
	}
	if b.numCount > 0 {
		s.Min = b.min
		s.Max = b.max
	}
	if b.numCount > 1 {
		s.Variance = b.m2 / (b.numCount - 1)
		s.Stddev = math.Sqrt(s.Variance)
	}
	return &Bundle{
		Summary:      s,
		StringSketch: b.strings.Clone(),
		NumberSketch: b.numbers.Clone(),
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}
