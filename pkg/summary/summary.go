package summary

import "github.com/fernlabs/constraints/pkg/sketch"

// Field names understood by summary constraints. These mirror the aggregate
// fields the statistics collector produces per column window.
const (
	FieldCount       = "count"
	FieldMin         = "min"
	FieldMax         = "max"
	FieldMean        = "mean"
	FieldStddev      = "stddev"
	FieldVariance    = "variance"
	FieldSum         = "sum"
	FieldUniqueCount = "unique_count"
)

var knownFields = map[string]struct{}{
	FieldCount:       {},
	FieldMin:         {},
	FieldMax:         {},
	FieldMean:        {},
	FieldStddev:      {},
	FieldVariance:    {},
	FieldSum:         {},
	FieldUniqueCount: {},
}

// KnownField reports whether name is a summary field that constraints may
// reference.
func KnownField(name string) bool {
	_, ok := knownFields[name]
	return ok
}

// Summary holds the aggregate statistics of one column for one window. All
// fields are addressable by name through Field so that constraints configured
// from serialized documents can bind them.
type Summary struct {
	Count       float64
	Min         float64
	Max         float64
	Mean        float64
	Stddev      float64
	Variance    float64
	Sum         float64
	UniqueCount float64
}

// Field returns the named aggregate field. ok is false for names outside the
// known field set.
func (s *Summary) Field(name string) (float64, bool) {
	switch name {
	case FieldCount:
		return s.Count, true
	case FieldMin:
		return s.Min, true
	case FieldMax:
		return s.Max, true
	case FieldMean:
		return s.Mean, true
	case FieldStddev:
		return s.Stddev, true
	case FieldVariance:
		return s.Variance, true
	case FieldSum:
		return s.Sum, true
	case FieldUniqueCount:
		return s.UniqueCount, true
	default:
		return 0, false
	}
}

// Bundle is what the statistics collector hands to SummaryConstraints.Update
// once a window closes: the aggregate summary plus the distinct-value sketches
// of the column, split into its string and numeric universes.
type Bundle struct {
	Summary      *Summary
	StringSketch *sketch.Distinct
	NumberSketch *sketch.Distinct
}
