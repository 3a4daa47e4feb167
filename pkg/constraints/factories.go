package constraints

import "github.com/fernlabs/constraints/pkg/summary"

// Convenience constructors for the common summary constraints. Each is a thin
// wrapper over NewSummaryConstraint with the operand shape spelled out.

func MeanBetween(lower, upper float64) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField: summary.FieldMean,
		Op:         OpBetween,
		Value:      &lower,
		UpperValue: &upper,
	})
}

func MeanBetweenFields(lowerField, upperField string) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField:  summary.FieldMean,
		Op:          OpBetween,
		SecondField: lowerField,
		ThirdField:  upperField,
	})
}

func StddevBetween(lower, upper float64) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField: summary.FieldStddev,
		Op:         OpBetween,
		Value:      &lower,
		UpperValue: &upper,
	})
}

func StddevBetweenFields(lowerField, upperField string) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField:  summary.FieldStddev,
		Op:          OpBetween,
		SecondField: lowerField,
		ThirdField:  upperField,
	})
}

func MinBetween(lower, upper float64) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField: summary.FieldMin,
		Op:         OpBetween,
		Value:      &lower,
		UpperValue: &upper,
	})
}

func MaxBetween(lower, upper float64) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField: summary.FieldMax,
		Op:         OpBetween,
		Value:      &lower,
		UpperValue: &upper,
	})
}

func MinGreaterThanEqual(value float64) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField: summary.FieldMin,
		Op:         OpGE,
		Value:      &value,
	})
}

func MinGreaterThanEqualField(field string) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField:  summary.FieldMin,
		Op:          OpGE,
		SecondField: field,
	})
}

func MaxLessThanEqual(value float64) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField: summary.FieldMax,
		Op:         OpLE,
		Value:      &value,
	})
}

func MaxLessThanEqualField(field string) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField:  summary.FieldMax,
		Op:          OpLE,
		SecondField: field,
	})
}

// DistinctValuesInSet asserts the column's observed distinct values are a
// subset of the reference set.
func DistinctValuesInSet(referenceSet any) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField:   summary.FieldUniqueCount,
		Op:           OpInSet,
		ReferenceSet: referenceSet,
	})
}

// DistinctValuesContainSet asserts the reference set is a subset of the
// column's observed distinct values.
func DistinctValuesContainSet(referenceSet any) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField:   summary.FieldUniqueCount,
		Op:           OpContainSet,
		ReferenceSet: referenceSet,
	})
}

// DistinctValuesEqualSet asserts the two sets are equal.
func DistinctValuesEqualSet(referenceSet any) (*SummaryConstraint, error) {
	return NewSummaryConstraint(SummaryConstraintConfig{
		FirstField:   summary.FieldUniqueCount,
		Op:           OpEqualSet,
		ReferenceSet: referenceSet,
	})
}
