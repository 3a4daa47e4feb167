package constraints

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fernlabs/constraints/pkg/summary"
	dqtesting "github.com/fernlabs/constraints/pkg/testing"
)

func floatPtr(f float64) *float64 { return &f }

func bundleOf(t *testing.T, values ...any) *summary.Bundle {
	t.Helper()
	b := summary.NewBuilder()
	for _, v := range values {
		b.Observe(v)
	}
	return b.Snapshot()
}

func TestConstraints_SummaryConstraint_Config(t *testing.T) {
	t.Parallel()

	t.Run("requires a first field", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummaryConstraint(SummaryConstraintConfig{Op: OpGE, Value: floatPtr(0)})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects an unknown first field", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: "median",
			Op:         OpGE,
			Value:      floatPtr(0),
		})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects both a value and a second field", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField:  summary.FieldMin,
			Op:          OpGE,
			Value:       floatPtr(0),
			SecondField: summary.FieldMean,
		})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects neither a value nor a second field", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: summary.FieldMin,
			Op:         OpGE,
		})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects an upper value outside BETWEEN", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: summary.FieldMin,
			Op:         OpGE,
			Value:      floatPtr(0),
			UpperValue: floatPtr(1),
		})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects BETWEEN mixing literal and field bounds", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField:  summary.FieldMean,
			Op:          OpBetween,
			Value:       floatPtr(0),
			SecondField: summary.FieldMin,
		})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects BETWEEN bounds out of order", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: summary.FieldMean,
			Op:         OpBetween,
			Value:      floatPtr(5),
			UpperValue: floatPtr(5),
		})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects a reference set outside set operators", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField:   summary.FieldMean,
			Op:           OpGE,
			Value:        floatPtr(0),
			ReferenceSet: []string{"a"},
		})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects a value operand for set operators", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField:   summary.FieldUniqueCount,
			Op:           OpInSet,
			Value:        floatPtr(1),
			ReferenceSet: []string{"a"},
		})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects an empty reference set", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField:   summary.FieldUniqueCount,
			Op:           OpInSet,
			ReferenceSet: []string{},
		})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects a non-set-coercible reference input with the type name", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField:   summary.FieldUniqueCount,
			Op:           OpInSet,
			ReferenceSet: 42,
		})
		require.ErrorIs(t, err, ErrConfiguration)

		var tm *TypeMismatchError
		require.ErrorAs(t, err, &tm)
		require.Equal(t, "int", tm.TypeName)
	})

	t.Run("rejects MATCH", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: summary.FieldMean,
			Op:         OpMatch,
			Value:      floatPtr(0),
		})
		require.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestConstraints_SummaryConstraint_Names(t *testing.T) {
	t.Parallel()

	t.Run("literal comparison", func(t *testing.T) {
		t.Parallel()

		c, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: summary.FieldMin,
			Op:         OpGE,
			Value:      floatPtr(0),
		})
		require.NoError(t, err)
		require.Equal(t, "summary min GE 0", c.Name())
	})

	t.Run("field comparison", func(t *testing.T) {
		t.Parallel()

		c, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField:  summary.FieldMax,
			Op:          OpGE,
			SecondField: summary.FieldMean,
		})
		require.NoError(t, err)
		require.Equal(t, "summary max GE mean", c.Name())
	})

	t.Run("between literals", func(t *testing.T) {
		t.Parallel()

		c, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: summary.FieldMean,
			Op:         OpBetween,
			Value:      floatPtr(2.5),
			UpperValue: floatPtr(7),
		})
		require.NoError(t, err)
		require.Equal(t, "summary mean BETWEEN 2.5 and 7", c.Name())
	})

	t.Run("between fields", func(t *testing.T) {
		t.Parallel()

		c, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField:  summary.FieldMean,
			Op:          OpBetween,
			SecondField: summary.FieldMin,
			ThirdField:  summary.FieldMax,
		})
		require.NoError(t, err)
		require.Equal(t, "summary mean BETWEEN min and max", c.Name())
	})

	t.Run("reference set renders sorted items", func(t *testing.T) {
		t.Parallel()

		c, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField:   summary.FieldUniqueCount,
			Op:           OpInSet,
			ReferenceSet: []any{"b", 2, "a", 1},
		})
		require.NoError(t, err)
		require.Equal(t, "summary unique_count IN_SET {1, 2, a, b}", c.Name())
	})

	t.Run("large reference set is previewed with an ellipsis", func(t *testing.T) {
		t.Parallel()

		items := make([]any, 0, 25)
		for i := 1; i <= 25; i++ {
			items = append(items, i)
		}
		c, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField:   summary.FieldUniqueCount,
			Op:           OpInSet,
			ReferenceSet: items,
		})
		require.NoError(t, err)

		name := c.Name()
		require.True(t, strings.HasSuffix(name, "20, ...}"), "name %q", name)
		require.NotContains(t, name, "21")
	})
}

func TestConstraints_SummaryConstraint_Update(t *testing.T) {
	t.Parallel()

	t.Run("fails when the minimum is below the bound", func(t *testing.T) {
		t.Parallel()

		c, err := MinGreaterThanEqual(0)
		require.NoError(t, err)

		c.Update(bundleOf(t, -2, 5, 7))

		report := c.Report()
		require.Equal(t, uint64(1), report.Total)
		require.Equal(t, uint64(1), report.Failures)
	})

	t.Run("passes when the minimum meets the bound", func(t *testing.T) {
		t.Parallel()

		c, err := MinGreaterThanEqual(0)
		require.NoError(t, err)

		c.Update(bundleOf(t, 0, 5, 7))

		report := c.Report()
		require.Equal(t, uint64(1), report.Total)
		require.Equal(t, uint64(0), report.Failures)
	})

	t.Run("compares two summary fields", func(t *testing.T) {
		t.Parallel()

		c, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField:  summary.FieldMax,
			Op:          OpGE,
			SecondField: summary.FieldMean,
			Logger:      dqtesting.NewLogger(),
		})
		require.NoError(t, err)

		c.Update(bundleOf(t, 1, 2, 3))

		report := c.Report()
		require.Equal(t, uint64(0), report.Failures)
	})

	t.Run("BETWEEN includes both bounds", func(t *testing.T) {
		t.Parallel()

		c, err := MeanBetween(2, 4)
		require.NoError(t, err)

		c.Update(bundleOf(t, 2, 2, 2))        // mean exactly at the lower bound
		c.Update(bundleOf(t, 4, 4, 4))        // mean exactly at the upper bound
		c.Update(bundleOf(t, 4.0001, 4.0001)) // just above
		c.Update(bundleOf(t, 1.9999, 1.9999)) // just below

		report := c.Report()
		require.Equal(t, uint64(4), report.Total)
		require.Equal(t, uint64(2), report.Failures)
	})

	t.Run("BETWEEN with field bounds tracks the window", func(t *testing.T) {
		t.Parallel()

		c, err := MeanBetweenFields(summary.FieldMin, summary.FieldMax)
		require.NoError(t, err)

		c.Update(bundleOf(t, 1, 5, 9))

		report := c.Report()
		require.Equal(t, uint64(0), report.Failures)
	})

	t.Run("a nil bundle counts as a failure", func(t *testing.T) {
		t.Parallel()

		c, err := MinGreaterThanEqual(0)
		require.NoError(t, err)

		c.Update(nil)

		report := c.Report()
		require.Equal(t, uint64(1), report.Total)
		require.Equal(t, uint64(1), report.Failures)
	})
}

func TestConstraints_SummaryConstraint_SetRelations(t *testing.T) {
	t.Parallel()

	t.Run("IN_SET passes for an observed subset", func(t *testing.T) {
		t.Parallel()

		c, err := DistinctValuesInSet([]string{"red", "green", "blue"})
		require.NoError(t, err)

		c.Update(bundleOf(t, "red", "green", "red"))

		require.Equal(t, uint64(0), c.Report().Failures)
	})

	t.Run("IN_SET fails for an observed value outside the reference", func(t *testing.T) {
		t.Parallel()

		c, err := DistinctValuesInSet([]string{"red", "green"})
		require.NoError(t, err)

		c.Update(bundleOf(t, "red", "purple"))

		require.Equal(t, uint64(1), c.Report().Failures)
	})

	t.Run("CONTAIN_SET requires every reference value to be observed", func(t *testing.T) {
		t.Parallel()

		c, err := DistinctValuesContainSet([]string{"red", "green"})
		require.NoError(t, err)

		c.Update(bundleOf(t, "red"))
		c.Update(bundleOf(t, "red", "green", "blue"))

		report := c.Report()
		require.Equal(t, uint64(2), report.Total)
		require.Equal(t, uint64(1), report.Failures)
	})

	t.Run("EQ_SET requires both directions", func(t *testing.T) {
		t.Parallel()

		c, err := DistinctValuesEqualSet([]string{"red", "green"})
		require.NoError(t, err)

		c.Update(bundleOf(t, "red", "green"))
		c.Update(bundleOf(t, "red"))
		c.Update(bundleOf(t, "red", "green", "blue"))

		report := c.Report()
		require.Equal(t, uint64(3), report.Total)
		require.Equal(t, uint64(2), report.Failures)
	})

	t.Run("string and numeric universes are checked independently", func(t *testing.T) {
		t.Parallel()

		c, err := DistinctValuesEqualSet([]any{"a", 1, 2})
		require.NoError(t, err)

		c.Update(bundleOf(t, "a", 1, 2))
		c.Update(bundleOf(t, "a", 1)) // missing the number 2

		report := c.Report()
		require.Equal(t, uint64(2), report.Total)
		require.Equal(t, uint64(1), report.Failures)
	})

	t.Run("the string 1 does not satisfy the number 1", func(t *testing.T) {
		t.Parallel()

		c, err := DistinctValuesContainSet([]any{1})
		require.NoError(t, err)

		c.Update(bundleOf(t, "1"))

		require.Equal(t, uint64(1), c.Report().Failures)
	})

	t.Run("duplicate reference items collapse", func(t *testing.T) {
		t.Parallel()

		c, err := DistinctValuesEqualSet([]any{"a", "a", 1, 1.0})
		require.NoError(t, err)

		c.Update(bundleOf(t, "a", 1))

		require.Equal(t, uint64(0), c.Report().Failures)
	})
}

func TestConstraints_SummaryConstraint_Merge(t *testing.T) {
	t.Parallel()

	t.Run("sums counters for identical constraints", func(t *testing.T) {
		t.Parallel()

		a, err := MinGreaterThanEqual(0)
		require.NoError(t, err)
		a.Update(bundleOf(t, -1))
		a.Update(bundleOf(t, 1))

		b, err := MinGreaterThanEqual(0)
		require.NoError(t, err)
		b.Update(bundleOf(t, 2))

		merged, err := a.Merge(b)
		require.NoError(t, err)

		report := merged.Report()
		require.Equal(t, uint64(3), report.Total)
		require.Equal(t, uint64(1), report.Failures)
	})

	t.Run("different bounds are incompatible", func(t *testing.T) {
		t.Parallel()

		a, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: summary.FieldMin, Op: OpGE, Value: floatPtr(0), Name: "min-bound",
		})
		require.NoError(t, err)
		b, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: summary.FieldMin, Op: OpGE, Value: floatPtr(1), Name: "min-bound",
		})
		require.NoError(t, err)

		_, err = a.Merge(b)
		require.ErrorIs(t, err, ErrIncompatibleMerge)
	})

	t.Run("different operand shapes are incompatible", func(t *testing.T) {
		t.Parallel()

		a, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: summary.FieldMin, Op: OpGE, Value: floatPtr(0), Name: "c",
		})
		require.NoError(t, err)
		b, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: summary.FieldMin, Op: OpGE, SecondField: summary.FieldMean, Name: "c",
		})
		require.NoError(t, err)

		_, err = a.Merge(b)
		require.ErrorIs(t, err, ErrIncompatibleMerge)
	})

	t.Run("different reference sets are incompatible", func(t *testing.T) {
		t.Parallel()

		a, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: summary.FieldUniqueCount, Op: OpInSet, ReferenceSet: []string{"a"}, Name: "set",
		})
		require.NoError(t, err)
		b, err := NewSummaryConstraint(SummaryConstraintConfig{
			FirstField: summary.FieldUniqueCount, Op: OpInSet, ReferenceSet: []string{"b"}, Name: "set",
		})
		require.NoError(t, err)

		_, err = a.Merge(b)
		require.ErrorIs(t, err, ErrIncompatibleMerge)
	})

	t.Run("identical reference sets merge regardless of input order", func(t *testing.T) {
		t.Parallel()

		a, err := DistinctValuesInSet([]string{"a", "b"})
		require.NoError(t, err)
		b, err := DistinctValuesInSet([]string{"b", "a"})
		require.NoError(t, err)

		merged, err := a.Merge(b)
		require.NoError(t, err)
		require.Equal(t, a.Name(), merged.Name())
	})
}

func TestConstraints_SummaryConstraint_ReferenceCoercion(t *testing.T) {
	t.Parallel()

	inputs := []any{
		[]string{"a", "b"},
		[]int{1, 2},
		[]int64{1, 2},
		[]float64{1, 2},
		[]any{"a", 1},
		map[string]struct{}{"a": {}, "b": {}},
		map[any]struct{}{"a": {}, 1: {}},
	}
	for i, input := range inputs {
		input := input
		t.Run(fmt.Sprintf("accepts input form %d", i), func(t *testing.T) {
			t.Parallel()

			_, err := DistinctValuesInSet(input)
			require.NoError(t, err)
		})
	}
}
