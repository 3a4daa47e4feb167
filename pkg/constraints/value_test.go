package constraints

import (
	"testing"

	"github.com/stretchr/testify/require"

	dqtesting "github.com/fernlabs/constraints/pkg/testing"
)

func TestConstraints_ValueConstraint_Config(t *testing.T) {
	t.Parallel()

	t.Run("rejects both a value and a pattern", func(t *testing.T) {
		t.Parallel()

		_, err := NewValueConstraint(ValueConstraintConfig{Op: OpEQ, Value: 1, Pattern: "a+"})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects neither a value nor a pattern", func(t *testing.T) {
		t.Parallel()

		_, err := NewValueConstraint(ValueConstraintConfig{Op: OpEQ})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects a value operand for MATCH", func(t *testing.T) {
		t.Parallel()

		_, err := NewValueConstraint(ValueConstraintConfig{Op: OpMatch, Value: "abc"})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects a pattern operand for ordered operators", func(t *testing.T) {
		t.Parallel()

		_, err := NewValueConstraint(ValueConstraintConfig{Op: OpGT, Pattern: "a+"})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects an invalid regex pattern", func(t *testing.T) {
		t.Parallel()

		_, err := NewValueConstraint(ValueConstraintConfig{Op: OpMatch, Pattern: "("})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects a boolean literal", func(t *testing.T) {
		t.Parallel()

		_, err := NewValueConstraint(ValueConstraintConfig{Op: OpGT, Value: true})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects set operators", func(t *testing.T) {
		t.Parallel()

		_, err := NewValueConstraint(ValueConstraintConfig{Op: OpInSet, Value: 1})
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("generates a name from the operator and operand", func(t *testing.T) {
		t.Parallel()

		c, err := NewValueConstraint(ValueConstraintConfig{Op: OpGT, Value: 0})
		require.NoError(t, err)
		require.Equal(t, "value GT 0", c.Name())

		m, err := NewValueConstraint(ValueConstraintConfig{Op: OpMatch, Pattern: "^a+$"})
		require.NoError(t, err)
		require.Equal(t, "value MATCH ^a+$", m.Name())
	})

	t.Run("an explicit name wins over the generated one", func(t *testing.T) {
		t.Parallel()

		c, err := NewValueConstraint(ValueConstraintConfig{Op: OpGT, Value: 0, Name: "positive"})
		require.NoError(t, err)
		require.Equal(t, "positive", c.Name())
	})
}

func TestConstraints_ValueConstraint_Update(t *testing.T) {
	t.Parallel()

	t.Run("counts failures for values that violate GT", func(t *testing.T) {
		t.Parallel()

		c, err := NewValueConstraint(ValueConstraintConfig{
			Op:     OpGT,
			Value:  0,
			Logger: dqtesting.NewLogger(),
		})
		require.NoError(t, err)

		for _, v := range []any{1, 2.5, "oops", -3, 0} {
			c.Update(v)
		}

		report := c.Report()
		require.Equal(t, uint64(5), report.Total)
		require.Equal(t, uint64(3), report.Failures)
	})

	t.Run("non-string values fail MATCH without raising", func(t *testing.T) {
		t.Parallel()

		c, err := NewValueConstraint(ValueConstraintConfig{Op: OpMatch, Pattern: "^[a-z]+$"})
		require.NoError(t, err)

		c.Update("abc")
		c.Update(123)
		c.Update("ABC")

		report := c.Report()
		require.Equal(t, uint64(3), report.Total)
		require.Equal(t, uint64(2), report.Failures)
	})

	t.Run("NOMATCH inverts the pattern verdict", func(t *testing.T) {
		t.Parallel()

		c, err := NewValueConstraint(ValueConstraintConfig{Op: OpNoMatch, Pattern: "^test"})
		require.NoError(t, err)

		c.Update("testing")
		c.Update("prod")

		report := c.Report()
		require.Equal(t, uint64(2), report.Total)
		require.Equal(t, uint64(1), report.Failures)
	})

	t.Run("EQ compares numerics by value across widths", func(t *testing.T) {
		t.Parallel()

		c, err := NewValueConstraint(ValueConstraintConfig{Op: OpEQ, Value: 2})
		require.NoError(t, err)

		c.Update(2)
		c.Update(2.0)
		c.Update(int64(2))
		c.Update("2")
		c.Update(3)

		report := c.Report()
		require.Equal(t, uint64(5), report.Total)
		require.Equal(t, uint64(2), report.Failures)
	})

	t.Run("ordered comparison across kinds counts as a failure", func(t *testing.T) {
		t.Parallel()

		c, err := NewValueConstraint(ValueConstraintConfig{Op: OpLT, Value: "m"})
		require.NoError(t, err)

		c.Update("a")
		c.Update("z")
		c.Update(5)

		report := c.Report()
		require.Equal(t, uint64(3), report.Total)
		require.Equal(t, uint64(2), report.Failures)
	})
}

func TestConstraints_ValueConstraint_Merge(t *testing.T) {
	t.Parallel()

	newGT := func(t *testing.T) *ValueConstraint {
		t.Helper()
		c, err := NewValueConstraint(ValueConstraintConfig{Op: OpGT, Value: 0})
		require.NoError(t, err)
		return c
	}

	t.Run("sums counters without mutating the operands", func(t *testing.T) {
		t.Parallel()

		a := newGT(t)
		a.Update(1)
		a.Update(-1)
		b := newGT(t)
		b.Update(2)

		merged, err := a.Merge(b)
		require.NoError(t, err)

		report := merged.Report()
		require.Equal(t, uint64(3), report.Total)
		require.Equal(t, uint64(1), report.Failures)

		require.Equal(t, uint64(2), a.Report().Total)
		require.Equal(t, uint64(1), b.Report().Total)
	})

	t.Run("merging nil returns the receiver", func(t *testing.T) {
		t.Parallel()

		a := newGT(t)
		merged, err := a.Merge(nil)
		require.NoError(t, err)
		require.Same(t, a, merged)
	})

	t.Run("different operators are incompatible", func(t *testing.T) {
		t.Parallel()

		a := newGT(t)
		b, err := NewValueConstraint(ValueConstraintConfig{Op: OpGE, Value: 0})
		require.NoError(t, err)

		_, err = a.Merge(b)
		require.ErrorIs(t, err, ErrIncompatibleMerge)
	})

	t.Run("different values are incompatible", func(t *testing.T) {
		t.Parallel()

		a := newGT(t)
		b, err := NewValueConstraint(ValueConstraintConfig{Op: OpGT, Value: 1, Name: a.Name()})
		require.NoError(t, err)

		_, err = a.Merge(b)
		require.ErrorIs(t, err, ErrIncompatibleMerge)
	})

	t.Run("different patterns are incompatible", func(t *testing.T) {
		t.Parallel()

		a, err := NewValueConstraint(ValueConstraintConfig{Op: OpMatch, Pattern: "a+", Name: "m"})
		require.NoError(t, err)
		b, err := NewValueConstraint(ValueConstraintConfig{Op: OpMatch, Pattern: "b+", Name: "m"})
		require.NoError(t, err)

		_, err = a.Merge(b)
		require.ErrorIs(t, err, ErrIncompatibleMerge)
	})
}
