package constraints

import "github.com/fernlabs/constraints/pkg/summary"

// ValueConstraints is a named collection of value constraints for one column.
// Names are unique within the collection; when built from a sequence with
// duplicate names, the last constraint wins and keeps the position of the
// first occurrence.
type ValueConstraints struct {
	byName map[string]*ValueConstraint
	order  []string
}

func NewValueConstraints(cs ...*ValueConstraint) *ValueConstraints {
	vc := &ValueConstraints{byName: make(map[string]*ValueConstraint, len(cs))}
	for _, c := range cs {
		vc.Add(c)
	}
	return vc
}

// Add registers a constraint under its name, replacing any previous
// constraint with the same name.
func (vc *ValueConstraints) Add(c *ValueConstraint) {
	name := c.Name()
	if _, exists := vc.byName[name]; !exists {
		vc.order = append(vc.order, name)
	}
	vc.byName[name] = c
}

func (vc *ValueConstraints) Get(name string) (*ValueConstraint, bool) {
	c, ok := vc.byName[name]
	return c, ok
}

// Names returns the member names in collection order.
func (vc *ValueConstraints) Names() []string {
	out := make([]string, len(vc.order))
	copy(out, vc.order)
	return out
}

func (vc *ValueConstraints) Len() int {
	return len(vc.byName)
}

// Update broadcasts one streamed value to every member. All members always
// evaluate; there is no short-circuiting.
func (vc *ValueConstraints) Update(v any) {
	for _, name := range vc.order {
		vc.byName[name].Update(v)
	}
}

// Merge combines this collection with a same-shaped counterpart. The member
// name sets must be identical on both sides; a name present in one collection
// but absent from the other is a configuration mismatch. A nil other returns
// the receiver unchanged.
func (vc *ValueConstraints) Merge(other *ValueConstraints) (*ValueConstraints, error) {
	if other == nil {
		return vc, nil
	}
	if len(vc.byName) != len(other.byName) {
		return nil, mergeErrorf("value constraint collections have different sizes: %d and %d", len(vc.byName), len(other.byName))
	}
	merged := NewValueConstraints()
	for _, name := range vc.order {
		counterpart, ok := other.byName[name]
		if !ok {
			return nil, mergeErrorf("value constraint %q has no counterpart in the other collection", name)
		}
		mc, err := vc.byName[name].Merge(counterpart)
		if err != nil {
			return nil, err
		}
		merged.Add(mc)
	}
	return merged, nil
}

// Report returns the per-member verdicts in collection order. The second
// return is the presence marker: false (with a nil slice) means the
// collection holds no constraints, which callers must distinguish from a
// non-empty report.
func (vc *ValueConstraints) Report() ([]ConstraintReport, bool) {
	if len(vc.order) == 0 {
		return nil, false
	}
	out := make([]ConstraintReport, 0, len(vc.order))
	for _, name := range vc.order {
		out = append(out, vc.byName[name].Report())
	}
	return out, true
}

// SummaryConstraints is a named collection of summary constraints for one
// column. Same naming and merge semantics as ValueConstraints.
type SummaryConstraints struct {
	byName map[string]*SummaryConstraint
	order  []string
}

func NewSummaryConstraints(cs ...*SummaryConstraint) *SummaryConstraints {
	sc := &SummaryConstraints{byName: make(map[string]*SummaryConstraint, len(cs))}
	for _, c := range cs {
		sc.Add(c)
	}
	return sc
}

func (sc *SummaryConstraints) Add(c *SummaryConstraint) {
	name := c.Name()
	if _, exists := sc.byName[name]; !exists {
		sc.order = append(sc.order, name)
	}
	sc.byName[name] = c
}

func (sc *SummaryConstraints) Get(name string) (*SummaryConstraint, bool) {
	c, ok := sc.byName[name]
	return c, ok
}

func (sc *SummaryConstraints) Names() []string {
	out := make([]string, len(sc.order))
	copy(out, sc.order)
	return out
}

func (sc *SummaryConstraints) Len() int {
	return len(sc.byName)
}

// Update broadcasts one summary bundle to every member.
func (sc *SummaryConstraints) Update(b *summary.Bundle) {
	for _, name := range sc.order {
		sc.byName[name].Update(b)
	}
}

// Merge combines this collection with a same-shaped counterpart. Member name
// sets must be identical on both sides. A nil other returns the receiver.
func (sc *SummaryConstraints) Merge(other *SummaryConstraints) (*SummaryConstraints, error) {
	if other == nil {
		return sc, nil
	}
	if len(sc.byName) != len(other.byName) {
		return nil, mergeErrorf("summary constraint collections have different sizes: %d and %d", len(sc.byName), len(other.byName))
	}
	merged := NewSummaryConstraints()
	for _, name := range sc.order {
		counterpart, ok := other.byName[name]
		if !ok {
			return nil, mergeErrorf("summary constraint %q has no counterpart in the other collection", name)
		}
		mc, err := sc.byName[name].Merge(counterpart)
		if err != nil {
			return nil, err
		}
		merged.Add(mc)
	}
	return merged, nil
}

// Report returns the per-member verdicts in collection order, with the same
// presence marker convention as ValueConstraints.Report.
func (sc *SummaryConstraints) Report() ([]ConstraintReport, bool) {
	if len(sc.order) == 0 {
		return nil, false
	}
	out := make([]ConstraintReport, 0, len(sc.order))
	for _, name := range sc.order {
		out = append(out, sc.byName[name].Report())
	}
	return out, true
}
