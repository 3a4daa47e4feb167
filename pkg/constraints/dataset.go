package constraints

import (
	"sort"

	"github.com/fernlabs/constraints/pkg/summary"
)

// DatasetConstraints is the per-dataset container: one ValueConstraints and
// one SummaryConstraints collection per column, plus dataset properties. It
// is the unit a pipeline worker owns exclusively during the update phase and
// the unit the merge step combines across shards.
type DatasetConstraints struct {
	props          Properties
	valueColumns   map[string]*ValueConstraints
	summaryColumns map[string]*SummaryConstraints
	valueOrder     []string
	summaryOrder   []string
}

type DatasetConstraintsConfig struct {
	Properties         Properties
	ValueConstraints   map[string][]*ValueConstraint
	SummaryConstraints map[string][]*SummaryConstraint
}

// NewDatasetConstraints builds the container. Columns are kept in
// lexicographic order so reports and serialized documents are deterministic.
func NewDatasetConstraints(cfg DatasetConstraintsConfig) *DatasetConstraints {
	d := &DatasetConstraints{
		props:          cfg.Properties,
		valueColumns:   make(map[string]*ValueConstraints, len(cfg.ValueConstraints)),
		summaryColumns: make(map[string]*SummaryConstraints, len(cfg.SummaryConstraints)),
	}
	for column, cs := range cfg.ValueConstraints {
		d.valueColumns[column] = NewValueConstraints(cs...)
		d.valueOrder = append(d.valueOrder, column)
	}
	for column, cs := range cfg.SummaryConstraints {
		d.summaryColumns[column] = NewSummaryConstraints(cs...)
		d.summaryOrder = append(d.summaryOrder, column)
	}
	sort.Strings(d.valueOrder)
	sort.Strings(d.summaryOrder)
	return d
}

func (d *DatasetConstraints) Properties() Properties {
	return d.props
}

// ValueColumns returns the columns carrying value constraints, in order.
func (d *DatasetConstraints) ValueColumns() []string {
	out := make([]string, len(d.valueOrder))
	copy(out, d.valueOrder)
	return out
}

// SummaryColumns returns the columns carrying summary constraints, in order.
func (d *DatasetConstraints) SummaryColumns() []string {
	out := make([]string, len(d.summaryOrder))
	copy(out, d.summaryOrder)
	return out
}

func (d *DatasetConstraints) ValueColumn(column string) (*ValueConstraints, bool) {
	vc, ok := d.valueColumns[column]
	return vc, ok
}

func (d *DatasetConstraints) SummaryColumn(column string) (*SummaryConstraints, bool) {
	sc, ok := d.summaryColumns[column]
	return sc, ok
}

// UpdateValue feeds one streamed value to the named column's value
// constraints. Columns without constraints are a no-op; ok reports whether
// the column had any.
func (d *DatasetConstraints) UpdateValue(column string, v any) bool {
	vc, ok := d.valueColumns[column]
	if !ok {
		return false
	}
	vc.Update(v)
	return true
}

// UpdateSummary feeds one window's summary bundle to the named column's
// summary constraints.
func (d *DatasetConstraints) UpdateSummary(column string, b *summary.Bundle) bool {
	sc, ok := d.summaryColumns[column]
	if !ok {
		return false
	}
	sc.Update(b)
	return true
}

// Report returns the verdict tree: per-column value constraint reports
// followed by per-column summary constraint reports. Columns whose collection
// holds no constraints are omitted.
func (d *DatasetConstraints) Report() []ColumnReport {
	var out []ColumnReport
	for _, column := range d.valueOrder {
		if reports, ok := d.valueColumns[column].Report(); ok {
			out = append(out, ColumnReport{Column: column, Constraints: reports})
		}
	}
	for _, column := range d.summaryOrder {
		if reports, ok := d.summaryColumns[column].Report(); ok {
			out = append(out, ColumnReport{Column: column, Constraints: reports})
		}
	}
	return out
}

// Merge combines two same-shaped dataset containers from different shards.
// Both the value and summary column sets must be identical; properties are
// taken from the receiver. Neither operand is mutated.
func (d *DatasetConstraints) Merge(other *DatasetConstraints) (*DatasetConstraints, error) {
	if other == nil {
		return d, nil
	}
	if len(d.valueColumns) != len(other.valueColumns) || len(d.summaryColumns) != len(other.summaryColumns) {
		return nil, mergeErrorf("dataset constraints have different column sets")
	}

	merged := &DatasetConstraints{
		props:          d.props,
		valueColumns:   make(map[string]*ValueConstraints, len(d.valueColumns)),
		summaryColumns: make(map[string]*SummaryConstraints, len(d.summaryColumns)),
		valueOrder:     d.ValueColumns(),
		summaryOrder:   d.SummaryColumns(),
	}
	for _, column := range d.valueOrder {
		counterpart, ok := other.valueColumns[column]
		if !ok {
			return nil, mergeErrorf("column %q has value constraints on one side only", column)
		}
		mc, err := d.valueColumns[column].Merge(counterpart)
		if err != nil {
			return nil, err
		}
		merged.valueColumns[column] = mc
	}
	for _, column := range d.summaryOrder {
		counterpart, ok := other.summaryColumns[column]
		if !ok {
			return nil, mergeErrorf("column %q has summary constraints on one side only", column)
		}
		mc, err := d.summaryColumns[column].Merge(counterpart)
		if err != nil {
			return nil, err
		}
		merged.summaryColumns[column] = mc
	}
	return merged, nil
}
