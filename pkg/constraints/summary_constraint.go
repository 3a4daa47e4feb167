package constraints

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/fernlabs/constraints/pkg/metrics"
	"github.com/fernlabs/constraints/pkg/sketch"
	"github.com/fernlabs/constraints/pkg/summary"
)

// referenceNamePreview bounds how many reference-set items an auto-generated
// constraint name renders before the ellipsis marker.
const referenceNamePreview = 20

// SummaryConstraintConfig configures a constraint over a column's aggregate
// summary or its observed distinct-value set. Exactly one operand shape must
// be supplied:
//
//   - Value: literal vs FirstField
//   - SecondField: FirstField vs another summary field
//   - Value + UpperValue: BETWEEN with literal bounds
//   - SecondField + ThirdField: BETWEEN with field bounds
//   - ReferenceSet: IN_SET / CONTAIN_SET / EQ_SET reference set
type SummaryConstraintConfig struct {
	FirstField   string
	Op           Operator
	Value        *float64
	UpperValue   *float64
	SecondField  string
	ThirdField   string
	ReferenceSet any // set-coercible input: a slice or set of strings/numerics
	Name         string
	Verbose      bool
	Logger       *slog.Logger
}

// summaryOperand is the tagged union of the five operand shapes. Construction
// picks exactly one variant, so evaluation and merge never re-validate shape
// exclusivity.
type summaryOperand interface {
	evaluate(op Operator, firstField string, b *summary.Bundle) bool
	equal(other summaryOperand) bool
	render(op Operator, firstField string) string
}

type literalCompare struct {
	value float64
}

type fieldCompare struct {
	field string
}

type betweenLiterals struct {
	lower, upper float64
}

type betweenFields struct {
	lower, upper string
}

type setRelation struct {
	items   []any // canonical sorted order: numbers, strings, booleans
	full    *sketch.Distinct
	strings *sketch.Distinct
	numbers *sketch.Distinct
}

// SummaryConstraint evaluates one operator against aggregate summary fields
// or, for set-relation operators, against the column's observed distinct-value
// sketches. Single writer per instance during the update phase.
type SummaryConstraint struct {
	firstField string
	op         Operator
	operand    summaryOperand
	name       string
	verbose    bool
	log        *slog.Logger
	logLimit   *rate.Limiter

	total    uint64
	failures uint64
}

func NewSummaryConstraint(cfg SummaryConstraintConfig) (*SummaryConstraint, error) {
	if cfg.FirstField == "" {
		return nil, configErrorf("summary constraint requires a first field")
	}
	operand, err := buildOperand(cfg)
	if err != nil {
		return nil, err
	}
	c := &SummaryConstraint{
		firstField: cfg.FirstField,
		op:         cfg.Op,
		operand:    operand,
		name:       cfg.Name,
		verbose:    cfg.Verbose,
		log:        cfg.Logger,
		logLimit:   verboseLogLimit(),
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c, nil
}

// buildOperand validates operand-shape exclusivity and returns the single
// variant the config describes.
func buildOperand(cfg SummaryConstraintConfig) (summaryOperand, error) {
	switch {
	case cfg.Op.setRelation():
		if cfg.Value != nil || cfg.UpperValue != nil || cfg.SecondField != "" || cfg.ThirdField != "" {
			return nil, configErrorf("set operators take only a reference set, not values or field names")
		}
		if cfg.ReferenceSet == nil {
			return nil, configErrorf("set operators require a reference set")
		}
		return newSetRelation(cfg.ReferenceSet)

	case cfg.Op == OpBetween:
		if cfg.ReferenceSet != nil {
			return nil, configErrorf("reference set is only valid with set operators")
		}
		if !summary.KnownField(cfg.FirstField) {
			return nil, configErrorf("unknown summary field %q", cfg.FirstField)
		}
		switch {
		case cfg.Value != nil && cfg.UpperValue != nil && cfg.SecondField == "" && cfg.ThirdField == "":
			if *cfg.Value >= *cfg.UpperValue {
				return nil, configErrorf("BETWEEN lower bound %v must be strictly less than upper bound %v", *cfg.Value, *cfg.UpperValue)
			}
			return &betweenLiterals{lower: *cfg.Value, upper: *cfg.UpperValue}, nil
		case cfg.SecondField != "" && cfg.ThirdField != "" && cfg.Value == nil && cfg.UpperValue == nil:
			if !summary.KnownField(cfg.SecondField) {
				return nil, configErrorf("unknown summary field %q", cfg.SecondField)
			}
			if !summary.KnownField(cfg.ThirdField) {
				return nil, configErrorf("unknown summary field %q", cfg.ThirdField)
			}
			return &betweenFields{lower: cfg.SecondField, upper: cfg.ThirdField}, nil
		default:
			return nil, configErrorf("BETWEEN requires lower and upper values or lower and upper bound fields, not a mix")
		}

	case cfg.Op.ordered():
		if cfg.ReferenceSet != nil {
			return nil, configErrorf("reference set is only valid with set operators")
		}
		if cfg.UpperValue != nil || cfg.ThirdField != "" {
			return nil, configErrorf("upper value and third field are only valid with BETWEEN")
		}
		if !summary.KnownField(cfg.FirstField) {
			return nil, configErrorf("unknown summary field %q", cfg.FirstField)
		}
		switch {
		case cfg.Value != nil && cfg.SecondField == "":
			return &literalCompare{value: *cfg.Value}, nil
		case cfg.SecondField != "" && cfg.Value == nil:
			if !summary.KnownField(cfg.SecondField) {
				return nil, configErrorf("unknown summary field %q", cfg.SecondField)
			}
			return &fieldCompare{field: cfg.SecondField}, nil
		default:
			return nil, configErrorf("summary constraint requires a literal value or a second field, but not both")
		}

	default:
		return nil, configErrorf("operator %s is not valid for summary constraints", cfg.Op)
	}
}

// Name returns the report name, rendered per operand shape when no explicit
// name was configured.
func (c *SummaryConstraint) Name() string {
	if c.name != "" {
		return c.name
	}
	return c.operand.render(c.op, c.firstField)
}

func (c *SummaryConstraint) Op() Operator       { return c.op }
func (c *SummaryConstraint) FirstField() string { return c.firstField }

// Update evaluates one summary bundle. The total counter always advances; any
// violation, including a missing summary or sketch, counts as a failure and
// never raises.
func (c *SummaryConstraint) Update(b *summary.Bundle) {
	c.total++
	metrics.ConstraintEvaluationsTotal.WithLabelValues("summary").Inc()
	if b != nil && c.operand.evaluate(c.op, c.firstField, b) {
		return
	}
	c.failures++
	metrics.ConstraintFailuresTotal.WithLabelValues("summary").Inc()
	if c.verbose && c.logLimit.Allow() {
		c.log.Info("summary constraint failed", "name", c.Name())
	}
}

// Merge combines this constraint with a same-shaped counterpart from another
// shard. All identity fields must match; the result carries summed counters
// and shares the immutable operand. A nil other returns the receiver.
func (c *SummaryConstraint) Merge(other *SummaryConstraint) (*SummaryConstraint, error) {
	if other == nil {
		return c, nil
	}
	if c.Name() != other.Name() {
		return nil, mergeErrorf("summary constraints have different names: %q and %q", c.Name(), other.Name())
	}
	if c.op != other.op {
		return nil, mergeErrorf("summary constraints %q have different operators: %s and %s", c.Name(), c.op, other.op)
	}
	if c.firstField != other.firstField {
		return nil, mergeErrorf("summary constraints %q have different first fields: %q and %q", c.Name(), c.firstField, other.firstField)
	}
	if !c.operand.equal(other.operand) {
		return nil, mergeErrorf("summary constraints %q have different operands", c.Name())
	}

	merged := &SummaryConstraint{
		firstField: c.firstField,
		op:         c.op,
		operand:    c.operand,
		name:       c.name,
		verbose:    c.verbose,
		log:        c.log,
		logLimit:   verboseLogLimit(),
		total:      c.total + other.total,
		failures:   c.failures + other.failures,
	}
	metrics.ConstraintMergesTotal.WithLabelValues("summary", "ok").Inc()
	return merged, nil
}

// Report returns the constraint's verdict.
func (c *SummaryConstraint) Report() ConstraintReport {
	return ConstraintReport{Name: c.Name(), Total: c.total, Failures: c.failures}
}

// --- shape implementations ---

func fieldOf(b *summary.Bundle, name string) (float64, bool) {
	if b == nil || b.Summary == nil {
		return 0, false
	}
	return b.Summary.Field(name)
}

func (o *literalCompare) evaluate(op Operator, firstField string, b *summary.Bundle) bool {
	f, ok := fieldOf(b, firstField)
	return ok && op.compareOrdered(compareFloats(f, o.value))
}

func (o *literalCompare) equal(other summaryOperand) bool {
	p, ok := other.(*literalCompare)
	return ok && o.value == p.value
}

func (o *literalCompare) render(op Operator, firstField string) string {
	return fmt.Sprintf("summary %s %s %s", firstField, op, formatNumber(o.value))
}

func (o *fieldCompare) evaluate(op Operator, firstField string, b *summary.Bundle) bool {
	f, ok := fieldOf(b, firstField)
	if !ok {
		return false
	}
	g, ok := fieldOf(b, o.field)
	return ok && op.compareOrdered(compareFloats(f, g))
}

func (o *fieldCompare) equal(other summaryOperand) bool {
	p, ok := other.(*fieldCompare)
	return ok && o.field == p.field
}

func (o *fieldCompare) render(op Operator, firstField string) string {
	return fmt.Sprintf("summary %s %s %s", firstField, op, o.field)
}

func (o *betweenLiterals) evaluate(op Operator, firstField string, b *summary.Bundle) bool {
	f, ok := fieldOf(b, firstField)
	return ok && o.lower <= f && f <= o.upper
}

func (o *betweenLiterals) equal(other summaryOperand) bool {
	p, ok := other.(*betweenLiterals)
	return ok && o.lower == p.lower && o.upper == p.upper
}

func (o *betweenLiterals) render(op Operator, firstField string) string {
	return fmt.Sprintf("summary %s %s %s and %s", firstField, op, formatNumber(o.lower), formatNumber(o.upper))
}

func (o *betweenFields) evaluate(op Operator, firstField string, b *summary.Bundle) bool {
	f, ok := fieldOf(b, firstField)
	if !ok {
		return false
	}
	lo, ok := fieldOf(b, o.lower)
	if !ok {
		return false
	}
	hi, ok := fieldOf(b, o.upper)
	return ok && lo <= f && f <= hi
}

func (o *betweenFields) equal(other summaryOperand) bool {
	p, ok := other.(*betweenFields)
	return ok && o.lower == p.lower && o.upper == p.upper
}

func (o *betweenFields) render(op Operator, firstField string) string {
	return fmt.Sprintf("summary %s %s %s and %s", firstField, op, o.lower, o.upper)
}

// --- set relation ---

func newSetRelation(input any) (*setRelation, error) {
	items, err := coerceReferenceSet(input)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, configErrorf("reference set must not be empty")
	}
	sortReferenceItems(items)

	strs, nums := partitionReference(items)
	rel := &setRelation{
		items:   items,
		full:    sketch.New(),
		strings: sketch.New(),
		numbers: sketch.New(),
	}
	for _, item := range items {
		rel.full.Add(item)
	}
	for _, s := range strs {
		rel.strings.Add(s)
	}
	for _, n := range nums {
		rel.numbers.Add(n)
	}
	return rel, nil
}

// coerceReferenceSet normalizes a set-coercible input into deduplicated items:
// strings stay strings, numerics collapse to float64, booleans stay booleans.
// Inputs that are not a recognized set form fail with a TypeMismatchError.
func coerceReferenceSet(input any) ([]any, error) {
	var raw []any
	switch v := input.(type) {
	case []any:
		raw = v
	case []string:
		for _, s := range v {
			raw = append(raw, s)
		}
	case []int:
		for _, n := range v {
			raw = append(raw, n)
		}
	case []int64:
		for _, n := range v {
			raw = append(raw, n)
		}
	case []float64:
		for _, n := range v {
			raw = append(raw, n)
		}
	case map[any]struct{}:
		for k := range v {
			raw = append(raw, k)
		}
	case map[string]struct{}:
		for k := range v {
			raw = append(raw, k)
		}
	default:
		return nil, &TypeMismatchError{TypeName: fmt.Sprintf("%T", input)}
	}

	seen := make(map[any]struct{}, len(raw))
	items := make([]any, 0, len(raw))
	for _, item := range raw {
		var norm any
		switch x := item.(type) {
		case string:
			norm = x
		case bool:
			norm = x
		default:
			f, ok := numericValue(x)
			if !ok {
				return nil, &TypeMismatchError{TypeName: fmt.Sprintf("%T", item)}
			}
			norm = f
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		items = append(items, norm)
	}
	return items, nil
}

// partitionReference splits normalized reference items into the string and
// numeric subsets. Booleans are representable as numbers but are excluded
// from the numeric subset by the explicit bool case.
func partitionReference(items []any) (strs []string, nums []float64) {
	for _, item := range items {
		switch v := item.(type) {
		case string:
			strs = append(strs, v)
		case bool:
			// excluded from both subsets
		case float64:
			nums = append(nums, v)
		}
	}
	return strs, nums
}

// sortReferenceItems orders normalized items canonically: numbers ascending,
// then strings ascending, then false before true. Keeps auto-generated names
// and serialized documents deterministic.
func sortReferenceItems(items []any) {
	rank := func(v any) int {
		switch v.(type) {
		case float64:
			return 0
		case string:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := rank(items[i]), rank(items[j])
		if ri != rj {
			return ri < rj
		}
		switch a := items[i].(type) {
		case float64:
			return a < items[j].(float64)
		case string:
			return a < items[j].(string)
		case bool:
			return !a && items[j].(bool)
		default:
			return false
		}
	})
}

func (o *setRelation) evaluate(op Operator, firstField string, b *summary.Bundle) bool {
	return setDimensionPasses(op, o.strings, b.StringSketch) &&
		setDimensionPasses(op, o.numbers, b.NumberSketch)
}

// setDimensionPasses applies the set relation in one dimension. The rounded
// difference estimate in the operator's direction(s) must be exactly zero.
func setDimensionPasses(op Operator, ref, observed *sketch.Distinct) bool {
	if observed == nil {
		return false
	}
	observedInRef := func() bool {
		est, err := sketch.DifferenceEstimate(observed, ref)
		return err == nil && roundTenth(est) == 0
	}
	refInObserved := func() bool {
		est, err := sketch.DifferenceEstimate(ref, observed)
		return err == nil && roundTenth(est) == 0
	}
	switch op {
	case OpInSet:
		return observedInRef()
	case OpContainSet:
		return refInObserved()
	case OpEqualSet:
		return observedInRef() && refInObserved()
	default:
		return false
	}
}

func (o *setRelation) equal(other summaryOperand) bool {
	p, ok := other.(*setRelation)
	if !ok || len(o.items) != len(p.items) {
		return false
	}
	for i := range o.items {
		if !equalValues(o.items[i], p.items[i]) {
			return false
		}
	}
	return true
}

func (o *setRelation) render(op Operator, firstField string) string {
	var sb strings.Builder
	sb.WriteString("{")
	limit := len(o.items)
	truncated := false
	if limit > referenceNamePreview {
		limit = referenceNamePreview
		truncated = true
	}
	for i := 0; i < limit; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(formatItem(o.items[i]))
	}
	if truncated {
		sb.WriteString(", ...")
	}
	sb.WriteString("}")
	return fmt.Sprintf("summary %s %s %s", firstField, op, sb.String())
}

func formatItem(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return formatNumber(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
