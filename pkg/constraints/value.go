package constraints

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"golang.org/x/time/rate"

	"github.com/fernlabs/constraints/pkg/metrics"
)

// verboseLogLimit caps the rate of per-value diagnostics from verbose
// constraints so a hot stream of failing values cannot flood the log.
func verboseLogLimit() *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Second), 10)
}

// ValueConstraintConfig configures a constraint over individual streamed
// values. Exactly one of Value and Pattern must be set: Value for the ordered
// and equality operators, Pattern for MATCH/NOMATCH.
type ValueConstraintConfig struct {
	Op      Operator
	Value   any    // literal scalar operand (string or numeric)
	Pattern string // regex source for MATCH/NOMATCH
	Name    string // optional; auto-generated from op and operand when empty
	Verbose bool   // log each failing value
	Logger  *slog.Logger
}

func (cfg *ValueConstraintConfig) Validate() error {
	if cfg.Value != nil && cfg.Pattern != "" {
		return configErrorf("value constraint must specify a literal value or a regex pattern, not both")
	}
	if cfg.Value == nil && cfg.Pattern == "" {
		return configErrorf("value constraint must specify a literal value or a regex pattern")
	}
	switch {
	case cfg.Op.patternMatch():
		if cfg.Pattern == "" {
			return configErrorf("operator %s requires a regex pattern operand", cfg.Op)
		}
	case cfg.Op.ordered():
		if cfg.Value == nil {
			return configErrorf("operator %s requires a literal value operand", cfg.Op)
		}
		if _, ok := cfg.Value.(string); !ok {
			if _, ok := numericValue(cfg.Value); !ok {
				return configErrorf("value constraint literal must be a string or numeric, got %T", cfg.Value)
			}
		}
	default:
		return configErrorf("operator %s is not valid for value constraints", cfg.Op)
	}
	return nil
}

// ValueConstraint evaluates one operator against a stream of raw scalar
// values, counting total evaluations and failures. Not safe for concurrent
// use: each instance has a single writer during the update phase.
type ValueConstraint struct {
	op       Operator
	value    any
	pattern  *regexp.Regexp
	src      string // pattern source, kept for naming and the wire form
	name     string
	verbose  bool
	log      *slog.Logger
	logLimit *rate.Limiter

	total    uint64
	failures uint64
}

func NewValueConstraint(cfg ValueConstraintConfig) (*ValueConstraint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &ValueConstraint{
		op:       cfg.Op,
		value:    cfg.Value,
		src:      cfg.Pattern,
		name:     cfg.Name,
		verbose:  cfg.Verbose,
		log:      cfg.Logger,
		logLimit: verboseLogLimit(),
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if cfg.Pattern != "" {
		re, err := regexp.Compile(cfg.Pattern)
		if err != nil {
			return nil, configErrorf("invalid regex pattern %q: %v", cfg.Pattern, err)
		}
		c.pattern = re
	}
	return c, nil
}

// Name returns the constraint's report name, auto-generated from the operator
// and operand when no explicit name was configured.
func (c *ValueConstraint) Name() string {
	if c.name != "" {
		return c.name
	}
	if c.pattern != nil {
		return fmt.Sprintf("value %s %s", c.op, c.src)
	}
	return fmt.Sprintf("value %s %v", c.op, c.value)
}

func (c *ValueConstraint) Op() Operator { return c.op }

// Update evaluates one streamed value. The total counter always advances by
// one; a false verdict advances failures. A non-string value under
// MATCH/NOMATCH counts as a failure rather than an error.
func (c *ValueConstraint) Update(v any) {
	c.total++
	metrics.ConstraintEvaluationsTotal.WithLabelValues("value").Inc()
	if c.evaluate(v) {
		return
	}
	c.failures++
	metrics.ConstraintFailuresTotal.WithLabelValues("value").Inc()
	if c.verbose && c.logLimit.Allow() {
		c.log.Info("value constraint failed", "name", c.Name(), "value", v)
	}
}

func (c *ValueConstraint) evaluate(v any) bool {
	switch c.op {
	case OpMatch, OpNoMatch:
		s, ok := v.(string)
		if !ok {
			return false
		}
		matched := c.pattern.MatchString(s)
		if c.op == OpMatch {
			return matched
		}
		return !matched
	case OpEQ:
		return equalValues(v, c.value)
	case OpNE:
		return !equalValues(v, c.value)
	case OpLT, OpLE, OpGE, OpGT:
		cmp, ok := compareValues(v, c.value)
		return ok && c.op.compareOrdered(cmp)
	default:
		return false
	}
}

// Merge combines this constraint with a same-shaped counterpart from another
// shard. Neither operand is mutated; the result carries summed counters. A
// nil other returns the receiver unchanged.
func (c *ValueConstraint) Merge(other *ValueConstraint) (*ValueConstraint, error) {
	if other == nil {
		return c, nil
	}
	if c.Name() != other.Name() {
		return nil, mergeErrorf("value constraints have different names: %q and %q", c.Name(), other.Name())
	}
	if c.op != other.op {
		return nil, mergeErrorf("value constraints %q have different operators: %s and %s", c.Name(), c.op, other.op)
	}
	if c.src != other.src {
		return nil, mergeErrorf("value constraints %q have different patterns: %q and %q", c.Name(), c.src, other.src)
	}
	if (c.value == nil) != (other.value == nil) || (c.value != nil && !equalValues(c.value, other.value)) {
		return nil, mergeErrorf("value constraints %q have different values: %v and %v", c.Name(), c.value, other.value)
	}

	merged := &ValueConstraint{
		op:       c.op,
		value:    c.value,
		pattern:  c.pattern,
		src:      c.src,
		name:     c.name,
		verbose:  c.verbose,
		log:      c.log,
		logLimit: verboseLogLimit(),
		total:    c.total + other.total,
		failures: c.failures + other.failures,
	}
	metrics.ConstraintMergesTotal.WithLabelValues("value", "ok").Inc()
	return merged, nil
}

// Report returns the constraint's verdict.
func (c *ValueConstraint) Report() ConstraintReport {
	return ConstraintReport{Name: c.Name(), Total: c.total, Failures: c.failures}
}
