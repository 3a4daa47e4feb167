package constraints

import "fmt"

// Operator is the closed enumeration of comparison kinds a constraint can
// apply. Ordering operators assume a total order on the compared values,
// MATCH/NOMATCH operate on text against a compiled pattern, and the *_SET
// operators test approximate set relations between a stored reference set and
// a column's observed distinct values.
type Operator int

const (
	OpLT Operator = iota + 1
	OpLE
	OpEQ
	OpNE
	OpGE
	OpGT
	OpMatch
	OpNoMatch
	OpBetween
	OpInSet
	OpContainSet
	OpEqualSet
)

// String returns the wire code of the operator.
func (op Operator) String() string {
	switch op {
	case OpLT:
		return "LT"
	case OpLE:
		return "LE"
	case OpEQ:
		return "EQ"
	case OpNE:
		return "NE"
	case OpGE:
		return "GE"
	case OpGT:
		return "GT"
	case OpMatch:
		return "MATCH"
	case OpNoMatch:
		return "NOMATCH"
	case OpBetween:
		return "BETWEEN"
	case OpInSet:
		return "IN_SET"
	case OpContainSet:
		return "CONTAIN_SET"
	case OpEqualSet:
		return "EQ_SET"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(op))
	}
}

// ParseOperator maps a wire code back to an Operator. Unknown codes are a
// format error.
func ParseOperator(code string) (Operator, error) {
	switch code {
	case "LT":
		return OpLT, nil
	case "LE":
		return OpLE, nil
	case "EQ":
		return OpEQ, nil
	case "NE":
		return OpNE, nil
	case "GE":
		return OpGE, nil
	case "GT":
		return OpGT, nil
	case "MATCH":
		return OpMatch, nil
	case "NOMATCH":
		return OpNoMatch, nil
	case "BETWEEN":
		return OpBetween, nil
	case "IN_SET":
		return OpInSet, nil
	case "CONTAIN_SET":
		return OpContainSet, nil
	case "EQ_SET":
		return OpEqualSet, nil
	default:
		return 0, formatErrorf("unknown operator code %q", code)
	}
}

// ordered reports whether op is one of the six plain comparison operators.
func (op Operator) ordered() bool {
	return op >= OpLT && op <= OpGT
}

// patternMatch reports whether op operates on text against a pattern.
func (op Operator) patternMatch() bool {
	return op == OpMatch || op == OpNoMatch
}

// setRelation reports whether op tests an approximate set relation.
func (op Operator) setRelation() bool {
	return op == OpInSet || op == OpContainSet || op == OpEqualSet
}

// compareOrdered translates a three-way comparison result into the operator's
// verdict. Only meaningful for the six ordered operators.
func (op Operator) compareOrdered(cmp int) bool {
	switch op {
	case OpLT:
		return cmp < 0
	case OpLE:
		return cmp <= 0
	case OpEQ:
		return cmp == 0
	case OpNE:
		return cmp != 0
	case OpGE:
		return cmp >= 0
	case OpGT:
		return cmp > 0
	default:
		return false
	}
}
