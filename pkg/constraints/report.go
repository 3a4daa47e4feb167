package constraints

// ConstraintReport is the externally visible verdict of one constraint: how
// many times it was evaluated and how many evaluations failed.
type ConstraintReport struct {
	Name     string
	Total    uint64
	Failures uint64
}

// ColumnReport groups the reports of one column's constraint collection.
type ColumnReport struct {
	Column      string
	Constraints []ConstraintReport
}
