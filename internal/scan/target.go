package scan

import "math"

// TargetOp compares a round's payout multiple against the request target.
type TargetOp string

const (
	OpEqual        TargetOp = "eq"
	OpGreater      TargetOp = "gt"
	OpGreaterEqual TargetOp = "ge"
	OpLess         TargetOp = "lt"
	OpLessEqual    TargetOp = "le"
	OpBetween      TargetOp = "between"
	OpOutside      TargetOp = "outside"
)

// Valid reports whether op is a known operation.
func (op TargetOp) Valid() bool {
	_, ok := predicates[op]
	return ok
}

// predicates take the metric, both bounds and the tolerance.
var predicates = map[TargetOp]func(m, lo, hi, tol float64) bool{
	OpEqual:        func(m, lo, _, tol float64) bool { return math.Abs(m-lo) <= tol },
	OpGreater:      func(m, lo, _, tol float64) bool { return m > lo+tol },
	OpGreaterEqual: func(m, lo, _, tol float64) bool { return m >= lo-tol },
	OpLess:         func(m, lo, _, tol float64) bool { return m < lo-tol },
	OpLessEqual:    func(m, lo, _, tol float64) bool { return m <= lo+tol },
	OpBetween:      func(m, lo, hi, tol float64) bool { return m >= lo-tol && m <= hi+tol },
	OpOutside:      func(m, lo, hi, tol float64) bool { return m < lo-tol || m > hi+tol },
}

// TargetEvaluator is a compiled hit filter. An unknown op never matches.
type TargetEvaluator struct {
	match  func(m, lo, hi, tol float64) bool
	lo, hi float64
	tol    float64
}

func NewTargetEvaluator(op TargetOp, val1, val2, tolerance float64) *TargetEvaluator {
	return &TargetEvaluator{match: predicates[op], lo: val1, hi: val2, tol: tolerance}
}

// Matches reports whether metric satisfies the target.
func (te *TargetEvaluator) Matches(metric float64) bool {
	if te.match == nil {
		return false
	}
	return te.match(metric, te.lo, te.hi, te.tol)
}
