package compiler

// Query is a compiled descriptor. It holds no per-record state and is safe
// for concurrent use.
type Query struct {
	eval     evalFunc
	plan     *Plan
	strategy string
}

// Match reports whether record matches the query. Missing fields and values
// of unexpected types make the affected tests false; Match never panics on
// record shape.
func (q *Query) Match(record interface{}) bool {
	return q.eval(record, true)
}

// Predicate returns Match as a Predicate.
func (q *Query) Predicate() Predicate {
	return q.Match
}

// Plan returns the evaluation plan. Callers must not modify it.
func (q *Query) Plan() *Plan {
	return q.plan
}

// Strategy names the ordering strategy the query was compiled with:
// "cost" or "declaration".
func (q *Query) Strategy() string {
	return q.strategy
}
