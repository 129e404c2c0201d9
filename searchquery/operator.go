// Package searchquery turns declarative query intents into RediSearch query
// and aggregation syntax. A Plan is built once per query method and is
// immutable afterwards; compilation binds runtime parameter values against
// the already-built plan.
package searchquery

// Operator identifies a comparison in a query intent.
type Operator int

const (
	// OpAll matches every document.
	OpAll Operator = iota + 1
	OpEquals
	OpNotEquals
	OpGreaterThan
	OpGreaterThanEqual
	OpLessThan
	OpLessThanEqual
	OpBetween
	OpIn
	OpContaining
	// OpContainingAll flips collection comparison from any-element-matches
	// to all-elements-match semantics.
	OpContainingAll
	OpStartingWith
	OpEndingWith
	OpLike
	OpNear
	// OpIsNull and OpIsNotNull select sentinel clauses that never render
	// into the primary query string; they gate the existence-filter
	// execution path instead.
	OpIsNull
	OpIsNotNull
)

func (op Operator) String() string {
	switch op {
	case OpAll:
		return "All"
	case OpEquals:
		return "Equals"
	case OpNotEquals:
		return "NotEquals"
	case OpGreaterThan:
		return "GreaterThan"
	case OpGreaterThanEqual:
		return "GreaterThanEqual"
	case OpLessThan:
		return "LessThan"
	case OpLessThanEqual:
		return "LessThanEqual"
	case OpBetween:
		return "Between"
	case OpIn:
		return "In"
	case OpContaining:
		return "Containing"
	case OpContainingAll:
		return "ContainingAll"
	case OpStartingWith:
		return "StartingWith"
	case OpEndingWith:
		return "EndingWith"
	case OpLike:
		return "Like"
	case OpNear:
		return "Near"
	case OpIsNull:
		return "IsNull"
	case OpIsNotNull:
		return "IsNotNull"
	default:
		return "Unknown"
	}
}

// Logger is the minimal logging interface used while building plans.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Errorf(string, ...any) {}
