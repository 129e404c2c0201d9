package searchquery

import (
	"fmt"
	"strconv"
	"time"
)

// ReducerFunc enumerates the supported aggregation reducer operations.
type ReducerFunc int

const (
	Count ReducerFunc = iota + 1
	CountDistinct
	CountDistinctish
	Sum
	Min
	Max
	Avg
	StdDev
	Quantile
	ToList
	FirstValue
	RandomSample
)

func (f ReducerFunc) String() string {
	switch f {
	case Count:
		return "COUNT"
	case CountDistinct:
		return "COUNT_DISTINCT"
	case CountDistinctish:
		return "COUNT_DISTINCTISH"
	case Sum:
		return "SUM"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Avg:
		return "AVG"
	case StdDev:
		return "STDDEV"
	case Quantile:
		return "QUANTILE"
	case ToList:
		return "TOLIST"
	case FirstValue:
		return "FIRST_VALUE"
	case RandomSample:
		return "RANDOM_SAMPLE"
	default:
		return "UNKNOWN"
	}
}

// Reducer is one reducer operation inside a group-by stage.
type Reducer struct {
	Func  ReducerFunc
	Args  []string
	Alias string
}

// Load names a field loaded into the aggregation pipeline.
type Load struct {
	Property string
	Alias    string
}

// Apply is a computed-field expression.
type Apply struct {
	Expression string
	Alias      string
}

// Group is a group-by stage: grouping properties plus its reducers.
type Group struct {
	Properties []string
	Reduce     []Reducer
}

// SortedField is one aggregation sort criterion.
type SortedField struct {
	Field      string
	Descending bool
}

// Aggregation is the structured specification an AGGREGATE plan is built
// from. Zero values mean "unset" for Limit, Offset, SortByMax and Timeout.
type Aggregation struct {
	Query string
	// ParamNames are the ordered names matched against $placeholders in
	// Query at execution time.
	ParamNames []string
	Load       []Load
	Apply      []Apply
	GroupBy    []Group
	Filter     []string
	SortBy     []SortedField
	SortByMax  int
	Timeout    time.Duration
	Verbatim   bool
	Offset     int
	Limit      int
}

// PlanFromAggregation validates the specification and wraps it in an
// immutable AGGREGATE plan. Malformed reducer argument lists are a
// configuration defect and fail here rather than at invocation time.
func PlanFromAggregation(spec Aggregation, opts ...BuildOption) (*Plan, error) {
	cfg := buildConfig{logger: nopLogger{}, dialect: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	for _, g := range spec.GroupBy {
		for _, r := range g.Reduce {
			if err := validateReducer(r); err != nil {
				return nil, err
			}
		}
	}

	p := newPlan(KindAggregate)
	p.dialect = cfg.dialect
	p.template = spec.Query
	p.paramNames = spec.ParamNames
	if spec.Offset > 0 {
		p.offset = spec.Offset
	}
	if spec.Limit > 0 {
		p.limit = spec.Limit
	}
	p.agg = &spec
	return p, nil
}

func validateReducer(r Reducer) error {
	switch r.Func {
	case Count:
		return nil
	case CountDistinct, CountDistinctish, Sum, Min, Max, Avg, StdDev, ToList:
		if len(r.Args) < 1 {
			return fmt.Errorf("searchquery: %s reducer requires a field argument", r.Func)
		}
	case Quantile:
		if len(r.Args) < 2 {
			return fmt.Errorf("searchquery: QUANTILE reducer requires a field and a percentile argument")
		}
		if _, err := strconv.ParseFloat(r.Args[1], 64); err != nil {
			return fmt.Errorf("searchquery: QUANTILE percentile %q is not a number", r.Args[1])
		}
	case RandomSample:
		if len(r.Args) < 2 {
			return fmt.Errorf("searchquery: RANDOM_SAMPLE reducer requires a field and a sample size argument")
		}
		if _, err := strconv.Atoi(r.Args[1]); err != nil {
			return fmt.Errorf("searchquery: RANDOM_SAMPLE size %q is not an integer", r.Args[1])
		}
	case FirstValue:
		if len(r.Args) < 1 {
			return fmt.Errorf("searchquery: FIRST_VALUE reducer requires a field argument")
		}
	default:
		return fmt.Errorf("searchquery: unknown reducer function %d", r.Func)
	}
	return nil
}
