package omclient

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/berickus/redis-om-spring/schema"
	"github.com/berickus/redis-om-spring/searchquery"
)

// RawAggregate executes an AGGREGATE plan and returns the backend rows
// undecoded.
func RawAggregate(ctx context.Context, c *Client, q *Query, params []any, opts ...ExecOption) (*AggregateResult, error) {
	st := newExecState(opts)
	return c.runAggregate(ctx, q, params, st)
}

// AggregateRows executes an AGGREGATE plan and returns every result row as
// a string map keyed by the loaded, grouped and computed field names.
func AggregateRows(ctx context.Context, c *Client, q *Query, params []any, opts ...ExecOption) ([]map[string]string, error) {
	res, err := RawAggregate(ctx, c, q, params, opts...)
	if err != nil {
		return nil, err
	}
	return stringRows(res.Rows), nil
}

// AggregatePage executes an AGGREGATE plan and returns one page of string
// rows along with the backend's total group count.
func AggregatePage(ctx context.Context, c *Client, q *Query, params []any, opts ...ExecOption) (*Page[map[string]string], error) {
	st := newExecState(opts)
	page := Pageable{Page: 0, Size: c.defaultLimit}
	if st.page != nil {
		page = *st.page
	}
	res, err := c.runAggregate(ctx, q, params, st)
	if err != nil {
		return nil, err
	}
	return &Page[map[string]string]{
		Content: stringRows(res.Rows),
		Total:   res.Total,
		Page:    page.Page,
		Size:    page.Size,
	}, nil
}

func (c *Client) runAggregate(ctx context.Context, q *Query, params []any, st *execState) (*AggregateResult, error) {
	plan := q.Plan()
	if plan.Kind() != searchquery.KindAggregate || plan.Agg() == nil {
		return nil, ErrKindMismatch
	}
	compiled, err := searchquery.Compile(plan, params, true)
	if err != nil {
		return nil, err
	}
	ao := c.aggregateOptions(q, st)
	c.debugf("omclient: aggregate %s: %s", q.Schema().IndexName(), compiled)
	return c.backend.Aggregate(ctx, q.Schema().IndexName(), compiled, ao)
}

// aggregateOptions translates the plan's aggregation specification into a
// backend request, resolving domain properties to index field keys.
func (c *Client) aggregateOptions(q *Query, st *execState) *AggregateOptions {
	spec := q.Plan().Agg()
	sch := q.Schema()

	ao := &AggregateOptions{
		Timeout:  spec.Timeout,
		Verbatim: spec.Verbatim,
		Filter:   strings.Join(spec.Filter, " && "),
		SortMax:  spec.SortByMax,
		Dialect:  q.Plan().Dialect(),
	}
	for _, l := range spec.Load {
		ao.Load = append(ao.Load, AggregateLoad{Field: sch.Alias(l.Property), As: l.Alias})
	}
	for _, g := range spec.GroupBy {
		group := AggregateGroup{}
		for _, prop := range g.Properties {
			group.Fields = append(group.Fields, sch.Alias(prop))
		}
		for _, r := range g.Reduce {
			group.Reducers = append(group.Reducers, AggregateReducer{
				Func: r.Func,
				Args: reducerArgs(sch, r),
				As:   r.Alias,
			})
		}
		ao.GroupBy = append(ao.GroupBy, group)
	}
	for _, a := range spec.Apply {
		ao.Apply = append(ao.Apply, AggregateApply{Expression: a.Expression, As: a.Alias})
	}

	if st.page != nil && len(st.page.Sort) > 0 {
		for _, s := range st.page.Sort {
			ao.Sort = append(ao.Sort, SortField{Field: sch.Alias(s.Property), Desc: !s.Ascending})
		}
	} else {
		for _, s := range spec.SortBy {
			ao.Sort = append(ao.Sort, SortField{Field: sch.Alias(s.Field), Desc: s.Descending})
		}
	}

	if st.page != nil {
		ao.Offset = st.page.Offset()
		ao.Limit = st.page.Size
	} else {
		if v, ok := q.Plan().StaticOffset(); ok {
			ao.Offset = v
		}
		if v, ok := q.Plan().StaticLimit(); ok {
			ao.Limit = v
		}
	}
	return ao
}

// reducerArgs resolves the reducer's field argument to an @-prefixed index
// field key; trailing arguments (percentiles, sample sizes) pass through.
func reducerArgs(sch *schema.Schema, r searchquery.Reducer) []string {
	if len(r.Args) == 0 {
		return nil
	}
	out := make([]string, len(r.Args))
	out[0] = "@" + sch.Alias(r.Args[0])
	copy(out[1:], r.Args[1:])
	return out
}

func stringRows(rows []map[string]any) []map[string]string {
	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		m := make(map[string]string, len(row))
		for k, v := range row {
			m[k] = toRowString(v)
		}
		out[i] = m
	}
	return out
}

// toRowString normalizes row values; RESP3 hands back numbers as float64,
// which cast would otherwise render in scientific notation.
func toRowString(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return cast.ToString(v)
}
