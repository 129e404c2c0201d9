package omclient

import (
	"context"
	"strings"

	"github.com/spf13/cast"

	"github.com/berickus/redis-om-spring/searchquery"
)

// keyLoadField is the pseudo field carrying the record key in aggregation
// rows.
const keyLoadField = "__key"

// searchByExistence runs the existence-filter strategy for plans carrying
// null checks: the primary query syntax cannot express null tests, so the
// sentinel clauses become aggregation filter predicates over an aggregation
// that loads only record keys, and the matching records are then fetched
// back by key.
func (c *Client) searchByExistence(ctx context.Context, q *Query, params []any, st *execState) (*SearchResult, error) {
	offset, limit := c.paging(q.Plan(), st)
	keys, total, err := c.keysByExistence(ctx, q, params, offset, limit)
	if err != nil {
		return nil, err
	}
	records, err := c.backend.FetchAll(ctx, keys)
	if err != nil {
		return nil, err
	}
	res := &SearchResult{Total: total}
	for i, fields := range records {
		if len(fields) == 0 {
			// Key vanished between the aggregation and the fetch.
			continue
		}
		res.Docs = append(res.Docs, Document{ID: keys[i], Fields: fields})
	}
	return res, nil
}

// keysByExistence collects the record keys matching the plan's base query
// plus its existence filters.
func (c *Client) keysByExistence(ctx context.Context, q *Query, params []any, offset, limit int) ([]string, int64, error) {
	plan := q.Plan()
	compiled, err := searchquery.Compile(plan, params, true)
	if err != nil {
		return nil, 0, err
	}

	// Filter predicates can only reference loaded fields, so the null-tested
	// fields ride along with the key.
	load := []AggregateLoad{{Field: keyLoadField}}
	for _, nc := range plan.NullChecks() {
		load = append(load, AggregateLoad{Field: nc.Field})
	}
	ao := &AggregateOptions{
		Load:    load,
		Filter:  existenceFilter(plan.NullChecks()),
		Offset:  offset,
		Limit:   limit,
		Dialect: plan.Dialect(),
	}
	if prop, ok := plan.SortBy(); ok {
		ao.Sort = []SortField{{Field: q.Schema().Alias(prop), Desc: !plan.SortAscending()}}
	}
	c.debugf("omclient: existence filter %s: %s [%s]", q.Schema().IndexName(), compiled, ao.Filter)
	res, err := c.backend.Aggregate(ctx, q.Schema().IndexName(), compiled, ao)
	if err != nil {
		return nil, 0, err
	}

	keys := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if v, ok := row[keyLoadField]; ok {
			keys = append(keys, cast.ToString(v))
		}
	}
	return keys, res.Total, nil
}

// existenceFilter renders the null checks as one combined filter predicate.
// Fields indexed with missing-value tracking use the ismissing() form; all
// others fall back to the legacy exists() form.
func existenceFilter(checks []searchquery.NullCheck) string {
	parts := make([]string, 0, len(checks))
	for _, nc := range checks {
		parts = append(parts, filterFor(nc))
	}
	return strings.Join(parts, " && ")
}

func filterFor(nc searchquery.NullCheck) string {
	switch {
	case nc.NotNull && nc.IndexMissing:
		return "!ismissing(@" + nc.Field + ")"
	case nc.NotNull:
		return "exists(@" + nc.Field + ")"
	case nc.IndexMissing:
		return "ismissing(@" + nc.Field + ")"
	default:
		return "!exists(@" + nc.Field + ")"
	}
}
