package omclient

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"

	"github.com/berickus/redis-om-spring/searchquery"
)

// redisBackend adapts a go-redis client to the Backend contract.
type redisBackend struct {
	rdb redis.UniversalClient
}

// NewRedisBackend wraps a go-redis client as a search Backend.
func NewRedisBackend(rdb redis.UniversalClient) Backend {
	return &redisBackend{rdb: rdb}
}

func (b *redisBackend) Search(ctx context.Context, index, query string, opts *SearchOptions) (*SearchResult, error) {
	ro := &redis.FTSearchOptions{
		LimitOffset:    opts.Offset,
		Limit:          opts.Limit,
		DialectVersion: opts.Dialect,
		Language:       opts.Language,
	}
	for _, r := range opts.Return {
		ro.Return = append(ro.Return, redis.FTSearchReturn{FieldName: r.Field, As: r.As})
	}
	for _, s := range opts.Sort {
		ro.SortBy = append(ro.SortBy, redis.FTSearchSortBy{FieldName: s.Field, Asc: !s.Desc, Desc: s.Desc})
	}

	res, err := b.rdb.FTSearchWithArgs(ctx, index, query, ro).Result()
	if err != nil {
		return nil, err
	}
	out := &SearchResult{Total: int64(res.Total)}
	for _, doc := range res.Docs {
		out.Docs = append(out.Docs, Document{ID: doc.ID, Fields: doc.Fields})
	}
	return out, nil
}

func (b *redisBackend) Aggregate(ctx context.Context, index, query string, opts *AggregateOptions) (*AggregateResult, error) {
	ao := &redis.FTAggregateOptions{
		Verbatim:       opts.Verbatim,
		Filter:         opts.Filter,
		LimitOffset:    opts.Offset,
		Limit:          opts.Limit,
		SortByMax:      opts.SortMax,
		DialectVersion: opts.Dialect,
	}
	if opts.Timeout > 0 {
		ao.Timeout = int(opts.Timeout.Milliseconds())
	}
	for _, l := range opts.Load {
		ao.Load = append(ao.Load, redis.FTAggregateLoad{Field: atPrefixed(l.Field), As: l.As})
	}
	for _, g := range opts.GroupBy {
		gb := redis.FTAggregateGroupBy{}
		for _, f := range g.Fields {
			gb.Fields = append(gb.Fields, atPrefixed(f))
		}
		for _, r := range g.Reducers {
			reducer := redis.FTAggregateReducer{Reducer: aggregatorFor(r.Func), As: r.As}
			for _, arg := range r.Args {
				reducer.Args = append(reducer.Args, arg)
			}
			gb.Reduce = append(gb.Reduce, reducer)
		}
		ao.GroupBy = append(ao.GroupBy, gb)
	}
	for _, s := range opts.Sort {
		ao.SortBy = append(ao.SortBy, redis.FTAggregateSortBy{FieldName: atPrefixed(s.Field), Asc: !s.Desc, Desc: s.Desc})
	}
	for _, a := range opts.Apply {
		ao.Apply = append(ao.Apply, redis.FTAggregateApply{Field: a.Expression, As: a.As})
	}

	res, err := b.rdb.FTAggregateWithArgs(ctx, index, query, ao).Result()
	if err != nil {
		return nil, err
	}
	out := &AggregateResult{Total: int64(res.Total)}
	for _, row := range res.Rows {
		out.Rows = append(out.Rows, row.Fields)
	}
	return out, nil
}

func (b *redisBackend) TagVals(ctx context.Context, index, field string) ([]string, error) {
	return b.rdb.FTTagVals(ctx, index, field).Result()
}

// Suggest issues FT.SUGGET; go-redis has no typed wrapper for the
// suggestion commands.
func (b *redisBackend) Suggest(ctx context.Context, key, prefix string, fuzzy bool, max int) ([]string, error) {
	args := []any{"FT.SUGGET", key, prefix}
	if fuzzy {
		args = append(args, "FUZZY")
	}
	if max > 0 {
		args = append(args, "MAX", max)
	}
	raw, err := b.rdb.Do(ctx, args...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, cast.ToString(item))
	}
	return out, nil
}

func (b *redisBackend) FetchAll(ctx context.Context, keys []string) ([]map[string]string, error) {
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	pipe := b.rdb.Pipeline()
	for i, key := range keys {
		cmds[i] = pipe.HGetAll(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	out := make([]map[string]string, len(keys))
	for i, cmd := range cmds {
		out[i] = cmd.Val()
	}
	return out, nil
}

func (b *redisBackend) Delete(ctx context.Context, keys ...string) (int64, error) {
	return b.rdb.Del(ctx, keys...).Result()
}

func atPrefixed(field string) string {
	if strings.HasPrefix(field, "@") {
		return field
	}
	return "@" + field
}

func aggregatorFor(f searchquery.ReducerFunc) redis.SearchAggregator {
	switch f {
	case searchquery.Count:
		return redis.SearchCount
	case searchquery.CountDistinct:
		return redis.SearchCountDistinct
	case searchquery.CountDistinctish:
		return redis.SearchCountDistinctish
	case searchquery.Sum:
		return redis.SearchSum
	case searchquery.Min:
		return redis.SearchMin
	case searchquery.Max:
		return redis.SearchMax
	case searchquery.Avg:
		return redis.SearchAvg
	case searchquery.StdDev:
		return redis.SearchStdDev
	case searchquery.Quantile:
		return redis.SearchQuantile
	case searchquery.ToList:
		return redis.SearchToList
	case searchquery.FirstValue:
		return redis.SearchFirstValue
	case searchquery.RandomSample:
		return redis.SearchRandomSample
	default:
		return redis.SearchInvalid
	}
}
