package omclient

import (
	"context"
	"time"

	"github.com/berickus/redis-om-spring/searchquery"
)

// Document is one raw row returned by the search backend: the Redis key
// plus the requested hash fields.
type Document struct {
	ID     string
	Fields map[string]string
}

// SearchResult is the raw shape of a search call.
type SearchResult struct {
	Total int64
	Docs  []Document
}

// ReturnField requests a projected field, optionally under an alias.
type ReturnField struct {
	Field string
	As    string
}

// SortField is one sort criterion.
type SortField struct {
	Field string
	Desc  bool
}

// SearchOptions carries the per-call knobs of a search request.
type SearchOptions struct {
	Return   []ReturnField
	Sort     []SortField
	Offset   int
	Limit    int
	Language string
	Dialect  int
}

// AggregateLoad names a field loaded into the aggregation pipeline.
type AggregateLoad struct {
	Field string
	As    string
}

// AggregateGroup is one group-by stage.
type AggregateGroup struct {
	Fields   []string
	Reducers []AggregateReducer
}

// AggregateReducer is one reducer operation of a group-by stage.
type AggregateReducer struct {
	Func searchquery.ReducerFunc
	Args []string
	As   string
}

// AggregateApply is a computed-field expression.
type AggregateApply struct {
	Expression string
	As         string
}

// AggregateOptions carries the pipeline stages of an aggregation request,
// applied in the declared order.
type AggregateOptions struct {
	Timeout  time.Duration
	Verbatim bool
	Load     []AggregateLoad
	GroupBy  []AggregateGroup
	Filter   string
	Sort     []SortField
	SortMax  int
	Apply    []AggregateApply
	Offset   int
	Limit    int
	Dialect  int
}

// AggregateResult is the raw shape of an aggregation call.
type AggregateResult struct {
	Total int64
	Rows  []map[string]any
}

// Backend is the indexed search engine plus the key-value operations the
// dispatcher needs. Calls are synchronous request/response round trips;
// errors propagate to the caller unretried.
type Backend interface {
	Search(ctx context.Context, index, query string, opts *SearchOptions) (*SearchResult, error)
	Aggregate(ctx context.Context, index, query string, opts *AggregateOptions) (*AggregateResult, error)
	TagVals(ctx context.Context, index, field string) ([]string, error)
	Suggest(ctx context.Context, key, prefix string, fuzzy bool, max int) ([]string, error)
	// FetchAll resolves full raw records for all keys in a single
	// pipelined round trip.
	FetchAll(ctx context.Context, keys []string) ([]map[string]string, error)
	// Delete removes the keys and returns the number actually deleted.
	Delete(ctx context.Context, keys ...string) (int64, error)
}
