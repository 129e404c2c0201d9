// Package omclient executes prepared query plans against a RediSearch
// backend and reshapes the raw results into typed application objects.
package omclient

import (
	"github.com/redis/go-redis/v9"

	"github.com/berickus/redis-om-spring/schema"
	"github.com/berickus/redis-om-spring/searchquery"
)

// DefaultLimit is the page size used when neither the caller nor the plan
// supplies one.
const DefaultLimit = 10000

// Client dispatches query plans to a search backend. It is safe for
// concurrent use; all per-invocation state lives on the call stack.
type Client struct {
	backend      Backend
	logger       Logger
	defaultLimit int
}

// New constructs a Client over an existing backend.
func New(backend Backend, opts ...Option) (*Client, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	c := &Client{backend: backend, defaultLimit: DefaultLimit}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewWithRedis constructs a Client directly over a go-redis connection.
func NewWithRedis(rdb redis.UniversalClient, opts ...Option) (*Client, error) {
	if rdb == nil {
		return nil, ErrNilBackend
	}
	return New(NewRedisBackend(rdb), opts...)
}

func (c *Client) debugf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}

// Query pairs an immutable plan with the schema of its domain type. Like
// the plan, it is built once and read concurrently afterwards.
type Query struct {
	plan   *searchquery.Plan
	schema *schema.Schema
}

// NewQuery binds a plan to the schema it resolves fields against.
func NewQuery(plan *searchquery.Plan, sch *schema.Schema) (*Query, error) {
	if plan == nil {
		return nil, ErrNilPlan
	}
	if sch == nil {
		return nil, ErrNilSchema
	}
	return &Query{plan: plan, schema: sch}, nil
}

// Plan exposes the underlying query plan.
func (q *Query) Plan() *searchquery.Plan { return q.plan }

// Schema exposes the domain schema the query resolves against.
func (q *Query) Schema() *schema.Schema { return q.schema }

// SortOrder is one pagination sort criterion, expressed on domain
// properties and translated through the schema at execution time.
type SortOrder struct {
	Property  string
	Ascending bool
}

// Pageable is an explicit paging request. It takes precedence over the
// plan's static offset and limit.
type Pageable struct {
	Page int
	Size int
	Sort []SortOrder
}

// Offset is the absolute row offset of the page.
func (p Pageable) Offset() int { return p.Page * p.Size }

// Page is one page of results together with the backend's total match
// count.
type Page[T any] struct {
	Content []T
	Total   int64
	Page    int
	Size    int
}
