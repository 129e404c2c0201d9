package omclient

import (
	"context"
	"reflect"

	"github.com/berickus/redis-om-spring/document"
	"github.com/berickus/redis-om-spring/schema"
	"github.com/berickus/redis-om-spring/searchquery"
)

// FindOne executes a SEARCH plan and decodes the first hit into T. A nil
// result with a nil error means nothing matched.
func FindOne[T any](ctx context.Context, c *Client, q *Query, params []any, opts ...ExecOption) (*T, error) {
	st := newExecState(opts)
	if st.page == nil {
		st.page = &Pageable{Page: 0, Size: 1}
	}
	res, err := c.runSearch(ctx, q, params, st, typeOf[T]())
	if err != nil {
		return nil, err
	}
	if len(res.Docs) == 0 {
		return nil, nil
	}
	items, err := decodeDocs[T](res.Docs[:1])
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// FindAll executes a SEARCH plan and decodes every hit into T. An empty
// collection parameter short-circuits to an empty slice without touching the
// backend, since an empty membership test can never match.
func FindAll[T any](ctx context.Context, c *Client, q *Query, params []any, opts ...ExecOption) ([]T, error) {
	if hasEmptyCollectionParam(params) {
		return []T{}, nil
	}
	st := newExecState(opts)
	res, err := c.runSearch(ctx, q, params, st, typeOf[T]())
	if err != nil {
		return nil, err
	}
	return decodeDocs[T](res.Docs)
}

// FindPage executes a SEARCH plan and returns one page of decoded hits along
// with the backend's total match count. Empty collection parameters
// short-circuit the same way FindAll does.
func FindPage[T any](ctx context.Context, c *Client, q *Query, params []any, opts ...ExecOption) (*Page[T], error) {
	st := newExecState(opts)
	page := Pageable{Page: 0, Size: c.defaultLimit}
	if st.page != nil {
		page = *st.page
	}
	if hasEmptyCollectionParam(params) {
		return &Page[T]{Content: []T{}, Page: page.Page, Size: page.Size}, nil
	}
	res, err := c.runSearch(ctx, q, params, st, typeOf[T]())
	if err != nil {
		return nil, err
	}
	items, err := decodeDocs[T](res.Docs)
	if err != nil {
		return nil, err
	}
	return &Page[T]{Content: items, Total: res.Total, Page: page.Page, Size: page.Size}, nil
}

// RawSearch executes a SEARCH plan and returns the backend rows undecoded.
func RawSearch(ctx context.Context, c *Client, q *Query, params []any, opts ...ExecOption) (*SearchResult, error) {
	st := newExecState(opts)
	return c.runSearch(ctx, q, params, st, nil)
}

// runSearch is the shared execution path behind every search-shaped entry
// point. Plans carrying sentinel null checks detour through the
// existence-filter aggregation strategy; everything else compiles to a
// direct search call.
func (c *Client) runSearch(ctx context.Context, q *Query, params []any, st *execState, resultType reflect.Type) (*SearchResult, error) {
	plan := q.Plan()
	if plan.Kind() != searchquery.KindSearch {
		return nil, ErrKindMismatch
	}
	if plan.HasNullCheck() {
		return c.searchByExistence(ctx, q, params, st)
	}

	compiled, err := searchquery.Compile(plan, params, true)
	if err != nil {
		return nil, err
	}

	offset, limit := c.paging(plan, st)
	so := &SearchOptions{
		Return:   c.projection(q, resultType),
		Sort:     sortFields(q, st),
		Offset:   offset,
		Limit:    limit,
		Language: st.language,
		Dialect:  plan.Dialect(),
	}
	c.debugf("omclient: search %s: %s", q.Schema().IndexName(), compiled)
	return c.backend.Search(ctx, q.Schema().IndexName(), compiled, so)
}

func newExecState(opts []ExecOption) *execState {
	st := &execState{}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// paging resolves the effective offset and limit: an explicit Pageable wins,
// then the plan's static values, then the client default limit.
func (c *Client) paging(plan *searchquery.Plan, st *execState) (int, int) {
	if st.page != nil {
		return st.page.Offset(), st.page.Size
	}
	offset := 0
	if v, ok := plan.StaticOffset(); ok {
		offset = v
	}
	limit := c.defaultLimit
	if v, ok := plan.StaticLimit(); ok {
		limit = v
	}
	return offset, limit
}

// sortFields resolves the effective sort: pagination sort criteria override
// the plan's static sort. Properties translate to index field keys through
// the schema.
func sortFields(q *Query, st *execState) []SortField {
	if st.page != nil && len(st.page.Sort) > 0 {
		out := make([]SortField, len(st.page.Sort))
		for i, s := range st.page.Sort {
			out[i] = SortField{Field: q.Schema().Alias(s.Property), Desc: !s.Ascending}
		}
		return out
	}
	if prop, ok := q.Plan().SortBy(); ok {
		return []SortField{{Field: q.Schema().Alias(prop), Desc: !q.Plan().SortAscending()}}
	}
	return nil
}

// projection decides the RETURN field list. When the result type's tagged
// fields all resolve in the schema and cover only part of it, the projection
// closes over exactly those fields; otherwise the plan's static field list
// applies, and an empty list returns the whole record.
func (c *Client) projection(q *Query, resultType reflect.Type) []ReturnField {
	if resultType != nil {
		if names, ok := document.FieldNames(resultType); ok {
			fields := make([]ReturnField, 0, len(names))
			resolved := true
			for _, name := range names {
				b, ok := q.Schema().Resolve(name)
				if !ok {
					resolved = false
					break
				}
				rf := ReturnField{Field: b.Key}
				if b.Key != name {
					rf.As = name
				}
				fields = append(fields, rf)
			}
			if resolved && len(names) < indexedFieldCount(q.Schema()) {
				return fields
			}
		}
	}

	static := q.Plan().ReturnFields()
	fields := make([]ReturnField, 0, len(static))
	for _, prop := range static {
		key := q.Schema().Alias(prop)
		rf := ReturnField{Field: key}
		if key != prop {
			rf.As = prop
		}
		fields = append(fields, rf)
	}
	return fields
}

// indexedFieldCount counts the schema fields a projection could cover; the
// key field travels in the record key, not the hash.
func indexedFieldCount(sch *schema.Schema) int {
	n := 0
	for _, f := range sch.Fields() {
		if !f.IsKey {
			n++
		}
	}
	return n
}

// hasEmptyCollectionParam reports whether any bound parameter is an empty
// collection.
func hasEmptyCollectionParam(params []any) bool {
	for _, p := range params {
		if searchquery.IsEmptyCollection(p) {
			return true
		}
	}
	return false
}

func decodeDocs[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var item T
		if err := document.Decode(d.Fields, &item); err != nil {
			return nil, err
		}
		document.AttachKey(&item, d.ID)
		out = append(out, item)
	}
	return out, nil
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
