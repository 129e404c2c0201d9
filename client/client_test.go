package omclient_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	omclient "github.com/berickus/redis-om-spring/client"
	"github.com/berickus/redis-om-spring/schema"
	"github.com/berickus/redis-om-spring/searchquery"
)

type person struct {
	ID     string   `search:",key"`
	Name   string   `search:"name,text"`
	Status string   `search:",tag"`
	Age    int      `search:",indexed"`
	Email  string   `search:",tag,missing"`
	Tags   []string `search:",tag"`
}

type nameOnly struct {
	Name string `search:"name,text"`
}

type searchCall struct {
	index string
	query string
	opts  omclient.SearchOptions
}

type aggregateCall struct {
	index string
	query string
	opts  omclient.AggregateOptions
}

// fakeBackend records every call in arrival order so tests can assert both
// arguments and sequencing.
type fakeBackend struct {
	ops []string

	searches   []searchCall
	aggregates []aggregateCall
	fetched    [][]string
	deleted    [][]string
	tagField   string

	searchRes    *omclient.SearchResult
	aggregateRes *omclient.AggregateResult
	records      map[string]map[string]string
	tagValsRes   []string
	suggestRes   []string
}

func (f *fakeBackend) Search(_ context.Context, index, query string, opts *omclient.SearchOptions) (*omclient.SearchResult, error) {
	f.ops = append(f.ops, "search")
	f.searches = append(f.searches, searchCall{index: index, query: query, opts: *opts})
	if f.searchRes != nil {
		return f.searchRes, nil
	}
	return &omclient.SearchResult{}, nil
}

func (f *fakeBackend) Aggregate(_ context.Context, index, query string, opts *omclient.AggregateOptions) (*omclient.AggregateResult, error) {
	f.ops = append(f.ops, "aggregate")
	f.aggregates = append(f.aggregates, aggregateCall{index: index, query: query, opts: *opts})
	if f.aggregateRes != nil {
		return f.aggregateRes, nil
	}
	return &omclient.AggregateResult{}, nil
}

func (f *fakeBackend) TagVals(_ context.Context, _, field string) ([]string, error) {
	f.ops = append(f.ops, "tagvals")
	f.tagField = field
	return f.tagValsRes, nil
}

func (f *fakeBackend) Suggest(_ context.Context, _, _ string, _ bool, _ int) ([]string, error) {
	f.ops = append(f.ops, "suggest")
	return f.suggestRes, nil
}

func (f *fakeBackend) FetchAll(_ context.Context, keys []string) ([]map[string]string, error) {
	f.ops = append(f.ops, "fetch")
	f.fetched = append(f.fetched, keys)
	out := make([]map[string]string, len(keys))
	for i, key := range keys {
		out[i] = f.records[key]
	}
	return out, nil
}

func (f *fakeBackend) Delete(_ context.Context, keys ...string) (int64, error) {
	f.ops = append(f.ops, "delete")
	f.deleted = append(f.deleted, keys)
	return int64(len(keys)), nil
}

func newTestClient(t *testing.T, backend omclient.Backend) *omclient.Client {
	t.Helper()
	c, err := omclient.New(backend)
	require.NoError(t, err)
	return c
}

func personQuery(t *testing.T, method string, tree searchquery.Tree) *omclient.Query {
	t.Helper()
	sch, err := schema.FromStruct(person{}, "idx:person")
	require.NoError(t, err)
	plan, err := searchquery.PlanFromMethod(method, tree, sch)
	require.NoError(t, err)
	q, err := omclient.NewQuery(plan, sch)
	require.NoError(t, err)
	return q
}

func statusTree() searchquery.Tree {
	return searchquery.Tree{Or: [][]searchquery.Condition{{
		{Property: "status", Op: searchquery.OpEquals},
	}}}
}

func TestFindPage(t *testing.T) {
	backend := &fakeBackend{
		searchRes: &omclient.SearchResult{
			Total: 3,
			Docs: []omclient.Document{
				{ID: "person:1", Fields: map[string]string{"name": "Ada", "status": "active"}},
				{ID: "person:2", Fields: map[string]string{"name": "Grace", "status": "active"}},
			},
		},
	}
	c := newTestClient(t, backend)
	q := personQuery(t, "findByStatus", statusTree())

	page, err := omclient.FindPage[person](context.Background(), c, q, []any{"active"},
		omclient.WithPageable(omclient.Pageable{Page: 1, Size: 2}))
	require.NoError(t, err)

	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "Ada", page.Content[0].Name)
	assert.Equal(t, "person:1", page.Content[0].ID)

	require.Len(t, backend.searches, 1)
	call := backend.searches[0]
	assert.Equal(t, "idx:person", call.index)
	assert.Equal(t, "@status:{active}", call.query)
	assert.Equal(t, 2, call.opts.Offset)
	assert.Equal(t, 2, call.opts.Limit)
}

func TestFindAllEmptyCollectionShortCircuits(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestClient(t, backend)
	q := personQuery(t, "findByTagsContaining", searchquery.Tree{Or: [][]searchquery.Condition{{
		{Property: "tags", Op: searchquery.OpContaining},
	}}})

	got, err := omclient.FindAll[person](context.Background(), c, q, []any{[]string{}})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, backend.ops, "backend must not be called for an empty membership test")
}

func TestFindOne(t *testing.T) {
	backend := &fakeBackend{
		searchRes: &omclient.SearchResult{
			Total: 1,
			Docs:  []omclient.Document{{ID: "person:7", Fields: map[string]string{"name": "Ada"}}},
		},
	}
	c := newTestClient(t, backend)
	q := personQuery(t, "findByStatus", statusTree())

	got, err := omclient.FindOne[person](context.Background(), c, q, []any{"active"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "person:7", got.ID)

	require.Len(t, backend.searches, 1)
	assert.Equal(t, 1, backend.searches[0].opts.Limit)
}

func TestFindOneNoMatch(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestClient(t, backend)
	q := personQuery(t, "findByStatus", statusTree())

	got, err := omclient.FindOne[person](context.Background(), c, q, []any{"gone"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSortPrecedence(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestClient(t, backend)
	tree := statusTree()
	tree.Sort = []searchquery.Sort{{Property: "age", Ascending: true}}
	q := personQuery(t, "findByStatusOrderByAge", tree)

	// The plan's static sort applies by default.
	_, err := omclient.FindAll[person](context.Background(), c, q, []any{"active"})
	require.NoError(t, err)
	require.Len(t, backend.searches, 1)
	assert.Equal(t, []omclient.SortField{{Field: "age"}}, backend.searches[0].opts.Sort)

	// Pagination sort criteria override it.
	_, err = omclient.FindAll[person](context.Background(), c, q, []any{"active"},
		omclient.WithPageable(omclient.Pageable{Size: 10, Sort: []omclient.SortOrder{{Property: "name"}}}))
	require.NoError(t, err)
	require.Len(t, backend.searches, 2)
	assert.Equal(t, []omclient.SortField{{Field: "name", Desc: true}}, backend.searches[1].opts.Sort)
}

func TestClosedProjection(t *testing.T) {
	backend := &fakeBackend{
		searchRes: &omclient.SearchResult{
			Total: 1,
			Docs:  []omclient.Document{{ID: "person:1", Fields: map[string]string{"name": "Ada"}}},
		},
	}
	c := newTestClient(t, backend)
	q := personQuery(t, "findByStatus", statusTree())

	got, err := omclient.FindAll[nameOnly](context.Background(), c, q, []any{"active"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ada", got[0].Name)

	require.Len(t, backend.searches, 1)
	assert.Equal(t, []omclient.ReturnField{{Field: "name"}}, backend.searches[0].opts.Return)
}

func TestOpenProjectionForFullType(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestClient(t, backend)
	q := personQuery(t, "findByStatus", statusTree())

	_, err := omclient.FindAll[person](context.Background(), c, q, []any{"active"})
	require.NoError(t, err)
	require.Len(t, backend.searches, 1)
	assert.Empty(t, backend.searches[0].opts.Return, "full domain type must fetch the whole record")
}

func TestNullCheckRoutesThroughExistenceFilter(t *testing.T) {
	backend := &fakeBackend{
		aggregateRes: &omclient.AggregateResult{
			Total: 1,
			Rows:  []map[string]any{{"__key": "person:1"}},
		},
		records: map[string]map[string]string{
			"person:1": {"name": "Ada", "email": "ada@lovelace.dev"},
		},
	}
	c := newTestClient(t, backend)
	q := personQuery(t, "findByEmailIsNotNull", searchquery.Tree{Or: [][]searchquery.Condition{{
		{Property: "email", Op: searchquery.OpIsNotNull},
	}}})

	got, err := omclient.FindAll[person](context.Background(), c, q, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ada@lovelace.dev", got[0].Email)
	assert.Equal(t, "person:1", got[0].ID)

	require.Len(t, backend.aggregates, 1)
	call := backend.aggregates[0]
	assert.Equal(t, "*", call.query)
	// email is indexed with missing-value tracking.
	assert.Equal(t, "!ismissing(@email)", call.opts.Filter)
	require.Len(t, call.opts.Load, 2)
	assert.Equal(t, "__key", call.opts.Load[0].Field)
	assert.Equal(t, "email", call.opts.Load[1].Field)
	assert.Equal(t, []string{"aggregate", "fetch"}, backend.ops)
}

func TestNullCheckLegacyExistsForm(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestClient(t, backend)
	q := personQuery(t, "findByNameIsNull", searchquery.Tree{Or: [][]searchquery.Condition{{
		{Property: "name", Op: searchquery.OpIsNull},
	}}})

	_, err := omclient.FindAll[person](context.Background(), c, q, nil)
	require.NoError(t, err)
	require.Len(t, backend.aggregates, 1)
	assert.Equal(t, "!exists(@name)", backend.aggregates[0].opts.Filter)
}

func TestDeleteCount(t *testing.T) {
	backend := &fakeBackend{
		aggregateRes: &omclient.AggregateResult{
			Total: 2,
			Rows:  []map[string]any{{"__key": "person:1"}, {"__key": "person:2"}},
		},
	}
	c := newTestClient(t, backend)
	q := personQuery(t, "deleteByStatus", statusTree())

	n, err := omclient.DeleteCount(context.Background(), c, q, []any{"gone"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, [][]string{{"person:1", "person:2"}}, backend.deleted)
	assert.NotContains(t, backend.ops, "fetch", "count deletes never fetch record content")
}

func TestDeleteCountNoMatches(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestClient(t, backend)
	q := personQuery(t, "deleteByStatus", statusTree())

	n, err := omclient.DeleteCount(context.Background(), c, q, []any{"gone"})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NotContains(t, backend.ops, "delete")
}

func TestDeleteAllFetchesBeforeDeleting(t *testing.T) {
	backend := &fakeBackend{
		aggregateRes: &omclient.AggregateResult{
			Total: 2,
			Rows:  []map[string]any{{"__key": "person:1"}, {"__key": "person:2"}},
		},
		records: map[string]map[string]string{
			"person:1": {"name": "Ada"},
			"person:2": {"name": "Grace"},
		},
	}
	c := newTestClient(t, backend)
	q := personQuery(t, "deleteByStatus", statusTree())

	got, err := omclient.DeleteAll[person](context.Background(), c, q, []any{"gone"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ada", got[0].Name)

	assert.Equal(t, []string{"aggregate", "fetch", "delete"}, backend.ops)
	assert.Equal(t, [][]string{{"person:1", "person:2"}}, backend.deleted)
}

func TestAggregateRows(t *testing.T) {
	backend := &fakeBackend{
		aggregateRes: &omclient.AggregateResult{
			Total: 2,
			Rows: []map[string]any{
				{"status": "active", "headcount": float64(3)},
				{"status": "paused", "headcount": float64(2)},
			},
		},
	}
	c := newTestClient(t, backend)

	sch, err := schema.FromStruct(person{}, "idx:person")
	require.NoError(t, err)
	plan, err := searchquery.PlanFromAggregation(searchquery.Aggregation{
		Query: "*",
		GroupBy: []searchquery.Group{{
			Properties: []string{"status"},
			Reduce: []searchquery.Reducer{
				{Func: searchquery.Count, Alias: "headcount"},
				{Func: searchquery.Avg, Args: []string{"age"}, Alias: "avgAge"},
			},
		}},
		SortBy: []searchquery.SortedField{{Field: "headcount", Descending: true}},
	})
	require.NoError(t, err)
	q, err := omclient.NewQuery(plan, sch)
	require.NoError(t, err)

	rows, err := omclient.AggregateRows(context.Background(), c, q, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]string{"status": "active", "headcount": "3"}, rows[0])

	require.Len(t, backend.aggregates, 1)
	call := backend.aggregates[0]
	require.Len(t, call.opts.GroupBy, 1)
	assert.Equal(t, []string{"status"}, call.opts.GroupBy[0].Fields)
	require.Len(t, call.opts.GroupBy[0].Reducers, 2)
	// Field arguments resolve to @-prefixed index keys.
	assert.Equal(t, []string{"@age"}, call.opts.GroupBy[0].Reducers[1].Args)
	assert.Equal(t, []omclient.SortField{{Field: "headcount", Desc: true}}, call.opts.Sort)
}

func TestTagValues(t *testing.T) {
	backend := &fakeBackend{tagValsRes: []string{"active", "paused"}}
	c := newTestClient(t, backend)
	q := personQuery(t, "getAllStatus", searchquery.Tree{})

	vals, err := omclient.TagValues(context.Background(), c, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"active", "paused"}, vals)
	assert.Equal(t, "status", backend.tagField)
}

func TestKindMismatch(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestClient(t, backend)
	q := personQuery(t, "findByStatus", statusTree())

	_, err := omclient.DeleteCount(context.Background(), c, q, []any{"active"})
	assert.ErrorIs(t, err, omclient.ErrKindMismatch)

	_, err = omclient.TagValues(context.Background(), c, q)
	assert.ErrorIs(t, err, omclient.ErrKindMismatch)
}

func TestAutocomplete(t *testing.T) {
	backend := &fakeBackend{suggestRes: []string{"Ada", "Adam"}}
	c := newTestClient(t, backend)

	got, err := c.Autocomplete(context.Background(), "sugg:name", "Ad", true, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Adam"}, got)
}
