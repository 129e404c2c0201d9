package omclient

import (
	"context"

	"github.com/berickus/redis-om-spring/searchquery"
)

// TagValues executes a TAG_VALUES plan, returning the distinct values stored
// under the plan's tag field.
func TagValues(ctx context.Context, c *Client, q *Query) ([]string, error) {
	plan := q.Plan()
	if plan.Kind() != searchquery.KindTagValues {
		return nil, ErrKindMismatch
	}
	field := q.Schema().Alias(plan.TagField())
	return c.backend.TagVals(ctx, q.Schema().IndexName(), field)
}

// Autocomplete returns completion suggestions for a prefix from the named
// suggestion dictionary. max caps the number of suggestions; zero means the
// backend default.
func (c *Client) Autocomplete(ctx context.Context, key, prefix string, fuzzy bool, max int) ([]string, error) {
	return c.backend.Suggest(ctx, key, prefix, fuzzy, max)
}
