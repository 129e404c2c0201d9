package omclient

import (
	"context"

	"github.com/berickus/redis-om-spring/searchquery"
)

// DeleteCount executes a DELETE plan and returns the number of records
// removed. The matching keys are collected through the key-loading
// aggregation; no record content is ever fetched.
func DeleteCount(ctx context.Context, c *Client, q *Query, params []any, opts ...ExecOption) (int64, error) {
	st := newExecState(opts)
	keys, err := c.deleteTargets(ctx, q, params, st)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return c.backend.Delete(ctx, keys...)
}

// DeleteAll executes a DELETE plan and returns the removed records decoded
// into T. Every record is fetched and materialized in one pipelined round
// trip before any deletion happens, so the returned slice reflects the
// state the records had at removal time.
func DeleteAll[T any](ctx context.Context, c *Client, q *Query, params []any, opts ...ExecOption) ([]T, error) {
	st := newExecState(opts)
	keys, err := c.deleteTargets(ctx, q, params, st)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []T{}, nil
	}

	records, err := c.backend.FetchAll(ctx, keys)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(records))
	for i, fields := range records {
		if len(fields) == 0 {
			continue
		}
		docs = append(docs, Document{ID: keys[i], Fields: fields})
	}
	items, err := decodeDocs[T](docs)
	if err != nil {
		return nil, err
	}

	if _, err := c.backend.Delete(ctx, keys...); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) deleteTargets(ctx context.Context, q *Query, params []any, st *execState) ([]string, error) {
	if q.Plan().Kind() != searchquery.KindDelete {
		return nil, ErrKindMismatch
	}
	offset, limit := c.paging(q.Plan(), st)
	keys, _, err := c.keysByExistence(ctx, q, params, offset, limit)
	return keys, err
}
