package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// sharedFetchTimeout bounds a fetch that several callers may be waiting on.
const sharedFetchTimeout = 30 * time.Second

// cachedQuery serves one projection kind through the query cache. A fresh
// entry is returned as is; otherwise callers of the same key and cache
// generation share one fetch, and its result is committed only if the key
// was not invalidated while the fetch ran. A read that starts after an
// invalidation never joins a fetch that began before it.
type cachedQuery[T any] struct {
	cache     domain.QueryCache
	group     singleflight.Group
	freshness time.Duration
	timeout   time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func (q *cachedQuery[T]) load(ctx context.Context, key domain.CacheKey, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	entry, err := q.cache.Get(ctx, key)
	switch {
	case err == nil && entry.Fresh(q.now(), q.freshness):
		var v T
		if err := json.Unmarshal(entry.Value, &v); err == nil {
			return v, nil
		}
		q.logger.WarnContext(ctx, "query: undecodable cache entry, refetching", slog.String("key", key.String()))
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		q.logger.WarnContext(ctx, "query: cache get failed",
			slog.String("key", key.String()),
			slog.String("error", err.Error()),
		)
	}

	ticket, err := q.cache.Begin(ctx, key)
	if err != nil {
		return zero, fmt.Errorf("query: begin %s: %w", key, err)
	}

	// The shared fetch is detached from the first caller so that caller
	// leaving does not fail the others; each caller still honours its own ctx.
	flight := key.String() + "#" + strconv.FormatUint(ticket.Generation, 10)
	ch := q.group.DoChan(flight, func() (any, error) {
		timeout := q.timeout
		if timeout <= 0 {
			timeout = sharedFetchTimeout
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return q.refresh(fctx, ticket, fetch)
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (q *cachedQuery[T]) refresh(ctx context.Context, ticket domain.CacheTicket, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	key := ticket.Key

	v, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("query: encode %s: %w", key, err)
	}
	stored, err := q.cache.Commit(ctx, ticket, payload)
	switch {
	case err != nil:
		q.logger.WarnContext(ctx, "query: cache commit failed",
			slog.String("key", key.String()),
			slog.String("error", err.Error()),
		)
	case !stored:
		q.logger.DebugContext(ctx, "query: result superseded by invalidation, not cached",
			slog.String("key", key.String()),
		)
	}
	return v, nil
}
