package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebikillmachin/SUI/internal/domain"
)

func TestQueryCacheTicketGuardsCommit(t *testing.T) {
	ctx := context.Background()
	c := NewQueryCache()
	key := domain.CacheKey{Kind: domain.KindPortfolio, Scope: "0xu"}

	_, err := c.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first, err := c.Begin(ctx, key)
	require.NoError(t, err)
	ok, err := c.Commit(ctx, first, []byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)

	entry, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), entry.Value)

	stale, err := c.Begin(ctx, key)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, key))

	ok, err = c.Commit(ctx, stale, []byte("old"))
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	fresh, err := c.Begin(ctx, key)
	require.NoError(t, err)
	ok, err = c.Commit(ctx, fresh, []byte("new"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQueryCacheInvalidateKind(t *testing.T) {
	ctx := context.Background()
	c := NewQueryCache()
	markets := domain.CacheKey{Kind: domain.KindMarkets, Scope: "0xreg"}
	portfolio := domain.CacheKey{Kind: domain.KindPortfolio, Scope: "0xu"}

	mt, _ := c.Begin(ctx, markets)
	pt, _ := c.Begin(ctx, portfolio)
	require.NoError(t, c.InvalidateKind(ctx, domain.KindMarkets))

	ok, _ := c.Commit(ctx, mt, []byte("m"))
	assert.False(t, ok)
	ok, _ = c.Commit(ctx, pt, []byte("p"))
	assert.True(t, ok)
}

func TestCacheEntryFreshness(t *testing.T) {
	ctx := context.Background()
	c := NewQueryCache()
	base := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return base }
	key := domain.CacheKey{Kind: domain.KindMarkets, Scope: "0xreg"}

	tk, _ := c.Begin(ctx, key)
	_, _ = c.Commit(ctx, tk, []byte("x"))
	entry, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, entry.Fresh(base.Add(9*time.Second), 10*time.Second))
	assert.False(t, entry.Fresh(base.Add(10*time.Second), 10*time.Second))
}

func TestQueryCachePrunesIdleSlots(t *testing.T) {
	ctx := context.Background()
	c := NewQueryCache().WithRetention(time.Minute)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	owners := []string{"0x1", "0x2", "0x3"}
	for _, o := range owners {
		key := domain.CacheKey{Kind: domain.KindPortfolio, Scope: o}
		tk, _ := c.Begin(ctx, key)
		_, _ = c.Commit(ctx, tk, []byte(o))
	}
	assert.Equal(t, 3, c.Len())

	key := domain.CacheKey{Kind: domain.KindPortfolio, Scope: "0x1"}
	stale, _ := c.Begin(ctx, key)
	require.NoError(t, c.Invalidate(ctx, key))

	now = now.Add(2 * time.Minute)
	require.NoError(t, c.Invalidate(ctx, domain.CacheKey{Kind: domain.KindMarkets, Scope: "0xreg"}))
	assert.Equal(t, 1, c.Len(), "idle entries and tombstones are pruned")

	ok, err := c.Commit(ctx, stale, []byte("old"))
	require.NoError(t, err)
	assert.False(t, ok, "a ticket issued before a pruned invalidation stays void")

	fresh, _ := c.Begin(ctx, key)
	ok, _ = c.Commit(ctx, fresh, []byte("new"))
	assert.True(t, ok)
}

func TestQueryCacheInvalidateKindDropsSlots(t *testing.T) {
	ctx := context.Background()
	c := NewQueryCache()
	for _, o := range []string{"0x1", "0x2"} {
		key := domain.CacheKey{Kind: domain.KindPortfolio, Scope: o}
		tk, _ := c.Begin(ctx, key)
		_, _ = c.Commit(ctx, tk, []byte(o))
	}
	inflight, _ := c.Begin(ctx, domain.CacheKey{Kind: domain.KindPortfolio, Scope: "0x3"})

	require.NoError(t, c.InvalidateKind(ctx, domain.KindPortfolio))
	assert.Zero(t, c.Len())

	ok, _ := c.Commit(ctx, inflight, []byte("p"))
	assert.False(t, ok, "keys first fetched before the kind invalidation are covered")
}

func TestSignalBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewSignalBus()

	sub, err := bus.Subscribe(ctx, domain.ChannelNotice)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, domain.ChannelNotice, []byte("hi")))
	require.NoError(t, bus.Publish(ctx, domain.ChannelInvalidate, []byte("ignored")))

	assert.Equal(t, []byte("hi"), <-sub)

	cancel()
	for range sub {
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter()
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "k", 3, time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "k", 3, time.Second)
	assert.False(t, ok)

	ok, _ = rl.Allow(ctx, "other", 3, time.Second)
	assert.True(t, ok)

	now = now.Add(1001 * time.Millisecond)
	ok, _ = rl.Allow(ctx, "k", 3, time.Second)
	assert.True(t, ok)
}

func TestLockManager(t *testing.T) {
	ctx := context.Background()
	lm := NewLockManager()
	now := time.Unix(1_700_000_000, 0)
	lm.now = func() time.Time { return now }

	unlock, err := lm.Acquire(ctx, "submit:a", time.Minute)
	require.NoError(t, err)
	_, err = lm.Acquire(ctx, "submit:a", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLockHeld)
	_, err = lm.Acquire(ctx, "submit:b", time.Minute)
	assert.NoError(t, err)

	unlock()
	unlock()
	relock, err := lm.Acquire(ctx, "submit:a", time.Minute)
	require.NoError(t, err)

	// An expired lease is taken over; the stale unlock must not release it.
	now = now.Add(2 * time.Minute)
	_, err = lm.Acquire(ctx, "submit:a", time.Minute)
	require.NoError(t, err)
	relock()
	_, err = lm.Acquire(ctx, "submit:a", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLockHeld)
}
