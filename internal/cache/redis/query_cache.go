package redis

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sebikillmachin/SUI/internal/domain"
)

//go:embed scripts/commit.lua
var commitLua string

//go:embed scripts/invalidate.lua
var invalidateLua string

// defaultEntryTTL bounds how long an untouched cache hash lives.
const defaultEntryTTL = 10 * time.Minute

// scanBatch is the COUNT hint for SCAN during kind-wide invalidation.
const scanBatch = 256

// QueryCache implements domain.QueryCache. Each key is a hash holding the
// generation counter, the JSON value and its fetch time. Commits and
// invalidations run as Lua scripts so a commit can never land after an
// invalidation that followed its Begin.
type QueryCache struct {
	c          *Client
	ttl        time.Duration
	commit     *redis.Script
	invalidate *redis.Script
}

// NewQueryCache creates a QueryCache. A non-positive ttl uses ten minutes.
func NewQueryCache(c *Client, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = defaultEntryTTL
	}
	return &QueryCache{
		c:          c,
		ttl:        ttl,
		commit:     redis.NewScript(commitLua),
		invalidate: redis.NewScript(invalidateLua),
	}
}

func (q *QueryCache) hashKey(key domain.CacheKey) string {
	return q.c.key("qc", key.Kind, key.Scope)
}

// Get returns the cached entry or domain.ErrNotFound.
func (q *QueryCache) Get(ctx context.Context, key domain.CacheKey) (domain.CacheEntry, error) {
	vals, err := q.c.rdb.HMGet(ctx, q.hashKey(key), "val", "at").Result()
	if err != nil {
		return domain.CacheEntry{}, fmt.Errorf("redis: get %s: %w", key, err)
	}
	val, ok := vals[0].(string)
	if !ok {
		return domain.CacheEntry{}, fmt.Errorf("redis: get %s: %w", key, domain.ErrNotFound)
	}
	at, _ := vals[1].(string)
	ms, err := strconv.ParseInt(at, 10, 64)
	if err != nil {
		return domain.CacheEntry{}, fmt.Errorf("redis: get %s: bad fetch time %q: %w", key, at, domain.ErrNotFound)
	}
	return domain.CacheEntry{Value: []byte(val), FetchedAt: time.UnixMilli(ms)}, nil
}

// Begin records the key's current generation. The hash is created if
// missing so kind-wide invalidation can see in-flight keys.
func (q *QueryCache) Begin(ctx context.Context, key domain.CacheKey) (domain.CacheTicket, error) {
	hk := q.hashKey(key)
	pipe := q.c.rdb.TxPipeline()
	pipe.HSetNX(ctx, hk, "gen", 0)
	pipe.PExpire(ctx, hk, q.ttl)
	genCmd := pipe.HGet(ctx, hk, "gen")
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.CacheTicket{}, fmt.Errorf("redis: begin %s: %w", key, err)
	}
	gen, err := genCmd.Uint64()
	if err != nil {
		return domain.CacheTicket{}, fmt.Errorf("redis: begin %s: %w", key, err)
	}
	return domain.CacheTicket{Key: key, Generation: gen, StartedAt: time.Now()}, nil
}

// Commit stores value if the key's generation still matches the ticket.
func (q *QueryCache) Commit(ctx context.Context, ticket domain.CacheTicket, value []byte) (bool, error) {
	stored, err := q.commit.Run(ctx, q.c.rdb,
		[]string{q.hashKey(ticket.Key)},
		strconv.FormatUint(ticket.Generation, 10),
		value,
		time.Now().UnixMilli(),
		q.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis: commit %s: %w", ticket.Key, err)
	}
	return stored == 1, nil
}

// Invalidate drops the value and bumps the generation of key.
func (q *QueryCache) Invalidate(ctx context.Context, key domain.CacheKey) error {
	if err := q.invalidate.Run(ctx, q.c.rdb, []string{q.hashKey(key)}, q.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis: invalidate %s: %w", key, err)
	}
	return nil
}

// InvalidateKind invalidates every key of kind, including keys whose fetch
// is still in flight.
func (q *QueryCache) InvalidateKind(ctx context.Context, kind string) error {
	pattern := q.c.key("qc", kind, "*")
	var cursor uint64
	for {
		keys, next, err := q.c.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis: invalidate kind %s: %w", kind, err)
		}
		if len(keys) > 0 {
			if err := q.invalidate.Run(ctx, q.c.rdb, keys, q.ttl.Milliseconds()).Err(); err != nil {
				return fmt.Errorf("redis: invalidate kind %s: %w", kind, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Compile-time interface check.
var _ domain.QueryCache = (*QueryCache)(nil)
