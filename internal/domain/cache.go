package domain

import (
	"context"
	"time"
)

// Cache entity kinds.
const (
	KindMarkets   = "markets"
	KindPortfolio = "portfolio"
)

// CacheKey addresses one cached projection: an entity kind and the scope it
// was computed for (registry id, owner address).
type CacheKey struct {
	Kind  string `json:"kind"`
	Scope string `json:"scope,omitempty"`
}

func (k CacheKey) String() string { return k.Kind + ":" + k.Scope }

// CacheEntry is a cached, JSON-encoded projection.
type CacheEntry struct {
	Value     []byte
	FetchedAt time.Time
}

// Fresh reports whether the entry is younger than window at now.
func (e CacheEntry) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(e.FetchedAt) < window
}

// CacheTicket is handed out when a fetch starts. A commit with a ticket only
// lands if the key was not invalidated in between.
type CacheTicket struct {
	Key        CacheKey
	Generation uint64
	StartedAt  time.Time
}

// QueryCache is the keyed projection cache. Entries are replaced or
// invalidated, never patched.
type QueryCache interface {
	Get(ctx context.Context, key CacheKey) (CacheEntry, error)
	Begin(ctx context.Context, key CacheKey) (CacheTicket, error)
	Commit(ctx context.Context, ticket CacheTicket, value []byte) (bool, error)
	Invalidate(ctx context.Context, key CacheKey) error
	InvalidateKind(ctx context.Context, kind string) error
}

// SignalBus provides pub/sub for invalidation and notice events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// InvalidationEvent is published on ChannelInvalidate after a write. An empty
// Scope means every key of Kind.
type InvalidationEvent struct {
	Keys   []CacheKey `json:"keys"`
	Reason string     `json:"reason,omitempty"`
}

// Bus channels.
const (
	ChannelInvalidate = "ch:invalidate"
	ChannelNotice     = "ch:notice"
)

// RateLimiter admits at most limit events per key within a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager hands out short-lived exclusive locks. Acquire returns
// ErrLockHeld when another holder has key; the returned unlock is idempotent.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
