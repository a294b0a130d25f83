// Package memory provides in-process implementations of the cache, bus and
// rate-limiter interfaces for single-instance deployments and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// defaultRetention is how long an idle slot is kept before it is pruned.
const defaultRetention = 10 * time.Minute

// slot is a key's cached entry, or a tombstone when entry is nil.
type slot struct {
	gen   uint64 // clock at the key's last invalidation
	at    time.Time
	entry *domain.CacheEntry
}

// QueryCache implements domain.QueryCache in memory. Tickets carry a global
// clock value; a commit is accepted only if no invalidation covering its key
// happened after the ticket was issued. Slots idle for longer than the
// retention are pruned, and the floor remembers the newest pruned
// invalidation so tickets older than it are still rejected.
type QueryCache struct {
	mu        sync.Mutex
	clock     uint64
	floor     uint64
	kinds     map[string]uint64
	slots     map[domain.CacheKey]*slot
	retention time.Duration
	swept     time.Time
	now       func() time.Time
}

// NewQueryCache creates an empty QueryCache.
func NewQueryCache() *QueryCache {
	return &QueryCache{
		kinds:     make(map[string]uint64),
		slots:     make(map[domain.CacheKey]*slot),
		retention: defaultRetention,
		now:       time.Now,
	}
}

// WithRetention sets how long idle entries and tombstones are kept.
// Non-positive values keep the default.
func (c *QueryCache) WithRetention(d time.Duration) *QueryCache {
	if d > 0 {
		c.retention = d
	}
	return c
}

// Len returns the number of slots held, tombstones included.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Get returns the cached entry or domain.ErrNotFound.
func (c *QueryCache) Get(_ context.Context, key domain.CacheKey) (domain.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[key]
	if !ok || s.entry == nil {
		return domain.CacheEntry{}, fmt.Errorf("memory: get %s: %w", key, domain.ErrNotFound)
	}
	return *s.entry, nil
}

// Begin hands out a ticket bound to the current clock.
func (c *QueryCache) Begin(_ context.Context, key domain.CacheKey) (domain.CacheTicket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CacheTicket{Key: key, Generation: c.clock, StartedAt: c.now()}, nil
}

// Commit stores value unless the key was invalidated after Begin.
func (c *QueryCache) Commit(_ context.Context, ticket domain.CacheTicket, value []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.sweepLocked(now)

	if ticket.Generation < c.floor || ticket.Generation < c.kinds[ticket.Key.Kind] {
		return false, nil
	}
	s, ok := c.slots[ticket.Key]
	if ok && ticket.Generation < s.gen {
		return false, nil
	}
	if !ok {
		s = &slot{}
		c.slots[ticket.Key] = s
	}
	s.at = now
	s.entry = &domain.CacheEntry{Value: append([]byte(nil), value...), FetchedAt: now}
	return true, nil
}

// Invalidate drops key's value and voids outstanding tickets.
func (c *QueryCache) Invalidate(_ context.Context, key domain.CacheKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.sweepLocked(now)

	c.clock++
	c.slots[key] = &slot{gen: c.clock, at: now}
	return nil
}

// InvalidateKind invalidates every key of kind, including keys whose first
// fetch is still in flight.
func (c *QueryCache) InvalidateKind(_ context.Context, kind string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(c.now())

	c.clock++
	c.kinds[kind] = c.clock
	for key := range c.slots {
		if key.Kind == kind {
			delete(c.slots, key)
		}
	}
	return nil
}

// sweepLocked prunes slots idle for longer than the retention, at most once
// per half retention.
func (c *QueryCache) sweepLocked(now time.Time) {
	if now.Sub(c.swept) < c.retention/2 {
		return
	}
	c.swept = now
	for key, s := range c.slots {
		if now.Sub(s.at) < c.retention {
			continue
		}
		if s.gen > c.floor {
			c.floor = s.gen
		}
		delete(c.slots, key)
	}
}

var _ domain.QueryCache = (*QueryCache)(nil)
