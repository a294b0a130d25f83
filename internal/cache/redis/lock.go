package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// releaseTimeout bounds the release round trip, which runs after the
// submission's own context may have ended.
const releaseTimeout = 5 * time.Second

// releaseLua drops a lease only while it still carries the holder's token.
// A submission that outlived its lease must not free the next submitter's.
var releaseLua = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// LockManager hands out submission leases shared by every instance on the
// same key prefix. ActionService takes one per owner ("submit:<address>") so
// a wallet has at most one transaction in flight across the cluster.
type LockManager struct {
	c *Client
}

// NewLockManager creates a LockManager backed by the given Client.
func NewLockManager(c *Client) *LockManager {
	return &LockManager{c: c}
}

// Acquire takes the lease on key for ttl. It fails with domain.ErrLockHeld
// while another holder's lease is live. The returned release is idempotent.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l := &lease{rdb: lm.c.rdb, key: lm.c.key("lock", key), token: uuid.NewString()}

	won, err := lm.c.rdb.SetNX(ctx, l.key, l.token, ttl).Result()
	switch {
	case err != nil:
		return nil, fmt.Errorf("redis: lease %s: %w", key, err)
	case !won:
		return nil, fmt.Errorf("redis: lease %s: %w", key, domain.ErrLockHeld)
	}
	return l.release, nil
}

// lease is one holder's claim on a lock key.
type lease struct {
	rdb   *redis.Client
	key   string
	token string
	once  sync.Once
}

func (l *lease) release() {
	l.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		_ = releaseLua.Run(ctx, l.rdb, []string{l.key}, l.token).Err()
	})
}

var _ domain.LockManager = (*LockManager)(nil)
