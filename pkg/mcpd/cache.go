package mcpd

import (
	"sync"
	"time"
)

// ttlCell caches a single value with an expiry. Discovery and health lookups
// hit the daemon on every aggregated request otherwise, and the daemon's
// answers only change on the order of seconds.
type ttlCell[T any] struct {
	mu      sync.Mutex
	value   T
	expires time.Time
	ttl     time.Duration
}

func newTTLCell[T any](ttl time.Duration) *ttlCell[T] {
	return &ttlCell[T]{ttl: ttl}
}

func (c *ttlCell[T]) get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expires.IsZero() || time.Now().After(c.expires) {
		var zero T
		return zero, false
	}
	return c.value, true
}

func (c *ttlCell[T]) put(v T) {
	c.mu.Lock()
	c.value = v
	c.expires = time.Now().Add(c.ttl)
	c.mu.Unlock()
}

func (c *ttlCell[T]) invalidate() {
	c.mu.Lock()
	c.expires = time.Time{}
	c.mu.Unlock()
}
