package cache

import (
	"sync"
	"time"
)

// Entry is a cached value and the time it was stored.
type Entry[V any] struct {
	Value    V
	StoredAt time.Time
}

// Expiring is a key/value store whose entries expire a fixed TTL after they
// were stored. Expired entries are evicted lazily by Get, or in bulk by Sweep.
// There is no size bound.
type Expiring[K comparable, V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[K]Entry[V]
}

// Option configures an Expiring cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source (tests use a fake clock).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an empty cache with the given TTL.
func New[K comparable, V any](ttl time.Duration, opts ...Option) *Expiring[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Expiring[K, V]{
		ttl:     ttl,
		now:     o.now,
		entries: make(map[K]Entry[V]),
	}
}

// Get returns the live value stored under key. An entry older than the TTL
// is deleted and reported as a miss.
func (c *Expiring[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.StoredAt) > c.ttl {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed the entry.
		if cur, still := c.entries[key]; still && cur.StoredAt.Equal(e.StoredAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.Value, true
}

// Set stores value under key, resetting its timestamp.
func (c *Expiring[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry[V]{Value: value, StoredAt: c.now()}
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Expiring[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.StoredAt) > c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *Expiring[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// TTL returns the configured time-to-live.
func (c *Expiring[K, V]) TTL() time.Duration {
	return c.ttl
}
