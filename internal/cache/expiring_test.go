package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSetThenGet(t *testing.T) {
	c := New[string, int](time.Minute)

	c.Set("a", 1)

	v, ok := c.Get("a")
	if !ok {
		t.Fatal("Get() after Set() should hit")
	}
	if v != 1 {
		t.Errorf("Get() = %v, want 1", v)
	}
}

func TestGetMissingKey(t *testing.T) {
	c := New[string, int](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache should miss")
	}
}

func TestGetExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	c := New[string, string](10*time.Minute, WithClock(clock.Now))

	c.Set("https://example.com/", "data")

	clock.Advance(10 * time.Minute)
	if _, ok := c.Get("https://example.com/"); !ok {
		t.Fatal("entry exactly at TTL should still be live")
	}

	clock.Advance(time.Millisecond)
	if _, ok := c.Get("https://example.com/"); ok {
		t.Fatal("entry older than TTL should miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be evicted, Len() = %d", c.Len())
	}
}

func TestSetAfterExpiryStartsFresh(t *testing.T) {
	clock := newFakeClock()
	c := New[string, int](time.Minute, WithClock(clock.Now))

	c.Set("k", 1)
	clock.Advance(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after TTL")
	}

	c.Set("k", 2)
	v, ok := c.Get("k")
	if !ok || v != 2 {
		t.Errorf("Get() = %v,%v want 2,true", v, ok)
	}

	clock.Advance(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("fresh entry should not carry the old timestamp")
	}
}

func TestSetOverwriteResetsTimestamp(t *testing.T) {
	clock := newFakeClock()
	c := New[string, int](time.Minute, WithClock(clock.Now))

	c.Set("k", 1)
	clock.Advance(50 * time.Second)
	c.Set("k", 2)
	clock.Advance(50 * time.Second)

	v, ok := c.Get("k")
	if !ok || v != 2 {
		t.Errorf("Get() = %v,%v want 2,true", v, ok)
	}
}

func TestSweep(t *testing.T) {
	clock := newFakeClock()
	c := New[string, int](time.Minute, WithClock(clock.Now))

	c.Set("old1", 1)
	c.Set("old2", 2)
	clock.Advance(45 * time.Second)
	c.Set("fresh", 3)
	clock.Advance(30 * time.Second)

	removed := c.Sweep()
	if removed != 2 {
		t.Errorf("Sweep() removed %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry should survive Sweep()")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Set(i%10, i)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, _ = c.Get(i % 10)
		}(i)
	}
	wg.Wait()

	if c.Len() != 10 {
		t.Errorf("Len() = %d, want 10", c.Len())
	}
}
