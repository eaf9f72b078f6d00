package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	v   V
	exp time.Time
}

// TTLCache is a process-local map whose entries expire after a fixed ttl.
// Expired entries are dropped lazily on read or by Sweep.
type TTLCache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]entry[V]
	ttl  time.Duration
	now  func() time.Time
}

func NewTTL[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{data: make(map[K]entry[V]), ttl: ttl, now: time.Now}
}

func (c *TTLCache[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	e, ok := c.data[k]
	c.mu.RUnlock()
	var zero V
	if !ok {
		return zero, false
	}
	if c.now().After(e.exp) {
		c.mu.Lock()
		if cur, ok := c.data[k]; ok && cur.exp.Equal(e.exp) {
			delete(c.data, k)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.v, true
}

func (c *TTLCache[K, V]) Set(k K, v V) {
	c.mu.Lock()
	c.data[k] = entry[V]{v: v, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTLCache[K, V]) Delete(k K) {
	c.mu.Lock()
	delete(c.data, k)
	c.mu.Unlock()
}

// Sweep removes every expired entry and reports how many were dropped.
func (c *TTLCache[K, V]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.data {
		if now.After(e.exp) {
			delete(c.data, k)
			n++
		}
	}
	return n
}

func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
