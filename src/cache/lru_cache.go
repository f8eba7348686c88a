// Package cache provides a small thread-safe LRU with per-entry expiry.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Entry is a cached value with its expiry, exported so caches can be persisted.
type Entry[V any] struct {
	Value     V         `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

type element[V any] struct {
	key   string
	entry Entry[V]
}

// LRU evicts the least recently used key once capacity is exceeded and
// treats entries older than ttl as absent.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	order    *list.List
	now      func() time.Time
}

// New returns an LRU holding at most capacity entries for ttl each.
func New[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the value for key and marks it recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	el := elem.Value.(*element[V])
	if c.now().After(el.entry.ExpiresAt) {
		c.removeElement(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return el.entry.Value, true
}

// Set stores value under key, refreshing its expiry.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry[V]{Value: value, ExpiresAt: c.now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value.(*element[V]).entry = entry
		c.order.MoveToFront(elem)
		return
	}
	c.items[key] = c.order.PushFront(&element[V]{key: key, entry: entry})
	c.evict()
}

// Len returns the number of stored entries, expired ones included.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Snapshot returns the live entries for persistence.
func (c *LRU[V]) Snapshot() map[string]Entry[V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := make(map[string]Entry[V], len(c.items))
	for key, elem := range c.items {
		entry := elem.Value.(*element[V]).entry
		if now.After(entry.ExpiresAt) {
			continue
		}
		out[key] = entry
	}
	return out
}

// Restore replaces the contents with the unexpired entries of snapshot.
func (c *LRU[V]) Restore(snapshot map[string]Entry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
	now := c.now()
	for key, entry := range snapshot {
		if now.After(entry.ExpiresAt) {
			continue
		}
		c.items[key] = c.order.PushFront(&element[V]{key: key, entry: entry})
	}
	c.evict()
}

func (c *LRU[V]) evict() {
	for c.order.Len() > c.capacity {
		c.removeElement(c.order.Back())
	}
}

func (c *LRU[V]) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*element[V]).key)
}

// HashKey derives a fixed-size key from a prompt.
func HashKey(prompt string) string {
	h := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(h[:])
}
