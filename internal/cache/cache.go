package cache

import (
	"container/list"
	"errors"
	"strings"
	"sync"
	"time"
)

// Sentinel errors for cache construction and writes.
var (
	ErrInvalidCapacity = errors.New("cache capacity must be positive")
	ErrInvalidTTL      = errors.New("cache ttl must be positive")
	ErrNilEntry        = errors.New("cache entry must not be nil")
)

// Entry is an immutable cached value together with the time it was fetched.
// A refreshed value replaces the whole Entry; entries are never mutated in place.
type Entry[V any] struct {
	Value     V
	FetchedAt time.Time
}

// NewEntry creates an Entry fetched at the given time.
func NewEntry[V any](value V, fetchedAt time.Time) *Entry[V] {
	return &Entry[V]{Value: value, FetchedAt: fetchedAt}
}

// Fresh reports whether the entry is still within ttl at the given time.
func (e *Entry[V]) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// Cache is a bounded, TTL-aware, LRU-evicting key-value store.
// Keys are normalized (trimmed, lowercased) on every operation, so two
// spellings of the same city collide on one entry. All operations are safe
// for concurrent use; a single mutex guards the map and the recency list.
//
// Expiry is lazy: an expired entry is removed on the Get or Contains that
// observes it, never handed back to a caller. Eviction triggers only on Put.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	order    *list.List // front = most recently used

	now func() time.Time // overridable in tests
}

// lruItem is the recency-list payload: the normalized key plus its entry.
type lruItem[V any] struct {
	key   string
	entry *Entry[V]
}

// New creates a cache holding at most capacity entries, each valid for ttl.
func New[V any](capacity int, ttl time.Duration) (*Cache[V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	return &Cache[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
	}, nil
}

// NormalizeKey trims surrounding whitespace and lowercases the key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Get returns the entry for key if present and fresh, marking it most
// recently used. An expired entry is removed and reported as a miss.
func (c *Cache[V]) Get(key string) (*Entry[V], bool) {
	k := NormalizeKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[k]
	if !ok {
		return nil, false
	}
	item := elem.Value.(*lruItem[V])
	if !item.entry.Fresh(c.now(), c.ttl) {
		c.removeElement(k, elem)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return item.entry, true
}

// Put inserts or replaces the entry for key and marks it most recently used.
// When the insert pushes the cache over capacity, the least recently used
// entry is evicted. Returns ErrNilEntry for a nil entry.
func (c *Cache[V]) Put(key string, entry *Entry[V]) error {
	if entry == nil {
		return ErrNilEntry
	}
	k := NormalizeKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[k]; ok {
		elem.Value.(*lruItem[V]).entry = entry
		c.order.MoveToFront(elem)
		return nil
	}

	c.items[k] = c.order.PushFront(&lruItem[V]{key: k, entry: entry})
	if len(c.items) > c.capacity {
		c.evictOldest()
	}
	return nil
}

// Remove drops the entry for key if present.
func (c *Cache[V]) Remove(key string) {
	k := NormalizeKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[k]; ok {
		c.removeElement(k, elem)
	}
}

// Clear drops all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

// Len returns the number of entries currently cached, including entries
// that have expired but not yet been observed by a read.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns a snapshot copy of the normalized keys currently cached.
// Callers iterate the copy; concurrent mutation of the cache is not observed.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*lruItem[V]).key)
	}
	return keys
}

// Contains reports whether a fresh entry exists for key. Expiry-aware:
// an expired entry is removed and reported absent, exactly like Get.
func (c *Cache[V]) Contains(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// evictOldest removes the entry at the back of the recency list.
// Caller must hold c.mu.
func (c *Cache[V]) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	c.removeElement(elem.Value.(*lruItem[V]).key, elem)
}

// removeElement unlinks an element from both the map and the recency list.
// Caller must hold c.mu.
func (c *Cache[V]) removeElement(key string, elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, key)
}
