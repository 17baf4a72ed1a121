package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/holomem/resource"
)

// LRU is a mutex-guarded least-recently-used cache.
type LRU[K comparable, V any] struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[K]*list.Element
	evictList *list.List
	cost      func(K, V) int64
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[K comparable, V any] struct {
	key   K
	value V
	cost  int64
}

// New creates an LRU with the given capacity. cost prices an entry; nil
// prices every entry at 1, making capacity an entry count. If rc is non-nil
// the cached cost is also reserved there.
func New[K comparable, V any](capacity int64, cost func(K, V) int64, rc *resource.Controller) *LRU[K, V] {
	if cost == nil {
		cost = func(K, V) int64 { return 1 }
	}
	return &LRU[K, V]{
		capacity:  capacity,
		items:     make(map[K]*list.Element),
		evictList: list.New(),
		cost:      cost,
		rc:        rc,
	}
}

// Get returns the cached value for key.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry[K, V]).value, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set caches value under key. Entries costing more than the capacity are
// not cached.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cost := c.cost(key, value)
	if cost > c.capacity {
		return
	}

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)
	}

	// Evict locally first so released memory is available to the controller.
	for c.size+cost > c.capacity {
		ent := c.evictList.Back()
		if ent == nil {
			break
		}
		c.removeElement(ent)
	}

	if c.rc != nil && !c.rc.TryAcquireMemory(cost) {
		return
	}

	element := c.evictList.PushFront(&entry[K, V]{key: key, value: value, cost: cost})
	c.items[key] = element
	c.size += cost
}

// Purge drops every entry.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Size returns the summed cost of all cached entries.
func (c *LRU[K, V]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns the hit and miss counters.
func (c *LRU[K, V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRU[K, V]) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry[K, V])
	delete(c.items, kv.key)
	c.size -= kv.cost
	if c.rc != nil {
		c.rc.ReleaseMemory(kv.cost)
	}
}
