// Package tile provides the bounded cache of rendered tile images.
package tile

import (
	"container/list"
	"image"
	"sync"
	"time"

	"layout-verifier/internal/grid"
)

// DefaultCapacity is the default maximum number of cached tiles.
const DefaultCapacity = 50

// Entry holds one rendered tile. Entries are immutable after creation;
// re-rendering a tile replaces the entry rather than mutating it.
type Entry struct {
	Image       image.Image
	GeneratedAt time.Time
	SizeBytes   int
}

// NewEntry creates an entry for a freshly rendered image, estimating its
// memory footprint from the pixel bounds.
func NewEntry(img image.Image) *Entry {
	b := img.Bounds()
	return &Entry{
		Image:       img,
		GeneratedAt: time.Now(),
		SizeBytes:   b.Dx() * b.Dy() * 4,
	}
}

// Cache is a least-recently-used cache of rendered tiles keyed by grid key.
// It is safe for concurrent use by multiple analysis workers. Two workers
// racing on the same missing key may both render; the last Put wins, which is
// harmless because renders are idempotent for a given key.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	entries  map[grid.Key]*list.Element
}

type cacheItem struct {
	key   grid.Key
	entry *Entry
}

// NewCache creates a cache holding at most capacity entries. A capacity
// below 1 falls back to DefaultCapacity.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[grid.Key]*list.Element),
	}
}

// Get returns the cached entry for the key, promoting it to most recently
// used. The second return is false on a miss.
func (c *Cache) Get(key grid.Key) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheItem).entry, true
}

// Put inserts or replaces the entry for the key. When the cache is at
// capacity, exactly the least-recently-used entry is evicted first.
func (c *Cache) Put(key grid.Key, entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheItem).entry = entry
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheItem).key)
		}
	}

	c.entries[key] = c.order.PushFront(&cacheItem{key: key, entry: entry})
}

// InvalidateAll atomically discards every entry regardless of recency.
// Called whenever the grid configuration or source layout changes, since
// stale geometry makes every cached bitmap meaningless.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[grid.Key]*list.Element)
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the configured maximum entry count.
func (c *Cache) Capacity() int {
	return c.capacity
}
