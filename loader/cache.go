package loader

import (
	"container/list"
	"sync"
)

// Cache keeps finished loads in memory under a byte budget, evicting the
// least recently used entry first. GPU-sized point buffers dominate the
// footprint, so the budget counts bytes rather than entries. A maxBytes of
// zero or less disables eviction.
type Cache struct {
	mu       sync.Mutex
	maxBytes int64
	bytes    int64
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	id   string
	res  *Result
	size int64
}

// NewCache returns a cache bounded to maxBytes of result footprint.
func NewCache(maxBytes int64) *Cache {
	return &Cache{
		maxBytes: maxBytes,
		order:    list.New(),
		entries:  map[string]*list.Element{},
	}
}

// Get returns the cached result for id and marks it recently used.
func (c *Cache) Get(id string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).res, true
}

// Has reports whether id is cached without touching its recency.
func (c *Cache) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}

// Set stores a result for id, replacing any previous entry, and evicts old
// entries until the budget holds again. The newest entry always stays, even
// when it alone exceeds the budget.
func (c *Cache) Set(id string, res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[id]; ok {
		c.removeLocked(elem)
	}
	entry := &cacheEntry{id: id, res: res, size: res.Footprint()}
	c.entries[id] = c.order.PushFront(entry)
	c.bytes += entry.size
	if c.maxBytes <= 0 {
		return
	}
	for c.bytes > c.maxBytes && c.order.Len() > 1 {
		c.removeLocked(c.order.Back())
	}
}

// Remove drops the entry for id, if any.
func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[id]; ok {
		c.removeLocked(elem)
	}
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Bytes returns the summed footprint of all cached results.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

func (c *Cache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	c.order.Remove(elem)
	delete(c.entries, entry.id)
	c.bytes -= entry.size
}
