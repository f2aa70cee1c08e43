package store

import (
	"container/list"
	"errors"
	"sync"
)

// ErrInvalidSize is returned by NewLRU for non-positive capacities.
var ErrInvalidSize = errors.New("must provide a positive size")

// Cache memoizes lookups. Every write path calls InvalidateAll before
// it returns.
type Cache interface {
	Get(key string) (any, bool)
	Add(key string, value any)
	InvalidateAll()
	Len() int
}

// LRU is a fixed-capacity, least-recently-used cache that is safe for
// concurrent use. Use NewLRU; the zero value is not ready.
type LRU struct {
	size      int
	evictList *list.List
	items     map[string]*list.Element
	lock      sync.Mutex
}

type cacheEntry struct {
	key   string
	value any
}

// NewLRU creates a cache holding at most size entries.
func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return &LRU{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
	}, nil
}

// Add adds or updates the value for key and marks it most recently used.
func (c *LRU) Add(key string, value any) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*cacheEntry).value = value
		return
	}

	c.items[key] = c.evictList.PushFront(&cacheEntry{key: key, value: value})
	if c.evictList.Len() > c.size {
		if oldest := c.evictList.Back(); oldest != nil {
			c.evictList.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Get retrieves the value for key and marks it as most recently used.
func (c *LRU) Get(key string) (any, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	ent, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.evictList.MoveToFront(ent)
	return ent.Value.(*cacheEntry).value, true
}

// InvalidateAll drops every entry.
func (c *LRU) InvalidateAll() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.evictList.Init()
	clear(c.items)
}

// Len returns the current number of entries.
func (c *LRU) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.evictList.Len()
}
