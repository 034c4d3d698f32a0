package resources

import "sync"

// Cache maps content addresses to loaded resources. Entries are never
// replaced once published and iterate in insertion order.
type Cache[T any] struct {
	mu    sync.RWMutex
	items map[uint64]T
	order []uint64
}

func NewCache[T any]() *Cache[T] {
	return &Cache[T]{
		items: make(map[uint64]T),
	}
}

func (c *Cache[T]) Get(id uint64) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[id]
	return v, ok
}

// Put publishes v under id. It returns false and leaves the cache untouched
// when id is already present.
func (c *Cache[T]) Put(id uint64, v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; ok {
		return false
	}
	c.items[id] = v
	c.order = append(c.order, id)
	return true
}

func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Values returns a snapshot of every entry in insertion order.
func (c *Cache[T]) Values() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Each calls fn for every entry in insertion order and stops at the first error.
func (c *Cache[T]) Each(fn func(id uint64, v T) error) error {
	c.mu.RLock()
	ids := append([]uint64(nil), c.order...)
	c.mu.RUnlock()

	for _, id := range ids {
		v, ok := c.Get(id)
		if !ok {
			continue
		}
		if err := fn(id, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[uint64]T)
	c.order = nil
}
