// Package linecache caches rendered segment rows keyed by row index,
// invalidated through a dirty-row set. Dirty rows accumulate between renders
// and are drained only when a row's content has been recomputed and stored.
package linecache

import (
	"sort"
	"sync"

	"github.com/dshills/termpanel/internal/renderer"
)

// Cache is a per-row cache of rendered rows with dirty tracking.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[int][]renderer.Segment
	dirty   map[int]struct{}
}

// New creates an empty cache with every row of the given grid height dirty.
func New(rows int) *Cache {
	c := &Cache{
		entries: make(map[int][]renderer.Segment),
		dirty:   make(map[int]struct{}, rows),
	}
	for y := 0; y < rows; y++ {
		c.dirty[y] = struct{}{}
	}
	return c
}

// MarkRow marks a row dirty, invalidating its cached entry.
func (c *Cache) MarkRow(y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markLocked(y)
}

// MarkRows marks several rows dirty.
func (c *Cache) MarkRows(ys []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, y := range ys {
		c.markLocked(y)
	}
}

func (c *Cache) markLocked(y int) {
	if y < 0 {
		return
	}
	c.dirty[y] = struct{}{}
	delete(c.entries, y)
}

// Dirty returns true if the row needs recomputing.
func (c *Cache) Dirty(y int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.dirty[y]
	return ok
}

// DirtyRows returns the currently dirty rows in ascending order.
func (c *Cache) DirtyRows() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.dirty) == 0 {
		return nil
	}
	rows := make([]int, 0, len(c.dirty))
	for y := range c.dirty {
		rows = append(rows, y)
	}
	sort.Ints(rows)
	return rows
}

// Get returns the cached row, if any.
func (c *Cache) Get(y int) ([]renderer.Segment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.entries[y]
	return row, ok
}

// Put stores a freshly computed row and drains it from the dirty set.
func (c *Cache) Put(y int, row []renderer.Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[y] = row
	delete(c.dirty, y)
}

// Reset discards all entries and marks every row of the new grid height
// dirty. Used when a resize replaces the grid.
func (c *Cache) Reset(rows int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[int][]renderer.Segment)
	c.dirty = make(map[int]struct{}, rows)
	for y := 0; y < rows; y++ {
		c.dirty[y] = struct{}{}
	}
}

// Len returns the number of cached rows.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
