package main

import (
	"slices"
	"sync"
)

// IndexCache holds the latest parse result per document path. An entry is
// present, possibly empty, for every document parsed since the last Clear.
type IndexCache struct {
	mu    sync.RWMutex
	items map[string][]*TodoItem
}

// NewIndexCache creates a new empty index cache
func NewIndexCache() *IndexCache {
	return &IndexCache{items: make(map[string][]*TodoItem)}
}

// Get returns the cached items of a document
func (c *IndexCache) Get(path string) ([]*TodoItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items, exists := c.items[path]
	return items, exists
}

// Has reports whether the document has been parsed
func (c *IndexCache) Has(path string) bool {
	_, ok := c.Get(path)
	return ok
}

// Set replaces the items of a document
func (c *IndexCache) Set(path string, items []*TodoItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if items == nil {
		items = []*TodoItem{}
	}
	c.items[path] = items
}

// Delete removes a document and reports whether it was present
func (c *IndexCache) Delete(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[path]
	delete(c.items, path)
	return ok
}

// Clear drops every entry
func (c *IndexCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
}

// Len returns the number of documents in the cache
func (c *IndexCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Paths returns the cached document paths in ascending order
func (c *IndexCache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	paths := make([]string, 0, len(c.items))
	for path := range c.items {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	return paths
}

// Flatten concatenates every document's items in path order
func (c *IndexCache) Flatten() []*TodoItem {
	paths := c.Paths()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var flat []*TodoItem
	for _, path := range paths {
		flat = append(flat, c.items[path]...)
	}

	return flat
}
