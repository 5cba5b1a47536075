package cache

import (
	"sync"

	"golang.org/x/text/cases"
)

// FoldKey returns the case-insensitive lookup key for name.
func FoldKey(name string) string {
	return cases.Fold().String(name)
}

// PathCache maps override names to values, ignoring case. Rebuilds swap the
// whole map so readers never observe a partially built cache.
type PathCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

// NewPathCache creates an empty cache.
func NewPathCache[V any]() *PathCache[V] {
	return &PathCache[V]{entries: make(map[string]V)}
}

// Get returns the value cached for name.
func (c *PathCache[V]) Get(name string) (V, bool) {
	key := FoldKey(name)

	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[key]
	return v, ok
}

// Len returns the number of cached names.
func (c *PathCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Replace installs the contents of b as the new cache.
func (c *PathCache[V]) Replace(b *Builder[V]) {
	entries := b.entries
	b.entries = make(map[string]V)

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
}

// Builder accumulates entries for a PathCache off to the side.
type Builder[V any] struct {
	entries map[string]V
}

// NewBuilder creates an empty builder.
func NewBuilder[V any]() *Builder[V] {
	return &Builder[V]{entries: make(map[string]V)}
}

// Set stores v under name, overwriting any earlier value.
func (b *Builder[V]) Set(name string, v V) {
	b.entries[FoldKey(name)] = v
}

// Add stores v under name unless the name is taken. It returns the value
// already present and false when the name is taken.
func (b *Builder[V]) Add(name string, v V) (V, bool) {
	key := FoldKey(name)
	if existing, ok := b.entries[key]; ok {
		return existing, false
	}
	b.entries[key] = v
	return v, true
}

// Len returns the number of accumulated names.
func (b *Builder[V]) Len() int {
	return len(b.entries)
}
