package cache

import "sync"

// Registry remembers which displayed strings are translation outputs and
// the source text each one came from. Keys ignore case.
type Registry struct {
	mu       sync.RWMutex
	original map[string]string // folded translation → original text
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{original: make(map[string]string)}
}

// Record registers translation as produced from original.
func (r *Registry) Record(translation, original string) {
	key := FoldKey(translation)

	r.mu.Lock()
	r.original[key] = original
	r.mu.Unlock()
}

// Original returns the source text translation was produced from.
func (r *Registry) Original(translation string) (string, bool) {
	key := FoldKey(translation)

	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.original[key]
	return v, ok
}

// Contains reports whether text is a recorded translation output.
func (r *Registry) Contains(text string) bool {
	_, ok := r.Original(text)
	return ok
}

// Clear forgets every recorded translation.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.original = make(map[string]string)
	r.mu.Unlock()
}

// Len returns the number of recorded translations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.original)
}
