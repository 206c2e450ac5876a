// Package graph computes per-symbol dependency closures over analyzed files
// and shapes them into the output document.
package graph

import (
	"sort"
	"sync"
)

// Registry maps absolute file paths to the set of symbol names declared in
// them. It is append-only: entries are published once, after a file's
// analysis completes, and never removed. Concurrent readers may observe a
// file as not-yet-published; callers handle that with the opaque-alias
// fallback rather than waiting.
type Registry struct {
	mutex sync.RWMutex
	files map[string][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		files: make(map[string][]string),
	}
}

// Publish records the declared symbol names for a file. Names are stored
// sorted. Publishing the same path twice replaces the entry (re-analysis
// after a file change).
func (r *Registry) Publish(path string, names []string) {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	r.mutex.Lock()
	r.files[path] = sorted
	r.mutex.Unlock()
}

// Lookup returns the declared symbol names of a file, or ok=false when the
// file has not been published (not yet analyzed, or its parse failed).
func (r *Registry) Lookup(path string) ([]string, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names, ok := r.files[path]
	return names, ok
}

// Len returns the number of published files.
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.files)
}
