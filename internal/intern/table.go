// Package intern holds the uniquing tables that keep exactly one canonical
// descriptor per structural key.
package intern

import "sync"

// Table maps structural keys to canonical values.
// Thread-safe; lookups of published keys never block.
type Table[K comparable, V any] struct {
	m sync.Map
}

// GetOrCreate returns the canonical value for key, calling create on a miss.
// Racing callers may each call create, but all of them receive the one
// value that was stored first.
func (t *Table[K, V]) GetOrCreate(key K, create func() V) V {
	if v, ok := t.m.Load(key); ok {
		return v.(V)
	}
	v, _ := t.m.LoadOrStore(key, create())
	return v.(V)
}
