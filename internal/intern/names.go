package intern

import (
	"hash/maphash"
	"sync"
	"sync/atomic"
)

const minBuckets = 16

type nameEntry[V any] struct {
	val  V
	name string
	hash uint64
}

// nameArray is an immutable snapshot once published; growth builds a new one.
type nameArray[V any] struct {
	slots []atomic.Pointer[nameEntry[V]]
	count int
}

// NameTable is an open-addressing hash table for named lookups.
//
// Readers never lock: they probe the currently published slot array, and a
// slot is written at most once. Writers serialize on a mutex; when the load
// factor passes one half the table is rebuilt into a fresh array that is
// swapped in atomically, so readers still probing the old array finish
// against a consistent snapshot.
type NameTable[V any] struct {
	arr  atomic.Pointer[nameArray[V]]
	seed maphash.Seed
	mu   sync.Mutex
}

// NewNameTable creates a table sized for about hint names.
func NewNameTable[V any](hint int) *NameTable[V] {
	t := &NameTable[V]{seed: maphash.MakeSeed()}
	t.arr.Store(newNameArray[V](bucketsFor(hint)))
	return t
}

func bucketsFor(n int) int {
	b := minBuckets
	for b < 2*n {
		b <<= 1
	}
	return b
}

func newNameArray[V any](size int) *nameArray[V] {
	return &nameArray[V]{slots: make([]atomic.Pointer[nameEntry[V]], size)}
}

func (t *NameTable[V]) hash(name string) uint64 {
	return maphash.String(t.seed, name)
}

// Lookup finds name without locking.
func (t *NameTable[V]) Lookup(name string) (V, bool) {
	return probe(t.arr.Load(), t.hash(name), name)
}

// Add inserts name unless it is already present, and returns the value
// stored for name along with whether this call inserted it.
func (t *NameTable[V]) Add(name string, val V) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	arr := t.arr.Load()
	h := t.hash(name)
	if v, ok := probe(arr, h, name); ok {
		return v, false
	}

	if 2*(arr.count+1) > len(arr.slots) {
		arr = t.grow(arr)
	}
	place(arr, &nameEntry[V]{name: name, hash: h, val: val})
	return val, true
}

// Len returns the number of names.
func (t *NameTable[V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.arr.Load().count
}

func (t *NameTable[V]) grow(old *nameArray[V]) *nameArray[V] {
	arr := newNameArray[V](len(old.slots) * 2)
	for i := range old.slots {
		if e := old.slots[i].Load(); e != nil {
			place(arr, e)
		}
	}
	t.arr.Store(arr)
	return arr
}

func probe[V any](arr *nameArray[V], h uint64, name string) (V, bool) {
	mask := uint64(len(arr.slots) - 1)
	for i := h & mask; ; i = (i + 1) & mask {
		e := arr.slots[i].Load()
		if e == nil {
			var zero V
			return zero, false
		}
		if e.hash == h && e.name == name {
			return e.val, true
		}
	}
}

func place[V any](arr *nameArray[V], e *nameEntry[V]) {
	mask := uint64(len(arr.slots) - 1)
	for i := e.hash & mask; ; i = (i + 1) & mask {
		if arr.slots[i].Load() == nil {
			arr.slots[i].Store(e)
			arr.count++
			return
		}
	}
}
