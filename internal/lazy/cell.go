// Package lazy provides compute-once, publish-once cells.
//
// Any number of goroutines may race to compute a cell's value; exactly one
// result is published and every later reader observes it. Failures are
// published only when they are permanent (see errors.Permanent), so
// transient failures such as resolver errors are retried on the next call.
package lazy

import (
	"sync/atomic"

	"github.com/wippyai/metareflect/errors"
)

type result[T any] struct {
	err error
	val T
}

// Cell holds a lazily computed value. The zero Cell is ready to use.
type Cell[T any] struct {
	p atomic.Pointer[result[T]]
}

// Get returns the published value, computing it with fn if none is published yet.
// Concurrent callers may all invoke fn; only the first published result wins.
func (c *Cell[T]) Get(fn func() (T, error)) (T, error) {
	if r := c.p.Load(); r != nil {
		return r.val, r.err
	}

	val, err := fn()
	if err != nil && !errors.Permanent(err) {
		return val, err
	}

	r := &result[T]{val: val, err: err}
	if !c.p.CompareAndSwap(nil, r) {
		r = c.p.Load()
	}
	return r.val, r.err
}
