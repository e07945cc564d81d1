// Package pool provides a free list of fixed-size scratch buffers.
package pool

import (
	"sync/atomic"
)

// noCopy may be added to structs which must not be copied after first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527 for details
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// metrics tracks hits and misses for a given pool.
type metrics struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

func (m *metrics) hit() {
	m.hits.Add(1)
}

func (m *metrics) miss() {
	m.misses.Add(1)
}

// Hits returns a snapshot of hits and misses.
func (m *metrics) Hits() (hits, total uint64) {
	hits = m.hits.Load()
	return hits, hits + m.misses.Load()
}

// SlicePool is a set of fixed-length slices that may be individually saved and retrieved.
//
// Any slice stored in the SlicePool will be held onto indefinitely,
// and slices are returned for reuse in a round-robin order.
//
// A SlicePool is safe for use by multiple goroutines simultaneously.
// Unlike the standard library Pool, the free list is a channel,
// so the number of idle slices held is bounded by the pool depth.
type SlicePool[S ~[]T, T any] struct {
	noCopy noCopy

	metrics

	ch     chan S
	length int
}

// NewSlicePool returns a SlicePool holding onto at most depth idle slices of the given length.
//
// It will panic if given a negative depth, the same as making a negative-buffer channel.
// It will also panic if given a zero or negative length.
func NewSlicePool[S ~[]T, T any](depth, length int) *SlicePool[S, T] {
	if length <= 0 {
		panic("myftp: pool: slice length must be greater than zero")
	}

	return &SlicePool[S, T]{
		ch:     make(chan S, depth),
		length: length,
	}
}

// Len returns the length of every slice handed out by the pool.
func (p *SlicePool[S, T]) Len() int {
	return p.length
}

// Get retrieves a slice from the pool, or allocates a new one if the pool is empty.
// The returned slice always has length Len().
//
// A nil SlicePool cannot know the length to allocate, and panics.
func (p *SlicePool[S, T]) Get() S {
	select {
	case b := <-p.ch:
		p.hit()
		return b[:p.length]

	default:
		p.miss()
		return make(S, p.length)
	}
}

// Put returns the slice to the pool, if there is room in the pool,
// and if the slice is able to hold Len() elements.
//
// A nil SlicePool is treated as a pool with no capacity.
func (p *SlicePool[S, T]) Put(b S) {
	if p == nil {
		// functional default: no reuse
		return
	}

	if cap(b) < p.length {
		// Foreign slice: Get would have to re-extend past its capacity.
		return
	}

	select {
	case p.ch <- b:
	default:
	}
}
