// Package mutable hands mutations over to the goroutine which owns a
// structure.
//
// Real-time components (scheduler, mixer, pitch tracker) own their state on
// the audio goroutine. Other goroutines never touch that state directly: they
// put mutator closures to the component's Queue and the audio goroutine
// applies them at the start of its next buffer. Neither side ever waits for
// the other: Put doesn't depend on the owner applying mutators and Apply
// doesn't depend on producers.
package mutable

import "sync/atomic"

type (
	// MutatorFunc mutates the object. It's executed by the owner goroutine.
	MutatorFunc func()

	// Queue is an unbounded FIFO of mutators with many producers and a
	// single consumer. The zero value is not usable, use NewQueue.
	Queue struct {
		head atomic.Pointer[node] // last put node, swapped by producers
		len  atomic.Int64

		// owned by the consumer
		tail *node
	}

	node struct {
		next    atomic.Pointer[node]
		mutator MutatorFunc
	}
)

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	stub := &node{}
	q := &Queue{tail: stub}
	q.head.Store(stub)
	return q
}

// Put mutators to the queue. Put never blocks, so it's safe to call from the
// owner goroutine too, including from within applied mutators.
func (q *Queue) Put(mutators ...MutatorFunc) {
	for _, m := range mutators {
		if m == nil {
			continue
		}
		n := &node{mutator: m}
		q.len.Add(1)
		prev := q.head.Swap(n)
		prev.next.Store(n)
	}
}

// Apply executes pending mutators in the order they were put and returns the
// number of applied mutators. Mutators put while Apply runs are applied as
// well. Apply must be called by a single goroutine. A mutator which is put
// concurrently with Apply can be left for the next call.
func (q *Queue) Apply() int {
	applied := 0
	for {
		next := q.tail.next.Load()
		if next == nil {
			return applied
		}
		m := next.mutator
		// next becomes the new stub
		next.mutator = nil
		q.tail = next
		q.len.Add(-1)
		m()
		applied++
	}
}

// Len returns the number of pending mutators.
func (q *Queue) Len() int {
	return int(q.len.Load())
}
