package event

import (
	"math/bits"
	"sync/atomic"
)

// EventQueue is a lock-free MPSC ring buffer for lifecycle events
// Thread-Safety:
//   - Push: Lock-free CAS, multiple producers OK
//   - Consume: Single consumer (tick loop)
//   - Published flags prevent reading partial writes
//
// Overflow: Push is rejected and counted, queued events are never overwritten
type EventQueue struct {
	events    []Event
	published []atomic.Bool // True = slot fully written
	size      uint64
	mask      uint64
	head      atomic.Uint64 // Read index
	tail      atomic.Uint64 // Write index
	dropped   atomic.Uint64
}

// NewEventQueue creates a queue with capacity rounded up to a power of two
func NewEventQueue(capacity int) *EventQueue {
	if capacity < 2 {
		capacity = 2
	}
	size := uint64(1) << bits.Len64(uint64(capacity-1))
	return &EventQueue{
		events:    make([]Event, size),
		published: make([]atomic.Bool, size),
		size:      size,
		mask:      size - 1,
	}
}

// Push adds event using lock-free CAS with published flags pattern
// Returns false if the queue is full, the event is dropped
func (eq *EventQueue) Push(ev Event) bool {
	for {
		currentTail := eq.tail.Load()
		if currentTail-eq.head.Load() >= eq.size {
			eq.dropped.Add(1)
			return false
		}

		if eq.tail.CompareAndSwap(currentTail, currentTail+1) {
			idx := currentTail & eq.mask
			eq.events[idx] = ev
			eq.published[idx].Store(true) // MUST be after write
			return true
		}
	}
}

// Consume returns all pending events in FIFO order and advances head
// Stops at the first slot whose writer has not finished
func (eq *EventQueue) Consume() []Event {
	currentHead := eq.head.Load()
	currentTail := eq.tail.Load()
	if currentTail == currentHead {
		return nil
	}

	result := make([]Event, 0, currentTail-currentHead)
	for i := currentHead; i < currentTail; i++ {
		idx := i & eq.mask
		if !eq.published[idx].Load() {
			break // Writer incomplete
		}
		result = append(result, eq.events[idx])
		eq.events[idx] = Event{}
		eq.published[idx].Store(false)
	}

	eq.head.Store(currentHead + uint64(len(result)))
	if len(result) == 0 {
		return nil
	}
	return result
}

// Len returns approximate pending event count
func (eq *EventQueue) Len() int {
	head := eq.head.Load()
	tail := eq.tail.Load()
	if tail <= head {
		return 0
	}
	return int(tail - head)
}

// Cap returns the ring capacity
func (eq *EventQueue) Cap() int {
	return int(eq.size)
}

// Dropped returns the number of rejected pushes
func (eq *EventQueue) Dropped() uint64 {
	return eq.dropped.Load()
}
