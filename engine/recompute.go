package engine

import (
	"sync"

	"github.com/lixenwraith/dockbridge/network"
)

// RecomputeQueue stands in for the graph engine's deferred recompute scheduler
// Requests are idempotent while pending; nothing is recomputed here
type RecomputeQueue struct {
	mu       sync.Mutex
	pending  map[network.NetID]struct{}
	order    []network.NetID
	requests uint64
	onQueued func()
}

// NewRecomputeQueue creates an empty queue, onQueued runs for every newly pending net
func NewRecomputeQueue(onQueued func()) *RecomputeQueue {
	return &RecomputeQueue{
		pending:  make(map[network.NetID]struct{}),
		onQueued: onQueued,
	}
}

// Request queues net for recomputation, returns false if already pending or unassigned
func (q *RecomputeQueue) Request(net network.NetID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.requests++
	if net == 0 {
		return false
	}
	if _, ok := q.pending[net]; ok {
		return false
	}
	q.pending[net] = struct{}{}
	q.order = append(q.order, net)
	if q.onQueued != nil {
		q.onQueued()
	}
	return true
}

// Pending returns queued nets in request order
func (q *RecomputeQueue) Pending() []network.NetID {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]network.NetID, len(q.order))
	copy(out, q.order)
	return out
}

// Drain returns and clears queued nets in request order
func (q *RecomputeQueue) Drain() []network.NetID {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.order
	q.order = nil
	q.pending = make(map[network.NetID]struct{})
	return out
}

// Requests returns the total number of Request calls, duplicates included
func (q *RecomputeQueue) Requests() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.requests
}
