package admission

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate bounds how many extraction operations run concurrently.
// Acquire suspends the caller until a slot is free; Release must run on every
// exit path. Admission order is whatever the semaphore provides.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64
	inflight atomic.Int64
}

// NewGate creates a gate with the given capacity.
func NewGate(capacity int64) *Gate {
	if capacity <= 0 {
		capacity = 10
	}
	return &Gate{
		sem:      semaphore.NewWeighted(capacity),
		capacity: capacity,
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.inflight.Add(1)
	return nil
}

// Release returns a slot to the gate.
func (g *Gate) Release() {
	g.inflight.Add(-1)
	g.sem.Release(1)
}

// Capacity returns the fixed slot count.
func (g *Gate) Capacity() int64 {
	return g.capacity
}

// InFlight returns the number of occupied slots. Advisory only: the value can
// be stale the instant it is read, so it must never drive an admission
// decision. It exists purely for queue-position messaging.
func (g *Gate) InFlight() int64 {
	return g.inflight.Load()
}
