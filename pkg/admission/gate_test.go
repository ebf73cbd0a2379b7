package admission_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glagena/gladownloader/pkg/admission"
)

func TestGate_NeverExceedsCapacity(t *testing.T) {
	const capacity = 3
	const workers = 10

	gate := admission.NewGate(capacity)
	ctx := context.Background()

	var current, peak atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gate.Acquire(ctx); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer gate.Release()

			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		}()
	}
	wg.Wait()

	if peak.Load() > capacity {
		t.Errorf("observed %d concurrent holders, capacity %d", peak.Load(), capacity)
	}
	if gate.InFlight() != 0 {
		t.Errorf("expected 0 in flight after release, got %d", gate.InFlight())
	}
}

func TestGate_ReleaseRestoresCapacityAfterFailure(t *testing.T) {
	gate := admission.NewGate(1)
	ctx := context.Background()

	// Simulate a failed operation holding the slot.
	func() {
		if err := gate.Acquire(ctx); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		defer gate.Release()
		// failure path: nothing else runs
	}()

	acquireCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := gate.Acquire(acquireCtx); err != nil {
		t.Fatalf("slot not restored after failure path: %v", err)
	}
	gate.Release()
}

func TestGate_AcquireHonorsContext(t *testing.T) {
	gate := admission.NewGate(1)
	ctx := context.Background()

	if err := gate.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer gate.Release()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := gate.Acquire(waitCtx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestGate_InFlightIsAdvisory(t *testing.T) {
	gate := admission.NewGate(2)
	ctx := context.Background()

	if gate.InFlight() != 0 {
		t.Errorf("expected 0 in flight, got %d", gate.InFlight())
	}
	if err := gate.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if gate.InFlight() != 1 {
		t.Errorf("expected 1 in flight, got %d", gate.InFlight())
	}
	if gate.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", gate.Capacity())
	}
	gate.Release()
}
