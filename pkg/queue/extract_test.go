package queue

import (
	"testing"
	"time"
)

// TestExtractRacesIntendToBlock reproduces a signaler winning the wait-flag
// handshake against a blocker that has published intent but not yet run
// its own acquire-CAS: extract (not a timeout) observes INTEND_TO_BLOCK,
// and the eventual enqueuer must discover its own CAS has already lost.
func TestExtractRacesIntendToBlock(t *testing.T) {
	c := newTestCore(false)
	ops := &stubOps{}
	q := NewQueue("cv", ops, nil)
	a := NewThread("A", 10)

	// Simulate EnqueueCritical having completed steps 1-6 for a without
	// ever reaching its own acquire-CAS at step 10.
	a.waitQueue = q
	a.ops = q.Ops
	a.Flags.SetClass(ClassObject)
	a.Flags.Set(PhaseIntendToBlock)
	ops.waiters = append(ops.waiters, a)

	q.Lock()
	c.ExtractCritical(q, a, nil)

	if got := a.Flags.Get(); got != PhaseReadyAgain {
		t.Fatalf("expected READY_AGAIN after the race, got %v", got)
	}
	if a.WaitQueue() != nil {
		t.Fatalf("expected a restored to idle")
	}
	if a.Flags.GetClass() != ClassIdle {
		t.Fatalf("expected class IDLE restored")
	}

	// The enqueuer's own CAS must now observe it has already lost the race
	// and must not attempt to block.
	if a.Flags.TryChangeAcquire(PhaseIntendToBlock, PhaseBlocked) {
		t.Fatalf("enqueuer's CAS must fail once extract already advanced the phase")
	}
}

// TestExtractAfterTrueBlockForcesUnblock covers the other branch of
// make_ready_again: the blocker's own CAS already won (BLOCKED), so the
// extractor must force READY_AGAIN and report needsUnblock so the caller
// actually wakes the parked goroutine.
func TestExtractAfterTrueBlockForcesUnblock(t *testing.T) {
	c := newTestCore(false)
	ops := &stubOps{}
	q := NewQueue("cv", ops, nil)
	a := NewThread("A", 10)

	a.waitQueue = q
	a.ops = q.Ops
	a.Flags.SetClass(ClassObject)
	a.Flags.Set(PhaseIntendToBlock)
	ops.waiters = append(ops.waiters, a)

	if !a.Flags.TryChangeAcquire(PhaseIntendToBlock, PhaseBlocked) {
		t.Fatalf("setup: expected the blocker's own CAS to win uncontested")
	}

	done := make(chan struct{})
	go func() {
		c.Scheduler.Block(a)
		close(done)
	}()

	// Give the goroutine above a chance to start parking; Wake is safe to
	// call before Block registers, since GoroutineScheduler's per-thread
	// wakeup channel is buffered.
	q.Lock()
	c.ExtractCritical(q, a, nil)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Scheduler.Wake to have unblocked the parked goroutine")
	}

	if a.Flags.Get() != PhaseReadyAgain {
		t.Fatalf("expected READY_AGAIN, got %v", a.Flags.Get())
	}
}
