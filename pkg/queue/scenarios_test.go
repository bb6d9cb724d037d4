package queue_test

import (
	"testing"
	"time"

	"threadq/pkg/queue"
	"threadq/pkg/queue/fifo"
)

func waitForClaim(t *testing.T, th *queue.Thread) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if th.WaitQueue() != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("thread never claimed its wait queue")
}

// TestScenarioSimpleBlockAndSignal covers the ordinary path: a thread
// blocks on an unowned wait queue and another party extracts it, which
// must resume the blocked call with SUCCESSFUL.
func TestScenarioSimpleBlockAndSignal(t *testing.T) {
	core := queue.NewCore(false, queue.NewGoroutineScheduler(), queue.NewWallClockTimer(), nil)
	q := queue.NewQueue("cv", fifo.Discipline{}, fifo.NewHeads())
	a := queue.NewThread("A", 10)

	done := make(chan struct{})
	go func() {
		q.Lock()
		core.EnqueueCritical(q, a, &queue.EnqueueContext{ExpectedDispatchDisableLevel: 1})
		close(done)
	}()

	waitForClaim(t, a)

	q.Lock()
	core.ExtractCritical(q, a, nil)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("A never resumed after being signalled")
	}

	if a.ReturnCode() != queue.StatusSuccessful {
		t.Fatalf("expected SUCCESSFUL, got %v", a.ReturnCode())
	}
	if a.WaitQueue() != nil {
		t.Fatalf("expected A restored to idle")
	}
}

// syncFireTimer fires onFire synchronously and inline with the Arm call,
// letting the timeout path be exercised deterministically without sleeping
// or racing a real watchdog goroutine.
type syncFireTimer struct{}

func (syncFireTimer) ArmRelative(thread *queue.Thread, d time.Duration, onFire func()) { onFire() }
func (syncFireTimer) ArmAbsolute(thread *queue.Thread, when time.Time, onFire func())  { onFire() }
func (syncFireTimer) Cancel(thread *queue.Thread)                                      {}

// TestScenarioTimeoutWins covers a thread whose wait is never signalled:
// its own watchdog must surface TIMEOUT and restore it to idle without
// ever parking the calling goroutine.
func TestScenarioTimeoutWins(t *testing.T) {
	core := queue.NewCore(false, queue.NewGoroutineScheduler(), syncFireTimer{}, nil)
	q := queue.NewQueue("cv", fifo.Discipline{}, fifo.NewHeads())
	a := queue.NewThread("A", 10)

	q.Lock()
	core.EnqueueCritical(q, a, &queue.EnqueueContext{
		ExpectedDispatchDisableLevel: 1,
		TimeoutDiscipline:            queue.TimeoutRelative,
		Timeout:                      time.Millisecond,
	})

	if a.ReturnCode() != queue.StatusTimeout {
		t.Fatalf("expected TIMEOUT, got %v", a.ReturnCode())
	}
	if a.WaitQueue() != nil {
		t.Fatalf("expected A restored to idle")
	}
}

// TestScenarioRelativeZeroMeansNoTimeout covers the boundary case called
// out in DESIGN.md: a relative timeout of zero arms nothing at all.
func TestScenarioRelativeZeroMeansNoTimeout(t *testing.T) {
	core := queue.NewCore(false, queue.NewGoroutineScheduler(), queue.NewWallClockTimer(), nil)
	q := queue.NewQueue("cv", fifo.Discipline{}, fifo.NewHeads())
	a := queue.NewThread("A", 10)

	done := make(chan struct{})
	go func() {
		q.Lock()
		core.EnqueueCritical(q, a, &queue.EnqueueContext{
			ExpectedDispatchDisableLevel: 1,
			TimeoutDiscipline:            queue.TimeoutRelative,
			Timeout:                      0,
		})
		close(done)
	}()

	waitForClaim(t, a)

	select {
	case <-done:
		t.Fatalf("a relative timeout of zero must not fire")
	case <-time.After(50 * time.Millisecond):
	}

	q.Lock()
	core.ExtractCritical(q, a, nil)
	<-done

	if a.ReturnCode() != queue.StatusSuccessful {
		t.Fatalf("expected SUCCESSFUL, got %v", a.ReturnCode())
	}
}

// capturingScheduler wraps GoroutineScheduler to record which threads
// UpdatePriority was asked to raise.
type capturingScheduler struct {
	*queue.GoroutineScheduler
	updated [][]*queue.Thread
}

func (c *capturingScheduler) UpdatePriority(threads []*queue.Thread) {
	c.updated = append(c.updated, threads)
}

// TestScenarioSurrenderHandsOffToSuccessor covers an owned mutex: the owner
// surrenders, the highest-priority waiter becomes the new owner and
// resumes with SUCCESSFUL, and the owner was passed to UpdatePriority for
// inheritance from the more urgent waiter.
func TestScenarioSurrenderHandsOffToSuccessor(t *testing.T) {
	sched := &capturingScheduler{GoroutineScheduler: queue.NewGoroutineScheduler()}
	core := queue.NewCore(false, sched, queue.NewWallClockTimer(), nil)

	q := queue.NewQueue("m", fifo.Mutex{}, fifo.NewMutexHeads())
	owner := queue.NewThread("owner", 10)
	waiter := queue.NewThread("waiter", 1)
	q.SetOwner(owner)

	done := make(chan struct{})
	go func() {
		q.Lock()
		core.EnqueueCritical(q, waiter, &queue.EnqueueContext{ExpectedDispatchDisableLevel: 1})
		close(done)
	}()

	waitForClaim(t, waiter)

	q.Lock()
	core.Surrender(q, owner, false, nil)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never resumed after surrender")
	}

	if waiter.ReturnCode() != queue.StatusSuccessful {
		t.Fatalf("expected SUCCESSFUL, got %v", waiter.ReturnCode())
	}
	if q.Owner() != waiter {
		t.Fatalf("expected waiter to become owner, got %v", q.Owner())
	}
	if waiter.ResourceCount != 1 {
		t.Fatalf("expected successor's resource count incremented, got %d", waiter.ResourceCount)
	}

	if len(sched.updated) != 1 || len(sched.updated[0]) != 1 || sched.updated[0][0] != owner {
		t.Fatalf("expected owner queued for priority inheritance from waiter, got %v", sched.updated)
	}
}

// TestScenarioDequeueExtractsFirstWaiter covers the no-signal-target form
// of extraction: Dequeue removes and returns whichever thread the
// discipline puts first, without the caller naming it ahead of time.
func TestScenarioDequeueExtractsFirstWaiter(t *testing.T) {
	core := queue.NewCore(false, queue.NewGoroutineScheduler(), queue.NewWallClockTimer(), nil)
	q := queue.NewQueue("cv", fifo.Discipline{}, fifo.NewHeads())
	a := queue.NewThread("A", 10)

	done := make(chan struct{})
	go func() {
		q.Lock()
		core.EnqueueCritical(q, a, &queue.EnqueueContext{ExpectedDispatchDisableLevel: 1})
		close(done)
	}()

	waitForClaim(t, a)

	thread, ok := core.Dequeue(q, nil)
	if !ok || thread != a {
		t.Fatalf("expected to dequeue A, got %v ok=%v", thread, ok)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("A never resumed after being dequeued")
	}
	if a.ReturnCode() != queue.StatusSuccessful {
		t.Fatalf("expected SUCCESSFUL, got %v", a.ReturnCode())
	}
}
