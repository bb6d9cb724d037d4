package queue

import (
	"time"

	"threadq/internal/diagjournal"
	"threadq/internal/kernerr"
)

// EnqueueCritical implements enqueue_critical (§4.3): the calling goroutine
// blocks itself on queue on behalf of thread. Precondition: caller holds
// queue.Lock(); this function releases it, one way or another, before
// returning.
func (c *Core) EnqueueCritical(queue *Queue, thread *Thread, ctx *EnqueueContext) {
	// Step 1: claim. Publish the queue this thread is about to wait on
	// before anything else can observe it as an owner elsewhere.
	thread.mu.Lock()
	thread.waitQueue = queue
	thread.ops = queue.Ops
	thread.Flags.SetClass(ClassObject)
	if ctx.MPCallout != nil {
		thread.mpCallout = ctx.MPCallout
	}
	thread.mu.Unlock()

	// Step 2: walk the ownership chain looking for a cycle back to thread.
	path, err := c.pathAcquire(thread, queue)
	if err != nil {
		c.enqueueDeadlock(queue, thread, ctx)
		return
	}

	// Step 3: splice thread into queue's heads via the plugged-in discipline.
	queue.Ops.Enqueue(queue, thread, path)

	// Step 4: release every lock and registry entry the walk acquired.
	c.pathRelease(path)

	// Step 5: publish intent to block.
	thread.returnCode = StatusSuccessful
	thread.Flags.Set(PhaseIntendToBlock)

	// Step 6: disable dispatching and assert the nesting level the caller
	// expects — a mismatch here means enqueue was entered from a state the
	// driver never intended to support.
	level := c.Scheduler.DispatchDisable()
	if level != ctx.ExpectedDispatchDisableLevel {
		err := kernerr.NewEnqueueBadStateError("enqueue_critical: dispatch-disable nesting mismatch").
			WithContext("queue", queue.Name).
			WithContext("thread", thread.ID).
			WithContext("expected_level", ctx.ExpectedDispatchDisableLevel).
			WithContext("observed_level", level)
		thread.lastError = err
		fatal(err)
		return
	}

	// Step 7: release the queue lock; thread is now reachable by extractors
	// and the path walks of other enqueuers.
	queue.Unlock()

	// Step 8: arm the watchdog per the caller's timeout discipline. A
	// relative timeout of zero (or TimeoutNone) means no timeout at all.
	switch ctx.TimeoutDiscipline {
	case TimeoutRelative:
		if ctx.Timeout > 0 {
			thread.armedAt = time.Now()
			c.Timer.ArmRelative(thread, ctx.Timeout, func() { c.watchdogFire(queue, thread) })
		}
	case TimeoutAbsolute:
		thread.armedAt = time.Now()
		c.Timer.ArmAbsolute(thread, ctx.Deadline, func() { c.watchdogFire(queue, thread) })
	}

	// Steps 9-10: reconcile against a racing extractor/surrenderer/watchdog
	// that may already have tried to wake thread before it ever blocked. If
	// the acquire-CAS wins, thread truly blocks and the calling goroutine
	// parks here until woken. If it loses, thread was already marked
	// READY_AGAIN, and this call self-cancels instead of blocking.
	if thread.Flags.TryChangeAcquire(PhaseIntendToBlock, PhaseBlocked) {
		c.Scheduler.Block(thread)
	} else {
		c.removeTimerAndUnblock(thread, queue)
		c.metrics.SelfCanceled.Add(1)
	}

	// Step 11: apply any priority inheritance the path walk computed.
	c.Scheduler.UpdatePriority(path.UpdatePriority)

	// Step 12: re-enable dispatching.
	c.Scheduler.DispatchEnable()

	c.metrics.Enqueued.Add(1)
	c.log.Debug("queue", "enqueue_critical", "enqueue complete", map[string]interface{}{
		"queue": queue.Name, "thread": thread.ID, "return_code": thread.returnCode.String(),
	})
}

// enqueueDeadlock unwinds a claim that pathAcquire rejected: restores
// thread's default wait state, releases queue's lock, and invokes the
// configured deadlock callout. pathAcquire has already released anything
// its own walk built.
func (c *Core) enqueueDeadlock(queue *Queue, thread *Thread, ctx *EnqueueContext) {
	err := kernerr.NewDeadlockError("enqueue_critical: ownership cycle detected").
		WithContext("queue", queue.Name).
		WithContext("thread", thread.ID)

	thread.mu.Lock()
	thread.waitQueue = nil
	thread.ops = nil
	thread.Flags.SetClass(ClassIdle)
	thread.Flags.Set(PhaseNone)
	thread.lastError = err
	thread.mu.Unlock()

	queue.Unlock()

	c.metrics.Deadlocks.Add(1)
	c.log.Warn("queue", "enqueue_critical", "deadlock detected, enqueue rejected", map[string]interface{}{
		"queue": queue.Name, "thread": thread.ID, "error_type": err.Type, "severity": err.Severity,
	})

	if c.journal != nil {
		c.journal.RecordDeadlock(diagjournal.DeadlockEvent{
			Cycle:      []diagjournal.QueueID{diagjournal.QueueID(queue.Name)},
			Requester:  thread.ID,
			DetectedAt: time.Now(),
			ErrorType:  err.Type,
			Severity:   err.Severity,
		})
	}

	callout := ctx.DeadlockCallout
	if callout == nil {
		callout = StatusDeadlockCallout
	}
	callout(thread)
}

// watchdogFire is the onFire callback armed on Timer in step 8. It runs on
// whatever goroutine the Timer collaborator fires from, acquires queue's
// lock itself, and performs the full extract-on-timeout sequence.
func (c *Core) watchdogFire(queue *Queue, thread *Thread) {
	queue.Lock()

	// thread may have already been extracted (woken, surrendered to, or
	// separately timed out is impossible since Timer.Cancel is idempotent
	// and races are serialized by queue's lock) by the time this fires.
	if thread.waitQueue != queue {
		queue.Unlock()
		return
	}

	// The return code must be visible before the ready-again handshake, so
	// a thread resuming from Scheduler.Block observes TIMEOUT rather than
	// SUCCESSFUL.
	thread.returnCode = StatusTimeout
	armedAt := thread.armedAt
	c.extractLocked(queue, thread, nil)

	c.metrics.Timeouts.Add(1)
	c.log.Debug("queue", "watchdog", "thread timed out", map[string]interface{}{
		"queue": queue.Name, "thread": thread.ID,
	})

	if c.journal != nil {
		c.journal.RecordTimeout(diagjournal.TimeoutEvent{
			Thread:    thread.ID,
			Queue:     diagjournal.QueueID(queue.Name),
			ArmedAt:   armedAt,
			FiredAt:   time.Now(),
			ErrorType: kernerr.ErrorTypeTimeout,
			Severity:  kernerr.SeverityLow,
		})
	}
}
