package queue

import "threadq/internal/kernerr"

// noopMPCallout is installed on a thread by Extract when the caller does
// not supply its own MP proxy callout.
var noopMPCallout = func(*Thread) {}

// extractLocked implements extract_locked: caller holds queue.Lock().
// Installs the MP callout (if any), splices thread out of queue's heads,
// then runs the make-ready-again handshake and the unblock sequence it
// calls for. Always consumes the queue lock, one way or another.
func (c *Core) extractLocked(queue *Queue, thread *Thread, mpCallout func(*Thread)) {
	if mpCallout != nil {
		thread.mpCallout = mpCallout
	}

	queue.Ops.Extract(queue, thread)

	needsUnblock := c.makeReadyAgain(thread)
	c.unblockCritical(needsUnblock, queue, thread)
}

// makeReadyAgain implements make_ready_again: attempts the release-CAS
// INTEND_TO_BLOCK -> READY_AGAIN; on failure the thread must already be
// BLOCKED, and the transition is forced unconditionally. Either way the
// thread's default wait state is restored and any gates it published as an
// owner elsewhere are invalidated.
func (c *Core) makeReadyAgain(thread *Thread) (needsUnblock bool) {
	if thread.Flags.TryChangeRelease(PhaseIntendToBlock, PhaseReadyAgain) {
		needsUnblock = false
	} else {
		if thread.Flags.Get() != PhaseBlocked {
			panic(kernerr.New(kernerr.ErrorTypeRegistry, kernerr.SeverityCritical,
				"make_ready_again observed a phase other than BLOCKED on CAS failure").
				WithContext("thread", thread.ID))
		}
		thread.Flags.Set(PhaseReadyAgain)
		needsUnblock = true
	}

	thread.mu.Lock()
	thread.waitQueue = nil
	thread.ops = nil
	thread.Flags.SetClass(ClassIdle)
	invalidatePending(thread)
	thread.mu.Unlock()

	return needsUnblock
}

// unblockCritical implements unblock_critical. Caller holds queue.Lock();
// this function releases it on every path.
func (c *Core) unblockCritical(needsUnblock bool, queue *Queue, thread *Thread) {
	if !needsUnblock {
		// The racing enqueue driver observed READY_AGAIN itself and will
		// run its own self-cancel cleanup; nothing further to do here.
		queue.Unlock()
		return
	}

	c.Scheduler.DispatchDisable()
	queue.Unlock()
	c.removeTimerAndUnblock(thread, queue)
	c.Scheduler.DispatchEnable()
}

// removeTimerAndUnblock is idempotent cleanup: cancel thread's timer if one
// is armed, and resume its parked goroutine if one is parked.
func (c *Core) removeTimerAndUnblock(thread *Thread, queue *Queue) {
	c.Timer.Cancel(thread)
	c.Scheduler.Wake(thread)
}

// ExtractCritical is the external entry for a caller that already holds
// queue.Lock() and knows thread is on queue.
func (c *Core) ExtractCritical(queue *Queue, thread *Thread, ctx *ExtractContext) {
	var mpCallout func(*Thread)
	if ctx != nil {
		mpCallout = ctx.MPCallout
	}
	c.extractLocked(queue, thread, mpCallout)

	c.metrics.Extracted.Add(1)
	c.log.Debug("queue", "extract_critical", "thread extracted", map[string]interface{}{
		"queue": queue.Name, "thread": thread.ID,
	})
}

// Extract is the external entry when the caller knows only the thread. A
// no-op if thread is not currently on any queue.
func (c *Core) Extract(thread *Thread) {
	thread.mu.Lock()
	queue := thread.waitQueue
	if queue == nil {
		thread.mu.Unlock()
		return
	}
	thread.mpCallout = noopMPCallout
	thread.mu.Unlock()

	queue.Lock()
	if thread.waitQueue != queue {
		// thread moved (or was already extracted) between our unlocked
		// read above and acquiring queue's lock; nothing to do.
		queue.Unlock()
		return
	}
	c.extractLocked(queue, thread, nil)

	c.metrics.Extracted.Add(1)
	c.log.Debug("queue", "extract", "thread extracted", map[string]interface{}{
		"queue": queue.Name, "thread": thread.ID,
	})
}
