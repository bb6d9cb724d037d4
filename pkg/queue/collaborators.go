package queue

import (
	"time"

	"threadq/internal/kernerr"
)

// TimeoutDiscipline selects how EnqueueContext.Timeout is interpreted.
type TimeoutDiscipline int

const (
	// TimeoutNone arms no timer.
	TimeoutNone TimeoutDiscipline = iota
	// TimeoutRelative arms a timer Timeout after the call to EnqueueCritical.
	// A zero Timeout means no timeout, not immediate — see DESIGN.md.
	TimeoutRelative
	// TimeoutAbsolute arms a timer to fire at the wall-clock instant
	// EnqueueContext.Deadline.
	TimeoutAbsolute
)

// DeadlockCallout is invoked on a thread whose enqueue attempt was
// rejected by the path builder as closing an ownership cycle.
type DeadlockCallout func(thread *Thread)

// StatusDeadlockCallout records the deadlock on the thread's return code
// and otherwise lets the caller's own error-handling path deal with it,
// mirroring _Thread_queue_Deadlock_status.
var StatusDeadlockCallout DeadlockCallout = func(thread *Thread) {
	thread.returnCode = StatusDeadlock
	thread.lastError = kernerr.NewDeadlockError("thread-queue deadlock: ownership cycle detected").
		WithContext("thread", thread.ID)
}

// FatalDeadlockCallout terminates the host process, mirroring
// _Thread_queue_Deadlock_fatal. fatal is overridable in tests.
var FatalDeadlockCallout DeadlockCallout = func(thread *Thread) {
	fatal(kernerr.NewDeadlockError("unresolvable thread-queue deadlock").
		WithContext("thread", thread.ID))
}

// fatal is the hook FatalDeadlockCallout and the enqueue-from-bad-state
// assertion both call through, so tests can intercept process termination
// instead of calling os.Exit directly.
var fatal = func(err error) {
	panic(err)
}

// Scheduler models the external collaborators required from the rest of
// the kernel: dispatch-disable nesting, transitioning a thread off/onto a
// CPU, and priority propagation. The scheduler itself, the thread-state
// machine beyond the wait flags, and real-time latency tuning are all out
// of scope for this package; Scheduler is the seam where a host process
// plugs in its own.
type Scheduler interface {
	// DispatchDisable increments the calling CPU's dispatch-disable
	// nesting counter and returns the resulting level.
	DispatchDisable() int
	// DispatchEnable decrements the calling CPU's dispatch-disable nesting
	// counter.
	DispatchEnable()
	// Block suspends the calling goroutine until Wake(thread) is called.
	// Invoked only after the wait-flag handshake confirms the thread is
	// truly blocked (never while any lock from this package is held).
	Block(thread *Thread)
	// Wake resumes a goroutine parked in Block. A Wake that arrives before
	// the matching Block is remembered, so that Block returns at once;
	// several Wakes with no Block in between count as one.
	Wake(thread *Thread)
	// UpdatePriority applies pending priority-inheritance changes to the
	// given set of threads.
	UpdatePriority(threads []*Thread)
	// RestorePriority restores a thread's priority to its base level,
	// called when an owned queue is surrendered without keep_priority.
	RestorePriority(thread *Thread)
}

// Timer models the watchdog collaborator arming and disarming per-thread
// timeouts. onFire is supplied by the enqueue driver and runs the
// ready-again handshake; Timer's only job is scheduling it.
type Timer interface {
	ArmRelative(thread *Thread, d time.Duration, onFire func())
	ArmAbsolute(thread *Thread, when time.Time, onFire func())
	// Cancel disarms thread's timer if one is armed. Idempotent.
	Cancel(thread *Thread)
}

// EnqueueContext carries the per-call parameters EnqueueCritical needs
// beyond (queue, thread): the caller's dispatch-disable expectation, the
// deadlock callout, and the timeout discipline.
type EnqueueContext struct {
	// ExpectedDispatchDisableLevel is asserted against the nesting level
	// observed right after DispatchDisable in step 6; a mismatch proves a
	// caller contract violation and is fatal.
	ExpectedDispatchDisableLevel int

	DeadlockCallout DeadlockCallout

	TimeoutDiscipline TimeoutDiscipline
	// Timeout is the relative duration when TimeoutDiscipline is
	// TimeoutRelative. Zero means no timeout, matching the original
	// kernel's WATCHDOG_RELATIVE semantics, not "immediate".
	Timeout time.Duration
	// Deadline is the wall-clock instant when TimeoutDiscipline is
	// TimeoutAbsolute.
	Deadline time.Time

	// MPCallout, if set, is installed on the thread before extraction runs
	// on it, mirroring the optional cross-node proxy hook.
	MPCallout func(*Thread)
}

// ExtractContext carries the per-call parameters of ExtractCritical/Surrender.
type ExtractContext struct {
	MPCallout func(*Thread)
}
