package queue

import (
	"sync"
	"time"
)

// Status is the outcome a blocked thread finds in its return code once it
// resumes. The enqueue path never returns a conventional error; the caller
// learns the outcome from Thread.ReturnCode after EnqueueCritical returns.
type Status int32

const (
	StatusSuccessful Status = iota
	StatusTimeout
	StatusDeadlock
)

func (s Status) String() string {
	switch s {
	case StatusSuccessful:
		return "SUCCESSFUL"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusDeadlock:
		return "DEADLOCK"
	default:
		return "UNKNOWN"
	}
}

// Queue is the synchronization-object slot: an optional owner, an opaque
// discipline-owned waiter list (Heads), and the per-queue lock guarding
// both.
type Queue struct {
	Name string

	mu    sync.Mutex
	owner *Thread

	// Ops is the operations vector plugged in by the discipline that owns
	// this queue (see pkg/queue/fifo for reference implementations).
	Ops Operations

	// Heads is opaque to the driver: only Ops reads or writes it.
	Heads interface{}
}

// NewQueue creates an unowned queue using the given operations vector and
// discipline-private waiter-list state.
func NewQueue(name string, ops Operations, heads interface{}) *Queue {
	return &Queue{Name: name, Ops: ops, Heads: heads}
}

// Lock acquires the queue's lock. Callers of EnqueueCritical, ExtractCritical
// and Surrender must hold this lock before calling in, per their preconditions.
func (q *Queue) Lock() { q.mu.Lock() }

// Unlock releases the queue's lock.
func (q *Queue) Unlock() { q.mu.Unlock() }

// Owner returns the queue's current owner, or nil if the queue is unowned
// or belongs to a non-owned discipline.
func (q *Queue) Owner() *Thread { return q.owner }

// SetOwner installs the queue's owner. Callers must hold the queue lock.
func (q *Queue) SetOwner(t *Thread) { q.owner = t }

// Thread is the per-thread wait block the core manipulates: the queue it
// is waiting on (if any), the operations vector for that queue, the return
// code a blocked call resumes with, the wait-flag atom, the pending-request
// gate list, and the preallocated path link reused across enqueues.
type Thread struct {
	ID       string
	Priority int

	// mu is this thread's "default wait lock": acquired by a path builder
	// walking through this thread as an owner, and by this thread's own
	// extract/enqueue bookkeeping.
	mu sync.Mutex

	waitQueue  *Queue
	ops        Operations
	returnCode Status
	Flags      WaitFlags

	// lastError carries the structured kernerr.KernelError behind the most
	// recent DEADLOCK/bad-state outcome recorded against this thread, if
	// any. returnCode alone tells a caller *that* it deadlocked; lastError
	// carries the forensic detail (type, severity, context) klog and
	// diagjournal want to record.
	lastError error

	// armedAt records when the watchdog timer was last armed on this
	// thread's behalf, for timeout-event forensics in watchdogFire.
	armedAt time.Time

	// pending is the gate list: links built by other path builders walking
	// through this thread as an owner, published so a concurrent extractor
	// knows which links to invalidate.
	pending []*PathLink

	// link is this thread's exclusively-owned, preallocated path link,
	// reused both as this thread's own path start and as the "next" link
	// when this thread is encountered as an owner by another path.
	link PathLink

	ResourceCount uint32

	// mpCallout is the optional MP (multiprocessor proxy) hook set on a
	// thread immediately before Ops.Extract runs, mirroring the original
	// kernel's MP proxy unblock path. Most callers leave this nil.
	mpCallout func(*Thread)
}

// NewThread creates an idle thread wait block.
func NewThread(id string, priority int) *Thread {
	t := &Thread{ID: id, Priority: priority}
	t.link.owner = t
	return t
}

// WaitQueue returns the queue this thread is currently enqueued on, or nil.
// Safe to call from any goroutine: every writer of this field holds mu.
func (t *Thread) WaitQueue() *Queue {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.waitQueue
}

// ReturnCode returns the outcome of the thread's most recent blocking call.
func (t *Thread) ReturnCode() Status { return t.returnCode }

// LastError returns the structured error behind the thread's most recent
// DEADLOCK or bad-state outcome, or nil if none was recorded.
func (t *Thread) LastError() error { return t.lastError }

// PathLink is one step of a path: it records (source queue, target queue,
// owner) and whether it is currently registered/held. Lifetime: dormant;
// active only between path_acquire and path_release.
type PathLink struct {
	source *Queue
	target *Queue
	owner  *Thread

	// terminal marks a link whose owner is not itself waiting (or whose
	// wait was invalidated concurrently): path_release must release only
	// the owner's default lock for such a link, never a target queue lock.
	terminal bool
}

// Path is the sequence of links built during one EnqueueCritical call, torn
// down before that call returns.
type Path struct {
	links []*PathLink

	// UpdatePriority is the bag of threads whose inherited priority may
	// have changed as a result of Ops.Enqueue; applied after all locks
	// built by this path are released.
	UpdatePriority []*Thread
}
