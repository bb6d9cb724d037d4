package queue

// Operations is the pluggable discipline vector a Queue is constructed
// with. Disciplined behavior (FIFO, priority, priority-with-inheritance)
// is discriminated at the queue level and expressed purely through these
// four function handles; the core never inherits behavior across
// disciplines. See pkg/queue/fifo for reference implementations.
type Operations interface {
	// Enqueue inserts thread into queue's heads per discipline. It may
	// append to path.UpdatePriority to request priority inheritance be
	// applied once the path's locks are released.
	Enqueue(queue *Queue, thread *Thread, path *Path)

	// Extract splices thread out of queue's heads. It is a no-op if thread
	// is not present (callers only invoke it when they believe it is).
	Extract(queue *Queue, thread *Thread)

	// Surrender selects a successor from heads for an owned discipline and
	// returns it, or (nil, false) if heads is empty.
	Surrender(queue *Queue, previousOwner *Thread) (successor *Thread, ok bool)

	// First returns the head waiter without removing it, or (nil, false)
	// if heads is empty. Used by Dequeue.
	First(queue *Queue) (thread *Thread, ok bool)
}
