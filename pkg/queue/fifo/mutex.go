package fifo

import "threadq/pkg/queue"

// MutexHeads is Mutex's discipline-private waiter list, held in ascending
// priority order (lower Priority value is more urgent; ties broken FIFO).
type MutexHeads struct {
	waiters []*queue.Thread
}

// NewMutexHeads creates an empty Mutex waiter list.
func NewMutexHeads() *MutexHeads { return &MutexHeads{} }

// Mutex is the owned, priority-ordered Operations vector with priority
// inheritance: a thread enqueuing with a higher priority than any owner it
// walked through on its path requests that owner's priority be raised, by
// appending it to path.UpdatePriority for the core to apply once every
// lock the path walk acquired has been released.
type Mutex struct{}

var _ queue.Operations = Mutex{}

func (Mutex) Enqueue(q *queue.Queue, thread *queue.Thread, path *queue.Path) {
	h := q.Heads.(*MutexHeads)

	i := 0
	for i < len(h.waiters) && h.waiters[i].Priority <= thread.Priority {
		i++
	}
	h.waiters = append(h.waiters, nil)
	copy(h.waiters[i+1:], h.waiters[i:])
	h.waiters[i] = thread

	for _, owner := range path.Owners() {
		if thread.Priority < owner.Priority {
			path.UpdatePriority = append(path.UpdatePriority, owner)
		}
	}
}

func (Mutex) Extract(q *queue.Queue, thread *queue.Thread) {
	h := q.Heads.(*MutexHeads)
	for i, t := range h.waiters {
		if t == thread {
			h.waiters = append(h.waiters[:i], h.waiters[i+1:]...)
			return
		}
	}
}

func (Mutex) Surrender(q *queue.Queue, previousOwner *queue.Thread) (*queue.Thread, bool) {
	h := q.Heads.(*MutexHeads)
	if len(h.waiters) == 0 {
		return nil, false
	}
	next := h.waiters[0]
	h.waiters = h.waiters[1:]
	return next, true
}

func (Mutex) First(q *queue.Queue) (*queue.Thread, bool) {
	h := q.Heads.(*MutexHeads)
	if len(h.waiters) == 0 {
		return nil, false
	}
	return h.waiters[0], true
}
