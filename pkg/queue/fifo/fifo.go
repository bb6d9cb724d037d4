// Package fifo provides reference Operations disciplines for pkg/queue:
// a plain FIFO wait list with no ownership, and a priority-ordered,
// owned Mutex discipline with priority inheritance. Neither is required by
// the core; they exist to exercise it and to give callers a starting point.
package fifo

import "threadq/pkg/queue"

// Heads is FIFO's discipline-private waiter list: a plain append-ordered
// slice, scanned linearly the way the teacher's waitQueue walks did.
type Heads struct {
	waiters []*queue.Thread
}

// NewHeads creates an empty FIFO waiter list.
func NewHeads() *Heads { return &Heads{} }

// Discipline is the FIFO-ordered Operations vector: first-in, first-out,
// no ownership, no priority inheritance. Suited to condition variables and
// plain wait channels where "surrender" means "signal the oldest waiter".
type Discipline struct{}

var _ queue.Operations = Discipline{}

func (Discipline) Enqueue(q *queue.Queue, thread *queue.Thread, path *queue.Path) {
	h := q.Heads.(*Heads)
	h.waiters = append(h.waiters, thread)
}

func (Discipline) Extract(q *queue.Queue, thread *queue.Thread) {
	h := q.Heads.(*Heads)
	for i, t := range h.waiters {
		if t == thread {
			h.waiters = append(h.waiters[:i], h.waiters[i+1:]...)
			return
		}
	}
}

func (Discipline) Surrender(q *queue.Queue, previousOwner *queue.Thread) (*queue.Thread, bool) {
	h := q.Heads.(*Heads)
	if len(h.waiters) == 0 {
		return nil, false
	}
	next := h.waiters[0]
	h.waiters = h.waiters[1:]
	return next, true
}

func (Discipline) First(q *queue.Queue) (*queue.Thread, bool) {
	h := q.Heads.(*Heads)
	if len(h.waiters) == 0 {
		return nil, false
	}
	return h.waiters[0], true
}
