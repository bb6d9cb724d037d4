package queue

// pathAcquire walks the ownership chain starting at queue, looking for a
// cycle back to thread. On success it returns an acquired Path — on SMP,
// with every lock visited along the way still held, to be released by
// pathRelease after Ops.Enqueue has run. On deadlock it returns ErrDeadlock
// and has already released anything it built.
func (c *Core) pathAcquire(thread *Thread, queue *Queue) (*Path, error) {
	if c.SMP {
		return c.pathAcquireSMP(thread, queue)
	}
	return c.pathAcquireUP(thread, queue)
}

// pathAcquireUP is the uniprocessor correctness reference: a plain walk of
// the owner chain. Termination is guaranteed because the chain strictly
// descends through distinct owners; no registry or extra locks are needed
// because uniprocessor kernel code already excludes concurrent mutation of
// the chain while this walk runs.
func (c *Core) pathAcquireUP(thread *Thread, queue *Queue) (*Path, error) {
	path := &Path{}

	for {
		owner := queue.owner
		if owner == nil {
			return path, nil
		}
		if owner == thread {
			return nil, ErrDeadlock
		}

		path.links = append(path.links, &PathLink{source: queue, owner: owner})

		next := owner.waitQueue
		if next == nil {
			return path, nil
		}
		queue = next
	}
}

// pathAcquireSMP is the real SMP design: §4.2 of the design notes, ported
// line for line from _Thread_queue_Path_acquire.
func (c *Core) pathAcquireSMP(thread *Thread, queue *Queue) (*Path, error) {
	path := &Path{}

	owner := queue.owner
	if owner == nil {
		return path, nil
	}
	if owner == thread {
		return nil, ErrDeadlock
	}

	link := &thread.link

	for {
		link.source = queue
		link.owner = owner
		link.target = nil
		link.terminal = false
		path.links = append(path.links, link)

		owner.mu.Lock()
		target := owner.waitQueue
		link.target = target

		if target == nil {
			// Chain terminates with an owner that is not waiting. Leave
			// the owner's default lock held; pathRelease will release it.
			link.terminal = true
			return path, nil
		}

		if !c.Registry.add(link, queue, target) {
			link.target = nil
			link.terminal = true
			c.pathRelease(path)
			return nil, ErrDeadlock
		}

		owner.pending = append(owner.pending, link)
		owner.mu.Unlock()

		target.mu.Lock()

		if link.target == nil {
			// A concurrent extractor cleared owner.waitQueue (and
			// invalidated this link via the gate list) between our
			// registry insert and acquiring the target lock.
			c.Registry.remove(queue)
			target.mu.Unlock()

			owner.mu.Lock()
			removePending(owner, link)
			link.terminal = true
			// owner.mu stays locked; released by pathRelease, the chain
			// having actually terminated here.
			return path, nil
		}

		queue = target
		next := queue.owner
		if next == nil {
			return path, nil
		}
		if next == thread {
			c.pathRelease(path)
			return nil, ErrDeadlock
		}

		link = &owner.link
		owner = next
	}
}

// pathRelease walks the path from the tail, releasing locks in the reverse
// of acquisition order, and removes any surviving registry entries and
// gate-list publications.
func (c *Core) pathRelease(path *Path) {
	if !c.SMP {
		path.links = nil
		return
	}

	for i := len(path.links) - 1; i >= 0; i-- {
		link := path.links[i]
		if link.terminal {
			link.owner.mu.Unlock()
			continue
		}
		c.Registry.remove(link.source)
		link.target.mu.Unlock()

		link.owner.mu.Lock()
		removePending(link.owner, link)
		link.owner.mu.Unlock()
	}
	path.links = nil
}

// Owners returns the chain of owners this path walked through, in walk
// order (nearest to the enqueuing thread's queue first). Disciplines use
// this from Operations.Enqueue to decide which owners a newly-enqueued
// thread's priority should propagate to.
func (p *Path) Owners() []*Thread {
	owners := make([]*Thread, len(p.links))
	for i, l := range p.links {
		owners[i] = l.owner
	}
	return owners
}

func removePending(owner *Thread, link *PathLink) {
	for i, l := range owner.pending {
		if l == link {
			owner.pending = append(owner.pending[:i], owner.pending[i+1:]...)
			return
		}
	}
}

// invalidatePending clears target on every link published in thread's gate
// list, so any path builder currently walking through thread as an owner
// notices that thread is no longer waiting and terminates its chain there
// instead of advancing into now-stale state. Callers must hold thread.mu.
func invalidatePending(thread *Thread) {
	for _, link := range thread.pending {
		link.target = nil
	}
}
