package queue

// Dequeue implements the dequeue operation (§4.6): extracts and returns
// whatever thread the plugged-in discipline considers first on queue,
// without requiring a caller to already hold a reference to it. Returns
// false if queue is empty.
func (c *Core) Dequeue(queue *Queue, mpCallout func(*Thread)) (*Thread, bool) {
	queue.Lock()

	thread, ok := queue.Ops.First(queue)
	if !ok {
		queue.Unlock()
		return nil, false
	}

	c.extractLocked(queue, thread, mpCallout)

	c.metrics.Dequeued.Add(1)
	c.log.Debug("queue", "dequeue", "thread dequeued", map[string]interface{}{
		"queue": queue.Name, "thread": thread.ID,
	})
	return thread, true
}
