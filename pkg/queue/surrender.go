package queue

// Surrender implements the surrender operation (§4.5): previousOwner gives
// up queue, handing it to whatever successor the plugged-in discipline
// selects. Precondition: caller holds queue.Lock(); it is released before
// this function returns.
//
// keepPriority controls whether previousOwner's priority, elevated for as
// long as it held queue by whatever inheritance the discipline applied, is
// restored as part of this call — a caller surrendering multiple owned
// queues in sequence passes true until the last one.
func (c *Core) Surrender(queue *Queue, previousOwner *Thread, keepPriority bool, ctx *ExtractContext) {
	successor, ok := queue.Ops.Surrender(queue, previousOwner)
	if !ok {
		queue.SetOwner(nil)
		queue.Unlock()
	} else {
		queue.SetOwner(successor)

		if ctx != nil && ctx.MPCallout != nil {
			ctx.MPCallout(successor)
		} else {
			successor.ResourceCount++
		}

		needsUnblock := c.makeReadyAgain(successor)
		c.unblockCritical(needsUnblock, queue, successor)
	}

	if !keepPriority {
		c.Scheduler.DispatchDisable()
		c.Scheduler.RestorePriority(previousOwner)
		c.Scheduler.DispatchEnable()
	}

	c.metrics.Surrendered.Add(1)
	c.log.Debug("queue", "surrender", "queue surrendered", map[string]interface{}{
		"queue": queue.Name, "previous_owner": previousOwner.ID, "handed_off": ok,
	})
}
