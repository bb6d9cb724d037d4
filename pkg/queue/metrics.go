package queue

import "sync/atomic"

// Metrics holds atomic counters for the driver-level events a production
// deployment would want to export, in the teacher's atomic-counter idiom.
type Metrics struct {
	Enqueued     atomic.Uint64
	Extracted    atomic.Uint64
	Surrendered  atomic.Uint64
	Dequeued     atomic.Uint64
	Deadlocks    atomic.Uint64
	Timeouts     atomic.Uint64
	SelfCanceled atomic.Uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

// Snapshot is a point-in-time copy of Metrics suitable for logging or export.
type Snapshot struct {
	Enqueued     uint64
	Extracted    uint64
	Surrendered  uint64
	Dequeued     uint64
	Deadlocks    uint64
	Timeouts     uint64
	SelfCanceled uint64
}

// Snapshot reads all counters without requiring callers to hold a lock.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Enqueued:     m.Enqueued.Load(),
		Extracted:    m.Extracted.Load(),
		Surrendered:  m.Surrendered.Load(),
		Dequeued:     m.Dequeued.Load(),
		Deadlocks:    m.Deadlocks.Load(),
		Timeouts:     m.Timeouts.Load(),
		SelfCanceled: m.SelfCanceled.Load(),
	}
}
