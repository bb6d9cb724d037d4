package queue

import (
	"threadq/internal/diagjournal"
	"threadq/internal/klog"
)

// Core bundles the link registry, scheduler, and timer collaborators and
// exposes the enqueue/extract/surrender/dequeue driver operations. One
// Core is shared process-wide; individual Queues and Threads are created
// independently and passed into its methods.
type Core struct {
	// SMP selects the SMP path-building algorithm (registry-backed,
	// lock-handoff) versus the uniprocessor correctness-reference
	// algorithm (plain owner-chain walk, no extra locks).
	SMP bool

	Registry  *LinkRegistry
	Scheduler Scheduler
	Timer     Timer

	log     *klog.Logger
	metrics *Metrics

	// journal is the optional forensic event sink fed from the deadlock
	// callout and the watchdog/timeout reconciliation path. Nil (the
	// default) disables journaling entirely.
	journal *diagjournal.Journal
}

// SetJournal attaches a diagnostics journal the core records deadlock and
// timeout events to. Pass nil to disable journaling again.
func (c *Core) SetJournal(j *diagjournal.Journal) {
	c.journal = j
}

// NewCore creates a Core. A nil logger is a valid no-op logger.
func NewCore(smp bool, scheduler Scheduler, timer Timer, logger *klog.Logger) *Core {
	return &Core{
		SMP:       smp,
		Registry:  NewLinkRegistry(),
		Scheduler: scheduler,
		Timer:     timer,
		log:       logger,
		metrics:   newMetrics(),
	}
}

// Metrics returns a snapshot of this Core's driver-level counters.
func (c *Core) Metrics() Snapshot {
	return c.metrics.Snapshot()
}
