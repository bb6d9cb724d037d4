package queue

import "sync/atomic"

// Class records whether a thread is currently associated with an object
// queue at all. Invariant: a thread's wait queue is non-nil iff its flags
// class is ClassObject.
type Class int32

const (
	ClassIdle Class = iota
	ClassObject
)

// Phase is the wait-flag protocol's compound state. Once a blocking call
// begins, exactly three phases are reachable, and only the transitions
// documented on WaitFlags are legal.
type Phase int32

const (
	PhaseNone Phase = iota
	PhaseIntendToBlock
	PhaseBlocked
	PhaseReadyAgain
)

// WaitFlags is the per-thread atomic word carrying (class, phase). It is
// the only supported mutator of a thread's blocking phase during the
// enqueue protocol; every other site in this package goes through these
// methods, never touching the underlying fields directly.
type WaitFlags struct {
	class atomic.Int32
	phase atomic.Int32
}

// GetClass performs a relaxed load of the class component.
func (f *WaitFlags) GetClass() Class {
	return Class(f.class.Load())
}

// SetClass performs an unconditional store of the class component.
func (f *WaitFlags) SetClass(c Class) {
	f.class.Store(int32(c))
}

// Get performs a relaxed load of the phase component.
func (f *WaitFlags) Get() Phase {
	return Phase(f.phase.Load())
}

// Set performs an unconditional store of the phase component.
func (f *WaitFlags) Set(p Phase) {
	f.phase.Store(int32(p))
}

// TryChangeAcquire compare-and-sets the phase, for the transition made by
// the blocker itself observing its own intent (INTEND_TO_BLOCK -> BLOCKED).
func (f *WaitFlags) TryChangeAcquire(expect, next Phase) bool {
	return f.phase.CompareAndSwap(int32(expect), int32(next))
}

// TryChangeRelease compare-and-sets the phase, for the transition made by
// a waker racing the blocker (INTEND_TO_BLOCK -> READY_AGAIN).
func (f *WaitFlags) TryChangeRelease(expect, next Phase) bool {
	return f.phase.CompareAndSwap(int32(expect), int32(next))
}
