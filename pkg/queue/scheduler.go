package queue

import (
	"sync"
	"sync/atomic"
	"time"
)

// GoroutineScheduler is the reference Scheduler implementation: it blocks
// and wakes goroutines via a per-thread, buffer-1 wakeup channel and tracks
// dispatch-disable nesting with a single process-wide counter (a
// simplification of the original per-CPU counters, adequate for a
// single-process host).
//
// The channel is created once per thread and reused across that thread's
// entire lifetime of block/wake cycles, with capacity 1, so that whichever
// of Block or Wake happens to run first still pairs correctly: a Wake that
// beats the matching Block leaves a buffered token instead of being lost.
type GoroutineScheduler struct {
	dispatchDisable atomic.Int32

	mu      sync.Mutex
	wakeups map[*Thread]chan struct{}
}

// NewGoroutineScheduler creates a GoroutineScheduler.
func NewGoroutineScheduler() *GoroutineScheduler {
	return &GoroutineScheduler{wakeups: make(map[*Thread]chan struct{})}
}

func (s *GoroutineScheduler) DispatchDisable() int {
	return int(s.dispatchDisable.Add(1))
}

func (s *GoroutineScheduler) DispatchEnable() {
	s.dispatchDisable.Add(-1)
}

func (s *GoroutineScheduler) channelFor(thread *Thread) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.wakeups[thread]
	if !ok {
		ch = make(chan struct{}, 1)
		s.wakeups[thread] = ch
	}
	return ch
}

func (s *GoroutineScheduler) Block(thread *Thread) {
	<-s.channelFor(thread)
}

func (s *GoroutineScheduler) Wake(thread *Thread) {
	select {
	case s.channelFor(thread) <- struct{}{}:
	default:
		// Already has a buffered wakeup pending; Cancel/Wake can both fire
		// for the same thread and only one needs to be observed.
	}
}

func (s *GoroutineScheduler) UpdatePriority(threads []*Thread) {
	// Priority inheritance is a scheduler placement concern beyond this
	// reference implementation's scope; real-time latency tuning is an
	// explicit non-goal. Threads named here are simply left as-is.
}

func (s *GoroutineScheduler) RestorePriority(thread *Thread) {}

// WallClockTimer is the reference Timer implementation, using time.Timer.
type WallClockTimer struct {
	mu     sync.Mutex
	timers map[*Thread]*time.Timer
}

// NewWallClockTimer creates a WallClockTimer.
func NewWallClockTimer() *WallClockTimer {
	return &WallClockTimer{timers: make(map[*Thread]*time.Timer)}
}

func (w *WallClockTimer) ArmRelative(thread *Thread, d time.Duration, onFire func()) {
	if d <= 0 {
		// Relative zero means no timeout, not immediate.
		return
	}
	w.arm(thread, d, onFire)
}

func (w *WallClockTimer) ArmAbsolute(thread *Thread, when time.Time, onFire func()) {
	d := time.Until(when)
	if d <= 0 {
		d = 0
	}
	w.arm(thread, d, onFire)
}

func (w *WallClockTimer) arm(thread *Thread, d time.Duration, onFire func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.timers[thread] = time.AfterFunc(d, onFire)
}

func (w *WallClockTimer) Cancel(thread *Thread) {
	w.mu.Lock()
	t, ok := w.timers[thread]
	if ok {
		delete(w.timers, thread)
	}
	w.mu.Unlock()
	if ok {
		t.Stop()
	}
}
