// Package lifecycle provides priority-ordered graceful shutdown for a
// host process embedding the thread-queue core: draining demo threads
// and flushing the diagnostics journal before the process exits.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"threadq/internal/klog"
)

// Func is one named, priority-ordered shutdown step.
type Func struct {
	Name     string
	Priority int // lower runs first
	Run      func(ctx context.Context) error
}

// Manager runs registered Funcs, in priority order, once Shutdown is
// triggered (explicitly or via an OS signal), bounded by an overall timeout.
type Manager struct {
	log     *klog.Logger
	funcs   []Func
	timeout time.Duration
	signals []os.Signal
	mutex   sync.Mutex
	doneCh  chan struct{}
	once    sync.Once
}

// NewManager creates a Manager with the given overall shutdown timeout.
// A nil logger is a valid no-op logger.
func NewManager(timeout time.Duration, logger *klog.Logger) *Manager {
	return &Manager{
		log:     logger,
		timeout: timeout,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		doneCh:  make(chan struct{}),
	}
}

// Register adds a shutdown step, inserted in priority order.
func (m *Manager) Register(name string, priority int, run func(ctx context.Context) error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	f := Func{Name: name, Priority: priority, Run: run}
	for i, existing := range m.funcs {
		if priority < existing.Priority {
			m.funcs = append(m.funcs[:i], append([]Func{f}, m.funcs[i:]...)...)
			return
		}
	}
	m.funcs = append(m.funcs, f)
}

// ListenForSignals triggers Shutdown on the first SIGINT/SIGTERM.
func (m *Manager) ListenForSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, m.signals...)

	go func() {
		sig := <-sigCh
		m.log.Info("lifecycle", "signal", "received shutdown signal", map[string]interface{}{"signal": sig.String()})
		m.Shutdown()
	}()
}

// Shutdown runs every registered step exactly once, in priority order,
// one after another, bounded by the manager's timeout.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		defer close(m.doneCh)
		m.run()
	})
}

// Wait blocks until Shutdown has completed (or been skipped entirely).
func (m *Manager) Wait() {
	<-m.doneCh
}

func (m *Manager) run() {
	m.log.Info("lifecycle", "shutdown", "starting graceful shutdown", nil)

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mutex.Lock()
	funcs := make([]Func, len(m.funcs))
	copy(funcs, m.funcs)
	m.mutex.Unlock()

	errCh := make(chan error, len(funcs))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, f := range funcs {
			start := time.Now()
			if err := f.Run(ctx); err != nil {
				errCh <- fmt.Errorf("shutdown %s: %w", f.Name, err)
				m.log.Error("lifecycle", f.Name, "shutdown step failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			m.log.Info("lifecycle", f.Name, "shutdown step completed", map[string]interface{}{"duration": time.Since(start).String()})
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.log.Warn("lifecycle", "shutdown", "shutdown timeout reached, forcing exit", nil)
	}

	failures := len(errCh)
	if failures > 0 {
		m.log.Error("lifecycle", "shutdown", "graceful shutdown completed with errors", map[string]interface{}{"failures": failures})
		return
	}
	m.log.Info("lifecycle", "shutdown", "graceful shutdown completed successfully", nil)
}
