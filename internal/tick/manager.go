// Package tick runs the fixed-step simulation clock.
package tick

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is one simulation tick (20 ticks per second).
const DefaultInterval = 50 * time.Millisecond

// Func is a task run by the manager. now is the tick being simulated.
type Func func(ctx context.Context, now int64) error

type task struct {
	name  string
	every int64
	fn    Func
}

// Manager advances the tick counter at a fixed interval and runs registered
// tasks in registration order.
type Manager struct {
	interval time.Duration

	mu    sync.RWMutex
	tasks []task

	now       atomic.Int64
	overruns  atomic.Int64
	taskCount atomic.Int32

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewManager creates a manager ticking at interval.
// Non-positive interval falls back to DefaultInterval.
func NewManager(interval time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Manager{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Register runs fn on every tick.
func (m *Manager) Register(name string, fn Func) {
	m.Every(1, name, fn)
}

// Every runs fn on ticks divisible by n.
func (m *Manager) Every(n int64, name string, fn Func) {
	if n <= 0 {
		n = 1
	}
	m.mu.Lock()
	m.tasks = append(m.tasks, task{name: name, every: n, fn: fn})
	m.mu.Unlock()
	m.taskCount.Add(1)

	slog.Debug("tick task registered", "task", name, "every", n)
}

// Count returns number of registered tasks.
func (m *Manager) Count() int {
	return int(m.taskCount.Load())
}

// Now returns the last simulated tick. Zero before the first step.
func (m *Manager) Now() int64 {
	return m.now.Load()
}

// Overruns returns how many ticks took longer than the interval.
func (m *Manager) Overruns() int64 {
	return m.overruns.Load()
}

// Interval returns the tick interval.
func (m *Manager) Interval() time.Duration {
	return m.interval
}

// Step advances the clock by one tick and runs due tasks.
// Task errors are logged; a canceled context is returned.
func (m *Manager) Step(ctx context.Context) error {
	now := m.now.Add(1)

	m.mu.RLock()
	tasks := m.tasks
	m.mu.RUnlock()

	for _, t := range tasks {
		if now%t.every != 0 {
			continue
		}
		if err := t.fn(ctx, now); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("task %s: %w", t.name, err)
			}
			slog.Warn("tick task failed", "task", t.name, "tick", now, "error", err)
		}
	}
	return nil
}

// Start runs the tick loop (blocks until context is canceled or Stop is called).
func (m *Manager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("tick manager started", "interval", m.interval, "tasks", m.Count())

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick manager stopping", "tick", m.Now())
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("tick manager stopped", "tick", m.Now())
			return nil

		case <-ticker.C:
			start := time.Now()
			if err := m.Step(ctx); err != nil {
				return err
			}
			if elapsed := time.Since(start); elapsed > m.interval {
				m.overruns.Add(1)
				slog.Warn("tick overrun", "tick", m.Now(), "elapsed", elapsed, "interval", m.interval)
			}
		}
	}
}

// Stop stops the tick loop. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}
