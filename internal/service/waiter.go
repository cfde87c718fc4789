package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// WaitTimeout is the longest a long-poll client is held
const WaitTimeout = 25 * time.Second

// WaitRegistry parks long-poll clients until the published view version moves.
// Every publish closes the current change channel and installs a new one, so
// one notification reaches all clients regardless of which game they watched.
type WaitRegistry struct {
	mu      sync.Mutex
	version int
	changed chan struct{}
	closed  bool
	timeout time.Duration
	waiting atomic.Int32
}

func NewWaitRegistry(timeout time.Duration) *WaitRegistry {
	if timeout <= 0 {
		timeout = WaitTimeout
	}
	return &WaitRegistry{
		changed: make(chan struct{}),
		timeout: timeout,
	}
}

// Notify records version as the latest and wakes every waiter
func (w *WaitRegistry) Notify(version int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || version == w.version {
		return
	}
	w.version = version
	close(w.changed)
	w.changed = make(chan struct{})
}

// Wait blocks while the latest version equals seen. It returns true when the
// version changed and false on timeout, cancellation or shutdown.
func (w *WaitRegistry) Wait(ctx context.Context, seen int) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	if w.version != seen {
		w.mu.Unlock()
		return true
	}
	changed := w.changed
	w.mu.Unlock()

	w.waiting.Add(1)
	defer w.waiting.Add(-1)

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case <-changed:
		w.mu.Lock()
		defer w.mu.Unlock()
		return !w.closed
	case <-timer.C:
	case <-ctx.Done():
	}
	return false
}

// Waiting returns how many clients are parked
func (w *WaitRegistry) Waiting() int {
	return int(w.waiting.Load())
}

// Shutdown releases every waiter; later waits return at once
func (w *WaitRegistry) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.changed)
}
