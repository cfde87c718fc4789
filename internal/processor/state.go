package processor

import (
	"context"
	"sync"
	"time"

	"othello/internal/core"
)

// StateMachine holds the engine state shared by the worker and callers. Every
// Set wakes all waiters by closing the current change channel; waiters always
// re-check their predicate after waking.
type StateMachine struct {
	mu      sync.Mutex
	state   core.EngineState
	changed chan struct{}
	closed  bool
	hook    func(from, to core.EngineState)
}

func NewStateMachine() *StateMachine {
	return &StateMachine{
		state:   core.StateInitial,
		changed: make(chan struct{}),
	}
}

// OnTransition registers fn to run, under the machine lock, on every state
// change. fn must not call back into the machine.
func (m *StateMachine) OnTransition(fn func(from, to core.EngineState)) {
	m.mu.Lock()
	m.hook = fn
	m.mu.Unlock()
}

func (m *StateMachine) Get() core.EngineState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *StateMachine) Set(s core.EngineState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := m.state
	m.state = s
	close(m.changed)
	m.changed = make(chan struct{})
	if m.hook != nil && from != s {
		m.hook(from, s)
	}
}

// Close releases every waiter; later waits return immediately
func (m *StateMachine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.changed)
	m.changed = make(chan struct{})
}

func (m *StateMachine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// check reports whether s is current and, if not, the channel to wait on
func (m *StateMachine) check(s core.EngineState) (ok, closed bool, changed <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == s, m.closed, m.changed
}

// WaitFor blocks until the state is s. It returns false if the machine closes.
func (m *StateMachine) WaitFor(s core.EngineState) bool {
	for {
		ok, closed, changed := m.check(s)
		if closed {
			return false
		}
		if ok {
			return true
		}
		<-changed
	}
}

// WaitForTimeout is WaitFor bounded by d
func (m *StateMachine) WaitForTimeout(s core.EngineState, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		ok, closed, changed := m.check(s)
		if closed {
			return false
		}
		if ok {
			return true
		}
		select {
		case <-changed:
		case <-timer.C:
			ok, closed, _ := m.check(s)
			return ok && !closed
		}
	}
}

// WaitForContext is WaitFor bounded by ctx
func (m *StateMachine) WaitForContext(ctx context.Context, s core.EngineState) error {
	for {
		ok, closed, changed := m.check(s)
		if closed {
			return core.ErrShutdown
		}
		if ok {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
