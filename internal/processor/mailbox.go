package processor

import (
	"sync"

	"othello/internal/core"
)

// Mailbox is the single pending-command slot between callers and the worker
// parked in a get-user-input callback.
//
// Lock order: Processor.mu, then Mailbox.mu, then the StateMachine lock.
type Mailbox struct {
	mu      sync.Mutex
	state   *StateMachine
	slot    chan Command
	waiting bool
}

func NewMailbox(state *StateMachine) *Mailbox {
	return &Mailbox{
		state: state,
		slot:  make(chan Command, 1),
	}
}

// Deposit hands cmd to the parked worker and requests Play. It fails unless a
// taker is parked in UserInputWait with an empty slot.
func (b *Mailbox) Deposit(cmd Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.waiting {
		return core.ErrNotAwaitingInput
	}
	if len(b.slot) > 0 {
		return core.ErrMailboxFull
	}
	if b.state.Get() != core.StateUserInputWait {
		return core.ErrNotAwaitingInput
	}

	select {
	case b.slot <- cmd:
	default:
		return core.ErrMailboxFull
	}
	b.state.Set(core.StatePlay)
	return nil
}

// Take parks the worker until a command arrives. It returns (Exit, false) if
// the state machine closes first.
func (b *Mailbox) Take() (Command, bool) {
	b.mu.Lock()
	b.waiting = true
	b.state.Set(core.StateUserInputWait)
	b.mu.Unlock()

	for {
		if !b.state.WaitFor(core.StatePlay) {
			b.mu.Lock()
			b.waiting = false
			b.mu.Unlock()
			return ExitCommand(), false
		}

		b.mu.Lock()
		select {
		case cmd := <-b.slot:
			b.waiting = false
			b.state.Set(core.StatePlayInProgress)
			b.mu.Unlock()
			return cmd, true
		default:
			// Play without a command, park again
			b.state.Set(core.StateUserInputWait)
			b.mu.Unlock()
		}
	}
}

// Waiting reports whether a taker is parked, whether or not a command is
// already pending for it
func (b *Mailbox) Waiting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waiting
}

// Parked reports whether a deposit would currently be accepted
func (b *Mailbox) Parked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waiting && len(b.slot) == 0 && b.state.Get() == core.StateUserInputWait
}
