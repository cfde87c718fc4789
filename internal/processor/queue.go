package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"othello/internal/board"
	"othello/internal/game"
)

// EventQueue is a game.Observer that hands every event to target on its own
// goroutine, in order, so slow observers never hold the engine worker
type EventQueue struct {
	target game.Observer
	events chan func()
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewEventQueue creates a queue with room for size pending events
func NewEventQueue(target game.Observer, size int) *EventQueue {
	if size < 1 {
		size = 256 // Default
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &EventQueue{
		target: target,
		events: make(chan func(), size),
		ctx:    ctx,
		cancel: cancel,
	}

	q.wg.Add(1)
	go q.worker()
	return q
}

func (q *EventQueue) worker() {
	defer q.wg.Done()

	for {
		select {
		case fn, ok := <-q.events:
			if !ok {
				return // Channel closed
			}
			fn()
		case <-q.ctx.Done():
			return
		}
	}
}

// submit blocks while the queue is full; events are never dropped before
// shutdown
func (q *EventQueue) submit(fn func()) {
	select {
	case q.events <- fn:
	case <-q.ctx.Done():
	}
}

func (q *EventQueue) OnBoard(s *game.State) { q.submit(func() { q.target.OnBoard(s) }) }
func (q *EventQueue) OnPass() { q.submit(q.target.OnPass) }
func (q *EventQueue) OnGameStart() { q.submit(q.target.OnGameStart) }
func (q *EventQueue) OnGameOver() { q.submit(q.target.OnGameOver) }
func (q *EventQueue) OnMoveStart() { q.submit(q.target.OnMoveStart) }
func (q *EventQueue) OnMoveEnd() { q.submit(q.target.OnMoveEnd) }

func (q *EventQueue) OnEval(text string) { q.submit(func() { q.target.OnEval(text) }) }

func (q *EventQueue) OnPV(moves []board.Move) { q.submit(func() { q.target.OnPV(moves) }) }

func (q *EventQueue) OnError(message string) { q.submit(func() { q.target.OnError(message) }) }

func (q *EventQueue) OnDebug(message string) { q.submit(func() { q.target.OnDebug(message) }) }

// Shutdown delivers what is already queued, then stops the goroutine
func (q *EventQueue) Shutdown(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		q.drain()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		q.cancel()
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

func (q *EventQueue) drain() {
	q.once.Do(func() {
		// wait for queued events, then release the worker
		for len(q.events) > 0 && q.ctx.Err() == nil {
			time.Sleep(time.Millisecond)
		}
		q.cancel()
	})
	q.wg.Wait()
}
