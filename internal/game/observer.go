package game

import "othello/internal/board"

// Observer receives every engine report. Calls arrive in engine order on the
// worker goroutine unless redirected by an adapter; implementations must not
// mutate the State they are handed.
type Observer interface {
	OnBoard(s *State)
	OnPass()
	OnGameStart()
	OnGameOver()
	OnMoveStart()
	OnMoveEnd()
	OnEval(text string)
	OnPV(moves []board.Move)
	OnError(message string)
	OnDebug(message string)
}

// NopObserver ignores everything. Embed it to implement a subset of Observer.
type NopObserver struct{}

func (NopObserver) OnBoard(*State) {}
func (NopObserver) OnPass() {}
func (NopObserver) OnGameStart() {}
func (NopObserver) OnGameOver() {}
func (NopObserver) OnMoveStart() {}
func (NopObserver) OnMoveEnd() {}
func (NopObserver) OnEval(string) {}
func (NopObserver) OnPV([]board.Move) {}
func (NopObserver) OnError(string) {}
func (NopObserver) OnDebug(string) {}

// Observers fans every event out to each observer in order
func Observers(obs ...Observer) Observer {
	filtered := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return filtered
}

type multiObserver []Observer

func (m multiObserver) OnBoard(s *State) {
	for _, o := range m {
		o.OnBoard(s)
	}
}

func (m multiObserver) OnPass() {
	for _, o := range m {
		o.OnPass()
	}
}

func (m multiObserver) OnGameStart() {
	for _, o := range m {
		o.OnGameStart()
	}
}

func (m multiObserver) OnGameOver() {
	for _, o := range m {
		o.OnGameOver()
	}
}

func (m multiObserver) OnMoveStart() {
	for _, o := range m {
		o.OnMoveStart()
	}
}

func (m multiObserver) OnMoveEnd() {
	for _, o := range m {
		o.OnMoveEnd()
	}
}

func (m multiObserver) OnEval(text string) {
	for _, o := range m {
		o.OnEval(text)
	}
}

func (m multiObserver) OnPV(moves []board.Move) {
	for _, o := range m {
		o.OnPV(moves)
	}
}

func (m multiObserver) OnError(message string) {
	for _, o := range m {
		o.OnError(message)
	}
}

func (m multiObserver) OnDebug(message string) {
	for _, o := range m {
		o.OnDebug(message)
	}
}
