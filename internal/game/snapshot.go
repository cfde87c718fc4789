package game

import (
	"time"

	"github.com/samber/lo"

	"othello/internal/board"
)

// Snapshot is a detached value copy of a State, ready for serialization
type Snapshot struct {
	GameID     string          `json:"gameId" yaml:"gameId"`
	StartedAt  time.Time       `json:"startedAt" yaml:"startedAt"`
	Board      [][]int         `json:"board" yaml:"-"`
	ASCII      string          `json:"ascii" yaml:"-"`
	SideToMove string          `json:"sideToMove" yaml:"sideToMove"`
	Black      PlayerInfo      `json:"black" yaml:"black"`
	White      PlayerInfo      `json:"white" yaml:"white"`
	Moves      string          `json:"moves" yaml:"moves"`
	PlyCount   int             `json:"plyCount" yaml:"plyCount"`
	Candidates []CandidateMove `json:"candidates" yaml:"candidates"`
	Opening    string          `json:"opening,omitempty" yaml:"opening,omitempty"`
	LastMove   string          `json:"lastMove,omitempty" yaml:"lastMove,omitempty"`
	NextMove   string          `json:"nextMove,omitempty" yaml:"nextMove,omitempty"`
	Eval       string          `json:"eval,omitempty" yaml:"eval,omitempty"`
	PV         []string        `json:"pv,omitempty" yaml:"pv,omitempty"`
}

// Snapshot copies the whole state under one read lock
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	b := s.board
	snap := Snapshot{
		GameID:     s.id,
		StartedAt:  s.started,
		SideToMove: s.sideToMove.String(),
		Black:      s.black.clone(),
		White:      s.white.clone(),
		Candidates: s.candidates.Candidates(),
		Opening:    s.opening,
		Eval:       s.evalText,
		PV:         lo.Map(s.pv, func(m board.Move, _ int) string { return m.String() }),
	}
	lastMove, nextMove := s.lastMove, s.nextMove
	seq := s.sequence
	s.mu.RUnlock()

	moves, _ := board.DecodeMoves(seq[:])
	played := lo.Reject(moves, func(m board.Move, _ int) bool { return m == board.Pass })

	snap.Board = b.Grid()
	snap.ASCII = b.ToASCIIWith(lo.Map(snap.Candidates, func(c CandidateMove, _ int) board.Move { return c.Move }))
	snap.Moves = board.FormatMoveSequence(played)
	snap.PlyCount = len(moves)
	if lastMove != board.NoMove {
		snap.LastMove = lastMove.String()
	}
	if nextMove != board.NoMove {
		snap.NextMove = nextMove.String()
	}
	return snap
}
