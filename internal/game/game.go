package game

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"othello/internal/board"
	"othello/internal/core"
)

// PlayerInfo holds one side's statistics as last reported by the engine
type PlayerInfo struct {
	Time      string       `json:"time" yaml:"time"`
	Eval      float64      `json:"eval" yaml:"eval"`
	DiscCount int          `json:"discCount" yaml:"discCount"`
	Moves     []board.Move `json:"moves" yaml:"moves"` // May contain board.Pass
}

func (p PlayerInfo) clone() PlayerInfo {
	p.Moves = append([]board.Move(nil), p.Moves...)
	return p
}

// State is the snapshot of one game. Only the engine worker writes it; every
// setter notifies the observer after the write is visible. Accessors return
// copies.
type State struct {
	mu       sync.RWMutex
	id       string
	observer Observer
	started  time.Time

	board      board.Board
	sideToMove core.Color
	black      PlayerInfo
	white      PlayerInfo
	sequence   [core.SequenceLen]byte
	candidates CandidateSet
	opening    string
	lastMove   board.Move
	nextMove   board.Move
	evalText   string
	pv         []board.Move
}

// New creates an empty game with a fresh handle
func New(observer Observer) *State {
	if observer == nil {
		observer = NopObserver{}
	}
	return &State{
		id:       uuid.New().String(),
		observer: observer,
		started:  time.Now().UTC(),
		board:    board.New(),
		black:    PlayerInfo{DiscCount: 2},
		white:    PlayerInfo{DiscCount: 2},
		lastMove: board.NoMove,
		nextMove: board.NoMove,
	}
}

// ID is the handle callers present with every command for this game
func (s *State) ID() string {
	return s.id
}

func (s *State) StartedAt() time.Time {
	return s.started
}

// Update replaces board, side to move and both sides' statistics, rebuilding
// the move sequence from the per-side move lists
func (s *State) Update(b board.Board, sideToMove core.Color, black, white PlayerInfo) {
	s.mu.Lock()
	s.board = b
	s.sideToMove = sideToMove
	s.black = black.clone()
	s.white = white.clone()

	s.sequence = [core.SequenceLen]byte{}
	for i, m := range s.black.Moves {
		if 2*i < core.SequenceLen {
			s.sequence[2*i] = board.EncodeMove(m)
		}
	}
	for i, m := range s.white.Moves {
		if 2*i+1 < core.SequenceLen {
			s.sequence[2*i+1] = board.EncodeMove(m)
		}
	}
	s.mu.Unlock()

	s.observer.OnBoard(s)
}

// SetCandidates replaces the candidate set for a new ply
func (s *State) SetCandidates(moves []board.Move) {
	s.mu.Lock()
	s.candidates = NewCandidateSet(moves)
	s.mu.Unlock()
}

// MergeEvals folds incremental evaluations into the candidate set
func (s *State) MergeEvals(evals []CandidateEval) {
	s.mu.Lock()
	s.candidates.Merge(evals)
	s.mu.Unlock()

	s.observer.OnBoard(s)
}

func (s *State) SetOpening(name string) {
	s.mu.Lock()
	s.opening = name
	s.mu.Unlock()

	s.observer.OnBoard(s)
}

func (s *State) SetLastMove(m board.Move) {
	s.mu.Lock()
	s.lastMove = m
	s.mu.Unlock()

	s.observer.OnBoard(s)
}

func (s *State) SetNextMove(m board.Move) {
	s.mu.Lock()
	s.nextMove = m
	s.mu.Unlock()

	s.observer.OnBoard(s)
}

func (s *State) SetEval(text string) {
	s.mu.Lock()
	s.evalText = text
	s.mu.Unlock()

	s.observer.OnEval(text)
}

func (s *State) SetPV(moves []board.Move) {
	pv := append([]board.Move(nil), moves...)
	s.mu.Lock()
	s.pv = pv
	s.mu.Unlock()

	s.observer.OnPV(append([]board.Move(nil), pv...))
}

func (s *State) Board() board.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board
}

func (s *State) SideToMove() core.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sideToMove
}

func (s *State) Black() PlayerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.black.clone()
}

func (s *State) White() PlayerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.white.clone()
}

// MoveSequence returns the raw per-ply bytes, passes included
func (s *State) MoveSequence() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]byte, len(s.sequence))
	copy(out, s.sequence[:])
	return out
}

// Moves returns every recorded ply in order, passes included
func (s *State) Moves() []board.Move {
	moves, _ := board.DecodeMoves(s.MoveSequence())
	return moves
}

// PlayedMoves returns the placed discs in order, without passes
func (s *State) PlayedMoves() []board.Move {
	var played []board.Move
	for _, m := range s.Moves() {
		if m != board.Pass {
			played = append(played, m)
		}
	}
	return played
}

// MoveText encodes the played moves as concatenated squares
func (s *State) MoveText() string {
	return board.FormatMoveSequence(s.PlayedMoves())
}

func (s *State) Candidates() []CandidateMove {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.candidates.Candidates()
}

func (s *State) CandidateSet() CandidateSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.candidates.clone()
}

func (s *State) Opening() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opening
}

func (s *State) LastMove() board.Move {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMove
}

func (s *State) NextMove() board.Move {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextMove
}

func (s *State) EvalText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evalText
}

func (s *State) PV() []board.Move {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]board.Move(nil), s.pv...)
}
