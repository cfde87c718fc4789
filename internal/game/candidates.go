package game

import (
	"github.com/samber/lo"

	"othello/internal/board"
)

// CandidateMove is a legal move for the side to move with an optional evaluation
type CandidateMove struct {
	Move      board.Move `json:"move" yaml:"move"`
	HasEval   bool       `json:"hasEval" yaml:"hasEval"`
	EvalShort string     `json:"evalShort,omitempty" yaml:"evalShort,omitempty"`
	EvalLong  string     `json:"evalLong,omitempty" yaml:"evalLong,omitempty"`
	Best      bool       `json:"best,omitempty" yaml:"best,omitempty"`
}

// CandidateEval is one incremental evaluation reported by the engine
type CandidateEval struct {
	Move      board.Move
	EvalShort string
	EvalLong  string
	Best      bool
}

// CandidateSet holds the candidates of the current ply. Entries keep the order
// the engine reported them in; merges match by move id only.
type CandidateSet struct {
	moves []CandidateMove
}

// NewCandidateSet creates an unevaluated set
func NewCandidateSet(moves []board.Move) CandidateSet {
	return CandidateSet{
		moves: lo.Map(moves, func(m board.Move, _ int) CandidateMove {
			return CandidateMove{Move: m}
		}),
	}
}

// Merge applies evals whose move is in the set and drops the rest. It returns
// the number of entries updated.
func (s *CandidateSet) Merge(evals []CandidateEval) int {
	if len(evals) == 0 || len(s.moves) == 0 {
		return 0
	}

	index := make(map[board.Move]int, len(s.moves))
	for i, c := range s.moves {
		index[c.Move] = i
	}

	updated := 0
	for _, e := range evals {
		i, ok := index[e.Move]
		if !ok {
			continue // stale
		}
		c := &s.moves[i]
		c.HasEval = true
		c.EvalShort = e.EvalShort
		c.EvalLong = e.EvalLong
		c.Best = e.Best
		updated++
	}
	return updated
}

func (s *CandidateSet) Len() int {
	return len(s.moves)
}

func (s *CandidateSet) Contains(m board.Move) bool {
	return lo.ContainsBy(s.moves, func(c CandidateMove) bool { return c.Move == m })
}

// Moves returns the candidate squares
func (s *CandidateSet) Moves() []board.Move {
	return lo.Map(s.moves, func(c CandidateMove, _ int) board.Move { return c.Move })
}

// Candidates returns a copy of the entries
func (s *CandidateSet) Candidates() []CandidateMove {
	out := make([]CandidateMove, len(s.moves))
	copy(out, s.moves)
	return out
}

// Evaluated returns the entries that carry an evaluation
func (s *CandidateSet) Evaluated() []CandidateMove {
	return lo.Filter(s.moves, func(c CandidateMove, _ int) bool { return c.HasEval })
}

func (s *CandidateSet) clone() CandidateSet {
	return CandidateSet{moves: s.Candidates()}
}
