package engine

import (
	"fmt"

	"othello/internal/core"
)

// SidePayload is one player's block inside a board report. Moves are move ids
// in play order with -1 for a pass, so black's list covers even plies and
// white's the odd ones.
type SidePayload struct {
	Time      string  `json:"time"`
	Eval      float64 `json:"eval"`
	DiscCount int     `json:"disc_count"`
	Moves     []int   `json:"moves"`
}

// BoardPayload carries TagBoard. Cells use core.Cell values and side_to_move
// is the cell value of the side to move (0 black, 2 white).
type BoardPayload struct {
	Board      [][]int     `json:"board"`
	SideToMove int         `json:"side_to_move"`
	Black      SidePayload `json:"black"`
	White      SidePayload `json:"white"`
}

// SideColor decodes side_to_move
func (p BoardPayload) SideColor() (core.Color, error) {
	switch core.Cell(p.SideToMove) {
	case core.CellBlack:
		return core.ColorBlack, nil
	case core.CellWhite:
		return core.ColorWhite, nil
	default:
		return 0, fmt.Errorf("invalid side to move %d", p.SideToMove)
	}
}

type CandidatePayload struct {
	Move int `json:"move"`
}

// CandidateMovesPayload carries TagCandidateMoves
type CandidateMovesPayload struct {
	Moves []CandidatePayload `json:"moves"`
}

type CandidateEvalPayload struct {
	Move      int    `json:"move"`
	EvalShort string `json:"eval_short"`
	EvalLong  string `json:"eval_long"`
	Best      bool   `json:"best"`
}

// CandidateEvalsPayload carries TagCandidateEvals
type CandidateEvalsPayload struct {
	Evals []CandidateEvalPayload `json:"evals"`
}

type OpeningPayload struct {
	Name string `json:"name"`
}

// MovePayload carries TagLastMove and TagNextMove
type MovePayload struct {
	Move int `json:"move"`
}

type EvalPayload struct {
	Eval string `json:"eval"`
}

type PVPayload struct {
	PV []int `json:"pv"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type DebugPayload struct {
	Message string `json:"message"`
}
