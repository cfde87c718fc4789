package board

import (
	"fmt"

	"othello/internal/core"
)

var directions = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Flips returns the discs turned over if color plays m, nil when m is illegal
func (b *Board) Flips(m Move, color core.Color) []Move {
	if !m.Valid() || b.At(m) != core.CellEmpty {
		return nil
	}
	own := color.Cell()
	opp := core.OppositeColor(color).Cell()

	var flips []Move
	for _, d := range directions {
		r, c := m.Row()+d[0], m.Col()+d[1]
		var line []Move
		for r >= 0 && r < Size && c >= 0 && c < Size && b[r][c] == opp {
			line = append(line, NewMove(r, c))
			r += d[0]
			c += d[1]
		}
		if len(line) > 0 && r >= 0 && r < Size && c >= 0 && c < Size && b[r][c] == own {
			flips = append(flips, line...)
		}
	}
	return flips
}

func (b *Board) IsLegal(m Move, color core.Color) bool {
	return len(b.Flips(m, color)) > 0
}

// LegalMoves lists color's legal moves in square order
func (b *Board) LegalMoves(color core.Color) []Move {
	var moves []Move
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			m := NewMove(r, c)
			if b.IsLegal(m, color) {
				moves = append(moves, m)
			}
		}
	}
	return moves
}

func (b *Board) HasMoves(color core.Color) bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.IsLegal(NewMove(r, c), color) {
				return true
			}
		}
	}
	return false
}

// Play returns the board after color plays m
func (b Board) Play(m Move, color core.Color) (Board, error) {
	flips := b.Flips(m, color)
	if len(flips) == 0 {
		return b, fmt.Errorf("illegal move %s for %s", m, color)
	}
	own := color.Cell()
	b.Set(m, own)
	for _, f := range flips {
		b.Set(f, own)
	}
	return b, nil
}

// GameOver reports whether neither side can move
func (b *Board) GameOver() bool {
	return !b.HasMoves(core.ColorBlack) && !b.HasMoves(core.ColorWhite)
}
