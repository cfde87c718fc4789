package board

import (
	"fmt"
	"strings"

	"othello/internal/core"
)

const Size = core.BoardSize

// Board is an 8×8 grid indexed [row][col], row 0 being rank 1
type Board [Size][Size]core.Cell

// Empty returns a board with no discs
func Empty() Board {
	var b Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			b[r][c] = core.CellEmpty
		}
	}
	return b
}

// New returns the standard starting position
func New() Board {
	b := Empty()
	b.Set(MustParseMove("D4"), core.CellWhite)
	b.Set(MustParseMove("E5"), core.CellWhite)
	b.Set(MustParseMove("E4"), core.CellBlack)
	b.Set(MustParseMove("D5"), core.CellBlack)
	return b
}

// FromGrid converts the engine's row-major integer grid
func FromGrid(grid [][]int) (Board, error) {
	if len(grid) != Size {
		return Board{}, fmt.Errorf("invalid board: expected %d rows, got %d", Size, len(grid))
	}
	var b Board
	for r, row := range grid {
		if len(row) != Size {
			return Board{}, fmt.Errorf("invalid board: row %d has %d cells", r+1, len(row))
		}
		for c, v := range row {
			cell := core.Cell(v)
			if cell != core.CellBlack && cell != core.CellEmpty && cell != core.CellWhite {
				return Board{}, fmt.Errorf("invalid board: cell %c%d has state %d", 'A'+c, r+1, v)
			}
			b[r][c] = cell
		}
	}
	return b, nil
}

// Grid is the inverse of FromGrid
func (b *Board) Grid() [][]int {
	grid := make([][]int, Size)
	for r := 0; r < Size; r++ {
		grid[r] = make([]int, Size)
		for c := 0; c < Size; c++ {
			grid[r][c] = int(b[r][c])
		}
	}
	return grid
}

func (b *Board) At(m Move) core.Cell {
	if !m.Valid() {
		return core.CellEmpty
	}
	return b[m.Row()][m.Col()]
}

func (b *Board) Set(m Move, cell core.Cell) {
	if m.Valid() {
		b[m.Row()][m.Col()] = cell
	}
}

// Count returns the number of squares holding cell
func (b *Board) Count(cell core.Cell) int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] == cell {
				n++
			}
		}
	}
	return n
}

// ToASCII creates an ASCII representation of the board
func (b *Board) ToASCII() string {
	return b.ToASCIIWith(nil)
}

// ToASCIIWith renders the board marking each candidate square with '*'
func (b *Board) ToASCIIWith(candidates []Move) string {
	marked := make(map[Move]bool, len(candidates))
	for _, m := range candidates {
		marked[m] = true
	}

	var sb strings.Builder
	sb.WriteString("  A B C D E F G H\n")

	for r := 0; r < Size; r++ {
		sb.WriteString(fmt.Sprintf("%d ", r+1))
		for c := 0; c < Size; c++ {
			m := NewMove(r, c)
			switch b[r][c] {
			case core.CellBlack:
				sb.WriteString("X ")
			case core.CellWhite:
				sb.WriteString("O ")
			default:
				if marked[m] {
					sb.WriteString("* ")
				} else {
					sb.WriteString(". ")
				}
			}
		}
		sb.WriteString(fmt.Sprintf("%d\n", r+1))
	}
	sb.WriteString("  A B C D E F G H")

	return sb.String()
}
