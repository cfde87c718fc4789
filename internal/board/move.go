package board

import (
	"fmt"
	"strings"
	"unicode"

	"othello/internal/core"
)

// Move is a square id in engine notation: 10*row + col, both 1-based, so A1 = 11
// and H8 = 88. Pass and NoMove are sentinels.
type Move int

const (
	NoMove Move = 0
	Pass   Move = -1
)

// PassByte stores a pass inside a move sequence; zero marks an unused slot
const PassByte byte = 0xFF

// NewMove builds a move from 0-based row and column
func NewMove(row, col int) Move {
	return Move(10*(row+1) + col + 1)
}

func (m Move) Row() int { return int(m)/10 - 1 }
func (m Move) Col() int { return int(m)%10 - 1 }

// Valid reports whether m names an on-board square
func (m Move) Valid() bool {
	r, c := int(m)/10, int(m)%10
	return r >= 1 && r <= Size && c >= 1 && c <= Size
}

func (m Move) String() string {
	switch {
	case m == Pass:
		return "pass"
	case m == NoMove:
		return "--"
	case !m.Valid():
		return fmt.Sprintf("?%d", int(m))
	default:
		return fmt.Sprintf("%c%d", 'A'+m.Col(), m.Row()+1)
	}
}

// ParseMove accepts "f5", "F5" or "pass"
func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "pass") || s == "--" {
		return Pass, nil
	}
	if len(s) != 2 {
		return NoMove, fmt.Errorf("invalid move %q: expected column letter and row digit", s)
	}
	col := unicode.ToUpper(rune(s[0])) - 'A'
	row := rune(s[1]) - '1'
	if col < 0 || col >= Size || row < 0 || row >= Size {
		return NoMove, fmt.Errorf("invalid move %q: square off board", s)
	}
	return NewMove(int(row), int(col)), nil
}

func MustParseMove(s string) Move {
	m, err := ParseMove(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMoveSequence decodes concatenated squares such as "F5D6C3", ignoring
// whitespace
func ParseMoveSequence(text string) ([]Move, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	if len(compact)%2 != 0 {
		return nil, fmt.Errorf("invalid move sequence: odd length %d", len(compact))
	}
	if len(compact)/2 > core.SequenceLen {
		return nil, fmt.Errorf("invalid move sequence: %d moves exceeds %d", len(compact)/2, core.SequenceLen)
	}

	moves := make([]Move, 0, len(compact)/2)
	for i := 0; i < len(compact); i += 2 {
		m, err := ParseMove(compact[i : i+2])
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i/2+1, err)
		}
		if m == Pass {
			continue
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// FormatMoveSequence is the inverse of ParseMoveSequence; passes are omitted
func FormatMoveSequence(moves []Move) string {
	var sb strings.Builder
	for _, m := range moves {
		if m.Valid() {
			sb.WriteString(m.String())
		}
	}
	return sb.String()
}

// EncodeMove converts a move to its sequence byte
func EncodeMove(m Move) byte {
	if m == Pass {
		return PassByte
	}
	if !m.Valid() {
		return 0
	}
	return byte(m)
}

// DecodeMove converts a sequence byte back to a move
func DecodeMove(b byte) Move {
	if b == PassByte {
		return Pass
	}
	return Move(b)
}

// EncodeMoves packs moves into engine bytes
func EncodeMoves(moves []Move) []byte {
	out := make([]byte, 0, len(moves))
	for _, m := range moves {
		out = append(out, EncodeMove(m))
	}
	return out
}

// DecodeMoves unpacks engine bytes, stopping at the first unused slot
func DecodeMoves(seq []byte) ([]Move, error) {
	moves := make([]Move, 0, len(seq))
	for i, b := range seq {
		if b == 0 {
			break
		}
		m := DecodeMove(b)
		if m != Pass && !m.Valid() {
			return nil, fmt.Errorf("invalid move byte %d at ply %d", b, i+1)
		}
		moves = append(moves, m)
	}
	return moves, nil
}
