package engine

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"othello/internal/board"
	"othello/internal/core"
)

// Data files read by GlobalInit from the data directory
const (
	CoefficientsFile = "coefficients.dat"
	BookFile         = "book.dat"
)

// DataFiles lists every file the engine needs provisioned
var DataFiles = []string{CoefficientsFile, BookFile}

const (
	coefficientsHeader = "OTHELLO-COEFFS 1"
	bookHeader         = "OTHELLO-BOOK 1"
)

// Weights holds one evaluation weight per square, indexed row*8+col
type Weights [core.CellCount]int

// ParseWeights reads a coefficients file: the header line followed by 64
// whitespace separated integers
func ParseWeights(r io.Reader) (*Weights, error) {
	br := bufio.NewReader(r)
	if err := expectHeader(br, coefficientsHeader); err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(br)
	sc.Split(bufio.ScanWords)

	var w Weights
	n := 0
	for sc.Scan() {
		if n == len(w) {
			return nil, fmt.Errorf("coefficients: more than %d values", len(w))
		}
		v, err := strconv.Atoi(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("coefficients: value %d: %w", n+1, err)
		}
		w[n] = v
		n++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if n != len(w) {
		return nil, fmt.Errorf("coefficients: got %d values, want %d", n, len(w))
	}
	return &w, nil
}

// Opening is a named book line
type Opening struct {
	Name  string
	Moves []board.Move
}

// Book is an ordered opening table; earlier lines are the more common ones
type Book []Opening

// ParseBook reads a book file: the header line, then "name<TAB>moves" lines.
// Blank lines and lines starting with # are skipped.
func ParseBook(r io.Reader) (Book, error) {
	br := bufio.NewReader(r)
	if err := expectHeader(br, bookHeader); err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(br)

	var book Book
	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		name, seq, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("book line %d: missing tab separator", line)
		}
		moves, err := board.ParseMoveSequence(seq)
		if err != nil {
			return nil, fmt.Errorf("book line %d: %w", line, err)
		}
		if len(moves) == 0 {
			return nil, fmt.Errorf("book line %d: empty line", line)
		}
		book = append(book, Opening{Name: strings.TrimSpace(name), Moves: moves})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return book, nil
}

func expectHeader(br *bufio.Reader, header string) error {
	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	if got := strings.TrimSpace(line); got != header {
		return fmt.Errorf("bad header %q, want %q", got, header)
	}
	return nil
}

// Name returns the longest opening that the played moves follow
func (b Book) Name(played []board.Move) string {
	name, longest := "", 0
	for _, o := range b {
		if len(o.Moves) > longest && isPrefix(o.Moves, played) {
			name, longest = o.Name, len(o.Moves)
		}
	}
	return name
}

// Continuations returns the openings that extend the played moves
func (b Book) Continuations(played []board.Move) []Opening {
	var out []Opening
	for _, o := range b {
		if len(o.Moves) > len(played) && isPrefix(played, o.Moves) {
			out = append(out, o)
		}
	}
	return out
}

func (b Book) Find(name string) (Opening, bool) {
	for _, o := range b {
		if strings.EqualFold(o.Name, name) {
			return o, true
		}
	}
	return Opening{}, false
}

func isPrefix(prefix, moves []board.Move) bool {
	if len(prefix) > len(moves) {
		return false
	}
	for i, m := range prefix {
		if moves[i] != m {
			return false
		}
	}
	return true
}
