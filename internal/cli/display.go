package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/samber/lo"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"othello/internal/board"
	"othello/internal/core"
	"othello/internal/engine"
	"othello/internal/game"
	"othello/internal/storage"
)

// Terminal color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type ColorTheme string

const (
	ThemeOff   ColorTheme = "off"
	ThemeGreen ColorTheme = "green"
	ThemeGray  ColorTheme = "gray"
)

type themeColors struct {
	bg    string
	white string
	black string
	hint  string
	reset string
}

var themes = map[ColorTheme]themeColors{
	ThemeOff: {},
	ThemeGreen: {
		bg:    "\033[48;5;28m", // Felt
		white: "\033[97m",
		black: "\033[30m",
		hint:  "\033[93m",
		reset: "\033[0m",
	},
	ThemeGray: {
		bg:    "\033[48;5;244m",
		white: "\033[97m",
		black: "\033[30m",
		hint:  "\033[94m",
		reset: "\033[0m",
	},
}

// DetectTheme picks the green theme on a terminal and no colors otherwise
func DetectTheme(fd int) ColorTheme {
	if term.IsTerminal(fd) {
		return ThemeGreen
	}
	return ThemeOff
}

// Renderer prints messages and game events. It is a game.Observer; wrap it
// in an EventQueue so rendering never holds the engine.
type Renderer struct {
	mu      sync.Mutex
	out     io.Writer
	theme   ColorTheme
	verbose bool
	last    *game.State
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out, theme: ThemeOff}
}

// SetOutput redirects rendering, e.g. to readline's prompt-aware writer
func (r *Renderer) SetOutput(out io.Writer) {
	r.mu.Lock()
	r.out = out
	r.mu.Unlock()
}

func (r *Renderer) SetTheme(theme ColorTheme) error {
	if _, ok := themes[theme]; !ok {
		return fmt.Errorf("invalid theme: %s (use: off, green, gray)", theme)
	}
	r.mu.Lock()
	r.theme = theme
	r.mu.Unlock()
	return nil
}

func (r *Renderer) ToggleVerbose() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verbose = !r.verbose
	return r.verbose
}

func (r *Renderer) IsVerbose() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.verbose
}

func (r *Renderer) ShowMessage(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, msg)
}

func (r *Renderer) ShowError(err error) {
	r.ShowMessage(r.paint(colorRed, "Error: "+err.Error()))
}

// paint wraps text in a color unless colors are off
func (r *Renderer) paint(color, text string) string {
	r.mu.Lock()
	off := r.theme == ThemeOff
	r.mu.Unlock()
	if off {
		return text
	}
	return color + text + colorReset
}

// RenderBoard draws b with candidate squares marked
func RenderBoard(b board.Board, candidates []board.Move, theme ColorTheme) string {
	if theme == ThemeOff {
		return b.ToASCIIWith(candidates)
	}
	colors := themes[theme]
	marked := lo.SliceToMap(candidates, func(m board.Move) (board.Move, bool) { return m, true })

	var sb strings.Builder
	sb.WriteString("  A B C D E F G H\n")
	for r := 0; r < board.Size; r++ {
		sb.WriteString(fmt.Sprintf("%d %s", r+1, colors.bg))
		for col := 0; col < board.Size; col++ {
			m := board.NewMove(r, col)
			switch b.At(m) {
			case core.CellBlack:
				sb.WriteString(colors.black + "● ")
			case core.CellWhite:
				sb.WriteString(colors.white + "● ")
			default:
				if marked[m] {
					sb.WriteString(colors.hint + "· ")
				} else {
					sb.WriteString("  ")
				}
			}
		}
		sb.WriteString(fmt.Sprintf("%s %d\n", colors.reset, r+1))
	}
	sb.WriteString("  A B C D E F G H")
	return sb.String()
}

// DisplayGame prints the board, disc counts and candidate evaluations
func (r *Renderer) DisplayGame(g *game.State) {
	r.mu.Lock()
	theme := r.theme
	r.mu.Unlock()

	set := g.CandidateSet()
	b := g.Board()
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(RenderBoard(b, set.Moves(), theme))

	black, white := g.Black(), g.White()
	sb.WriteString(fmt.Sprintf("\nBlack %d  White %d", black.DiscCount, white.DiscCount))
	if opening := g.Opening(); opening != "" {
		sb.WriteString("  " + opening)
	}
	if last := g.LastMove(); last.Valid() || last == board.Pass {
		sb.WriteString("  last " + last.String())
	}

	if evaluated := set.Evaluated(); len(evaluated) > 0 {
		sb.WriteString("\n")
		for _, cand := range evaluated {
			mark := " "
			if cand.Best {
				mark = "*"
			}
			sb.WriteString(fmt.Sprintf("%s%s %s  ", mark, cand.Move, cand.EvalShort))
		}
	}
	r.ShowMessage(sb.String())
}

type stateDump struct {
	GameID     string            `yaml:"gameId"`
	Engine     string            `yaml:"engine"`
	SideToMove string            `yaml:"sideToMove"`
	Moves      string            `yaml:"moves"`
	Discs      map[string]int    `yaml:"discs"`
	Legal      []string          `yaml:"legal,omitempty"`
	Opening    string            `yaml:"opening,omitempty"`
	Eval       string            `yaml:"eval,omitempty"`
	Candidates []string          `yaml:"candidates,omitempty"`
	Players    map[string]string `yaml:"players"`
	Options    engine.Options    `yaml:"options"`
	Pass       bool              `yaml:"passPending,omitempty"`
}

func dumpState(src Game, g *game.State) (string, error) {
	toText := func(m board.Move, _ int) string { return m.String() }
	dump := stateDump{
		GameID:     g.ID(),
		Engine:     src.EngineState().String(),
		SideToMove: g.SideToMove().String(),
		Moves:      g.MoveText(),
		Discs:      map[string]int{"black": g.Black().DiscCount, "white": g.White().DiscCount},
		Legal:      lo.Map(src.Legal(), toText),
		Opening:    g.Opening(),
		Eval:       g.EvalText(),
		Candidates: lo.Map(g.Candidates(), func(cm game.CandidateMove, _ int) string {
			if !cm.HasEval {
				return cm.Move.String()
			}
			return cm.Move.String() + " " + cm.EvalShort
		}),
		Players: make(map[string]string, len(core.Seats)),
		Options: src.Options(),
		Pass:    src.PassPending(),
	}
	for _, seat := range core.Seats {
		dump.Players[seat.String()] = describePlayer(src.PlayerConfig(seat))
	}

	out, err := yaml.Marshal(dump)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return string(out), nil
}

func formatHistory(records []storage.GameRecord) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FINISHED\tGAME\tRESULT\tOPENING\tMOVES")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s %d-%d\t%s\t%s\n",
			r.FinishedUTC.Format("2006-01-02 15:04"),
			shortID(r.GameID),
			r.Winner(), r.BlackDiscs, r.WhiteDiscs,
			r.Opening,
			r.Sequence)
	}
	w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}

func (r *Renderer) latest() *game.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Renderer) OnBoard(g *game.State) {
	r.mu.Lock()
	r.last = g
	r.mu.Unlock()
}

func (r *Renderer) OnGameStart() {
	r.ShowMessage(r.paint(colorCyan, "Game started"))
}

// OnMoveEnd shows the position after every ply
func (r *Renderer) OnMoveEnd() {
	if g := r.latest(); g != nil {
		r.DisplayGame(g)
	}
}

func (r *Renderer) OnMoveStart() {}

func (r *Renderer) OnPass() {
	r.ShowMessage(r.paint(colorYellow, "No legal move, you must pass. Type 'resume' to continue."))
}

func (r *Renderer) OnGameOver() {
	g := r.latest()
	if g == nil {
		return
	}
	r.DisplayGame(g)
	black, white := g.Black().DiscCount, g.White().DiscCount
	result := "Draw"
	switch {
	case black > white:
		result = "Black wins"
	case white > black:
		result = "White wins"
	}
	r.ShowMessage(r.paint(colorGreen, fmt.Sprintf("Game over: %s %d-%d", result, black, white)))
	r.ShowMessage("Start a new game with 'new', or 'undo' to take back.")
}

func (r *Renderer) OnEval(text string) {
	if r.IsVerbose() {
		r.ShowMessage("eval " + text)
	}
}

func (r *Renderer) OnPV(moves []board.Move) {
	if r.IsVerbose() {
		r.ShowMessage("pv " + board.FormatMoveSequence(moves))
	}
}

func (r *Renderer) OnError(message string) {
	r.ShowMessage(r.paint(colorRed, "Engine: "+message))
}

func (r *Renderer) OnDebug(message string) {
	if r.IsVerbose() {
		r.ShowMessage("debug " + message)
	}
}
