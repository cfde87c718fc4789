package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"othello/internal/board"
	"othello/internal/core"
	"othello/internal/engine"
	"othello/internal/game"
	"othello/internal/storage"
)

type fakeGame struct {
	current *game.State
	calls   []string
	moves   []board.Move
	replay  []board.Move
	players [3]core.PlayerConfig
	opts    engine.Options
	resume  bool
	err     error
}

func newFakeGame() *fakeGame {
	return &fakeGame{current: game.New(nil), players: [3]core.PlayerConfig{core.HumanPlayer(), core.ComputerPlayer(6), core.ComputerPlayer(4)}}
}

func (f *fakeGame) NewGame(ctx context.Context) (*game.State, error) {
	f.calls = append(f.calls, "new")
	f.current = game.New(nil)
	return f.current, f.err
}

func (f *fakeGame) Replay(ctx context.Context, moves []board.Move) (*game.State, error) {
	f.calls = append(f.calls, "replay")
	f.replay = moves
	f.current = game.New(nil)
	return f.current, f.err
}

func (f *fakeGame) MakeMove(handle string, m board.Move) error {
	f.calls = append(f.calls, "move "+handle)
	f.moves = append(f.moves, m)
	return f.err
}

func (f *fakeGame) Undo(handle string) error {
	f.calls = append(f.calls, "undo "+handle)
	return f.err
}

func (f *fakeGame) Redo(handle string) error {
	f.calls = append(f.calls, "redo "+handle)
	return f.err
}

func (f *fakeGame) Resume() bool {
	f.calls = append(f.calls, "resume")
	return f.resume
}

func (f *fakeGame) StopMove() { f.calls = append(f.calls, "stop") }

func (f *fakeGame) StopGame() { f.calls = append(f.calls, "stopgame") }

func (f *fakeGame) SetPlayerConfig(seat core.Seat, cfg core.PlayerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	f.players[seat] = cfg
	return nil
}

func (f *fakeGame) SetOptions(opts engine.Options) error {
	f.opts = opts
	return nil
}

func (f *fakeGame) PlayerConfig(seat core.Seat) core.PlayerConfig { return f.players[seat] }

func (f *fakeGame) Options() engine.Options { return f.opts }

func (f *fakeGame) Current() *game.State { return f.current }

func (f *fakeGame) Legal() []board.Move {
	b := board.New()
	return b.LegalMoves(core.ColorBlack)
}

func (f *fakeGame) EngineState() core.EngineState { return core.StateUserInputWait }

func (f *fakeGame) PassPending() bool { return false }

type fakeHistory struct {
	records []storage.GameRecord
	query   string
}

func (h *fakeHistory) History(sequence string) ([]storage.GameRecord, error) {
	h.query = sequence
	return h.records, nil
}

func newCLI(g Game, h History) (*CLI, *bytes.Buffer) {
	var out bytes.Buffer
	return New(g, h, NewRenderer(&out)), &out
}

func TestMovesAndControl(t *testing.T) {
	g := newFakeGame()
	c, out := newCLI(g, nil)
	id := g.current.ID()

	assert.True(t, c.Execute("f5"))
	assert.True(t, c.Execute("move d6"))
	assert.True(t, c.Execute("undo"))
	assert.True(t, c.Execute("redo"))
	assert.True(t, c.Execute("stop"))
	assert.True(t, c.Execute("  "))

	assert.Equal(t, []board.Move{board.MustParseMove("F5"), board.MustParseMove("D6")}, g.moves)
	assert.Equal(t, []string{"move " + id, "move " + id, "undo " + id, "redo " + id, "stop"}, g.calls)
	assert.Empty(t, out.String())
}

func TestResumeWithoutPassReportsError(t *testing.T) {
	g := newFakeGame()
	c, out := newCLI(g, nil)

	c.Execute("resume")
	assert.Contains(t, out.String(), core.ErrNotAwaitingInput.Error())

	out.Reset()
	g.resume = true
	c.Execute("r")
	assert.Empty(t, out.String())
}

func TestEngineErrorsAreShown(t *testing.T) {
	g := newFakeGame()
	g.err = core.ErrStaleGame
	c, out := newCLI(g, nil)

	c.Execute("c4")
	assert.Contains(t, out.String(), "Error: ")
	assert.Contains(t, out.String(), "no longer active")
}

func TestUnknownCommand(t *testing.T) {
	c, out := newCLI(newFakeGame(), nil)
	assert.True(t, c.Execute("castle"))
	assert.Contains(t, out.String(), "Unknown command: castle")
}

func TestNewAndReplay(t *testing.T) {
	g := newFakeGame()
	c, out := newCLI(g, nil)

	c.Execute("new")
	assert.Contains(t, out.String(), "New game "+shortID(g.current.ID()))

	c.Execute("replay f5d6 c3")
	assert.Equal(t, "F5D6C3", board.FormatMoveSequence(g.replay))

	out.Reset()
	c.Execute("replay f5d")
	assert.Contains(t, out.String(), "odd length")
	assert.Equal(t, []string{"new", "replay"}, g.calls)
}

func TestPlayerCommand(t *testing.T) {
	g := newFakeGame()
	c, out := newCLI(g, nil)

	c.Execute("player white 4 8 10 300 5")
	assert.Equal(t, core.PlayerConfig{Depth: 4, ExactDepth: 8, WLDDepth: 10, Time: 300, TimeIncrement: 5}, g.players[core.SeatWhite])
	assert.Contains(t, out.String(), "white: computer depth 4")

	c.Execute("player b 0")
	assert.True(t, g.players[core.SeatBlack].IsHuman())

	c.Execute("player engine 3")
	assert.Equal(t, core.ComputerPlayer(3), g.players[core.SeatEngine])

	out.Reset()
	c.Execute("player white 99")
	assert.Contains(t, out.String(), "invalid configuration")
	assert.Equal(t, 4, g.players[core.SeatWhite].Depth, "rejected config is not applied")

	out.Reset()
	c.Execute("player white four")
	assert.Contains(t, out.String(), "is not a number")

	out.Reset()
	c.Execute("player")
	assert.Contains(t, out.String(), "black  human")
}

func TestPracticeToggle(t *testing.T) {
	g := newFakeGame()
	g.opts.UseBook = true
	c, _ := newCLI(g, nil)

	c.Execute("practice on")
	assert.True(t, g.opts.PracticeMode)
	assert.True(t, g.opts.UseBook, "other options are kept")

	c.Execute("practice off")
	assert.False(t, g.opts.PracticeMode)
}

func TestStateDump(t *testing.T) {
	g := newFakeGame()
	c, out := newCLI(g, nil)
	g.current.SetOpening("Tiger")

	c.Execute("state")
	var dump stateDump
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &dump))
	assert.Equal(t, g.current.ID(), dump.GameID)
	assert.Equal(t, "b", dump.SideToMove)
	assert.Equal(t, "Tiger", dump.Opening)
	assert.Equal(t, 2, dump.Discs["black"])
	assert.ElementsMatch(t, []string{"D3", "C4", "F5", "E6"}, dump.Legal)
	assert.Equal(t, "human", dump.Players["black"])
}

func TestShowWithoutGame(t *testing.T) {
	g := newFakeGame()
	g.current = nil
	c, out := newCLI(g, nil)

	c.Execute("show")
	assert.Contains(t, out.String(), core.ErrNoGame.Error())
	assert.Equal(t, "othello > ", c.Prompt())
}

func TestShowBoard(t *testing.T) {
	g := newFakeGame()
	b := board.New()
	g.current.SetCandidates(b.LegalMoves(core.ColorBlack))
	c, out := newCLI(g, nil)

	c.Execute("show")
	assert.Contains(t, out.String(), b.ToASCIIWith(b.LegalMoves(core.ColorBlack)))
	assert.Contains(t, out.String(), "Black 2  White 2")
	assert.Contains(t, c.Prompt(), "Turn:Black(h)")
}

func TestHistory(t *testing.T) {
	h := &fakeHistory{records: []storage.GameRecord{{
		GameID:      "0123456789",
		Sequence:    "F5D6",
		BlackDiscs:  40,
		WhiteDiscs:  24,
		Opening:     "Tiger",
		FinishedUTC: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}}}
	c, out := newCLI(newFakeGame(), h)

	c.Execute("history f5")
	assert.Equal(t, "F5", h.query)
	lines := strings.Split(out.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "FINISHED"))
	assert.Contains(t, lines[1], "01234567")
	assert.Contains(t, lines[1], "b 40-24")

	c, out = newCLI(newFakeGame(), nil)
	c.Execute("history")
	assert.Contains(t, out.String(), "not available")
}

func TestHelpAndQuit(t *testing.T) {
	c, out := newCLI(newFakeGame(), nil)

	c.Execute("help")
	assert.Contains(t, out.String(), "practice")
	out.Reset()
	c.Execute("help undo")
	assert.Contains(t, out.String(), "Usage: undo")

	assert.False(t, c.Execute("quit"))
}

func TestThemes(t *testing.T) {
	c, out := newCLI(newFakeGame(), nil)
	c.Execute("color neon")
	assert.Contains(t, out.String(), "invalid theme")

	require.NoError(t, c.view.SetTheme(ThemeGreen))
	assert.Contains(t, c.Prompt(), colorYellow)

	b := board.New()
	assert.Equal(t, b.ToASCII(), RenderBoard(b, nil, ThemeOff))
	assert.Contains(t, RenderBoard(b, nil, ThemeGreen), themes[ThemeGreen].bg)
}

func TestVerboseFiltersEngineChatter(t *testing.T) {
	c, out := newCLI(newFakeGame(), nil)
	c.view.OnEval("+2.00")
	c.view.OnPV([]board.Move{board.MustParseMove("F5")})
	assert.Empty(t, out.String())

	c.Execute("verbose")
	out.Reset()
	c.view.OnEval("+2.00")
	c.view.OnPV([]board.Move{board.MustParseMove("F5")})
	assert.Equal(t, "eval +2.00\npv F5\n", out.String())
}

func TestRendererFollowsGame(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out)

	r.OnMoveEnd()
	r.OnGameOver()
	assert.Empty(t, out.String(), "nothing to show before a board")

	g := game.New(r)
	b := board.Empty()
	for _, sq := range []string{"A1", "B1", "C1"} {
		b.Set(board.MustParseMove(sq), core.CellBlack)
	}
	b.Set(board.MustParseMove("H8"), core.CellWhite)
	g.Update(b, core.ColorWhite, game.PlayerInfo{DiscCount: 3}, game.PlayerInfo{DiscCount: 1})

	r.OnMoveEnd()
	assert.Contains(t, out.String(), "Black 3  White 1")

	out.Reset()
	r.OnGameOver()
	assert.Contains(t, out.String(), "Game over: Black wins 3-1")

	out.Reset()
	r.OnPass()
	r.OnError("bad data")
	assert.Contains(t, out.String(), "resume")
	assert.Contains(t, out.String(), "Engine: bad data")
}

func TestQuotedArguments(t *testing.T) {
	g := newFakeGame()
	c, out := newCLI(g, nil)

	c.Execute(`replay "f5 d6 c3"`)
	assert.Equal(t, "F5D6C3", board.FormatMoveSequence(g.replay))

	c.Execute("replay 'f5")
	assert.Contains(t, out.String(), "Error: ")
}

func complete(c *Completer, line string) []string {
	matches, _ := c.Do([]rune(line), len(line))
	return lo.Map(matches, func(m []rune, _ int) string { return string(m) })
}

func TestCompleter(t *testing.T) {
	c, _ := newCLI(newFakeGame(), nil)
	comp := c.Completer()

	assert.ElementsMatch(t, []string{"edo", "eplay", "esume"}, complete(comp, "r"))
	assert.Equal(t, []string{"3"}, complete(comp, "d"), "squares complete from the legal set")
	assert.ElementsMatch(t, []string{"d3", "c4", "f5", "e6"}, complete(comp, "move "))
	assert.Equal(t, []string{"lack"}, complete(comp, "player b"))
	assert.ElementsMatch(t, []string{"n", "ff"}, complete(comp, "practice o"))
	assert.Equal(t, []string{"ndo"}, complete(comp, "help u"))
	assert.Empty(t, complete(comp, "player black 4 "))
	assert.Empty(t, complete(comp, "show "))
}
