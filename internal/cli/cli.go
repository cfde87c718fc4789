// Package cli is the interactive terminal front end
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"

	"othello/internal/board"
	"othello/internal/core"
	"othello/internal/engine"
	"othello/internal/game"
	"othello/internal/storage"
)

// Game is the processor surface the terminal drives
type Game interface {
	NewGame(ctx context.Context) (*game.State, error)
	Replay(ctx context.Context, moves []board.Move) (*game.State, error)
	MakeMove(handle string, m board.Move) error
	Undo(handle string) error
	Redo(handle string) error
	Resume() bool
	StopMove()
	StopGame()
	SetPlayerConfig(seat core.Seat, cfg core.PlayerConfig) error
	SetOptions(opts engine.Options) error
	PlayerConfig(seat core.Seat) core.PlayerConfig
	Options() engine.Options
	Current() *game.State
	Legal() []board.Move
	EngineState() core.EngineState
	PassPending() bool
}

// History lists finished games
type History interface {
	History(sequence string) ([]storage.GameRecord, error)
}

// Command is one terminal command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(args []string) error
}

// CLI executes commands against a Game and prints through a Renderer
type CLI struct {
	game     Game
	history  History
	view     *Renderer
	commands map[string]*Command
	order    []string
	timeout  time.Duration
	quit     bool
}

func New(g Game, history History, view *Renderer) *CLI {
	c := &CLI{
		game:     g,
		history:  history,
		view:     view,
		commands: make(map[string]*Command),
		timeout:  10 * time.Second,
	}
	c.registerCommands()
	return c
}

func (c *CLI) Register(cmd *Command) {
	c.commands[cmd.Name] = cmd
	c.order = append(c.order, cmd.Name)
	if cmd.ShortName != "" {
		c.commands[cmd.ShortName] = cmd
	}
}

// Execute runs one input line. It returns false once the user asked to quit.
func (c *CLI) Execute(line string) bool {
	parts, err := shellquote.Split(line)
	if err != nil {
		c.view.ShowError(err)
		return true
	}
	if len(parts) == 0 {
		return !c.quit
	}

	name, args := strings.ToLower(parts[0]), parts[1:]
	cmd, exists := c.commands[name]
	if !exists {
		// a bare square is a move
		if _, err := board.ParseMove(name); err == nil {
			cmd, args = c.commands["move"], parts
		} else {
			c.view.ShowMessage(c.view.paint(colorRed, "Unknown command: "+parts[0]))
			c.view.ShowMessage("Type 'help' for available commands")
			return true
		}
	}

	if err := cmd.Handler(args); err != nil {
		c.view.ShowError(err)
	}
	return !c.quit
}

// Run reads commands until EOF or quit
func (c *CLI) Run(rl *readline.Instance) {
	c.view.SetOutput(rl.Stdout())
	for {
		rl.SetPrompt(c.Prompt())
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) {
			return
		}
		if errors.Is(err, readline.ErrInterrupt) {
			// ^C stops a running search instead of leaving
			c.game.StopMove()
			continue
		}
		if err != nil {
			continue
		}
		if !c.Execute(line) {
			return
		}
	}
}

func (c *CLI) registerCommands() {
	c.Register(&Command{Name: "new", ShortName: "n", Description: "Start a new game", Usage: "new", Handler: c.newGame})
	c.Register(&Command{Name: "move", ShortName: "m", Description: "Play a square, or just type the square", Usage: "move <square>|pass", Handler: c.move})
	c.Register(&Command{Name: "undo", ShortName: "u", Description: "Take back to your last move", Usage: "undo", Handler: c.undo})
	c.Register(&Command{Name: "redo", Description: "Replay an undone move", Usage: "redo", Handler: c.redo})
	c.Register(&Command{Name: "resume", ShortName: "r", Description: "Continue after a pass", Usage: "resume", Handler: c.resume})
	c.Register(&Command{Name: "stop", Description: "Make the engine play its best move now", Usage: "stop", Handler: c.stop})
	c.Register(&Command{Name: "stopgame", Description: "Abandon the current game", Usage: "stopgame", Handler: c.stopGame})
	c.Register(&Command{Name: "replay", Description: "Start a game from a move sequence", Usage: "replay <F5D6C3...>", Handler: c.replay})
	c.Register(&Command{Name: "player", ShortName: "p", Description: "Show or set a seat's strength, depth 0 is human", Usage: "player [<seat> <depth> [exact wld time inc]]", Handler: c.player})
	c.Register(&Command{Name: "practice", Description: "Evaluate candidate moves on your turn", Usage: "practice on|off", Handler: c.practice})
	c.Register(&Command{Name: "show", ShortName: "s", Description: "Display the board", Usage: "show", Handler: c.show})
	c.Register(&Command{Name: "state", Description: "Dump the current game as YAML", Usage: "state", Handler: c.state})
	c.Register(&Command{Name: "history", ShortName: "h", Description: "List finished games", Usage: "history [moves]", Handler: c.listHistory})
	c.Register(&Command{Name: "color", Description: "Set board color theme", Usage: "color off|green|gray", Handler: c.color})
	c.Register(&Command{Name: "verbose", ShortName: "v", Description: "Toggle engine evaluation output", Usage: "verbose", Handler: c.toggleVerbose})
	c.Register(&Command{Name: "help", ShortName: "?", Description: "Show available commands", Usage: "help [command]", Handler: c.help})
	c.Register(&Command{Name: "quit", ShortName: "exit", Description: "Leave the program", Usage: "quit", Handler: c.exit})
}

func (c *CLI) handle() string {
	if g := c.game.Current(); g != nil {
		return g.ID()
	}
	return ""
}

func (c *CLI) newGame(args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	g, err := c.game.NewGame(ctx)
	if err != nil {
		return err
	}
	c.view.ShowMessage(c.view.paint(colorCyan, "New game "+shortID(g.ID())))
	return nil
}

func (c *CLI) replay(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: replay <moves>")
	}
	moves, err := board.ParseMoveSequence(strings.Join(args, ""))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	g, err := c.game.Replay(ctx, moves)
	if err != nil {
		return err
	}
	c.view.ShowMessage(c.view.paint(colorCyan, fmt.Sprintf("Replayed %d moves into game %s", len(moves), shortID(g.ID()))))
	return nil
}

func (c *CLI) move(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: move <square>")
	}
	m, err := board.ParseMove(args[0])
	if err != nil {
		return err
	}
	return c.game.MakeMove(c.handle(), m)
}

func (c *CLI) undo(args []string) error {
	return c.game.Undo(c.handle())
}

func (c *CLI) redo(args []string) error {
	return c.game.Redo(c.handle())
}

func (c *CLI) resume(args []string) error {
	if !c.game.Resume() {
		return core.ErrNotAwaitingInput
	}
	return nil
}

func (c *CLI) stop(args []string) error {
	c.game.StopMove()
	return nil
}

func (c *CLI) stopGame(args []string) error {
	c.game.StopGame()
	c.view.ShowMessage("Game stopped. Start a new game with 'new' or 'replay'.")
	return nil
}

func (c *CLI) player(args []string) error {
	if len(args) == 0 {
		for _, seat := range core.Seats {
			c.view.ShowMessage(fmt.Sprintf("%-6s %s", seat, describePlayer(c.game.PlayerConfig(seat))))
		}
		return nil
	}
	if len(args) < 2 || len(args) > 6 {
		return fmt.Errorf("usage: player <seat> <depth> [exact wld time inc]")
	}

	seat, err := core.ParseSeat(strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	values := make([]int, len(args)-1)
	for i, a := range args[1:] {
		if values[i], err = strconv.Atoi(a); err != nil {
			return &core.ConfigError{Field: "player", Reason: fmt.Sprintf("%q is not a number", a)}
		}
	}

	cfg := core.ComputerPlayer(values[0])
	if values[0] == 0 {
		cfg = core.HumanPlayer()
	}
	fields := []*int{&cfg.ExactDepth, &cfg.WLDDepth, &cfg.Time, &cfg.TimeIncrement}
	for i, v := range values[1:] {
		*fields[i] = v
	}

	if err := c.game.SetPlayerConfig(seat, cfg); err != nil {
		return err
	}
	c.view.ShowMessage(fmt.Sprintf("%s: %s", seat, describePlayer(cfg)))
	return nil
}

func (c *CLI) practice(args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("usage: practice on|off")
	}
	opts := c.game.Options()
	opts.PracticeMode = args[0] == "on"
	if err := c.game.SetOptions(opts); err != nil {
		return err
	}
	c.view.ShowMessage("Practice mode " + args[0])
	return nil
}

func (c *CLI) show(args []string) error {
	g := c.game.Current()
	if g == nil {
		return core.ErrNoGame
	}
	c.view.DisplayGame(g)
	return nil
}

func (c *CLI) state(args []string) error {
	g := c.game.Current()
	if g == nil {
		return core.ErrNoGame
	}
	out, err := dumpState(c.game, g)
	if err != nil {
		return err
	}
	c.view.ShowMessage(strings.TrimRight(out, "\n"))
	return nil
}

func (c *CLI) listHistory(args []string) error {
	if c.history == nil {
		return fmt.Errorf("history is not available without storage")
	}
	var sequence string
	if len(args) > 0 {
		moves, err := board.ParseMoveSequence(strings.Join(args, ""))
		if err != nil {
			return err
		}
		sequence = board.FormatMoveSequence(moves)
	}
	records, err := c.history.History(sequence)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		c.view.ShowMessage("No finished games")
		return nil
	}
	c.view.ShowMessage(formatHistory(records))
	return nil
}

func (c *CLI) color(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: color off|green|gray")
	}
	return c.view.SetTheme(ColorTheme(args[0]))
}

func (c *CLI) toggleVerbose(args []string) error {
	if c.view.ToggleVerbose() {
		c.view.ShowMessage("Verbose on")
	} else {
		c.view.ShowMessage("Verbose off")
	}
	return nil
}

func (c *CLI) help(args []string) error {
	if len(args) > 0 {
		cmd, exists := c.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		c.view.ShowMessage(fmt.Sprintf("%s - %s\nUsage: %s", c.view.paint(colorCyan, cmd.Name), cmd.Description, cmd.Usage))
		return nil
	}

	names := append([]string(nil), c.order...)
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, name := range names {
		cmd := c.commands[name]
		short := ""
		if cmd.ShortName != "" {
			short = "(" + cmd.ShortName + ")"
		}
		sb.WriteString(fmt.Sprintf("  %-9s %-7s %s\n", cmd.Name, short, cmd.Description))
	}
	sb.WriteString("\nType a square such as f5 to play it.")
	c.view.ShowMessage(sb.String())
	return nil
}

func (c *CLI) exit(args []string) error {
	c.quit = true
	return nil
}

// Prompt shows the game handle and whose turn it is
func (c *CLI) Prompt() string {
	text := "othello"
	g := c.game.Current()
	if g == nil {
		return c.view.paint(colorYellow, text+" > ")
	}

	side := g.SideToMove()
	kind := "h"
	if !c.game.PlayerConfig(core.SeatOf(side)).IsHuman() {
		kind = "c"
	}
	name := "Black"
	if side == core.ColorWhite {
		name = "White"
	}
	text += fmt.Sprintf(" [%s] - Turn:%s(%s)", shortID(g.ID()), name, kind)
	if c.game.PassPending() {
		text += " pass"
	}
	return c.view.paint(colorYellow, text+" > ")
}

func (c *CLI) ShowWelcome() {
	c.view.ShowMessage(c.view.paint(colorCyan, "Othello"))
	c.view.ShowMessage("Commands: new, <square>, undo, redo, resume, replay, player, show, help, quit")
	c.view.ShowMessage("")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func describePlayer(cfg core.PlayerConfig) string {
	if cfg.IsHuman() {
		return "human"
	}
	s := fmt.Sprintf("computer depth %d exact %d wld %d", cfg.Depth, cfg.ExactDepth, cfg.WLDDepth)
	if cfg.Time > 0 {
		s += fmt.Sprintf(" time %ds+%ds", cfg.Time, cfg.TimeIncrement)
	}
	return s
}
