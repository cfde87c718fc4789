package engine

import (
	"fmt"
	"time"

	"othello/internal/board"
	"othello/internal/core"
)

type ply struct {
	move   board.Move
	mover  core.Color
	before board.Board
}

// localGame is the engine's private record of the game being played
type localGame struct {
	board   board.Board
	side    core.Color
	plies   []ply
	redo    [][]board.Move
	used    [2]time.Duration
	evals   [2]float64
	opening string
}

func newLocalGame() *localGame {
	return &localGame{board: board.New(), side: core.ColorBlack}
}

func (g *localGame) play(m board.Move) error {
	next, err := g.board.Play(m, g.side)
	if err != nil {
		return err
	}
	g.plies = append(g.plies, ply{move: m, mover: g.side, before: g.board})
	g.board = next
	g.side = core.OppositeColor(g.side)
	return nil
}

func (g *localGame) pass() {
	g.plies = append(g.plies, ply{move: board.Pass, mover: g.side, before: g.board})
	g.side = core.OppositeColor(g.side)
}

func (g *localGame) popPly() ply {
	p := g.plies[len(g.plies)-1]
	g.plies = g.plies[:len(g.plies)-1]
	g.board = p.before
	g.side = p.mover
	return p
}

// redoLast replays the most recently undone batch
func (g *localGame) redoLast() bool {
	if len(g.redo) == 0 {
		return false
	}
	batch := g.redo[len(g.redo)-1]
	g.redo = g.redo[:len(g.redo)-1]
	for _, m := range batch {
		if m == board.Pass {
			g.pass()
			continue
		}
		if err := g.play(m); err != nil {
			return false
		}
	}
	return true
}

// replay applies staged move bytes. Passes may be explicit or left out; a
// side without legal moves passes implicitly.
func (g *localGame) replay(initial []byte) error {
	moves, err := board.DecodeMoves(initial)
	if err != nil {
		return err
	}
	for i, m := range moves {
		if m == board.Pass {
			if g.board.HasMoves(g.side) {
				return fmt.Errorf("ply %d: pass with legal moves", i+1)
			}
			g.pass()
			continue
		}
		if !g.board.HasMoves(g.side) {
			g.pass()
		}
		if err := g.play(m); err != nil {
			return fmt.Errorf("ply %d: %w", i+1, err)
		}
	}
	return nil
}

// played returns the placed discs without passes
func (g *localGame) played() []board.Move {
	out := make([]board.Move, 0, len(g.plies))
	for _, p := range g.plies {
		if p.move != board.Pass {
			out = append(out, p.move)
		}
	}
	return out
}

// budget is the search time for the side to move, zero when untimed
func (g *localGame) budget(cfg core.PlayerConfig) time.Duration {
	if cfg.Time <= 0 {
		return 0
	}
	inc := time.Duration(cfg.TimeIncrement) * time.Second
	remaining := g.remaining(g.side, cfg)
	movesLeft := max(g.board.Count(core.CellEmpty)/2, 1)
	return max(remaining/time.Duration(movesLeft)+inc, 10*time.Millisecond)
}

func (g *localGame) remaining(c core.Color, cfg core.PlayerConfig) time.Duration {
	moves := 0
	for _, p := range g.plies {
		if p.mover == c && p.move != board.Pass {
			moves++
		}
	}
	total := time.Duration(cfg.Time)*time.Second + time.Duration(cfg.TimeIncrement*moves)*time.Second
	return max(total-g.used[c], 0)
}

// clock shows the remaining time for timed players and the time used otherwise
func (g *localGame) clock(c core.Color, cfg core.PlayerConfig) string {
	d := g.used[c]
	if cfg.Time > 0 {
		d = g.remaining(c, cfg)
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func (g *localGame) payload(black, white core.PlayerConfig) BoardPayload {
	side := func(c core.Color, cfg core.PlayerConfig) SidePayload {
		return SidePayload{
			Time:      g.clock(c, cfg),
			Eval:      g.evals[c],
			DiscCount: g.board.Count(c.Cell()),
			Moves:     []int{},
		}
	}
	p := BoardPayload{
		Board:      g.board.Grid(),
		SideToMove: int(g.side.Cell()),
		Black:      side(core.ColorBlack, black),
		White:      side(core.ColorWhite, white),
	}
	for i, pl := range g.plies {
		if i%2 == 0 {
			p.Black.Moves = append(p.Black.Moves, int(pl.move))
		} else {
			p.White.Moves = append(p.White.Moves, int(pl.move))
		}
	}
	return p
}
