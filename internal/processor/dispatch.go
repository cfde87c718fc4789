package processor

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"othello/internal/board"
	"othello/internal/core"
	"othello/internal/engine"
	"othello/internal/game"
)

// dispatch is the engine callback. It never panics and never returns an
// error to the engine; failures are reported to the observer.
func (p *Processor) dispatch(msg engine.Message) engine.Reply {
	if !p.cbMu.TryLock() {
		log.Error().Stringer("tag", msg.Tag).Msg("re-entrant engine callback")
		p.obs.OnError(core.ErrReentrantCallback.Error())
		return engine.Reply{Event: engine.EventExit}
	}
	defer p.cbMu.Unlock()

	reply, err := p.handle(msg)
	if err != nil {
		log.Warn().Err(err).Stringer("tag", msg.Tag).Msg("engine callback failed")
		p.obs.OnError(err.Error())
	}
	return reply
}

func (p *Processor) handle(msg engine.Message) (engine.Reply, error) {
	switch msg.Tag {
	case engine.TagBoard:
		return engine.Reply{}, p.onBoard(msg)

	case engine.TagCandidateMoves:
		var payload engine.CandidateMovesPayload
		if err := msg.Decode(&payload); err != nil {
			return engine.Reply{}, err
		}
		moves := lo.Map(payload.Moves, func(c engine.CandidatePayload, _ int) board.Move { return board.Move(c.Move) })
		p.mu.Lock()
		p.legal = moves
		g := p.current
		p.mu.Unlock()
		if g != nil {
			g.SetCandidates(moves)
		}

	case engine.TagCandidateEvals:
		var payload engine.CandidateEvalsPayload
		if err := msg.Decode(&payload); err != nil {
			return engine.Reply{}, err
		}
		if g := p.Current(); g != nil {
			g.MergeEvals(lo.Map(payload.Evals, func(e engine.CandidateEvalPayload, _ int) game.CandidateEval {
				return game.CandidateEval{Move: board.Move(e.Move), EvalShort: e.EvalShort, EvalLong: e.EvalLong, Best: e.Best}
			}))
		}

	case engine.TagGetUserInput:
		cmd, ok := p.mailbox.Take()
		if ok {
			log.Debug().Stringer("command", cmd).Msg("input delivered")
			if cmd.Type == CmdUndo {
				p.mu.Lock()
				p.undoPending = true
				p.mu.Unlock()
			}
		}
		return cmd.Reply(), nil

	case engine.TagPass:
		p.onPass()

	case engine.TagOpeningName:
		var payload engine.OpeningPayload
		if err := msg.Decode(&payload); err != nil {
			return engine.Reply{}, err
		}
		if g := p.Current(); g != nil {
			g.SetOpening(payload.Name)
		}

	case engine.TagLastMove, engine.TagNextMove:
		var payload engine.MovePayload
		if err := msg.Decode(&payload); err != nil {
			return engine.Reply{}, err
		}
		g := p.Current()
		if g == nil {
			break
		}
		if msg.Tag == engine.TagLastMove {
			g.SetLastMove(board.Move(payload.Move))
		} else {
			g.SetNextMove(board.Move(payload.Move))
		}

	case engine.TagEval:
		var payload engine.EvalPayload
		if err := msg.Decode(&payload); err != nil {
			return engine.Reply{}, err
		}
		if g := p.Current(); g != nil {
			g.SetEval(payload.Eval)
		}

	case engine.TagPV:
		var payload engine.PVPayload
		if err := msg.Decode(&payload); err != nil {
			return engine.Reply{}, err
		}
		if g := p.Current(); g != nil {
			g.SetPV(lo.Map(payload.PV, func(m int, _ int) board.Move { return board.Move(m) }))
		}

	case engine.TagMoveStart:
		p.onMoveStart()

	case engine.TagMoveEnd:
		p.onMoveEnd()

	case engine.TagGameStart:
		p.obs.OnGameStart()

	case engine.TagGameOver:
		p.obs.OnGameOver()

	case engine.TagError:
		var payload engine.ErrorPayload
		if err := msg.Decode(&payload); err != nil {
			payload.Error = err.Error()
		}
		if p.state.Get() == core.StateInitial {
			// a failed start must not leave bad data files behind
			if err := p.prov.Cleanup(); err != nil {
				log.Error().Err(err).Msg("data file cleanup failed")
			}
		}
		log.Error().Str("error", payload.Error).Msg("engine error")
		p.obs.OnError(payload.Error)

	case engine.TagDebug:
		var payload engine.DebugPayload
		if err := msg.Decode(&payload); err != nil {
			return engine.Reply{}, err
		}
		p.obs.OnDebug(payload.Message)

	default:
		return engine.Reply{}, fmt.Errorf("unknown engine message %s", msg.Tag)
	}
	return engine.Reply{}, nil
}

func (p *Processor) onBoard(msg engine.Message) error {
	var payload engine.BoardPayload
	if err := msg.Decode(&payload); err != nil {
		return err
	}
	b, err := board.FromGrid(payload.Board)
	if err != nil {
		return &core.DecodeError{Tag: msg.Tag.String(), Err: err}
	}
	side, err := payload.SideColor()
	if err != nil {
		return &core.DecodeError{Tag: msg.Tag.String(), Err: err}
	}

	p.mu.Lock()
	p.sideToMove = side
	undone := p.undoPending
	p.undoPending = false
	g := p.current
	if undone && g != nil && len(payload.Black.Moves) == 0 && len(payload.White.Moves) == 0 {
		// undo back to the initial position starts a fresh game
		g = game.New(p.obs)
		p.current = g
		p.legal = nil
		log.Info().Str("game", g.ID()).Msg("game restarted by undo")
	}
	p.mu.Unlock()
	if g != nil {
		g.Update(b, side, playerInfo(payload.Black), playerInfo(payload.White))
	}
	return nil
}

func playerInfo(s engine.SidePayload) game.PlayerInfo {
	return game.PlayerInfo{
		Time:      s.Time,
		Eval:      s.Eval,
		DiscCount: s.DiscCount,
		Moves:     lo.Map(s.Moves, func(m int, _ int) board.Move { return board.Move(m) }),
	}
}

// onPass holds the worker on a pass notice until Resume or StopGame
func (p *Processor) onPass() {
	p.mu.Lock()
	p.passPending = true
	p.state.Set(core.StateUserInputWait)
	p.mu.Unlock()

	p.obs.OnPass()
	ok := p.state.WaitFor(core.StatePlay)

	p.mu.Lock()
	p.passPending = false
	p.mu.Unlock()
	if ok {
		p.state.Set(core.StatePlayInProgress)
	}
}

// onMoveStart applies staged settings; the engine holds still until we return
func (p *Processor) onMoveStart() {
	p.mu.Lock()
	p.moveStart = time.Now()
	var players *[3]core.PlayerConfig
	if p.playersDirty {
		snapshot := p.players
		players = &snapshot
		p.playersDirty = false
	}
	var opts *engine.Options
	if p.optionsDirty {
		snapshot := p.options
		opts = &snapshot
		p.optionsDirty = false
	}
	p.mu.Unlock()

	if players != nil {
		for _, seat := range core.Seats {
			p.eng.SetPlayerInfo(seat, players[seat])
		}
	}
	if opts != nil {
		opts.Apply(p.eng)
	}
	p.obs.OnMoveStart()
}

// onMoveEnd keeps computer moves on screen for at least MinMoveDelay
func (p *Processor) onMoveEnd() {
	p.mu.Lock()
	start := p.moveStart
	human := p.players[core.SeatOf(p.sideToMove)].IsHuman()
	p.mu.Unlock()

	if !human && p.cfg.MinMoveDelay > 0 {
		if wait := p.cfg.MinMoveDelay - time.Since(start); wait > 0 {
			time.Sleep(wait)
		}
	}
	p.obs.OnMoveEnd()
}
