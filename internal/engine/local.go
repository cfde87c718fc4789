package engine

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"lukechampine.com/frand"

	"othello/internal/board"
	"othello/internal/core"
)

// practiceDepth caps the depth of practice mode evaluations
const practiceDepth = 4

var errNotInitialized = errors.New("engine not initialized")

// Local is an in-process engine that plays by the rules in package board. It
// reads its weights and opening book from the data directory.
type Local struct {
	fs afero.Fs

	mu      sync.Mutex
	cb      Callback
	weights *Weights
	book    Book
	players [3]core.PlayerConfig
	opts    Options

	forceReturn atomic.Bool
	forceExit   atomic.Bool
	inGame      atomic.Bool
}

// NewLocal creates an engine reading data files from fs, the OS filesystem if nil
func NewLocal(fs afero.Fs) *Local {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	l := &Local{fs: fs}
	for _, seat := range core.Seats {
		l.players[seat] = core.ComputerPlayer(4)
	}
	return l
}

func (l *Local) GlobalInit(dataDir string, cb Callback) error {
	l.mu.Lock()
	l.cb = cb
	l.mu.Unlock()

	weights, err := readData(l.fs, filepath.Join(dataDir, CoefficientsFile), ParseWeights)
	if err != nil {
		return l.fail(err)
	}
	book, err := readData(l.fs, filepath.Join(dataDir, BookFile), ParseBook)
	if err != nil {
		return l.fail(err)
	}

	l.mu.Lock()
	l.weights = weights
	l.book = book
	l.mu.Unlock()

	log.Debug().Str("dir", dataDir).Int("openings", len(book)).Msg("engine data loaded")
	return nil
}

func readData[T any](fs afero.Fs, path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := fs.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return v, nil
}

func (l *Local) fail(err error) error {
	l.emit(TagError, ErrorPayload{Error: err.Error()})
	return err
}

func (l *Local) GlobalTerminate() error {
	l.ForceExit()
	l.mu.Lock()
	l.cb = nil
	l.weights = nil
	l.book = nil
	l.mu.Unlock()
	return nil
}

func (l *Local) ForceReturn() {
	l.forceReturn.Store(true)
}

func (l *Local) ForceExit() {
	l.forceExit.Store(true)
	l.forceReturn.Store(true)
}

func (l *Local) GameInProgress() bool {
	return l.inGame.Load()
}

func (l *Local) SetPlayerInfo(seat core.Seat, cfg core.PlayerConfig) {
	if !seat.Valid() {
		return
	}
	l.mu.Lock()
	l.players[seat] = cfg
	l.mu.Unlock()
}

func (l *Local) SetAutoMakeMoves(on bool) {
	l.setOption(func(o *Options) { o.AutoMakeMoves = on })
}

func (l *Local) SetSlack(slack float64) {
	l.setOption(func(o *Options) { o.Slack = slack })
}

func (l *Local) SetPerturbation(perturbation float64) {
	l.setOption(func(o *Options) { o.Perturbation = perturbation })
}

func (l *Local) SetForcedOpening(name string) {
	l.setOption(func(o *Options) { o.ForcedOpening = name })
}

// SetHumanOpenings makes book moves follow the most common line instead of a
// random continuation
func (l *Local) SetHumanOpenings(on bool) {
	l.setOption(func(o *Options) { o.HumanOpenings = on })
}

func (l *Local) SetPracticeMode(on bool) {
	l.setOption(func(o *Options) { o.PracticeMode = on })
}

func (l *Local) SetUseBook(on bool) {
	l.setOption(func(o *Options) { o.UseBook = on })
}

func (l *Local) setOption(fn func(*Options)) {
	l.mu.Lock()
	fn(&l.opts)
	l.mu.Unlock()
}

func (l *Local) options() Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts
}

func (l *Local) player(c core.Color) core.PlayerConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.players[core.SeatOf(c)]
}

func (l *Local) engineProfile() core.PlayerConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.players[core.SeatEngine]
}

func (l *Local) callback() Callback {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cb
}

func (l *Local) weightsRef() *Weights {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.weights
}

func (l *Local) bookRef() Book {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.book
}

func (l *Local) emit(tag Tag, payload any) Reply {
	cb := l.callback()
	if cb == nil {
		return Reply{Event: EventExit}
	}
	msg, err := NewMessage(tag, payload)
	if err != nil {
		log.Error().Err(err).Msg("engine message dropped")
		return Reply{Event: EventExit}
	}
	return cb(msg)
}

// Play runs one game from the initial move bytes until the game is exited
func (l *Local) Play(initial []byte) error {
	if l.callback() == nil || l.weightsRef() == nil {
		return errNotInitialized
	}
	l.forceExit.Store(false)
	l.forceReturn.Store(false)
	l.inGame.Store(true)
	defer l.inGame.Store(false)

	g := newLocalGame()
	l.emit(TagGameStart, nil)
	if err := g.replay(initial); err != nil {
		l.emit(TagError, ErrorPayload{Error: fmt.Sprintf("initial moves: %v", err)})
	}

	for !l.forceExit.Load() {
		if g.board.GameOver() {
			l.report(g, nil)
			l.emit(TagGameOver, nil)
			l.inGame.Store(false)
			if !l.awaitAfterGameOver(g) {
				return nil
			}
			l.inGame.Store(true)
			continue
		}
		if l.playPly(g) {
			return nil
		}
	}
	return nil
}

// playPly plays the side to move and reports whether the game was exited
func (l *Local) playPly(g *localGame) bool {
	l.forceReturn.Store(false)
	side := g.side
	legal := g.board.LegalMoves(side)

	if len(legal) == 0 {
		l.report(g, nil)
		human := l.player(side).IsHuman()
		g.pass()
		l.emit(TagLastMove, MovePayload{Move: int(board.Pass)})
		if human {
			l.emit(TagPass, nil)
		}
		return l.forceExit.Load()
	}

	l.report(g, legal)
	l.emit(TagMoveStart, nil)
	cfg := l.player(side)
	start := time.Now()

	var move board.Move
	if cfg.IsHuman() {
		m, action := l.humanMove(g, legal)
		switch action {
		case inputExit:
			return true
		case inputRestart:
			return l.forceExit.Load()
		}
		move = m
	} else {
		m, ok := l.computerMove(g, legal, cfg)
		if !ok {
			return true
		}
		move = m
	}

	g.used[side] += time.Since(start)
	g.redo = nil
	if err := g.play(move); err != nil {
		l.emit(TagError, ErrorPayload{Error: err.Error()})
		return true
	}
	l.emit(TagMoveEnd, nil)
	l.emit(TagLastMove, MovePayload{Move: int(move)})
	return l.forceExit.Load()
}

type inputAction int

const (
	inputMove inputAction = iota
	inputRestart
	inputExit
)

func (l *Local) humanMove(g *localGame, legal []board.Move) (board.Move, inputAction) {
	opts := l.options()
	if opts.AutoMakeMoves && len(legal) == 1 {
		return legal[0], inputMove
	}
	if opts.PracticeMode {
		depth := min(max(l.engineProfile().Depth, 1), practiceDepth)
		l.rootEvals(g, legal, depth, func(evals []CandidateEvalPayload) {
			l.emit(TagCandidateEvals, CandidateEvalsPayload{Evals: evals})
		})
	}

	for {
		reply := l.emit(TagGetUserInput, nil)
		if l.forceExit.Load() {
			return board.NoMove, inputExit
		}
		switch reply.Event {
		case EventExit:
			return board.NoMove, inputExit
		case EventMove:
			m := board.Move(reply.Move)
			if lo.Contains(legal, m) {
				return m, inputMove
			}
			l.emit(TagDebug, DebugPayload{Message: "ignoring illegal move " + m.String()})
		case EventUndo:
			l.undo(g)
			return board.NoMove, inputRestart
		case EventRedo:
			if g.redoLast() {
				return board.NoMove, inputRestart
			}
		case EventSettingsChange:
			return board.NoMove, inputRestart
		}
	}
}

// awaitAfterGameOver keeps answering input requests on a finished board. It
// returns true when an undo reopened the game.
func (l *Local) awaitAfterGameOver(g *localGame) bool {
	for {
		reply := l.emit(TagGetUserInput, nil)
		if l.forceExit.Load() {
			return false
		}
		switch reply.Event {
		case EventExit:
			return false
		case EventUndo:
			if l.undo(g) {
				return true
			}
		}
	}
}

func (l *Local) computerMove(g *localGame, legal []board.Move, cfg core.PlayerConfig) (board.Move, bool) {
	opts := l.options()
	if m, ok := l.openingMove(g, legal, opts); ok {
		l.emit(TagEval, EvalPayload{Eval: "book"})
		l.emit(TagPV, PVPayload{PV: []int{int(m)}})
		l.emit(TagNextMove, MovePayload{Move: int(m)})
		return m, true
	}
	if opts.AutoMakeMoves && len(legal) == 1 {
		return legal[0], true
	}

	res := l.think(g, legal, cfg, opts)
	if l.forceExit.Load() {
		return board.NoMove, false
	}
	g.evals[g.side] = scoreValue(res.score)
	log.Debug().
		Str("side", g.side.String()).
		Str("move", res.move.String()).
		Int("depth", res.depth).
		Bool("exact", res.exact).
		Str("eval", res.text()).
		Msg("engine move")

	l.emit(TagEval, EvalPayload{Eval: res.text()})
	l.emit(TagPV, PVPayload{PV: lo.Map(res.pv, func(m board.Move, _ int) int { return int(m) })})
	l.emit(TagNextMove, MovePayload{Move: int(res.move)})
	return res.move, true
}

// openingMove follows the forced opening, then the book
func (l *Local) openingMove(g *localGame, legal []board.Move, opts Options) (board.Move, bool) {
	book := l.bookRef()
	played := g.played()

	if opts.ForcedOpening != "" {
		if o, ok := book.Find(opts.ForcedOpening); ok && len(o.Moves) > len(played) && isPrefix(played, o.Moves) {
			if m := o.Moves[len(played)]; lo.Contains(legal, m) {
				return m, true
			}
		}
	}
	if !opts.UseBook {
		return board.NoMove, false
	}

	lines := lo.Filter(book.Continuations(played), func(o Opening, _ int) bool {
		return lo.Contains(legal, o.Moves[len(played)])
	})
	if len(lines) == 0 {
		return board.NoMove, false
	}
	line := lines[0]
	if !opts.HumanOpenings {
		line = lines[frand.Intn(len(lines))]
	}
	return line.Moves[len(played)], true
}

// undo takes back plies up to and including the last human move
func (l *Local) undo(g *localGame) bool {
	var batch []board.Move
	for len(g.plies) > 0 {
		p := g.popPly()
		batch = append([]board.Move{p.move}, batch...)
		if p.move != board.Pass && l.player(p.mover).IsHuman() {
			break
		}
	}
	if len(batch) == 0 {
		return false
	}
	g.redo = append(g.redo, batch)
	return true
}

// report sends the board, the candidates and any change of opening name
func (l *Local) report(g *localGame, legal []board.Move) {
	l.emit(TagBoard, g.payload(l.player(core.ColorBlack), l.player(core.ColorWhite)))
	l.emit(TagCandidateMoves, CandidateMovesPayload{
		Moves: lo.Map(legal, func(m board.Move, _ int) CandidatePayload { return CandidatePayload{Move: int(m)} }),
	})
	if name := l.bookRef().Name(g.played()); name != g.opening {
		g.opening = name
		l.emit(TagOpeningName, OpeningPayload{Name: name})
	}
}
