package processor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"othello/internal/board"
	"othello/internal/core"
	"othello/internal/engine"
	"othello/internal/game"
)

const (
	// replayPoll bounds each wait for the engine to leave the previous game
	replayPoll = 50 * time.Millisecond

	defaultInterruptGrace = 500 * time.Millisecond
)

// Provisioner materializes the engine's data files
type Provisioner interface {
	Provision() error
	Cleanup() error
	Dir() string
}

// Config tunes the worker
type Config struct {
	// MinMoveDelay is the shortest time a computer move is shown as thinking
	MinMoveDelay time.Duration
	// InterruptGrace is how long MakeMove waits for the engine to ask for
	// input after forcing a practice search to return
	InterruptGrace time.Duration

	Black   core.PlayerConfig
	White   core.PlayerConfig
	Engine  core.PlayerConfig
	Options engine.Options
}

// Processor owns the engine worker goroutine and is the only way callers
// reach the engine
type Processor struct {
	cfg  Config
	eng  engine.Engine
	prov Provisioner
	obs  game.Observer

	state   *StateMachine
	mailbox *Mailbox

	// callMu is held for every call into the engine other than the
	// out-of-band interrupt signals
	callMu sync.Mutex
	// cbMu guards the dispatcher against re-entry
	cbMu     sync.Mutex
	replayMu sync.Mutex

	running   atomic.Bool
	started   atomic.Bool
	ready     atomic.Bool
	closeOnce sync.Once
	done      chan struct{}

	mu           sync.Mutex
	players      [3]core.PlayerConfig
	playersDirty bool
	options      engine.Options
	optionsDirty bool
	current      *game.State
	legal        []board.Move
	sideToMove   core.Color
	staged       []byte
	gameReady    chan *game.State
	moveStart    time.Time
	passPending  bool
	undoPending  bool // an undo was handed to the engine, board report pending
	initErr      error
}

func New(eng engine.Engine, prov Provisioner, obs game.Observer, cfg Config) *Processor {
	if obs == nil {
		obs = game.NopObserver{}
	}
	if cfg.InterruptGrace <= 0 {
		cfg.InterruptGrace = defaultInterruptGrace
	}

	state := NewStateMachine()
	p := &Processor{
		cfg:     cfg,
		eng:     eng,
		prov:    prov,
		obs:     obs,
		state:   state,
		mailbox: NewMailbox(state),
		done:    make(chan struct{}),
		options: cfg.Options,
	}
	p.players[core.SeatBlack] = cfg.Black
	p.players[core.SeatWhite] = cfg.White
	p.players[core.SeatEngine] = cfg.Engine
	return p
}

// Start launches the worker. It returns at once; use WhenReady or NewGame to
// wait for the engine.
func (p *Processor) Start() {
	if p.started.Swap(true) {
		return
	}
	p.running.Store(true)
	go p.run()
}

// Close stops the game, joins the worker and releases the engine
func (p *Processor) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.SetRunning(false)
		p.state.Close()
		if p.started.Load() {
			<-p.done
		}
		p.mu.Lock()
		p.current = nil
		p.legal = nil
		p.mu.Unlock()
		if p.ready.Load() {
			p.callMu.Lock()
			err = p.eng.GlobalTerminate()
			p.callMu.Unlock()
		}
		log.Info().Msg("engine processor stopped")
	})
	return err
}

func (p *Processor) run() {
	defer close(p.done)

	p.state.Set(core.StateInitial)
	if err := p.initialize(); err != nil {
		log.Error().Err(err).Msg("engine start failed")
		p.mu.Lock()
		p.initErr = err
		p.mu.Unlock()
		p.obs.OnError(err.Error())
		return
	}
	p.ready.Store(true)
	p.state.Set(core.StateReadyToPlay)
	log.Info().Str("dir", p.prov.Dir()).Msg("engine ready")

	for p.running.Load() {
		if !p.state.WaitFor(core.StatePlay) || !p.running.Load() {
			return
		}
		p.state.Set(core.StatePlayInProgress)
		p.playGame()
		p.state.Set(core.StateReadyToPlay)
	}
}

func (p *Processor) initialize() error {
	if err := p.prov.Provision(); err != nil {
		return err
	}

	p.callMu.Lock()
	defer p.callMu.Unlock()
	if err := p.eng.GlobalInit(p.prov.Dir(), p.dispatch); err != nil {
		return fmt.Errorf("engine init: %w", err)
	}

	p.mu.Lock()
	black, white := p.players[core.SeatBlack], p.players[core.SeatWhite]
	p.mu.Unlock()
	p.eng.SetPlayerInfo(core.SeatBlack, black)
	p.eng.SetPlayerInfo(core.SeatWhite, white)
	return nil
}

func (p *Processor) playGame() {
	p.callMu.Lock()
	defer p.callMu.Unlock()

	p.mu.Lock()
	players, opts := p.players, p.options
	p.playersDirty, p.optionsDirty = false, false
	staged := p.staged
	p.staged = nil
	g := game.New(p.obs)
	p.current = g
	p.legal = nil
	p.sideToMove = core.ColorBlack
	p.passPending = false
	p.undoPending = false
	ready := p.gameReady
	p.gameReady = nil
	p.mu.Unlock()

	for _, seat := range core.Seats {
		p.eng.SetPlayerInfo(seat, players[seat])
	}
	opts.Apply(p.eng)

	if ready != nil {
		ready <- g
	}

	log.Info().Str("game", g.ID()).Int("staged", len(staged)).Msg("game started")
	if err := p.eng.Play(staged); err != nil {
		log.Error().Err(err).Str("game", g.ID()).Msg("engine play failed")
		p.obs.OnError(err.Error())
	}
	log.Info().Str("game", g.ID()).Msg("game ended")
}

// unavailable reports a failed engine start
func (p *Processor) unavailable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initErr != nil {
		return fmt.Errorf("%w: %w", core.ErrUnavailable, p.initErr)
	}
	return nil
}

// Replay stops the current game and starts a new one from moves. It returns
// the new game once the worker has created it.
func (p *Processor) Replay(ctx context.Context, moves []board.Move) (*game.State, error) {
	if len(moves) > core.SequenceLen {
		return nil, &core.ConfigError{Field: "moves", Reason: fmt.Sprintf("more than %d moves", core.SequenceLen)}
	}

	p.replayMu.Lock()
	defer p.replayMu.Unlock()

	for p.state.Get() != core.StateReadyToPlay {
		if err := p.unavailable(); err != nil {
			return nil, err
		}
		if !p.running.Load() || p.state.Closed() {
			return nil, core.ErrShutdown
		}
		// repeated because a force-exit landing before the engine starts
		// the game is lost
		p.StopGame()
		p.state.WaitForTimeout(core.StateReadyToPlay, replayPoll)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	ready := make(chan *game.State, 1)
	p.mu.Lock()
	p.staged = board.EncodeMoves(moves)
	p.gameReady = ready
	p.mu.Unlock()
	p.state.Set(core.StatePlay)

	select {
	case g := <-ready:
		return g, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, core.ErrShutdown
	}
}

// NewGame starts a game from the initial position
func (p *Processor) NewGame(ctx context.Context) (*game.State, error) {
	return p.Replay(ctx, nil)
}

// MakeMove submits m for the parked human player of game handle
func (p *Processor) MakeMove(handle string, m board.Move) error {
	if err := p.checkMove(handle, m); err != nil {
		return err
	}
	if err := p.awaitInput(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkMoveLocked(handle, m); err != nil {
		return err
	}
	return p.mailbox.Deposit(MakeMoveCommand(m))
}

func (p *Processor) Undo(handle string) error {
	return p.submit(handle, UndoCommand())
}

func (p *Processor) Redo(handle string) error {
	return p.submit(handle, RedoCommand())
}

func (p *Processor) submit(handle string, cmd Command) error {
	p.mu.Lock()
	err := p.checkHandleLocked(handle)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if err := p.awaitInput(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkHandleLocked(handle); err != nil {
		return err
	}
	return p.mailbox.Deposit(cmd)
}

func (p *Processor) checkMove(handle string, m board.Move) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.checkMoveLocked(handle, m)
}

func (p *Processor) checkMoveLocked(handle string, m board.Move) error {
	if err := p.checkHandleLocked(handle); err != nil {
		return err
	}
	for _, legal := range p.legal {
		if legal == m {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", core.ErrIllegalMove, m)
}

func (p *Processor) checkHandleLocked(handle string) error {
	if p.current == nil {
		return core.ErrNoGame
	}
	if p.current.ID() != handle {
		return core.ErrStaleGame
	}
	return nil
}

// awaitInput interrupts a practice search so a human to move gets asked for
// input, waiting up to the configured grace period
func (p *Processor) awaitInput() error {
	if p.state.Get() == core.StateUserInputWait {
		return nil
	}
	p.mu.Lock()
	human := p.players[core.SeatOf(p.sideToMove)].IsHuman()
	p.mu.Unlock()
	if !human {
		return nil
	}

	p.StopMove()
	if !p.state.WaitForTimeout(core.StateUserInputWait, p.cfg.InterruptGrace) {
		return core.ErrNotAwaitingInput
	}
	return nil
}

// Resume releases the worker from a pass notice. It reports whether a pass
// was pending.
func (p *Processor) Resume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.passPending {
		return false
	}
	p.passPending = false
	p.state.Set(core.StatePlay)
	return true
}

// StopMove makes the current search return its best move
func (p *Processor) StopMove() {
	p.eng.ForceReturn()
}

// StopGame makes the engine abandon the current game
func (p *Processor) StopGame() {
	p.eng.ForceExit()

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.mailbox.Waiting():
		if err := p.mailbox.Deposit(ExitCommand()); err != nil {
			log.Debug().Err(err).Msg("exit not delivered")
		}
	case p.passPending:
		p.passPending = false
		p.state.Set(core.StatePlay)
	}
}

// SetRunning(false) marks the processor as shutting down and stops any game
func (p *Processor) SetRunning(on bool) {
	was := p.running.Swap(on)
	if was && !on {
		p.StopGame()
	}
}

// SetPlayerConfig stages cfg for seat. The engine picks it up at the next
// move start; a parked human prompt is re-issued at once.
func (p *Processor) SetPlayerConfig(seat core.Seat, cfg core.PlayerConfig) error {
	if !seat.Valid() {
		return &core.ConfigError{Field: "seat", Reason: fmt.Sprintf("unknown seat %d", int(seat))}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.players[seat] = cfg
	p.playersDirty = true
	p.settingsChangedLocked()
	log.Info().Stringer("seat", seat).Int("depth", cfg.Depth).Msg("player configured")
	return nil
}

// SetPlayerConfigs stages several seats at once. Every config is validated
// before any is stored, so an error leaves all seats unchanged.
func (p *Processor) SetPlayerConfigs(cfgs map[core.Seat]core.PlayerConfig) error {
	for _, seat := range core.Seats {
		cfg, ok := cfgs[seat]
		if !ok {
			continue
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s: %w", seat, err)
		}
	}
	for seat := range cfgs {
		if !seat.Valid() {
			return &core.ConfigError{Field: "seat", Reason: fmt.Sprintf("unknown seat %d", int(seat))}
		}
	}
	if len(cfgs) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, seat := range core.Seats {
		if cfg, ok := cfgs[seat]; ok {
			p.players[seat] = cfg
			log.Info().Stringer("seat", seat).Int("depth", cfg.Depth).Msg("player configured")
		}
	}
	p.playersDirty = true
	p.settingsChangedLocked()
	return nil
}

// SetOptions stages engine options like SetPlayerConfig
func (p *Processor) SetOptions(opts engine.Options) error {
	if opts.Slack < 0 || opts.Perturbation < 0 {
		return &core.ConfigError{Field: "options", Reason: "slack and perturbation must not be negative"}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.options = opts
	p.optionsDirty = true
	p.settingsChangedLocked()
	return nil
}

func (p *Processor) settingsChangedLocked() {
	if !p.mailbox.Parked() {
		return
	}
	if err := p.mailbox.Deposit(SettingsChangedCommand()); err != nil {
		log.Debug().Err(err).Msg("settings change not delivered")
	}
}

// WhenReady runs fn on its own goroutine once the engine is between games
func (p *Processor) WhenReady(fn func()) {
	go func() {
		if p.state.WaitFor(core.StateReadyToPlay) {
			fn()
		}
	}()
}

func (p *Processor) GameInProgress() bool {
	return p.eng.GameInProgress()
}

func (p *Processor) EngineState() core.EngineState {
	return p.state.Get()
}

// AwaitingInput reports whether a human move would be accepted now
func (p *Processor) AwaitingInput() bool {
	return p.mailbox.Parked()
}

// PassPending reports whether the worker is holding a pass notice
func (p *Processor) PassPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.passPending
}

// Current returns the game being played, nil before the first game
func (p *Processor) Current() *game.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Legal returns the moves the engine last offered
func (p *Processor) Legal() []board.Move {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]board.Move(nil), p.legal...)
}

func (p *Processor) PlayerConfig(seat core.Seat) core.PlayerConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !seat.Valid() {
		return core.PlayerConfig{}
	}
	return p.players[seat]
}

func (p *Processor) Options() engine.Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.options
}
