package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"othello/internal/board"
	"othello/internal/core"
	"othello/internal/game"
	"othello/internal/storage"
)

// View is what clients see of the current game
type View struct {
	Version     int            `json:"version" yaml:"version"`
	Game        *game.Snapshot `json:"game,omitempty" yaml:"game,omitempty"`
	PassPending bool           `json:"passPending" yaml:"passPending"`
	GameOver    bool           `json:"gameOver" yaml:"gameOver"`
	LastError   string         `json:"lastError,omitempty" yaml:"lastError,omitempty"`
}

// Service tracks the latest game snapshot for the transports and persists the
// session with optional storage. It implements game.Observer.
type Service struct {
	mu        sync.RWMutex
	state     *game.State
	view      View
	savedKey  string
	recorded  string
	waiters   *WaitRegistry
	store     *storage.Store // nil if persistence disabled
	listeners []func(View)
}

// New creates a service instance with optional storage
func New(store *storage.Store, waitTimeout time.Duration) *Service {
	return &Service{
		waiters: NewWaitRegistry(waitTimeout),
		store:   store,
	}
}

// Subscribe registers fn to receive every new view on the worker goroutine
func (s *Service) Subscribe(fn func(View)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Service) OnBoard(g *game.State) {
	s.mu.Lock()
	previous := s.state
	s.state = g
	if previous != nil && previous != g {
		// a new game replaced the one clients were watching
		s.view.GameOver = false
		s.view.LastError = ""
	}
	s.saveSessionLocked(g)
	s.mu.Unlock()

	s.publish()
}

func (s *Service) OnPass() {
	s.update(func(v *View) { v.PassPending = true })
}

func (s *Service) OnGameStart() {
	s.update(func(v *View) {
		v.GameOver = false
		v.PassPending = false
	})
}

func (s *Service) OnGameOver() {
	s.mu.Lock()
	s.view.GameOver = true
	s.recordGameLocked()
	s.mu.Unlock()
	s.publish()
}

func (s *Service) OnMoveStart() {
	s.update(func(v *View) { v.PassPending = false })
}

func (s *Service) OnMoveEnd() {}

func (s *Service) OnEval(string) {
	s.publish()
}

func (s *Service) OnPV([]board.Move) {
	s.publish()
}

func (s *Service) OnError(message string) {
	s.update(func(v *View) { v.LastError = message })
}

func (s *Service) OnDebug(message string) {
	log.Debug().Str("message", message).Msg("engine debug")
}

func (s *Service) update(fn func(*View)) {
	s.mu.Lock()
	fn(&s.view)
	s.mu.Unlock()
	s.publish()
}

// publish refreshes the snapshot, bumps the version and wakes waiters
func (s *Service) publish() {
	s.mu.Lock()
	if s.state != nil {
		snap := s.state.Snapshot()
		s.view.Game = &snap
	}
	s.view.Version++
	view := s.view
	listeners := s.listeners
	s.waiters.Notify(view.Version)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(view)
	}
}

func (s *Service) gameIDLocked() string {
	if s.state == nil {
		return ""
	}
	return s.state.ID()
}

// View returns the latest view
func (s *Service) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// GameID returns the handle of the game being watched
func (s *Service) GameID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gameIDLocked()
}

// WaitForChange blocks until the view moves past version, the wait times out
// or ctx ends, then returns the latest view. Clients waiting before the first
// game are woken by its first publish.
func (s *Service) WaitForChange(ctx context.Context, version int) View {
	if v := s.View(); v.Version != version {
		return v
	}
	s.waiters.Wait(ctx, version)
	return s.View()
}

// saveSessionLocked stores the pass-free move list when it changed
func (s *Service) saveSessionLocked(g *game.State) {
	if s.store == nil {
		return
	}
	played := g.PlayedMoves()
	key := g.ID() + ":" + board.FormatMoveSequence(played)
	if key == s.savedKey {
		return
	}
	s.savedKey = key
	s.store.RecordSession(storage.SessionRecord{
		GameID:       g.ID(),
		MoveSequence: board.EncodeMoves(played),
		PlyCount:     len(played),
	})
}

// recordGameLocked stores the finished game once per distinct ending
func (s *Service) recordGameLocked() {
	if s.store == nil || s.state == nil {
		return
	}
	g := s.state
	sequence := g.MoveText()
	key := g.ID() + ":" + sequence
	if key == s.recorded {
		return
	}
	s.recorded = key

	b := g.Board()
	s.store.RecordGame(storage.GameRecord{
		GameID:     g.ID(),
		Sequence:   sequence,
		BlackDiscs: b.Count(core.CellBlack),
		WhiteDiscs: b.Count(core.CellWhite),
		Opening:    g.Opening(),
	})
	log.Info().Str("game", g.ID()).Str("moves", sequence).Msg("game recorded")
}

// SavedSession returns the moves of the stored session, nil when there is none
func (s *Service) SavedSession() ([]board.Move, error) {
	if s.store == nil {
		return nil, nil
	}
	rec, err := s.store.LoadSession()
	if errors.Is(err, storage.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return board.DecodeMoves(rec.MoveSequence)
}

// History returns finished games, newest first
func (s *Service) History(sequence string) ([]storage.GameRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.QueryGames("*", sequence)
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// Close wakes long-poll clients and closes storage
func (s *Service) Close() error {
	s.waiters.Shutdown()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
