// Package broadcast mirrors engine events onto NATS subjects and accepts
// remote commands over request-reply.
package broadcast

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"othello/internal/board"
	"othello/internal/game"
)

// Publisher is the part of *nats.Conn the broadcaster needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the JSON body of every published message
type Event struct {
	Type    string         `json:"type"`
	Time    time.Time      `json:"time"`
	GameID  string         `json:"gameId,omitempty"`
	Message string         `json:"message,omitempty"`
	Moves   []string       `json:"moves,omitempty"`
	Game    *game.Snapshot `json:"game,omitempty"`
}

// Broadcaster is a game.Observer publishing each event to <prefix>.<type>.
// It runs on the engine worker, so wrap it in an EventQueue when the
// connection may be slow.
type Broadcaster struct {
	pub    Publisher
	prefix string
	gameID string
}

func NewBroadcaster(pub Publisher, prefix string) *Broadcaster {
	return &Broadcaster{pub: pub, prefix: prefix}
}

// Connect dials url and returns the connection for Broadcaster and Serve
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("othello"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

func (b *Broadcaster) publish(e Event) {
	e.Time = time.Now().UTC()
	if e.GameID == "" {
		e.GameID = b.gameID
	}
	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("type", e.Type).Msg("encode broadcast event")
		return
	}
	if err := b.pub.Publish(b.prefix+"."+e.Type, data); err != nil {
		log.Warn().Err(err).Str("type", e.Type).Msg("broadcast failed")
	}
}

func (b *Broadcaster) OnBoard(s *game.State) {
	snap := s.Snapshot()
	b.gameID = snap.GameID
	b.publish(Event{Type: "board", Game: &snap})
}

func (b *Broadcaster) OnPass() { b.publish(Event{Type: "pass"}) }
func (b *Broadcaster) OnGameStart() { b.publish(Event{Type: "game_start"}) }
func (b *Broadcaster) OnGameOver() { b.publish(Event{Type: "game_over"}) }
func (b *Broadcaster) OnMoveStart() { b.publish(Event{Type: "move_start"}) }
func (b *Broadcaster) OnMoveEnd() { b.publish(Event{Type: "move_end"}) }

func (b *Broadcaster) OnEval(text string) {
	b.publish(Event{Type: "eval", Message: text})
}

func (b *Broadcaster) OnPV(moves []board.Move) {
	b.publish(Event{Type: "pv", Moves: lo.Map(moves, func(m board.Move, _ int) string { return m.String() })})
}

func (b *Broadcaster) OnError(message string) {
	b.publish(Event{Type: "error", Message: message})
}

// OnDebug is not broadcast
func (b *Broadcaster) OnDebug(string) {}
