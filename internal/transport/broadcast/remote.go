package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"othello/internal/board"
	"othello/internal/core"
)

// Controller is the part of the processor remote commands drive
type Controller interface {
	MakeMove(handle string, m board.Move) error
	Undo(handle string) error
	Redo(handle string) error
	Resume() bool
	StopMove()
	StopGame()
}

// Request is a remote command
type Request struct {
	Command string `json:"command"` // move, undo, redo, resume, stop, stopgame
	GameID  string `json:"gameId,omitempty"`
	Move    string `json:"move,omitempty"`
}

type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// Serve answers requests on subject until the subscription is drained
func Serve(nc *nats.Conn, subject string, ctl Controller) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(subject, func(m *nats.Msg) {
		log.Debug().Int("bytes", len(m.Data)).Str("subject", m.Subject).Msg("remote command")
		if err := m.Respond(Handle(ctl, m.Data)); err != nil {
			log.Warn().Err(err).Msg("remote reply failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	log.Info().Str("subject", subject).Msg("listening for remote commands")
	return sub, nil
}

// Handle decodes one request, runs it and encodes the response
func Handle(ctl Controller, data []byte) []byte {
	var req Request
	resp := Response{OK: true}
	if err := json.Unmarshal(data, &req); err != nil {
		resp = failure(&core.ConfigError{Field: "request", Reason: err.Error()})
	} else if err := run(ctl, req); err != nil {
		resp = failure(err)
	}

	out, _ := json.Marshal(resp)
	return out
}

func run(ctl Controller, req Request) error {
	switch req.Command {
	case "move":
		m, err := board.ParseMove(req.Move)
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrIllegalMove, err)
		}
		return ctl.MakeMove(req.GameID, m)
	case "undo":
		return ctl.Undo(req.GameID)
	case "redo":
		return ctl.Redo(req.GameID)
	case "resume":
		if !ctl.Resume() {
			return core.ErrNotAwaitingInput
		}
		return nil
	case "stop":
		ctl.StopMove()
		return nil
	case "stopgame":
		ctl.StopGame()
		return nil
	default:
		return &core.ConfigError{Field: "command", Reason: fmt.Sprintf("unknown command %q", req.Command)}
	}
}

func failure(err error) Response {
	return Response{Error: err.Error(), Code: core.Code(err)}
}
