package broadcast

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"othello/internal/board"
	"othello/internal/core"
	"othello/internal/game"
)

type published struct {
	subject string
	event   Event
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (r *recordingPublisher) Publish(subject string, data []byte) error {
	if r.err != nil {
		return r.err
	}
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	r.mu.Lock()
	r.msgs = append(r.msgs, published{subject: subject, event: e})
	r.mu.Unlock()
	return nil
}

func TestBroadcasterSubjects(t *testing.T) {
	pub := &recordingPublisher{}
	b := NewBroadcaster(pub, "othello")

	g := game.New(b)
	f5 := board.MustParseMove("F5")
	next, err := board.New().Play(f5, core.ColorBlack)
	require.NoError(t, err)
	g.Update(next, core.ColorWhite, game.PlayerInfo{DiscCount: 4, Moves: []board.Move{f5}}, game.PlayerInfo{DiscCount: 1})

	b.OnPass()
	b.OnPV([]board.Move{board.MustParseMove("D6"), board.MustParseMove("C3")})
	b.OnEval("+2.00")
	b.OnDebug("not sent")

	require.Len(t, pub.msgs, 4)
	assert.Equal(t, "othello.board", pub.msgs[0].subject)
	require.NotNil(t, pub.msgs[0].event.Game)
	assert.Equal(t, "F5", pub.msgs[0].event.Game.Moves)

	assert.Equal(t, "othello.pass", pub.msgs[1].subject)
	assert.Equal(t, g.ID(), pub.msgs[1].event.GameID, "later events carry the last game id")

	assert.Equal(t, []string{"D6", "C3"}, pub.msgs[2].event.Moves)
	assert.Equal(t, "+2.00", pub.msgs[3].event.Message)
	assert.False(t, pub.msgs[3].event.Time.IsZero())
}

func TestBroadcasterIgnoresPublishErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("closed")}
	b := NewBroadcaster(pub, "x")
	assert.NotPanics(t, func() {
		b.OnGameStart()
		b.OnError("boom")
	})
}

type fakeController struct {
	calls  []string
	err    error
	resume bool
}

func (f *fakeController) MakeMove(handle string, m board.Move) error {
	f.calls = append(f.calls, "move "+handle+" "+m.String())
	return f.err
}

func (f *fakeController) Undo(handle string) error {
	f.calls = append(f.calls, "undo "+handle)
	return f.err
}

func (f *fakeController) Redo(handle string) error {
	f.calls = append(f.calls, "redo "+handle)
	return f.err
}

func (f *fakeController) Resume() bool {
	f.calls = append(f.calls, "resume")
	return f.resume
}

func (f *fakeController) StopMove() { f.calls = append(f.calls, "stop") }

func (f *fakeController) StopGame() { f.calls = append(f.calls, "stopgame") }

func handle(t *testing.T, ctl Controller, body string) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(Handle(ctl, []byte(body)), &resp))
	return resp
}

func TestHandleCommands(t *testing.T) {
	ctl := &fakeController{resume: true}

	assert.True(t, handle(t, ctl, `{"command":"move","gameId":"g1","move":"f5"}`).OK)
	assert.True(t, handle(t, ctl, `{"command":"undo","gameId":"g1"}`).OK)
	assert.True(t, handle(t, ctl, `{"command":"redo","gameId":"g1"}`).OK)
	assert.True(t, handle(t, ctl, `{"command":"resume"}`).OK)
	assert.True(t, handle(t, ctl, `{"command":"stop"}`).OK)
	assert.True(t, handle(t, ctl, `{"command":"stopgame"}`).OK)

	assert.Equal(t, []string{"move g1 F5", "undo g1", "redo g1", "resume", "stop", "stopgame"}, ctl.calls)
}

func TestHandleErrors(t *testing.T) {
	ctl := &fakeController{err: core.ErrStaleGame}

	resp := handle(t, ctl, `{"command":"move","gameId":"old","move":"F5"}`)
	assert.False(t, resp.OK)
	assert.Equal(t, core.CodeStaleGame, resp.Code)

	resp = handle(t, ctl, `{"command":"move","move":"Z9"}`)
	assert.Equal(t, core.CodeInvalidMove, resp.Code)

	resp = handle(t, ctl, `{"command":"resume"}`)
	assert.Equal(t, core.CodeNotAwaitingInput, resp.Code)

	resp = handle(t, ctl, `{"command":"fly"}`)
	assert.Equal(t, core.CodeInvalidConfig, resp.Code)

	resp = handle(t, ctl, `not json`)
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
}
