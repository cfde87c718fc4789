package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"othello/internal/board"
	"othello/internal/core"
	"othello/internal/engine"
	"othello/internal/processor"
	"othello/internal/provision"
	"othello/internal/service"
)

type fixture struct {
	app  *fiber.App
	proc *processor.Processor
	svc  *service.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	prov := provision.New(provision.NewEmbeddedSource("/data"), fs, engine.DataFiles...)
	svc := service.New(nil, time.Second)
	proc := processor.New(engine.NewLocal(fs), prov, svc, processor.Config{
		Black:  core.HumanPlayer(),
		White:  core.HumanPlayer(),
		Engine: core.ComputerPlayer(2),
	})
	proc.Start()
	t.Cleanup(func() {
		proc.Close()
		svc.Close()
	})
	return &fixture{app: NewFiberApp(proc, svc, true), proc: proc, svc: svc}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	resp, err := f.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp.StatusCode, out
}

func (f *fixture) newGame(t *testing.T, body string) string {
	t.Helper()
	status, resp := f.do(t, fiber.MethodPost, "/api/v1/games", body)
	require.Equal(t, fiber.StatusCreated, status, resp)
	id, _ := resp["gameId"].(string)
	require.NotEmpty(t, id)
	require.Eventually(t, f.proc.AwaitingInput, 2*time.Second, time.Millisecond)
	return id
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	status, resp := f.do(t, fiber.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "disabled", resp["storage"])
}

func TestMoveFlow(t *testing.T) {
	f := newFixture(t)
	id := f.newGame(t, "")

	status, resp := f.do(t, fiber.MethodPost, "/api/v1/games/"+id+"/moves", `{"move":"f5"}`)
	require.Equal(t, fiber.StatusAccepted, status, resp)
	assert.Equal(t, "make_move F5", resp["command"])
	require.Eventually(t, func() bool {
		v := f.svc.View()
		return f.proc.AwaitingInput() && v.Game != nil && v.Game.Moves == "F5"
	}, 2*time.Second, time.Millisecond)

	status, resp = f.do(t, fiber.MethodGet, "/api/v1/games/current", "")
	assert.Equal(t, fiber.StatusOK, status)
	g := resp["game"].(map[string]any)
	assert.Equal(t, id, g["gameId"])
	assert.Equal(t, "w", g["sideToMove"])

	status, resp = f.do(t, fiber.MethodGet, "/api/v1/games/"+id+"/board", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "F5", resp["moves"])
	assert.Contains(t, resp["board"], "*")

	status, resp = f.do(t, fiber.MethodPost, "/api/v1/games/"+id+"/undo", "")
	assert.Equal(t, fiber.StatusAccepted, status, resp)
	require.Eventually(t, func() bool {
		cur := f.proc.Current()
		return f.proc.AwaitingInput() && cur.ID() != id && len(cur.Moves()) == 0
	}, 2*time.Second, time.Millisecond)

	// undo to the start replaced the game, the old handle is stale
	status, resp = f.do(t, fiber.MethodPost, "/api/v1/games/"+id+"/redo", "")
	assert.Equal(t, fiber.StatusConflict, status, resp)
	id = f.proc.Current().ID()
	status, _ = f.do(t, fiber.MethodPost, "/api/v1/games/"+id+"/redo", "")
	assert.Equal(t, fiber.StatusAccepted, status)
	require.Eventually(t, func() bool {
		return f.proc.AwaitingInput() && len(f.proc.Current().Moves()) == 1
	}, 2*time.Second, time.Millisecond)

	status, resp = f.do(t, fiber.MethodPost, "/api/v1/games/"+id+"/resume", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, resp["resumed"])
}

func TestMoveErrors(t *testing.T) {
	f := newFixture(t)

	status, resp := f.do(t, fiber.MethodPost, "/api/v1/games/"+uuid.NewString()+"/moves", `{"move":"F5"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, core.CodeGameNotFound, resp["code"])

	id := f.newGame(t, "")

	status, resp = f.do(t, fiber.MethodPost, "/api/v1/games/"+id+"/moves", `{"move":"A1"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, core.CodeInvalidMove, resp["code"])

	status, resp = f.do(t, fiber.MethodPost, "/api/v1/games/"+id+"/moves", `{"move":"Z9"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, core.CodeInvalidMove, resp["code"])

	status, resp = f.do(t, fiber.MethodPost, "/api/v1/games/"+id+"/moves", `{"move":"F55"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation failed", resp["error"])

	// one bad seat rejects the whole request
	status, _ = f.do(t, fiber.MethodPut, "/api/v1/players", `{"engine":{"depth":4},"white":{"depth":5},"black":{"depth":99}}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, core.PlayerConfig{Depth: 3, ExactDepth: 8, WLDDepth: 10}, f.proc.PlayerConfig(core.SeatWhite))
	assert.Equal(t, core.HumanPlayer(), f.proc.PlayerConfig(core.SeatBlack))

	status, resp = f.do(t, fiber.MethodPost, "/api/v1/games/"+uuid.NewString()+"/moves", `{"move":"F5"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, core.CodeStaleGame, resp["code"])

	status, resp = f.do(t, fiber.MethodPost, "/api/v1/games/not-a-uuid/undo", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, core.CodeInvalidRequest, resp["code"])

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/games/"+id+"/moves", strings.NewReader("move=F5"))
	req.Header.Set("Content-Type", "text/plain")
	res, err := f.app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, res.StatusCode)
}

func TestReplayAndStop(t *testing.T) {
	f := newFixture(t)
	first := f.newGame(t, "")
	second := f.newGame(t, `{"moves":"F5D6C3"}`)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "F5D6C3", f.proc.Current().MoveText())

	status, resp := f.do(t, fiber.MethodGet, "/api/v1/games/"+first+"/board", "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, core.CodeStaleGame, resp["code"])

	status, resp = f.do(t, fiber.MethodPost, "/api/v1/games", `{"moves":"F5F5"}`)
	assert.Equal(t, fiber.StatusCreated, status, resp)
	require.Eventually(t, f.proc.AwaitingInput, 2*time.Second, time.Millisecond)
	assert.Equal(t, "F5", f.proc.Current().MoveText(), "illegal tail is dropped")

	status, _ = f.do(t, fiber.MethodPost, "/api/v1/games", `{"moves":"F5D"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = f.do(t, fiber.MethodPost, "/api/v1/engine/stop", `{"scope":"board"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = f.do(t, fiber.MethodPost, "/api/v1/engine/stop", `{"scope":"game"}`)
	assert.Equal(t, fiber.StatusAccepted, status)
	require.Eventually(t, func() bool {
		return f.proc.EngineState() == core.StateReadyToPlay
	}, 2*time.Second, time.Millisecond)

	status, resp = f.do(t, fiber.MethodGet, "/api/v1/engine", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, resp["gameInProgress"])
	assert.Equal(t, false, resp["awaitingInput"])
}

func TestPlayersAndOptions(t *testing.T) {
	f := newFixture(t)

	status, resp := f.do(t, fiber.MethodPut, "/api/v1/players", `{"white":{"depth":3,"exactDepth":8,"wldDepth":10}}`)
	require.Equal(t, fiber.StatusOK, status, resp)
	white := resp["white"].(map[string]any)
	assert.Equal(t, float64(3), white["depth"])
	assert.Equal(t, core.PlayerConfig{Depth: 3, ExactDepth: 8, WLDDepth: 10}, f.proc.PlayerConfig(core.SeatWhite))

	status, resp = f.do(t, fiber.MethodPut, "/api/v1/players", `{"black":{"depth":99}}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "validation failed", resp["error"])

	status, resp = f.do(t, fiber.MethodPut, "/api/v1/options", `{"practiceMode":true,"slack":1.5,"useBook":true}`)
	require.Equal(t, fiber.StatusOK, status, resp)
	opts := resp["options"].(map[string]any)
	assert.Equal(t, true, opts["practiceMode"])
	assert.Equal(t, 1.5, opts["slack"])
	assert.True(t, f.proc.Options().UseBook)

	status, _ = f.do(t, fiber.MethodPut, "/api/v1/options", `{"slack":-1}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestLongPoll(t *testing.T) {
	f := newFixture(t)
	id := f.newGame(t, "")
	version := f.svc.View().Version

	go func() {
		time.Sleep(30 * time.Millisecond)
		f.proc.MakeMove(id, board.MustParseMove("F5"))
	}()
	status, resp := f.do(t, fiber.MethodGet, "/api/v1/games/current?wait=true&version="+strconv.Itoa(version), "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Greater(t, resp["version"], float64(version))
}

func TestHistoryWithoutStorage(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/games/history", nil)
	res, err := f.app.Test(req, 5000)
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	req = httptest.NewRequest(fiber.MethodGet, "/api/v1/games/history?moves=F5D", nil)
	res, err = f.app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}
