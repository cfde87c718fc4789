package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"othello/internal/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.True(t, cfg.Players.Black.IsHuman())
	assert.Equal(t, core.ComputerPlayer(6), cfg.Players.White)
	assert.Equal(t, core.ComputerPlayer(6), cfg.Players.Engine)
	assert.Equal(t, 500*time.Millisecond, cfg.InterruptGrace)
	assert.Equal(t, 300*time.Millisecond, cfg.MinMoveDelay)
	assert.True(t, cfg.Options.UseBook)
	assert.Equal(t, "localhost:8080", cfg.Addr())
	assert.Equal(t, "othello", cfg.NATS.Subject)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Empty(t, cfg.StoragePath)
}

func TestFileOverrides(t *testing.T) {
	path := writeConfig(t, `
data_dir: /var/lib/othello
storage_path: /var/lib/othello/games.db
min_move_delay: 1s
interrupt_grace: 250ms
players:
  black:
    depth: 4
    exact_depth: 10
    wld_depth: 12
    time: 300
  white:
    depth: 0
options:
  practice_mode: true
  slack: 1.5
  forced_opening: Tiger
http:
  port: 9090
  dev: true
log:
  level: debug
  pretty: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/othello", cfg.DataDir)
	assert.Equal(t, "/var/lib/othello/games.db", cfg.StoragePath)
	assert.Equal(t, time.Second, cfg.MinMoveDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.InterruptGrace)
	assert.Equal(t, core.PlayerConfig{Depth: 4, ExactDepth: 10, WLDDepth: 12, Time: 300}, cfg.Players.Black)
	assert.True(t, cfg.Players.White.IsHuman())
	assert.True(t, cfg.Options.PracticeMode)
	assert.Equal(t, 1.5, cfg.Options.Slack)
	assert.Equal(t, "Tiger", cfg.Options.ForcedOpening)
	assert.Equal(t, "localhost:9090", cfg.Addr())
	assert.True(t, cfg.HTTP.Dev)
	assert.True(t, cfg.Log.Pretty)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OTHELLO_HTTP_PORT", "7000")
	t.Setenv("OTHELLO_NATS_URL", "nats://127.0.0.1:4222")
	t.Setenv("OTHELLO_PLAYERS_WHITE_DEPTH", "3")

	cfg, err := Load(writeConfig(t, "http:\n  port: 9090\n"))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.HTTP.Port)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, 3, cfg.Players.White.Depth)
}

func TestInvalidConfig(t *testing.T) {
	_, err := Load(writeConfig(t, "players:\n  black:\n    depth: 99\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "players.black")

	_, err = Load(writeConfig(t, "players:\n  engine:\n    depth: 0\n"))
	var cfgErr *core.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "players.engine", cfgErr.Field)

	_, err = Load(writeConfig(t, "options:\n  perturbation: -1\n"))
	assert.ErrorAs(t, err, &cfgErr)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
