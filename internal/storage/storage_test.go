package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "othello.db")
	s, err := NewStore(path, true)
	require.NoError(t, err)
	require.NoError(t, s.InitDB())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := openStore(t)

	_, err := s.LoadSession()
	require.ErrorIs(t, err, ErrNoSession)

	s.RecordSession(SessionRecord{GameID: "g1", MoveSequence: []byte{56, 64}, PlyCount: 2})
	s.RecordSession(SessionRecord{GameID: "g1", MoveSequence: []byte{56, 64, 33}, PlyCount: 3})

	require.Eventually(t, func() bool {
		rec, err := s.LoadSession()
		return err == nil && rec.PlyCount == 3
	}, time.Second, 5*time.Millisecond)

	rec, err := s.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "g1", rec.GameID)
	assert.Equal(t, []byte{56, 64, 33}, rec.MoveSequence)
	assert.False(t, rec.UpdatedUTC.IsZero())

	// a new game replaces the old one
	s.RecordSession(SessionRecord{GameID: "g2", MoveSequence: []byte{}, PlyCount: 0})
	require.Eventually(t, func() bool {
		rec, err := s.LoadSession()
		return err == nil && rec.GameID == "g2"
	}, time.Second, 5*time.Millisecond)

	s.ClearSession()
	require.Eventually(t, func() bool {
		_, err := s.LoadSession()
		return err == ErrNoSession
	}, time.Second, 5*time.Millisecond)
	assert.True(t, s.IsHealthy())
}

func TestRecordAndQueryGames(t *testing.T) {
	s := openStore(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.RecordGame(GameRecord{GameID: "a", Sequence: "F5D6", BlackDiscs: 3, WhiteDiscs: 58, Opening: "Perpendicular", FinishedUTC: base})
	s.RecordGame(GameRecord{GameID: "b", Sequence: "F5F6", BlackDiscs: 40, WhiteDiscs: 24, FinishedUTC: base.Add(time.Hour)})
	s.RecordGame(GameRecord{GameID: "c", Sequence: "F5D6", BlackDiscs: 32, WhiteDiscs: 32, FinishedUTC: base.Add(2 * time.Hour)})

	require.Eventually(t, func() bool {
		games, err := s.QueryGames("*", "")
		return err == nil && len(games) == 3
	}, time.Second, 5*time.Millisecond)

	games, err := s.QueryGames("", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, []string{games[0].GameID, games[1].GameID, games[2].GameID})

	games, err = s.QueryGames("a", "")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Perpendicular", games[0].Opening)
	assert.Equal(t, HashSequence("F5D6"), games[0].SequenceHash)
	assert.Equal(t, "w", games[0].Winner())

	games, err = s.QueryGames("*", "F5D6")
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "draw", games[0].Winner())

	games, err = s.QueryGames("*", "C4")
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestRecordGameReplacesResult(t *testing.T) {
	s := openStore(t)
	s.RecordGame(GameRecord{GameID: "a", Sequence: "F5", BlackDiscs: 4, WhiteDiscs: 1})
	s.RecordGame(GameRecord{GameID: "a", Sequence: "F5D6", BlackDiscs: 3, WhiteDiscs: 3})

	require.Eventually(t, func() bool {
		games, err := s.QueryGames("a", "")
		return err == nil && len(games) == 1 && games[0].Sequence == "F5D6"
	}, time.Second, 5*time.Millisecond)
}

func TestHashSequenceIsStable(t *testing.T) {
	assert.Equal(t, HashSequence("F5D6C3"), HashSequence("F5D6C3"))
	assert.NotEqual(t, HashSequence("F5D6C3"), HashSequence("F5D6C4"))
}

func TestCloseDrainsAndDeleteRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "othello.db")
	s, err := NewStore(path, false)
	require.NoError(t, err)
	require.NoError(t, s.InitDB())

	s.RecordGame(GameRecord{GameID: "a", Sequence: "F5"})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	// queued writes survive the close
	reopened, err := NewStore(path, false)
	require.NoError(t, err)
	games, err := reopened.QueryGames("", "")
	require.NoError(t, err)
	assert.Len(t, games, 1)

	require.NoError(t, reopened.DeleteDB())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// writes after close are dropped quietly
	reopened.RecordGame(GameRecord{GameID: "b"})
}
