package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoSession is returned by LoadSession when nothing has been saved
var ErrNoSession = errors.New("no saved session")

// RecordSession asynchronously replaces the saved session; only the latest game
// is resumable
func (s *Store) RecordSession(record SessionRecord) {
	if record.UpdatedUTC.IsZero() {
		record.UpdatedUTC = time.Now().UTC()
	}
	seq := append([]byte(nil), record.MoveSequence...)

	s.enqueue("session", func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM sessions WHERE game_id <> ?`, record.GameID); err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}
		query := `INSERT INTO sessions (game_id, move_sequence, ply_count, updated_utc)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(game_id) DO UPDATE SET
				move_sequence = excluded.move_sequence,
				ply_count = excluded.ply_count,
				updated_utc = excluded.updated_utc`
		_, err := tx.Exec(query, record.GameID, seq, record.PlyCount, record.UpdatedUTC)
		return err
	})
}

// LoadSession returns the saved session
func (s *Store) LoadSession() (*SessionRecord, error) {
	var session SessionRecord
	query := `SELECT game_id, move_sequence, ply_count, updated_utc FROM sessions
		ORDER BY updated_utc DESC LIMIT 1`

	err := s.db.QueryRow(query).Scan(
		&session.GameID, &session.MoveSequence, &session.PlyCount, &session.UpdatedUTC,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &session, nil
}

// ClearSession asynchronously forgets the saved session
func (s *Store) ClearSession() {
	s.enqueue("session", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM sessions`)
		return err
	})
}
