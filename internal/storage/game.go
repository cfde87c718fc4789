package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cespare/xxhash"
)

// HashSequence fingerprints a move sequence for duplicate lookups
func HashSequence(sequence string) int64 {
	return int64(xxhash.Sum64String(sequence))
}

// RecordGame asynchronously records a finished game. A game recorded twice
// (undo after game over, then a new ending) keeps the latest result.
func (s *Store) RecordGame(record GameRecord) {
	if record.FinishedUTC.IsZero() {
		record.FinishedUTC = time.Now().UTC()
	}
	record.SequenceHash = HashSequence(record.Sequence)

	s.enqueue("game", func(tx *sql.Tx) error {
		query := `INSERT OR REPLACE INTO games (
			game_id, sequence, sequence_hash, black_discs, white_discs, opening, finished_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			record.GameID, record.Sequence, record.SequenceHash,
			record.BlackDiscs, record.WhiteDiscs, record.Opening, record.FinishedUTC,
		)
		return err
	})
}

// QueryGames retrieves finished games, newest first. An empty or "*" gameID
// matches every game; a non-empty sequence matches games with exactly that
// sequence.
func (s *Store) QueryGames(gameID, sequence string) ([]GameRecord, error) {
	query := `SELECT
		game_id, sequence, sequence_hash, black_discs, white_discs, opening, finished_utc
	FROM games WHERE 1=1`

	var args []interface{}

	if gameID != "" && gameID != "*" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}

	if sequence != "" {
		// the hash narrows through the index, the text rules out collisions
		query += " AND sequence_hash = ? AND sequence = ?"
		args = append(args, HashSequence(sequence), sequence)
	}

	query += " ORDER BY finished_utc DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		err := rows.Scan(
			&g.GameID, &g.Sequence, &g.SequenceHash,
			&g.BlackDiscs, &g.WhiteDiscs, &g.Opening, &g.FinishedUTC,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return games, nil
}
