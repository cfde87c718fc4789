package storage

import "time"

// SessionRecord is the resumable game: the pass-free move bytes played so far
type SessionRecord struct {
	GameID       string    `db:"game_id"`
	MoveSequence []byte    `db:"move_sequence"`
	PlyCount     int       `db:"ply_count"`
	UpdatedUTC   time.Time `db:"updated_utc"`
}

// GameRecord represents a row in the games table
type GameRecord struct {
	GameID       string    `db:"game_id"`
	Sequence     string    `db:"sequence"`
	SequenceHash int64     `db:"sequence_hash"`
	BlackDiscs   int       `db:"black_discs"`
	WhiteDiscs   int       `db:"white_discs"`
	Opening      string    `db:"opening"`
	FinishedUTC  time.Time `db:"finished_utc"`
}

// Winner returns "b", "w" or "draw"
func (g GameRecord) Winner() string {
	switch {
	case g.BlackDiscs > g.WhiteDiscs:
		return "b"
	case g.WhiteDiscs > g.BlackDiscs:
		return "w"
	default:
		return "draw"
	}
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	game_id TEXT PRIMARY KEY,
	move_sequence BLOB NOT NULL,
	ply_count INTEGER NOT NULL CHECK(ply_count >= 0 AND ply_count <= 128),
	updated_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	sequence TEXT NOT NULL,
	sequence_hash INTEGER NOT NULL,
	black_discs INTEGER NOT NULL,
	white_discs INTEGER NOT NULL,
	opening TEXT NOT NULL DEFAULT '',
	finished_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_games_sequence_hash ON games(sequence_hash);
CREATE INDEX IF NOT EXISTS idx_games_finished ON games(finished_utc);
`
