package http

import (
	"time"

	"othello/internal/core"
	"othello/internal/engine"
	"othello/internal/game"
)

// Response types

type GameResponse struct {
	GameID string        `json:"gameId"`
	Game   game.Snapshot `json:"game"`
}

type BoardResponse struct {
	GameID     string `json:"gameId"`
	SideToMove string `json:"sideToMove"`
	Board      string `json:"board"` // ASCII representation
	Moves      string `json:"moves"`
}

type AcceptedResponse struct {
	GameID  string `json:"gameId"`
	Command string `json:"command"`
}

type ResumeResponse struct {
	Resumed bool `json:"resumed"`
}

type EngineResponse struct {
	State          string `json:"state"`
	GameInProgress bool   `json:"gameInProgress"`
	AwaitingInput  bool   `json:"awaitingInput"`
	PassPending    bool   `json:"passPending"`
	GameID         string `json:"gameId,omitempty"`
}

type PlayersResponse struct {
	Black  core.PlayerConfig `json:"black"`
	White  core.PlayerConfig `json:"white"`
	Engine core.PlayerConfig `json:"engine"`
}

type OptionsResponse struct {
	Options engine.Options `json:"options"`
}

type HistoryEntry struct {
	GameID     string    `json:"gameId"`
	Moves      string    `json:"moves"`
	BlackDiscs int       `json:"blackDiscs"`
	WhiteDiscs int       `json:"whiteDiscs"`
	Winner     string    `json:"winner"`
	Opening    string    `json:"opening,omitempty"`
	Finished   time.Time `json:"finished"`
}
