package core

// Request types

type NewGameRequest struct {
	Moves string `json:"moves,omitempty" validate:"omitempty,max=128"` // Concatenated squares, e.g. "F5D6C3"
}

type MoveRequest struct {
	Move string `json:"move" validate:"required,len=2"`
}

type StopRequest struct {
	Scope string `json:"scope" validate:"required,oneof=move game"`
}

type ConfigurePlayersRequest struct {
	Black  *PlayerConfig `json:"black,omitempty"`
	White  *PlayerConfig `json:"white,omitempty"`
	Engine *PlayerConfig `json:"engine,omitempty"`
}

type OptionsRequest struct {
	AutoMakeMoves bool    `json:"autoMakeMoves"`
	Slack         float64 `json:"slack" validate:"min=0,max=64"`
	Perturbation  float64 `json:"perturbation" validate:"min=0,max=64"`
	ForcedOpening string  `json:"forcedOpening,omitempty" validate:"omitempty,max=64"`
	HumanOpenings bool    `json:"humanOpenings"`
	PracticeMode  bool    `json:"practiceMode"`
	UseBook       bool    `json:"useBook"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
