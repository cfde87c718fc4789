package engine

import (
	"encoding/json"
	"fmt"

	"othello/internal/core"
)

// Engine is the blocking search engine. Play runs a whole game on the calling
// goroutine and reports through the Callback given to GlobalInit; ForceReturn,
// ForceExit and GameInProgress may be called from any goroutine.
type Engine interface {
	GlobalInit(dataDir string, cb Callback) error
	GlobalTerminate() error

	// ForceReturn makes the current search return its best move so far
	ForceReturn()
	// ForceExit ends the current game at the next check
	ForceExit()

	SetPlayerInfo(seat core.Seat, cfg core.PlayerConfig)
	Play(initial []byte) error

	SetAutoMakeMoves(on bool)
	SetSlack(slack float64)
	SetPerturbation(perturbation float64)
	SetForcedOpening(name string)
	SetHumanOpenings(on bool)
	SetPracticeMode(on bool)
	SetUseBook(on bool)

	GameInProgress() bool
}

// Options are the engine-wide settings pushed before each game and at move start
type Options struct {
	AutoMakeMoves bool    `json:"autoMakeMoves" yaml:"autoMakeMoves" mapstructure:"auto_make_moves"`
	Slack         float64 `json:"slack" yaml:"slack" mapstructure:"slack"`
	Perturbation  float64 `json:"perturbation" yaml:"perturbation" mapstructure:"perturbation"`
	ForcedOpening string  `json:"forcedOpening" yaml:"forcedOpening" mapstructure:"forced_opening"`
	HumanOpenings bool    `json:"humanOpenings" yaml:"humanOpenings" mapstructure:"human_openings"`
	PracticeMode  bool    `json:"practiceMode" yaml:"practiceMode" mapstructure:"practice_mode"`
	UseBook       bool    `json:"useBook" yaml:"useBook" mapstructure:"use_book"`
}

// Apply pushes every option into e
func (o Options) Apply(e Engine) {
	e.SetAutoMakeMoves(o.AutoMakeMoves)
	e.SetSlack(o.Slack)
	e.SetPerturbation(o.Perturbation)
	e.SetForcedOpening(o.ForcedOpening)
	e.SetHumanOpenings(o.HumanOpenings)
	e.SetPracticeMode(o.PracticeMode)
	e.SetUseBook(o.UseBook)
}

// Tag identifies a callback message
type Tag int

const (
	TagError          Tag = 0
	TagBoard          Tag = 1
	TagCandidateMoves Tag = 2
	TagGetUserInput   Tag = 3
	TagPass           Tag = 4
	TagOpeningName    Tag = 5
	TagLastMove       Tag = 6
	TagGameStart      Tag = 7
	TagGameOver       Tag = 8
	TagMoveStart      Tag = 9
	TagMoveEnd        Tag = 10
	TagEval           Tag = 11
	TagPV             Tag = 12
	TagNextMove       Tag = 13
	TagCandidateEvals Tag = 14
	TagDebug          Tag = 65535
)

var tagNames = map[Tag]string{
	TagError:          "error",
	TagBoard:          "board",
	TagCandidateMoves: "candidate_moves",
	TagGetUserInput:   "get_user_input",
	TagPass:           "pass",
	TagOpeningName:    "opening_name",
	TagLastMove:       "last_move",
	TagGameStart:      "game_start",
	TagGameOver:       "game_over",
	TagMoveStart:      "move_start",
	TagMoveEnd:        "move_end",
	TagEval:           "eval",
	TagPV:             "pv",
	TagNextMove:       "next_move",
	TagCandidateEvals: "candidate_evals",
	TagDebug:          "debug",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

// Event is the kind of answer given to a callback
type Event int

const (
	EventExit           Event = 0
	EventMove           Event = 1
	EventUndo           Event = 2
	EventSettingsChange Event = 3
	EventRedo           Event = 4
)

func (e Event) String() string {
	switch e {
	case EventExit:
		return "exit"
	case EventMove:
		return "move"
	case EventUndo:
		return "undo"
	case EventSettingsChange:
		return "settings_change"
	case EventRedo:
		return "redo"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Message is one callback from the engine; Data is the tag's JSON payload
type Message struct {
	Tag  Tag             `json:"tag"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Reply answers a callback. Only GetUserInput replies are read by the engine;
// Move is a move id when Event is EventMove.
type Reply struct {
	Event Event `json:"event"`
	Move  int   `json:"move,omitempty"`
}

// Callback is the engine's only way out
type Callback func(Message) Reply

// NewMessage marshals payload into a message; a nil payload leaves Data empty
func NewMessage(tag Tag, payload any) (Message, error) {
	if payload == nil {
		return Message{Tag: tag}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s payload: %w", tag, err)
	}
	return Message{Tag: tag, Data: data}, nil
}

// Decode unmarshals the payload of m into v
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return &core.DecodeError{Tag: m.Tag.String(), Err: fmt.Errorf("empty payload")}
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return &core.DecodeError{Tag: m.Tag.String(), Err: err}
	}
	return nil
}
