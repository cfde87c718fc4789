package core

// Board and grid size. Move sequences hold two slots per cell so passes fit
// alongside every placed disc.
const (
	BoardSize   = 8
	CellCount   = BoardSize * BoardSize
	SequenceLen = 2 * CellCount
)

// Cell is the content of one board square as reported by the engine
type Cell int

const (
	CellBlack Cell = iota
	CellEmpty
	CellWhite
)

func (c Cell) String() string {
	switch c {
	case CellBlack:
		return "black"
	case CellWhite:
		return "white"
	default:
		return "empty"
	}
}

type Color int

const (
	ColorBlack Color = iota
	ColorWhite
)

func (c Color) String() string {
	if c == ColorWhite {
		return "w"
	}
	return "b"
}

// Cell returns the disc state owned by this color
func (c Color) Cell() Cell {
	if c == ColorWhite {
		return CellWhite
	}
	return CellBlack
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// Seat identifies a player configuration slot. SeatEngine is the engine's own
// strength profile, used when it searches on behalf of either side.
type Seat int

const (
	SeatBlack Seat = iota
	SeatEngine
	SeatWhite
)

// Seats lists every seat in the order they are pushed to the engine
var Seats = []Seat{SeatBlack, SeatWhite, SeatEngine}

func (s Seat) String() string {
	switch s {
	case SeatBlack:
		return "black"
	case SeatWhite:
		return "white"
	case SeatEngine:
		return "engine"
	default:
		return "unknown"
	}
}

func (s Seat) Valid() bool {
	return s == SeatBlack || s == SeatWhite || s == SeatEngine
}

// ParseSeat accepts the names produced by Seat.String
func ParseSeat(name string) (Seat, error) {
	switch name {
	case "black", "b":
		return SeatBlack, nil
	case "white", "w":
		return SeatWhite, nil
	case "engine", "e":
		return SeatEngine, nil
	default:
		return 0, &ConfigError{Field: "seat", Reason: "unknown seat " + name}
	}
}

// SeatOf maps a side to move to its seat
func SeatOf(c Color) Seat {
	if c == ColorWhite {
		return SeatWhite
	}
	return SeatBlack
}

// EngineState is the coordination state shared by the worker and callers
type EngineState int

const (
	StateInitial EngineState = iota
	StateReadyToPlay
	StatePlay
	StatePlayInProgress
	StateUserInputWait
)

func (s EngineState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateReadyToPlay:
		return "ready"
	case StatePlay:
		return "play"
	case StatePlayInProgress:
		return "in progress"
	case StateUserInputWait:
		return "waiting for input"
	default:
		return "unknown"
	}
}
