package processor

import (
	"fmt"

	"othello/internal/board"
	"othello/internal/engine"
)

// CommandType defines the answer given to a parked get-user-input callback
type CommandType int

const (
	CmdMakeMove CommandType = iota
	CmdUndo
	CmdRedo
	CmdSettingsChanged
	CmdExit
)

func (t CommandType) String() string {
	switch t {
	case CmdMakeMove:
		return "make_move"
	case CmdUndo:
		return "undo"
	case CmdRedo:
		return "redo"
	case CmdSettingsChanged:
		return "settings_changed"
	case CmdExit:
		return "exit"
	default:
		return fmt.Sprintf("command(%d)", int(t))
	}
}

// Command is the value carried by the mailbox; Move is only set for CmdMakeMove
type Command struct {
	Type CommandType
	Move board.Move
}

func MakeMoveCommand(m board.Move) Command {
	return Command{Type: CmdMakeMove, Move: m}
}

func UndoCommand() Command {
	return Command{Type: CmdUndo}
}

func RedoCommand() Command {
	return Command{Type: CmdRedo}
}

func SettingsChangedCommand() Command {
	return Command{Type: CmdSettingsChanged}
}

func ExitCommand() Command {
	return Command{Type: CmdExit}
}

// Reply converts the command to the engine's callback answer
func (c Command) Reply() engine.Reply {
	switch c.Type {
	case CmdMakeMove:
		return engine.Reply{Event: engine.EventMove, Move: int(c.Move)}
	case CmdUndo:
		return engine.Reply{Event: engine.EventUndo}
	case CmdRedo:
		return engine.Reply{Event: engine.EventRedo}
	case CmdSettingsChanged:
		return engine.Reply{Event: engine.EventSettingsChange}
	default:
		return engine.Reply{Event: engine.EventExit}
	}
}

func (c Command) String() string {
	if c.Type == CmdMakeMove {
		return fmt.Sprintf("%s %s", c.Type, c.Move)
	}
	return c.Type.String()
}
