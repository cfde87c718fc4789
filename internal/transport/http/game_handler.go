package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"othello/internal/board"
	"othello/internal/core"
	"othello/internal/engine"
	"othello/internal/processor"
	"othello/internal/storage"
)

// CreateGame starts a new game, replaying the optional move list
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, err := validatedBody[core.NewGameRequest](c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	moves, err := board.ParseMoveSequence(req.Moves)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid move sequence",
			Code:    core.CodeInvalidMove,
			Details: err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), newGameTimeout)
	defer cancel()
	g, err := h.proc.Replay(ctx, moves)
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(GameResponse{GameID: g.ID(), Game: g.Snapshot()})
}

// GetCurrentGame returns the latest view; with wait=true it long-polls until
// the version moves past the given one
func (h *HTTPHandler) GetCurrentGame(c *fiber.Ctx) error {
	if c.Query("wait") != "true" {
		return c.JSON(h.svc.View())
	}

	version, err := strconv.Atoi(c.Query("version", "-1"))
	if err != nil {
		version = -1
	}
	return c.JSON(h.svc.WaitForChange(c.Context(), version))
}

// GetBoard returns ASCII representation of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	g := h.proc.Current()
	if g == nil {
		return sendError(c, core.ErrNoGame)
	}
	if g.ID() != gameID {
		return sendError(c, core.ErrStaleGame)
	}

	b := g.Board()
	candidates := g.CandidateSet()
	return c.JSON(BoardResponse{
		GameID:     gameID,
		SideToMove: g.SideToMove().String(),
		Board:      b.ToASCIIWith(candidates.Moves()),
		Moves:      g.MoveText(),
	})
}

// MakeMove submits a move for the human to move
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}

	req, err := validatedBody[core.MoveRequest](c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	m, err := board.ParseMove(req.Move)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid move",
			Code:    core.CodeInvalidMove,
			Details: err.Error(),
		})
	}

	if err := h.proc.MakeMove(gameID, m); err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(AcceptedResponse{GameID: gameID, Command: processor.MakeMoveCommand(m).String()})
}

func (h *HTTPHandler) Undo(c *fiber.Ctx) error {
	return h.command(c, processor.UndoCommand(), h.proc.Undo)
}

func (h *HTTPHandler) Redo(c *fiber.Ctx) error {
	return h.command(c, processor.RedoCommand(), h.proc.Redo)
}

func (h *HTTPHandler) command(c *fiber.Ctx, cmd processor.Command, submit func(string) error) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}
	if err := submit(gameID); err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(AcceptedResponse{GameID: gameID, Command: cmd.String()})
}

// Resume releases a pending pass notice
func (h *HTTPHandler) Resume(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return invalidGameID(c)
	}
	g := h.proc.Current()
	if g == nil {
		return sendError(c, core.ErrNoGame)
	}
	if g.ID() != gameID {
		return sendError(c, core.ErrStaleGame)
	}
	return c.JSON(ResumeResponse{Resumed: h.proc.Resume()})
}

func (h *HTTPHandler) GetEngine(c *fiber.Ctx) error {
	resp := EngineResponse{
		State:          h.proc.EngineState().String(),
		GameInProgress: h.proc.GameInProgress(),
		AwaitingInput:  h.proc.AwaitingInput(),
		PassPending:    h.proc.PassPending(),
	}
	if g := h.proc.Current(); g != nil {
		resp.GameID = g.ID()
	}
	return c.JSON(resp)
}

// Stop interrupts the current search or abandons the game
func (h *HTTPHandler) Stop(c *fiber.Ctx) error {
	req, err := validatedBody[core.StopRequest](c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	switch req.Scope {
	case "move":
		h.proc.StopMove()
	case "game":
		h.proc.StopGame()
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// ConfigurePlayers stages new settings for the seats present in the request,
// all of them or none
func (h *HTTPHandler) ConfigurePlayers(c *fiber.Ctx) error {
	req, err := validatedBody[core.ConfigurePlayersRequest](c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	cfgs := make(map[core.Seat]core.PlayerConfig, len(core.Seats))
	for seat, cfg := range map[core.Seat]*core.PlayerConfig{
		core.SeatBlack:  req.Black,
		core.SeatWhite:  req.White,
		core.SeatEngine: req.Engine,
	} {
		if cfg != nil {
			cfgs[seat] = *cfg
		}
	}
	if err := h.proc.SetPlayerConfigs(cfgs); err != nil {
		return sendError(c, err)
	}

	return c.JSON(PlayersResponse{
		Black:  h.proc.PlayerConfig(core.SeatBlack),
		White:  h.proc.PlayerConfig(core.SeatWhite),
		Engine: h.proc.PlayerConfig(core.SeatEngine),
	})
}

func (h *HTTPHandler) SetOptions(c *fiber.Ctx) error {
	req, err := validatedBody[core.OptionsRequest](c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	opts := engine.Options{
		AutoMakeMoves: req.AutoMakeMoves,
		Slack:         req.Slack,
		Perturbation:  req.Perturbation,
		ForcedOpening: req.ForcedOpening,
		HumanOpenings: req.HumanOpenings,
		PracticeMode:  req.PracticeMode,
		UseBook:       req.UseBook,
	}
	if err := h.proc.SetOptions(opts); err != nil {
		return sendError(c, err)
	}
	return c.JSON(OptionsResponse{Options: h.proc.Options()})
}

// GetHistory lists finished games, optionally only those with ?moves=
func (h *HTTPHandler) GetHistory(c *fiber.Ctx) error {
	var sequence string
	if text := c.Query("moves"); text != "" {
		moves, err := board.ParseMoveSequence(text)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "invalid move sequence",
				Code:    core.CodeInvalidMove,
				Details: err.Error(),
			})
		}
		sequence = board.FormatMoveSequence(moves)
	}

	records, err := h.svc.History(sequence)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(lo.Map(records, func(r storage.GameRecord, _ int) HistoryEntry {
		return HistoryEntry{
			GameID:     r.GameID,
			Moves:      r.Sequence,
			BlackDiscs: r.BlackDiscs,
			WhiteDiscs: r.WhiteDiscs,
			Winner:     r.Winner(),
			Opening:    r.Opening,
			Finished:   r.FinishedUTC,
		}
	}))
}

func invalidGameID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
		Error:   "invalid game ID format",
		Code:    core.CodeInvalidRequest,
		Details: "game ID must be a valid UUID",
	})
}
