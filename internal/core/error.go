package core

import (
	"context"
	"errors"
	"fmt"
)

// Error codes reported by the transports
const (
	CodeGameNotFound      = "GAME_NOT_FOUND"
	CodeStaleGame         = "STALE_GAME"
	CodeInvalidMove       = "INVALID_MOVE"
	CodeNotAwaitingInput  = "NOT_AWAITING_INPUT"
	CodeEngineUnavailable = "ENGINE_UNAVAILABLE"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeInvalidConfig     = "INVALID_CONFIG"
	CodeTimeout           = "TIMEOUT"
	CodeInternalError     = "INTERNAL_ERROR"
)

// Protocol errors: a command arrived in a state that does not permit it
var (
	ErrProtocol          = errors.New("protocol error")
	ErrNotAwaitingInput  = fmt.Errorf("%w: engine is not waiting for input", ErrProtocol)
	ErrMailboxFull       = fmt.Errorf("%w: a command is already pending", ErrProtocol)
	ErrStaleGame         = fmt.Errorf("%w: game is no longer active", ErrProtocol)
	ErrIllegalMove       = fmt.Errorf("%w: move is not legal", ErrProtocol)
	ErrReentrantCallback = fmt.Errorf("%w: re-entrant engine callback", ErrProtocol)
	ErrNoGame            = fmt.Errorf("%w: no game has been started", ErrProtocol)
)

var (
	// ErrShutdown is returned by waits interrupted by processor teardown
	ErrShutdown = errors.New("engine is shutting down")
	// ErrUnavailable wraps a failed engine start
	ErrUnavailable = errors.New("engine unavailable")
)

// ConfigError rejects an invalid seat or player parameter
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// DecodeError wraps a malformed engine callback payload
type DecodeError struct {
	Tag string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s payload: %v", e.Tag, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ProvisionError reports a data file that could not be materialized
type ProvisionError struct {
	File string
	Err  error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision %s: %v", e.File, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// Code maps an error to the transport error code
func Code(err error) string {
	var cfgErr *ConfigError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return CodeInvalidConfig
	case errors.Is(err, ErrStaleGame):
		return CodeStaleGame
	case errors.Is(err, ErrNoGame):
		return CodeGameNotFound
	case errors.Is(err, ErrIllegalMove):
		return CodeInvalidMove
	case errors.Is(err, ErrNotAwaitingInput), errors.Is(err, ErrMailboxFull):
		return CodeNotAwaitingInput
	case errors.Is(err, ErrShutdown), errors.Is(err, ErrUnavailable):
		return CodeEngineUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, ErrProtocol):
		return CodeInvalidRequest
	default:
		return CodeInternalError
	}
}
