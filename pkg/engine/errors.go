package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidColour is returned when an operation needs a playing colour and gets none.
	ErrInvalidColour = errors.New("invalid colour")
	// ErrNoSuchLocation is returned for track numbers or move fields out of range.
	ErrNoSuchLocation = errors.New("no such location")
	// ErrInvalidDie is returned for die values outside 1..6.
	ErrInvalidDie = errors.New("invalid die value")
	// ErrIllegalMove is returned when a single move breaks the occupancy rules.
	ErrIllegalMove = errors.New("illegal move")
	// ErrIllegalTurn is returned when a turn is rejected. The board is left unchanged.
	ErrIllegalTurn = errors.New("illegal turn")
	// ErrTurnFull is returned when a fifth move is added to a turn.
	ErrTurnFull = errors.New("turn already holds the maximum number of moves")
	// ErrInvariant marks a logic fault inside the engine, never a caller mistake.
	ErrInvariant = errors.New("engine invariant violated")
)

// InvariantError reports a logic fault: a move known to be legal that failed
// to apply, or a board that left its valid state.
type InvariantError struct {
	Op  string
	Err error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInvariant, e.Op, e.Err)
}

func (e *InvariantError) Unwrap() []error {
	return []error{ErrInvariant, e.Err}
}

func illegalTurn(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalTurn, fmt.Sprintf(format, args...))
}
