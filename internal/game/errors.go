// internal/game/errors.go
package game

import "errors"

// Rejection errors: caller-correctable precondition failures. No state is
// changed when one of these is returned.
var (
	ErrWrongPhase     = errors.New("room is not in the right phase for that")
	ErrNotYourTurn    = errors.New("it is not your turn")
	ErrNotInRoom      = errors.New("player is not in this room")
	ErrBadIndices     = errors.New("invalid card selection")
	ErrNoClaim        = errors.New("there is no claim to challenge")
	ErrNotWireHolder  = errors.New("player is not the pending wire cutter")
	ErrBadWire        = errors.New("that wire color is not available")
	ErrNotEnoughSeats = errors.New("a match needs 3 to 5 players")
	ErrNeedHuman      = errors.New("at least one human player is required")
	ErrMatchRunning   = errors.New("the match has already started")
)

// ErrDeckExhausted is fatal: the locked composition cannot cover a full
// round's deal. Should be unreachable given the composition invariant.
var ErrDeckExhausted = errors.New("locked deck cannot cover a full round")
