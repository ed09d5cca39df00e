package coordinator

import "errors"

var (
	ErrNotJoined         = errors.New("not in a room")
	ErrNotHost           = errors.New("only the host can do that")
	ErrWrongPhase        = errors.New("action not allowed in the current phase")
	ErrNoActiveTurn      = errors.New("no active turn")
	ErrNotEnoughPlayers  = errors.New("not enough players to start")
	ErrTimerOutOfRange   = errors.New("timer duration out of range")
	ErrNoResults         = errors.New("no results to reveal")
	ErrMissingJoinFields = errors.New("room code and name are required")
)

// startFailedMessage is shown when the server refuses to start a game.
const startFailedMessage = "Failed to start game."
