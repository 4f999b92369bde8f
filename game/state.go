package game

import "errors"

// StateHash is a canonical fingerprint of a game state. The searcher treats
// two states with the same hash as the same node.
type StateHash uint64

// Action is a scalar move identifier. Its meaning is relative to the state
// it is played from; legality is state-dependent.
type Action int

// ErrInvalidAction is returned by Child when an action is outside the legal
// range for the state it is played from.
var ErrInvalidAction = errors.New("invalid action")

// State is the oracle contract consumed by the searcher. Implementations
// must behave as immutable values: Child returns a fresh state and never
// mutates the receiver.
type State interface {
	// LegalActions enumerates the legal actions in a fixed, deterministic
	// order. Empty only on terminal states.
	LegalActions() []Action

	// Child returns the state reached by playing action, or ErrInvalidAction
	// if the action is outside the legal range.
	Child(action Action) (State, error)

	IsTerminal() bool

	// PlayerToMove is 0 or 1. Player 0 is the maximizing player.
	PlayerToMove() int

	// WinnerIsPlayerZero reports whether player 0 won the game. Defined only
	// on terminal states.
	WinnerIsPlayerZero() bool

	Hash() StateHash

	// ActionSpaceSize is the length of the canonical action space.
	// ActionIndex maps an action onto its canonical slot, so visit
	// distributions produced from different states align slot by slot.
	ActionSpaceSize() int
	ActionIndex(action Action) int

	// Encode returns the feature vector consumed by a learned policy.
	Encode() []float64
}
