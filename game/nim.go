package game

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// NimRules holds the static configuration of a subtraction game: the game
// starts with Pieces pieces on the board, each move removes between 1 and
// MaxTake of them, and the player who takes the last piece wins.
type NimRules struct {
	Pieces  int // N
	MaxTake int // K
}

func NewNimRules(pieces, maxTake int) NimRules {
	if pieces < 1 {
		panic("nim needs at least one piece")
	}
	if maxTake < 1 {
		panic("nim needs a positive max take")
	}
	return NimRules{Pieces: pieces, MaxTake: maxTake}
}

func (r NimRules) InitialState() NimState {
	return NimState{rules: r, remaining: r.Pieces}
}

// StateAt returns the state with the given number of remaining pieces and
// player to move. Handy for probing mid-game positions.
func (r NimRules) StateAt(remaining, player int) NimState {
	if remaining < 0 || remaining > r.Pieces {
		panic(fmt.Sprintf("remaining pieces %d out of range [0, %d]", remaining, r.Pieces))
	}
	if player != 0 && player != 1 {
		panic(fmt.Sprintf("player %d is not 0 or 1", player))
	}
	return NimState{rules: r, remaining: remaining, player: player}
}

// StateSize is the length of the encoded state vector: a one-hot slot per
// possible piece count plus the player bit.
func (r NimRules) StateSize() int {
	return r.Pieces + 2
}

func (r NimRules) String() string {
	return fmt.Sprintf("N = %d, K = %d", r.Pieces, r.MaxTake)
}

// NimState is an immutable nim position. Actions are the number of pieces
// to take, so the canonical action space is 1..MaxTake mapped to slots
// 0..MaxTake-1.
type NimState struct {
	rules     NimRules
	remaining int
	player    int
}

func (s NimState) LegalActions() []Action {
	limit := s.remaining
	if s.rules.MaxTake < limit {
		limit = s.rules.MaxTake
	}
	actions := make([]Action, 0, limit)
	for take := 1; take <= limit; take++ {
		actions = append(actions, Action(take))
	}
	return actions
}

func (s NimState) Child(action Action) (State, error) {
	take := int(action)
	if take < 1 || take > s.rules.MaxTake {
		return nil, fmt.Errorf("%w: take %d is outside 1..%d", ErrInvalidAction, take, s.rules.MaxTake)
	}
	if take > s.remaining {
		return nil, fmt.Errorf("%w: take %d exceeds %d remaining pieces", ErrInvalidAction, take, s.remaining)
	}
	return NimState{
		rules:     s.rules,
		remaining: s.remaining - take,
		player:    1 - s.player,
	}, nil
}

func (s NimState) IsTerminal() bool {
	return s.remaining == 0
}

func (s NimState) PlayerToMove() int {
	return s.player
}

// WinnerIsPlayerZero reports whether player 0 took the last piece. On a
// terminal state the player to move is the one who did not take it.
func (s NimState) WinnerIsPlayerZero() bool {
	return s.IsTerminal() && s.player != 0
}

func (s NimState) Hash() StateHash {
	hasher := fnv.New64a()
	binary.Write(hasher, binary.LittleEndian, int64(s.remaining))
	binary.Write(hasher, binary.LittleEndian, int64(s.player))
	return StateHash(hasher.Sum64())
}

func (s NimState) ActionSpaceSize() int {
	return s.rules.MaxTake
}

func (s NimState) ActionIndex(action Action) int {
	return int(action) - 1
}

// Encode one-hot encodes the remaining piece count and appends the player
// bit.
func (s NimState) Encode() []float64 {
	encoded := make([]float64, s.rules.StateSize())
	encoded[s.remaining] = 1
	encoded[len(encoded)-1] = float64(s.player)
	return encoded
}

func (s NimState) Remaining() int {
	return s.remaining
}

func (s NimState) String() string {
	return fmt.Sprintf("%d pieces, player %d to move", s.remaining, s.player)
}
