package policy

import (
	"fmt"
	"math/rand"

	"github.com/seehuhn/mt19937"

	"selfplay/game"
)

// DefaultPolicy proposes rollout actions beyond the tree frontier. With
// probability epsilon the proposal is a uniformly random legal action
// instead of the policy's own choice.
type DefaultPolicy interface {
	ProposeAction(state game.State, epsilon float64) (game.Action, error)
}

// NewRand returns a seeded Mersenne Twister generator, so every stochastic
// component reproduces exactly given its seed.
func NewRand(seed int64) *rand.Rand {
	source := mt19937.New()
	source.Seed(seed)
	return rand.New(source)
}

// Random proposes uniformly random legal actions. It is the untrained
// baseline policy; epsilon changes nothing for it.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: NewRand(seed)}
}

func (p *Random) ProposeAction(state game.State, epsilon float64) (game.Action, error) {
	legal := state.LegalActions()
	if len(legal) == 0 {
		return 0, fmt.Errorf("no legal actions in state %d", state.Hash())
	}
	return legal[p.rng.Intn(len(legal))], nil
}
