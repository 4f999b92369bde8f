package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"selfplay/game"
)

func TestRandomProposeAction(t *testing.T) {
	rules := game.NewNimRules(10, 3)

	t.Run("proposals are always legal", func(t *testing.T) {
		random := NewRandom(1)
		state := rules.StateAt(2, 0) // Take-3 is illegal here
		for i := 0; i < 50; i++ {
			action, err := random.ProposeAction(state, 0.1)
			require.NoError(t, err)
			require.Contains(t, state.LegalActions(), action)
		}
	})

	t.Run("terminal state fails", func(t *testing.T) {
		random := NewRandom(1)

		_, err := random.ProposeAction(rules.StateAt(0, 0), 0)

		require.Error(t, err)
	})

	t.Run("same seed reproduces the sequence", func(t *testing.T) {
		first := NewRandom(9)
		second := NewRandom(9)
		state := rules.InitialState()
		for i := 0; i < 30; i++ {
			a, err := first.ProposeAction(state, 0)
			require.NoError(t, err)
			b, err := second.ProposeAction(state, 0)
			require.NoError(t, err)
			require.Equal(t, a, b)
		}
	})
}
