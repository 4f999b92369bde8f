package searcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"selfplay/game"
)

func TestTreeExpand(t *testing.T) {
	t.Run("expansion initializes zeroed statistics", func(t *testing.T) {
		tr := newTree()
		state := newMockState(1, 0, []game.Action{1, 2})

		tr.expand(state)

		require.True(t, tr.contains(state))
		require.Equal(t, 1, tr.size())
		require.Zero(t, tr.visits[state.Hash()], "State visit count should start at zero")
		for _, action := range state.LegalActions() {
			stats, err := tr.stats(state.Hash(), action)
			require.NoError(t, err)
			require.Zero(t, stats.visits)
			require.Zero(t, stats.value)
		}
	})

	t.Run("expanding a member again does not reset statistics", func(t *testing.T) {
		tr := newTree()
		state := newMockState(1, 0, []game.Action{1})
		tr.expand(state)
		stats, err := tr.stats(state.Hash(), 1)
		require.NoError(t, err)
		stats.visits = 3
		stats.value = 0.5
		tr.visits[state.Hash()] = 3

		tr.expand(state)

		require.Equal(t, 3, tr.visits[state.Hash()], "Visit count should survive a repeat expand")
		require.Equal(t, 3, stats.visits)
		require.Equal(t, 0.5, stats.value)
	})
}

func TestTreeUndefinedStatistic(t *testing.T) {
	tr := newTree()
	state := newMockState(1, 0, []game.Action{1})
	tr.expand(state)

	t.Run("unknown state", func(t *testing.T) {
		_, err := tr.stats(game.StateHash(99), 1)
		require.ErrorIs(t, err, ErrUndefinedStatistic)
	})

	t.Run("unknown action at a known state", func(t *testing.T) {
		_, err := tr.stats(state.Hash(), 7)
		require.ErrorIs(t, err, ErrUndefinedStatistic)
	})
}
