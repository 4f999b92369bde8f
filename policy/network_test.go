package policy

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"selfplay/game"
)

func newTestNetwork(t *testing.T, rules game.NimRules, seed int64) *Network {
	t.Helper()
	return NewNetwork(rules.StateSize(), 8, rules.MaxTake, seed)
}

func TestNetworkDistribution(t *testing.T) {
	rules := game.NewNimRules(5, 2)
	network := newTestNetwork(t, rules, 1)

	distribution := network.Distribution(rules.InitialState())

	require.Len(t, distribution, rules.MaxTake)
	sum := 0.0
	for _, w := range distribution {
		require.Greater(t, w, 0.0, "Softmax output should be strictly positive")
		sum += w
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}

func TestNetworkProposeAction(t *testing.T) {
	rules := game.NewNimRules(5, 2)

	t.Run("proposals are always legal", func(t *testing.T) {
		network := newTestNetwork(t, rules, 2)
		for _, epsilon := range []float64{0, 0.5, 1} {
			state := rules.StateAt(1, 0) // Only take-1 is legal
			for i := 0; i < 20; i++ {
				action, err := network.ProposeAction(state, epsilon)
				require.NoError(t, err)
				require.Equal(t, game.Action(1), action)
			}
		}
	})

	t.Run("terminal state fails", func(t *testing.T) {
		network := newTestNetwork(t, rules, 2)

		_, err := network.ProposeAction(rules.StateAt(0, 1), 0)

		require.Error(t, err)
	})

	t.Run("same seed reproduces the proposal sequence", func(t *testing.T) {
		first := newTestNetwork(t, rules, 3)
		second := newTestNetwork(t, rules, 3)
		state := rules.InitialState()
		for i := 0; i < 25; i++ {
			a, err := first.ProposeAction(state, 0.3)
			require.NoError(t, err)
			b, err := second.ProposeAction(state, 0.3)
			require.NoError(t, err)
			require.Equal(t, a, b)
		}
	})
}

func TestNetworkFit(t *testing.T) {
	rules := game.NewNimRules(5, 2)
	network := newTestNetwork(t, rules, 4)
	state := rules.InitialState()

	// Imitate a search that always prefers taking two pieces.
	target := []float64{0, 1}
	encodings := [][]float64{state.Encode()}
	targets := [][]float64{target}
	err := network.Fit(encodings, targets, 300)

	require.NoError(t, err)
	action, err := network.ProposeGreedy(state)
	require.NoError(t, err)
	require.Equal(t, game.Action(2), action, "Training should shift the greedy choice to the target")
	require.Greater(t, network.Distribution(state)[1], 0.9,
		"Repeated fitting on one case should drive its probability up")
}

func TestNetworkFitShapeMismatch(t *testing.T) {
	rules := game.NewNimRules(5, 2)
	network := newTestNetwork(t, rules, 4)

	t.Run("case count mismatch", func(t *testing.T) {
		err := network.Fit([][]float64{{1}}, nil, 1)
		require.Error(t, err)
	})

	t.Run("encoding length mismatch", func(t *testing.T) {
		err := network.Fit([][]float64{{1, 2}}, [][]float64{{0.5, 0.5}}, 1)
		require.Error(t, err)
	})
}

func TestNetworkSaveLoad(t *testing.T) {
	rules := game.NewNimRules(5, 2)
	network := newTestNetwork(t, rules, 5)
	state := rules.InitialState()
	path := filepath.Join(t.TempDir(), "policy.json")

	require.NoError(t, network.Save(path))
	restored, err := LoadNetwork(path, 6)
	require.NoError(t, err)

	require.InDeltaSlice(t, network.Distribution(state), restored.Distribution(state), 1e-12,
		"Restored weights should produce the same output")
}

func TestLoadNetworkMissingFile(t *testing.T) {
	_, err := LoadNetwork(filepath.Join(t.TempDir(), "absent.json"), 1)
	require.Error(t, err)
}
