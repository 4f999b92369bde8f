package searcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"selfplay/game"
	"selfplay/policy"
)

// mockState is a hand-built game graph node for driving the searcher
// through known positions.
type mockState struct {
	id       int
	player   int
	winner0  bool
	actions  []game.Action
	children map[game.Action]*mockState
}

func newMockState(id, player int, actions []game.Action) *mockState {
	return &mockState{
		id:       id,
		player:   player,
		actions:  actions,
		children: map[game.Action]*mockState{},
	}
}

// link attaches a child reached by action and returns the receiver for
// chaining.
func (m *mockState) link(action game.Action, child *mockState) *mockState {
	m.children[action] = child
	return m
}

func (m *mockState) LegalActions() []game.Action { return m.actions }

func (m *mockState) Child(action game.Action) (game.State, error) {
	child, ok := m.children[action]
	if !ok {
		return nil, fmt.Errorf("%w: no child for action %d", game.ErrInvalidAction, action)
	}
	return child, nil
}

func (m *mockState) IsTerminal() bool              { return len(m.actions) == 0 }
func (m *mockState) PlayerToMove() int             { return m.player }
func (m *mockState) WinnerIsPlayerZero() bool      { return m.winner0 }
func (m *mockState) Hash() game.StateHash          { return game.StateHash(m.id) }
func (m *mockState) ActionSpaceSize() int          { return 4 }
func (m *mockState) ActionIndex(a game.Action) int { return int(a) - 1 }
func (m *mockState) Encode() []float64             { return []float64{float64(m.id)} }

// firstActionPolicy always proposes the first legal action.
type firstActionPolicy struct{}

func (firstActionPolicy) ProposeAction(state game.State, epsilon float64) (game.Action, error) {
	legal := state.LegalActions()
	if len(legal) == 0 {
		return 0, fmt.Errorf("no legal actions in state %d", state.Hash())
	}
	return legal[0], nil
}

// fixedActionPolicy proposes the same action no matter the state.
type fixedActionPolicy struct {
	action game.Action
}

func (p fixedActionPolicy) ProposeAction(state game.State, epsilon float64) (game.Action, error) {
	return p.action, nil
}

func TestSearchSingleSimulation(t *testing.T) {
	// One decision: the root's only move ends the game with a player 0 win.
	terminal := newMockState(2, 1, nil)
	terminal.winner0 = true
	root := newMockState(1, 0, []game.Action{1}).link(1, terminal)
	m := New(firstActionPolicy{})

	action, distribution, err := m.Search(root, 1)

	require.NoError(t, err)
	require.Equal(t, game.Action(1), action)
	require.Equal(t, Distribution{1, 0, 0, 0}, distribution,
		"The single visited action should carry all the weight")

	stats, err := m.tree.stats(root.Hash(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, m.tree.visits[root.Hash()], "Root should have exactly one visit")
	require.Equal(t, 1, stats.visits, "The bridging pair should be credited once")
	require.Equal(t, Win, stats.value, "A single observation is its own mean")
}

func TestSearchVisitCountInvariant(t *testing.T) {
	rules := game.NewNimRules(10, 2)
	m := New(policy.NewRandom(7))

	_, _, err := m.Search(rules.InitialState(), 200)

	require.NoError(t, err)
	require.NotZero(t, m.TreeSize())
	for hash := range m.tree.members {
		total := 0
		for e, stats := range m.tree.actions {
			if e.state == hash {
				total += stats.visits
			}
		}
		require.Equal(t, m.tree.visits[hash], total,
			"State visits should equal the sum of its action visits")
	}
}

func TestSearchValueDomain(t *testing.T) {
	rules := game.NewNimRules(10, 2)
	m := New(policy.NewRandom(11))

	_, _, err := m.Search(rules.InitialState(), 300)

	require.NoError(t, err)
	for e, stats := range m.tree.actions {
		require.GreaterOrEqual(t, stats.value, Loss,
			"Action value for edge %v fell below the outcome range", e)
		require.LessOrEqual(t, stats.value, Win,
			"Action value for edge %v exceeded the outcome range", e)
	}
}

func TestSearchDistribution(t *testing.T) {
	t.Run("distribution is normalized", func(t *testing.T) {
		rules := game.NewNimRules(10, 2)
		m := New(policy.NewRandom(3))

		_, distribution, err := m.Search(rules.InitialState(), 100)

		require.NoError(t, err)
		require.Len(t, distribution, 2)
		require.InDelta(t, 1.0, distribution.Sum(), 1e-9)
	})

	t.Run("illegal actions carry zero weight", func(t *testing.T) {
		rules := game.NewNimRules(10, 2)
		m := New(policy.NewRandom(3))

		// One piece left: only take-1 is legal, take-2's slot must stay 0.
		_, distribution, err := m.Search(rules.StateAt(1, 0), 50)

		require.NoError(t, err)
		require.Equal(t, Distribution{1, 0}, distribution)
	})
}

func TestSearchDeterminism(t *testing.T) {
	rules := game.NewNimRules(10, 2)

	first := New(policy.NewRandom(42))
	actionA, distributionA, err := first.Search(rules.InitialState(), 150)
	require.NoError(t, err)

	second := New(policy.NewRandom(42))
	actionB, distributionB, err := second.Search(rules.InitialState(), 150)
	require.NoError(t, err)

	require.Equal(t, actionA, actionB, "Same seed and budget should reproduce the action")
	require.Equal(t, distributionA, distributionB, "Same seed and budget should reproduce the distribution")
}

func TestSearchDegenerateDistribution(t *testing.T) {
	rules := game.NewNimRules(10, 2)

	t.Run("terminal root", func(t *testing.T) {
		m := New(policy.NewRandom(1))

		_, _, err := m.Search(rules.StateAt(0, 1), 10)

		require.ErrorIs(t, err, ErrDegenerateDistribution)
	})

	t.Run("zero simulation budget", func(t *testing.T) {
		m := New(policy.NewRandom(1))

		_, _, err := m.Search(rules.InitialState(), 0)

		require.ErrorIs(t, err, ErrDegenerateDistribution)
	})
}

func TestSearchTreePersistsAndResets(t *testing.T) {
	rules := game.NewNimRules(10, 2)
	m := New(policy.NewRandom(5))

	_, _, err := m.Search(rules.InitialState(), 30)
	require.NoError(t, err)
	after := m.TreeSize()

	// A later decision in the same episode reuses and grows the tree.
	_, _, err = m.Search(rules.StateAt(8, 0), 30)
	require.NoError(t, err)
	require.GreaterOrEqual(t, m.TreeSize(), after, "Membership should never shrink within an episode")

	m.Reset()
	require.Zero(t, m.TreeSize(), "Reset should discard all statistics")
}

func TestSearchConvergesOnNim(t *testing.T) {
	// With N=10 and K=2 the closed-form optimal move leaves the opponent a
	// multiple of three pieces.
	rules := game.NewNimRules(10, 2)
	cases := []struct {
		name      string
		remaining int
		player    int
		want      game.Action
	}{
		{"take one from ten", 10, 0, 1},
		{"take two from eight", 8, 0, 2},
		{"take two from five", 5, 0, 2},
		{"take one from four", 4, 0, 1},
		{"minimizing player also plays optimally", 10, 1, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := New(policy.NewRandom(99))

			action, _, err := m.Search(rules.StateAt(c.remaining, c.player), 500)

			require.NoError(t, err)
			require.Equal(t, c.want, action)
		})
	}
}

func TestSearchInvalidActionAborts(t *testing.T) {
	rules := game.NewNimRules(10, 2)
	m := New(fixedActionPolicy{action: 99})
	root := rules.InitialState()

	_, _, err := m.Search(root, 5)

	require.ErrorIs(t, err, game.ErrInvalidAction)

	// The root was expanded before the rollout failed, but no statistics
	// were backed up.
	require.Zero(t, m.tree.visits[root.Hash()])
	for _, action := range root.LegalActions() {
		stats, err := m.tree.stats(root.Hash(), action)
		require.NoError(t, err)
		require.Zero(t, stats.visits)
		require.Zero(t, stats.value)
	}
}

func TestSearchMetrics(t *testing.T) {
	rules := game.NewNimRules(10, 2)
	m := New(policy.NewRandom(13), WithMetrics())

	_, _, err := m.Search(rules.InitialState(), 40)

	require.NoError(t, err)
	metrics := m.Metrics()
	require.Equal(t, int64(40), metrics.Simulations)
	require.NotZero(t, metrics.Expansions)
	require.Equal(t, m.TreeSize(), metrics.TreeSize)
}
