package searcher

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"selfplay/game"
	"selfplay/policy"
)

// Hyperparameter defaults for the search.
const (
	DefaultExploration = 1.0 // UCT exploration constant during descent
	DefaultEpsilon     = 0.1 // Chance of a random move during rollout
)

// Outcomes backed up the tree, from player 0's perspective.
const (
	Win  = 1.0
	Loss = 0.0
)

// ErrDegenerateDistribution reports an attempt to normalize a visit
// distribution whose counts sum to zero: the root is terminal or received
// no simulations.
var ErrDegenerateDistribution = errors.New("degenerate visit distribution")

type Option func(m *MCTS)

func WithExploration(c float64) Option {
	return func(m *MCTS) {
		m.exploration = c
	}
}

func WithEpsilon(epsilon float64) Option {
	return func(m *MCTS) {
		if epsilon >= 0 && epsilon <= 1 {
			m.epsilon = epsilon
		}
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = NewMetricsCollector()
	}
}

// MCTS incrementally builds a partial game tree and estimates action values
// by repeated simulation. Execution is strictly sequential: each simulation
// runs to completion before the next begins, so the statistics need no
// locking.
type MCTS struct {
	policy      policy.DefaultPolicy
	exploration float64
	epsilon     float64
	tree        *tree
	metrics     MetricsCollector
	lastMetrics SearchMetrics
}

func New(defaultPolicy policy.DefaultPolicy, options ...Option) *MCTS {
	m := &MCTS{ // Default values
		policy:      defaultPolicy,
		exploration: DefaultExploration,
		epsilon:     DefaultEpsilon,
		tree:        newTree(),
		metrics:     NewNoMetricsCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.policy == nil {
		panic("must provide a default policy")
	}
	return m
}

// Reset discards the tree and all statistics. Call it between episodes;
// within one episode the tree persists and accumulates across searches.
func (m *MCTS) Reset() {
	m.tree = newTree()
}

// TreeSize is the number of expanded states.
func (m *MCTS) TreeSize() int {
	return m.tree.size()
}

// Metrics returns the metrics of the most recent Search. Zero unless the
// searcher was built WithMetrics.
func (m *MCTS) Metrics() SearchMetrics {
	return m.lastMetrics
}

// Distribution is a probability vector over the canonical action space.
// Slots of illegal actions hold zero weight.
type Distribution []float64

func (d Distribution) Sum() float64 {
	sum := 0.0
	for _, w := range d {
		sum += w
	}
	return sum
}

// Search runs the given number of simulations from root, then returns the
// best root action under pure exploitation and the normalized visit
// distribution over the canonical action space. A terminal root or a zero
// simulation budget fails with ErrDegenerateDistribution; oracle and
// statistics errors abort the search unrecovered.
func (m *MCTS) Search(root game.State, simulations int) (game.Action, Distribution, error) {
	m.metrics.Start()
	for i := 0; i < simulations; i++ {
		if err := m.simulate(root); err != nil {
			return 0, nil, fmt.Errorf("simulation %d: %w", i, err)
		}
		m.metrics.AddSimulation()
	}

	distribution, err := m.visitDistribution(root)
	if err != nil {
		return 0, nil, err
	}
	action, err := selectAction(m.tree, root, 0)
	if err != nil {
		return 0, nil, err
	}

	m.lastMetrics = m.metrics.Complete(m.tree.size())
	log.Debug().
		Int("simulations", simulations).
		Int("treeSize", m.tree.size()).
		Int("action", int(action)).
		Msg("search complete")
	return action, distribution, nil
}

// simulate runs one descend, expand, rollout, backup pass from root.
func (m *MCTS) simulate(root game.State) error {
	visited, performed, leaf, err := m.descend(root)
	if err != nil {
		return err
	}
	outcome, bridging, err := m.rollout(leaf)
	if err != nil {
		return err
	}
	if bridging != nil {
		performed = append(performed, *bridging)
	}
	return m.backup(visited, performed, outcome)
}

// descend walks the tree from root until it reaches a terminal state or a
// state outside the tree. A state outside the tree is expanded and becomes
// the rollout start; it is kept on the visited path so backup can credit it
// with the bridging action. Terminal states never join the path.
func (m *MCTS) descend(root game.State) ([]game.StateHash, []game.Action, game.State, error) {
	var visited []game.StateHash
	var performed []game.Action
	state := root
	for !state.IsTerminal() {
		visited = append(visited, state.Hash())
		if !m.tree.contains(state) {
			m.tree.expand(state)
			m.metrics.AddExpansion()
			return visited, performed, state, nil
		}
		action, err := selectAction(m.tree, state, m.exploration)
		if err != nil {
			return nil, nil, nil, err
		}
		performed = append(performed, action)
		child, err := state.Child(action)
		if err != nil {
			return nil, nil, nil, err
		}
		state = child
	}
	return visited, performed, state, nil
}

// backup folds the outcome into the statistics along the visited path. Each
// visited state pairs in order with the action taken from it; the last pair
// is the expanded leaf with its bridging action. Action values track the
// incremental arithmetic mean of observed outcomes.
func (m *MCTS) backup(visited []game.StateHash, performed []game.Action, outcome float64) error {
	pairs := len(visited)
	if len(performed) < pairs {
		pairs = len(performed)
	}
	for i := 0; i < pairs; i++ {
		stats, err := m.tree.stats(visited[i], performed[i])
		if err != nil {
			return err
		}
		m.tree.visits[visited[i]]++
		stats.visits++
		stats.value += (outcome - stats.value) / float64(stats.visits)
	}
	return nil
}

// visitDistribution maps each legal root action's share of the root visit
// counts onto its canonical slot.
func (m *MCTS) visitDistribution(root game.State) (Distribution, error) {
	if !m.tree.contains(root) {
		return nil, fmt.Errorf("%w: root was never expanded", ErrDegenerateDistribution)
	}

	hash := root.Hash()
	legal := root.LegalActions()
	counts := make([]int, len(legal))
	total := 0
	for i, action := range legal {
		stats, err := m.tree.stats(hash, action)
		if err != nil {
			return nil, err
		}
		counts[i] = stats.visits
		total += stats.visits
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: root visit counts sum to zero", ErrDegenerateDistribution)
	}

	distribution := make(Distribution, root.ActionSpaceSize())
	for i, action := range legal {
		distribution[root.ActionIndex(action)] = float64(counts[i]) / float64(total)
	}
	return distribution, nil
}
