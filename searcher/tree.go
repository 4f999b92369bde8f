package searcher

import (
	"errors"
	"fmt"

	"selfplay/game"
)

// ErrUndefinedStatistic reports a lookup of a (state, action) statistic that
// was never initialized. It signals a selector/tree-store inconsistency, not
// a recoverable condition.
var ErrUndefinedStatistic = errors.New("undefined statistic")

// edge keys the per-(state, action) statistics.
type edge struct {
	state  game.StateHash
	action game.Action
}

// actionStats is the record mutated by backup: how often the edge was
// chosen during selection, and the running mean of outcomes observed after
// choosing it.
type actionStats struct {
	visits int
	value  float64
}

// tree holds membership and statistics for every expanded state. The tree
// structure itself is implicit: there are no node objects, only
// fingerprint-keyed statistics.
type tree struct {
	members map[game.StateHash]struct{}
	visits  map[game.StateHash]int
	actions map[edge]*actionStats
}

func newTree() *tree {
	return &tree{
		members: make(map[game.StateHash]struct{}),
		visits:  make(map[game.StateHash]int),
		actions: make(map[edge]*actionStats),
	}
}

// contains reports whether state has been expanded into the tree.
func (t *tree) contains(state game.State) bool {
	_, ok := t.members[state.Hash()]
	return ok
}

// expand adds state to the tree and zero-initializes its statistics and
// those of its legal actions. A state is expanded at most once per episode;
// expanding a member again is a no-op.
func (t *tree) expand(state game.State) {
	hash := state.Hash()
	if _, ok := t.members[hash]; ok {
		return
	}
	t.members[hash] = struct{}{}
	t.visits[hash] = 0
	for _, action := range state.LegalActions() {
		t.actions[edge{state: hash, action: action}] = &actionStats{}
	}
}

func (t *tree) size() int {
	return len(t.members)
}

// stats returns the record for an initialized (state, action) edge.
func (t *tree) stats(hash game.StateHash, action game.Action) (*actionStats, error) {
	stats, ok := t.actions[edge{state: hash, action: action}]
	if !ok {
		return nil, fmt.Errorf("%w: no record for state %d action %d", ErrUndefinedStatistic, hash, action)
	}
	return stats, nil
}
