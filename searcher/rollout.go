package searcher

import (
	"fmt"

	"selfplay/game"
)

// rollout plays from a freshly expanded leaf to a terminal state using the
// default policy and returns the outcome together with the bridging action:
// the first move taken after leaving the tree frontier, credited to the
// leaf during backup. A terminal leaf yields no bridging action and its
// outcome is read directly.
func (m *MCTS) rollout(state game.State) (float64, *game.Action, error) {
	var bridging *game.Action
	if !state.IsTerminal() {
		action, err := m.policy.ProposeAction(state, m.epsilon)
		if err != nil {
			return 0, nil, fmt.Errorf("rollout: %w", err)
		}
		state, err = state.Child(action)
		if err != nil {
			return 0, nil, fmt.Errorf("rollout: %w", err)
		}
		bridging = &action
		m.metrics.AddRolloutMove()
	}
	for !state.IsTerminal() {
		action, err := m.policy.ProposeAction(state, m.epsilon)
		if err != nil {
			return 0, nil, fmt.Errorf("rollout: %w", err)
		}
		state, err = state.Child(action)
		if err != nil {
			return 0, nil, fmt.Errorf("rollout: %w", err)
		}
		m.metrics.AddRolloutMove()
	}
	return outcome(state), bridging, nil
}

// outcome maps a terminal state to the scalar backed up the tree: Win when
// player 0 won, Loss otherwise.
func outcome(state game.State) float64 {
	if state.WinnerIsPlayerZero() {
		return Win
	}
	return Loss
}
