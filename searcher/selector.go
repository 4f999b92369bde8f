package searcher

import (
	"math"

	"selfplay/game"
)

// selectAction computes the tree policy at an expanded state: each legal
// action's running-mean value plus a UCT exploration bonus whose sign
// depends on the player to move. Player 0 maximizes the score, player 1
// minimizes it. Ties break to the first action in oracle enumeration order,
// keeping selection reproducible for identical statistics.
//
// With exploration 0 the bonus vanishes and selection is pure exploitation,
// which is how the final root recommendation is read.
func selectAction(t *tree, state game.State, exploration float64) (game.Action, error) {
	legal := state.LegalActions()
	hash := state.Hash()

	// A node can be selected before it has accumulated visits of its own.
	// Clamp the log argument to 1 so an unvisited node contributes a zero
	// exploration bonus instead of an undefined one.
	visits := t.visits[hash]
	if visits < 1 {
		visits = 1
	}
	logVisits := math.Log(float64(visits))

	maximize := state.PlayerToMove() == 0

	var chosen game.Action
	var bestScore float64
	for i, action := range legal {
		stats, err := t.stats(hash, action)
		if err != nil {
			return 0, err
		}
		bonus := exploration * math.Sqrt(logVisits/float64(stats.visits+1))
		score := stats.value + bonus
		if !maximize {
			score = stats.value - bonus
		}
		if i == 0 || (maximize && score > bestScore) || (!maximize && score < bestScore) {
			chosen = action
			bestScore = score
		}
	}
	return chosen, nil
}
