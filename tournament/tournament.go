package tournament

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"

	"selfplay/game"
	"selfplay/policy"
)

// Player is a named tournament entrant.
type Player struct {
	Name   string
	Policy policy.DefaultPolicy
}

// Result is one entrant's final standing.
type Result struct {
	Name string
	Wins int
}

// Tournament plays a round robin between saved policies: every pair meets
// in one series, and colors alternate every game within a series so neither
// entrant keeps the first-move advantage.
type Tournament struct {
	players []Player
	games   int // Games per series
	initial func() game.State
}

func New(players []Player, gamesPerSeries int, initial func() game.State) *Tournament {
	if len(players) < 2 {
		panic("need at least two players")
	}
	if gamesPerSeries < 1 {
		panic("need at least one game per series")
	}
	return &Tournament{
		players: players,
		games:   gamesPerSeries,
		initial: initial,
	}
}

// Run plays the full round robin and returns the standings, best first.
func (t *Tournament) Run() ([]Result, error) {
	wins := make([]int, len(t.players))
	for i := 0; i < len(t.players)-1; i++ {
		for j := i + 1; j < len(t.players); j++ {
			if err := t.playSeries(i, j, wins); err != nil {
				return nil, err
			}
			log.Info().
				Str("playerA", t.players[i].Name).
				Str("playerB", t.players[j].Name).
				Msg("series complete")
		}
	}

	results := make([]Result, len(t.players))
	for i, p := range t.players {
		results[i] = Result{Name: p.Name, Wins: wins[i]}
	}
	slices.SortStableFunc(results, func(a, b Result) int {
		return b.Wins - a.Wins
	})
	return results, nil
}

func (t *Tournament) playSeries(a, b int, wins []int) error {
	colors := [2]int{a, b}
	for g := 0; g < t.games; g++ {
		winner, err := t.playGame(colors[0], colors[1])
		if err != nil {
			return fmt.Errorf("series %s vs %s game %d: %w",
				t.players[a].Name, t.players[b].Name, g, err)
		}
		wins[winner]++
		colors[0], colors[1] = colors[1], colors[0]
	}
	return nil
}

// playGame returns the index of the winning entrant. Moves are sampled from
// each policy's own distribution, never uniformly.
func (t *Tournament) playGame(zero, one int) (int, error) {
	state := t.initial()
	for !state.IsTerminal() {
		entrant := zero
		if state.PlayerToMove() == 1 {
			entrant = one
		}
		action, err := t.players[entrant].Policy.ProposeAction(state, 0)
		if err != nil {
			return 0, err
		}
		state, err = state.Child(action)
		if err != nil {
			return 0, err
		}
	}
	if state.WinnerIsPlayerZero() {
		return zero, nil
	}
	return one, nil
}

// Print renders the standings to stdout with the leader highlighted.
func Print(results []Result) {
	out := termenv.NewOutput(os.Stdout)
	for i, r := range results {
		line := out.String(fmt.Sprintf("%-16s %4d wins", r.Name, r.Wins))
		if i == 0 {
			line = line.Bold().Foreground(out.Color("2"))
		}
		fmt.Fprintln(out, line)
	}
}
