package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"selfplay/game"
	"selfplay/policy"
	"selfplay/searcher"
	"selfplay/tournament"
	"selfplay/trainer"
)

const hiddenUnits = 32

func main() {
	mode := flag.String("mode", "search", "search | train | topp | play")
	pieces := flag.Int("pieces", 10, "number of pieces on the board (N)")
	maxTake := flag.Int("maxtake", 2, "maximum pieces taken per move (K)")
	simulations := flag.Int("simulations", 500, "search simulations per decision")
	episodes := flag.Int("episodes", 100, "self-play training episodes")
	checkpoints := flag.Int("checkpoints", 5, "policies saved over a training run")
	series := flag.Int("series", 20, "games per tournament series")
	dir := flag.String("dir", "checkpoints", "checkpoint directory")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rules := game.NewNimRules(*pieces, *maxTake)

	var err error
	switch *mode {
	case "search":
		err = runSearch(rules, *simulations, *seed)
	case "train":
		err = runTraining(rules, *episodes, *simulations, *checkpoints, *dir, *seed)
	case "topp":
		err = runTournament(rules, *checkpoints, *series, *dir, *seed)
	case "play":
		err = runPlay(rules, *checkpoints, *dir, *seed)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

// runSearch performs a single search from the initial state with an
// untrained rollout policy and prints the recommendation.
func runSearch(rules game.NimRules, simulations int, seed int64) error {
	mcts := searcher.New(policy.NewRandom(seed), searcher.WithMetrics())
	action, distribution, err := mcts.Search(rules.InitialState(), simulations)
	if err != nil {
		return err
	}

	metrics := mcts.Metrics()
	log.Info().
		Dur("duration", metrics.Duration).
		Int64("expansions", metrics.Expansions).
		Int("treeSize", metrics.TreeSize).
		Msg("search complete")

	out := termenv.NewOutput(os.Stdout)
	fmt.Fprintln(out, out.String(fmt.Sprintf("%s: take %d", rules, action)).Bold())
	for i, w := range distribution {
		fmt.Fprintf(out, "  take %d  %.3f\n", i+1, w)
	}
	return nil
}

func runTraining(rules game.NimRules, episodes, simulations, checkpoints int, dir string, seed int64) error {
	network := policy.NewNetwork(rules.StateSize(), hiddenUnits, rules.MaxTake, seed)
	cfg := trainer.Config{
		Episodes:      episodes,
		Simulations:   simulations,
		Checkpoints:   checkpoints,
		Epsilon:       0.1,
		BatchEpochs:   10,
		Seed:          seed,
		CheckpointDir: dir,
	}
	t := trainer.New(cfg, func() game.State { return rules.InitialState() }, network)
	return t.Run()
}

func runTournament(rules game.NimRules, checkpoints, series int, dir string, seed int64) error {
	players := make([]tournament.Player, 0, checkpoints)
	for i := 0; i < checkpoints; i++ {
		network, err := policy.LoadNetwork(trainer.CheckpointPath(dir, i), seed+int64(i))
		if err != nil {
			return err
		}
		players = append(players, tournament.Player{
			Name:   fmt.Sprintf("policy-%d", i),
			Policy: network,
		})
	}

	t := tournament.New(players, series, func() game.State { return rules.InitialState() })
	results, err := t.Run()
	if err != nil {
		return err
	}
	tournament.Print(results)
	return nil
}

// runPlay pits the final checkpoint against the user on the terminal. The
// machine plays first as player 0.
func runPlay(rules game.NimRules, checkpoints int, dir string, seed int64) error {
	network, err := policy.LoadNetwork(trainer.CheckpointPath(dir, checkpoints-1), seed)
	if err != nil {
		return err
	}

	out := termenv.NewOutput(os.Stdout)
	reader := bufio.NewReader(os.Stdin)
	var state game.State = rules.InitialState()
	for !state.IsTerminal() {
		if state.PlayerToMove() == 0 {
			action, err := network.ProposeGreedy(state)
			if err != nil {
				return err
			}
			state, err = state.Child(action)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, out.String(fmt.Sprintf("machine takes %d -> %s", action, state)).Foreground(out.Color("4")))
			continue
		}

		fmt.Fprintf(out, "your move (1-%d): ", rules.MaxTake)
		text, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		take, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			fmt.Fprintln(out, "not a number")
			continue
		}
		child, err := state.Child(game.Action(take))
		if err != nil {
			fmt.Fprintln(out, "illegal move")
			continue
		}
		state = child
		fmt.Fprintf(out, "you take %d -> %s\n", take, state)
	}

	if state.WinnerIsPlayerZero() {
		fmt.Fprintln(out, out.String("machine wins").Bold().Foreground(out.Color("1")))
	} else {
		fmt.Fprintln(out, out.String("you win").Bold().Foreground(out.Color("2")))
	}
	return nil
}
