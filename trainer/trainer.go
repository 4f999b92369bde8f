package trainer

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"selfplay/game"
	"selfplay/policy"
	"selfplay/searcher"
)

type Config struct {
	Episodes      int     // Self-play games per run
	Simulations   int     // Search budget per decision
	Checkpoints   int     // Policies saved over the run, including the untrained one
	Epsilon       float64 // Chance of an exploratory actual move instead of the search argmax
	Exploration   float64 // UCT exploration constant for the search
	BatchEpochs   int     // Fit epochs over the replay buffer after each episode
	Seed          int64
	CheckpointDir string
}

// Trainer runs the self-play reinforcement loop: search produces visit
// distributions, the network imitates them, and the improved network drives
// the next searches' rollouts.
type Trainer struct {
	cfg     Config
	initial func() game.State
	network *policy.Network
	mcts    *searcher.MCTS
	rng     *rand.Rand
	buffer  *ReplayBuffer
	runID   string
}

func New(cfg Config, initial func() game.State, network *policy.Network) *Trainer {
	if cfg.Episodes < 1 {
		panic("must train for at least one episode")
	}
	if cfg.Checkpoints < 2 {
		panic("must save at least the untrained and the final policy")
	}
	options := []searcher.Option{}
	if cfg.Exploration > 0 {
		options = append(options, searcher.WithExploration(cfg.Exploration))
	}
	return &Trainer{
		cfg:     cfg,
		initial: initial,
		network: network,
		mcts:    searcher.New(network, options...),
		rng:     policy.NewRand(cfg.Seed),
		buffer:  NewReplayBuffer(),
		runID:   uuid.NewString(),
	}
}

// CheckpointPath names the idx-th saved policy inside dir.
func CheckpointPath(dir string, idx int) string {
	return filepath.Join(dir, fmt.Sprintf("policy-%d.json", idx))
}

// Run plays the configured number of self-play episodes, fitting the
// network on the replay buffer after every episode and saving evenly
// spaced checkpoints along the way. Checkpoint 0 is the untrained policy.
func (t *Trainer) Run() error {
	if err := os.MkdirAll(t.cfg.CheckpointDir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	saved := 0
	if err := t.saveCheckpoint(&saved); err != nil {
		return err
	}

	log.Info().
		Str("run", t.runID).
		Int("episodes", t.cfg.Episodes).
		Int("simulations", t.cfg.Simulations).
		Msg("training started")

	interval := t.cfg.Episodes / (t.cfg.Checkpoints - 1)
	if interval < 1 {
		interval = 1
	}

	records := [][]string{{"episode", "moves", "winner", "buffer"}}
	for episode := 0; episode < t.cfg.Episodes; episode++ {
		moves, winner, err := t.playEpisode()
		if err != nil {
			return fmt.Errorf("episode %d: %w", episode, err)
		}
		if err := t.network.Fit(t.buffer.Encodings(), t.buffer.Targets(), t.cfg.BatchEpochs); err != nil {
			return fmt.Errorf("episode %d: %w", episode, err)
		}

		log.Info().
			Int("episode", episode).
			Int("moves", moves).
			Int("winner", winner).
			Int("buffer", t.buffer.Len()).
			Msg("episode complete")
		records = append(records, []string{
			strconv.Itoa(episode),
			strconv.Itoa(moves),
			strconv.Itoa(winner),
			strconv.Itoa(t.buffer.Len()),
		})

		if (episode+1)%interval == 0 && saved < t.cfg.Checkpoints-1 {
			if err := t.saveCheckpoint(&saved); err != nil {
				return err
			}
		}
	}
	for saved < t.cfg.Checkpoints {
		if err := t.saveCheckpoint(&saved); err != nil {
			return err
		}
	}

	if err := t.writeEpisodeLog(records); err != nil {
		return err
	}
	log.Info().Str("run", t.runID).Int("checkpoints", saved).Msg("training finished")
	return nil
}

// playEpisode plays one self-play game from the initial state, collecting
// one training case per decision. The search tree is discarded up front and
// accumulates across the episode's moves.
func (t *Trainer) playEpisode() (int, int, error) {
	t.mcts.Reset()
	state := t.initial()
	moves := 0
	for !state.IsTerminal() {
		_, distribution, err := t.mcts.Search(state, t.cfg.Simulations)
		if err != nil {
			return 0, 0, err
		}
		t.buffer.Add(state.Encode(), distribution)

		action, err := t.chooseMove(state, distribution)
		if err != nil {
			return 0, 0, err
		}
		state, err = state.Child(action)
		if err != nil {
			return 0, 0, err
		}
		moves++
	}

	winner := 1
	if state.WinnerIsPlayerZero() {
		winner = 0
	}
	return moves, winner, nil
}

// chooseMove plays the most visited root action, or with probability
// Epsilon a uniform choice among the actions the search visited at all.
func (t *Trainer) chooseMove(state game.State, distribution searcher.Distribution) (game.Action, error) {
	legal := state.LegalActions()
	if t.rng.Float64() < t.cfg.Epsilon {
		visited := make([]game.Action, 0, len(legal))
		for _, action := range legal {
			if distribution[state.ActionIndex(action)] > 0 {
				visited = append(visited, action)
			}
		}
		if len(visited) > 0 {
			return visited[t.rng.Intn(len(visited))], nil
		}
		return legal[t.rng.Intn(len(legal))], nil
	}

	best := floats.MaxIdx(distribution)
	for _, action := range legal {
		if state.ActionIndex(action) == best {
			return action, nil
		}
	}
	return 0, fmt.Errorf("distribution argmax slot %d maps to no legal action", best)
}

func (t *Trainer) saveCheckpoint(saved *int) error {
	path := CheckpointPath(t.cfg.CheckpointDir, *saved)
	if err := t.network.Save(path); err != nil {
		return fmt.Errorf("checkpoint %d: %w", *saved, err)
	}
	log.Info().Str("path", path).Msg("checkpoint saved")
	*saved++
	return nil
}

// writeEpisodeLog dumps the per-episode summary rows next to the
// checkpoints.
func (t *Trainer) writeEpisodeLog(records [][]string) error {
	path := filepath.Join(t.cfg.CheckpointDir, "episodes.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create episode log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write episode log: %w", err)
	}
	return nil
}
