package policy

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/seehuhn/mt19937"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"

	"selfplay/game"
)

// DefaultLearningRate is the SGD step size for Fit.
const DefaultLearningRate = 0.05

// Network is a one-hidden-layer softmax policy over the canonical action
// space. It learns to imitate the visit distributions produced by search.
type Network struct {
	inputs  int
	hidden  int
	outputs int
	w1      *mat.Dense // hidden x inputs
	b1      *mat.VecDense
	w2      *mat.Dense // outputs x hidden
	b2      *mat.VecDense
	rate    float64
	rng     *rand.Rand
	source  *mt19937.MT19937
}

// NewNetwork builds a network mapping an encoded state of length inputs to
// a distribution over outputs canonical action slots.
func NewNetwork(inputs, hidden, outputs int, seed int64) *Network {
	source := mt19937.New()
	source.Seed(seed)
	rng := rand.New(source)

	n := &Network{
		inputs:  inputs,
		hidden:  hidden,
		outputs: outputs,
		w1:      mat.NewDense(hidden, inputs, nil),
		b1:      mat.NewVecDense(hidden, nil),
		w2:      mat.NewDense(outputs, hidden, nil),
		b2:      mat.NewVecDense(outputs, nil),
		rate:    DefaultLearningRate,
		rng:     rng,
		source:  source,
	}
	n.initWeights()
	return n
}

// initWeights draws small uniform weights scaled by the fan-in.
func (n *Network) initWeights() {
	scale1 := 1 / math.Sqrt(float64(n.inputs))
	for i := 0; i < n.hidden; i++ {
		for j := 0; j < n.inputs; j++ {
			n.w1.Set(i, j, (n.rng.Float64()*2-1)*scale1)
		}
	}
	scale2 := 1 / math.Sqrt(float64(n.hidden))
	for i := 0; i < n.outputs; i++ {
		for j := 0; j < n.hidden; j++ {
			n.w2.Set(i, j, (n.rng.Float64()*2-1)*scale2)
		}
	}
}

// ProposeAction samples a legal action from the network's masked output
// distribution, or a uniformly random legal action with probability
// epsilon.
func (n *Network) ProposeAction(state game.State, epsilon float64) (game.Action, error) {
	legal := state.LegalActions()
	if len(legal) == 0 {
		return 0, fmt.Errorf("no legal actions in state %d", state.Hash())
	}
	if epsilon > 0 && n.rng.Float64() < epsilon {
		return legal[n.rng.Intn(len(legal))], nil
	}

	weights := n.legalDistribution(state, legal)
	sampler := sampleuv.NewWeighted(weights, n.source)
	i, ok := sampler.Take()
	if !ok {
		return 0, fmt.Errorf("cannot sample policy output for state %d", state.Hash())
	}
	return legal[i], nil
}

// ProposeGreedy returns the legal action the network weighs highest.
func (n *Network) ProposeGreedy(state game.State) (game.Action, error) {
	legal := state.LegalActions()
	if len(legal) == 0 {
		return 0, fmt.Errorf("no legal actions in state %d", state.Hash())
	}
	weights := n.legalDistribution(state, legal)
	return legal[floats.MaxIdx(weights)], nil
}

// Distribution runs the forward pass and returns the softmax output over
// the full canonical action space, before any legality masking.
func (n *Network) Distribution(state game.State) []float64 {
	_, out := n.forward(state.Encode())
	return out
}

// legalDistribution masks the canonical output down to the legal actions
// and renormalizes. Falls back to uniform when the network puts no mass on
// any legal action.
func (n *Network) legalDistribution(state game.State, legal []game.Action) []float64 {
	out := n.Distribution(state)
	weights := make([]float64, len(legal))
	for i, action := range legal {
		weights[i] = out[state.ActionIndex(action)]
	}
	sum := floats.Sum(weights)
	if sum == 0 {
		for i := range weights {
			weights[i] = 1
		}
		sum = float64(len(weights))
	}
	floats.Scale(1/sum, weights)
	return weights
}

// forward returns the hidden activations and the softmax output.
func (n *Network) forward(encoded []float64) ([]float64, []float64) {
	in := mat.NewVecDense(n.inputs, encoded)

	hidden := mat.NewVecDense(n.hidden, nil)
	hidden.MulVec(n.w1, in)
	hidden.AddVec(hidden, n.b1)
	for i := 0; i < n.hidden; i++ {
		hidden.SetVec(i, math.Tanh(hidden.AtVec(i)))
	}

	logits := mat.NewVecDense(n.outputs, nil)
	logits.MulVec(n.w2, hidden)
	logits.AddVec(logits, n.b2)

	return hidden.RawVector().Data, softmax(logits.RawVector().Data)
}

func softmax(logits []float64) []float64 {
	max := floats.Max(logits)
	out := make([]float64, len(logits))
	for i, l := range logits {
		out[i] = math.Exp(l - max)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

// Fit trains the network with per-sample SGD on cross-entropy against the
// target distributions, epochs passes in shuffled order.
func (n *Network) Fit(encodings [][]float64, targets [][]float64, epochs int) error {
	if len(encodings) != len(targets) {
		return fmt.Errorf("got %d encodings but %d targets", len(encodings), len(targets))
	}
	for epoch := 0; epoch < epochs; epoch++ {
		for _, i := range n.rng.Perm(len(encodings)) {
			if len(encodings[i]) != n.inputs {
				return fmt.Errorf("encoding length %d does not match %d inputs", len(encodings[i]), n.inputs)
			}
			if len(targets[i]) != n.outputs {
				return fmt.Errorf("target length %d does not match %d outputs", len(targets[i]), n.outputs)
			}
			n.step(encodings[i], targets[i])
		}
	}
	return nil
}

// step applies one SGD update. Softmax with cross-entropy gives the plain
// output-minus-target gradient at the logits.
func (n *Network) step(encoded, target []float64) {
	hidden, out := n.forward(encoded)

	gradOut := mat.NewVecDense(n.outputs, nil)
	for i := range out {
		gradOut.SetVec(i, out[i]-target[i])
	}

	gradHidden := mat.NewVecDense(n.hidden, nil)
	gradHidden.MulVec(n.w2.T(), gradOut)
	for i := 0; i < n.hidden; i++ {
		gradHidden.SetVec(i, gradHidden.AtVec(i)*(1-hidden[i]*hidden[i]))
	}

	hiddenVec := mat.NewVecDense(n.hidden, hidden)
	inVec := mat.NewVecDense(n.inputs, encoded)
	n.w2.RankOne(n.w2, -n.rate, gradOut, hiddenVec)
	n.b2.AddScaledVec(n.b2, -n.rate, gradOut)
	n.w1.RankOne(n.w1, -n.rate, gradHidden, inVec)
	n.b1.AddScaledVec(n.b1, -n.rate, gradHidden)
}
