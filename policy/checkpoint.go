package policy

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// checkpoint is the serialized form of a Network.
type checkpoint struct {
	Inputs  int       `json:"inputs"`
	Hidden  int       `json:"hidden"`
	Outputs int       `json:"outputs"`
	Rate    float64   `json:"rate"`
	W1      []float64 `json:"w1"`
	B1      []float64 `json:"b1"`
	W2      []float64 `json:"w2"`
	B2      []float64 `json:"b2"`
}

// Save writes the network weights to path as JSON.
func (n *Network) Save(path string) error {
	cp := checkpoint{
		Inputs:  n.inputs,
		Hidden:  n.hidden,
		Outputs: n.outputs,
		Rate:    n.rate,
		W1:      append([]float64(nil), n.w1.RawMatrix().Data...),
		B1:      append([]float64(nil), n.b1.RawVector().Data...),
		W2:      append([]float64(nil), n.w2.RawMatrix().Data...),
		B2:      append([]float64(nil), n.b2.RawVector().Data...),
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// LoadNetwork restores a network from a checkpoint written by Save. The
// seed only affects future sampling and training order, not the restored
// weights.
func LoadNetwork(path string, seed int64) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint %s: %w", path, err)
	}
	if len(cp.W1) != cp.Hidden*cp.Inputs || len(cp.W2) != cp.Outputs*cp.Hidden ||
		len(cp.B1) != cp.Hidden || len(cp.B2) != cp.Outputs {
		return nil, fmt.Errorf("checkpoint %s has inconsistent weight shapes", path)
	}

	n := NewNetwork(cp.Inputs, cp.Hidden, cp.Outputs, seed)
	n.rate = cp.Rate
	n.w1 = mat.NewDense(cp.Hidden, cp.Inputs, cp.W1)
	n.b1 = mat.NewVecDense(cp.Hidden, cp.B1)
	n.w2 = mat.NewDense(cp.Outputs, cp.Hidden, cp.W2)
	n.b2 = mat.NewVecDense(cp.Outputs, cp.B2)
	return n, nil
}
