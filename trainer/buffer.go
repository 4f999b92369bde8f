package trainer

// ReplayBuffer accumulates training cases from self-play: the encoded state
// paired with the normalized visit distribution the search produced there.
type ReplayBuffer struct {
	encodings [][]float64
	targets   [][]float64
}

func NewReplayBuffer() *ReplayBuffer {
	return &ReplayBuffer{}
}

func (b *ReplayBuffer) Add(encoding, target []float64) {
	b.encodings = append(b.encodings, encoding)
	b.targets = append(b.targets, target)
}

func (b *ReplayBuffer) Len() int {
	return len(b.encodings)
}

func (b *ReplayBuffer) Encodings() [][]float64 {
	return b.encodings
}

func (b *ReplayBuffer) Targets() [][]float64 {
	return b.targets
}
