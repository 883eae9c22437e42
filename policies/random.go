package policies

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Random samples one of a fixed set of action rows uniformly for every
// agent row in a flat batch.
type Random struct {
	moves   [][]float64
	weights []float64
	rng     rand.Source
}

// NewRandom builds the policy over the unit moves of a 2D grid plus the
// no-op.
func NewRandom(seed uint64) *Random {
	moves := [][]float64{
		{1, 0},
		{-1, 0},
		{0, 1},
		{0, -1},
		{0, 0},
	}
	weights := make([]float64, len(moves))
	for i := range weights {
		weights[i] = 1
	}
	return &Random{
		moves:   moves,
		weights: weights,
		rng:     rand.NewSource(seed),
	}
}

// ActionBatch fills one sampled action row per agent.
func (r *Random) ActionBatch(rows int) *mat.Dense {
	batch := mat.NewDense(rows, len(r.moves[0]), nil)
	for i := 0; i < rows; i++ {
		j, ok := sampleuv.NewWeighted(r.weights, r.rng).Take()
		if !ok {
			j = 0
		}
		batch.SetRow(i, r.moves[j])
	}
	return batch
}
