package refine

import (
	"errors"

	"github.com/hupe1980/holomem/accumulator"
	"github.com/hupe1980/holomem/hypervector"
)

// ErrEmptySequence is returned by Attend for an empty sequence.
var ErrEmptySequence = errors.New("refine: empty sequence")

// Attend returns the position-aware summary of seq. Element i of an
// n-element sequence is permuted by n-1-i, so the most recent element keeps
// its identity. A single element is returned unchanged.
func Attend(seq []hypervector.Vector) (hypervector.Vector, error) {
	n := len(seq)
	switch n {
	case 0:
		return hypervector.Vector{}, ErrEmptySequence
	case 1:
		return seq[0].Clone(), nil
	}

	if err := hypervector.CheckDimensions(seq...); err != nil {
		return hypervector.Vector{}, err
	}

	acc := accumulator.New(seq[0].Dimension())
	for i, v := range seq {
		acc.AddUnit(v.Permute(n - 1 - i))
	}
	return acc.Build(), nil
}

// Refine folds the attended context back into a prediction:
// InversePermute(prediction XOR attended, 1).
func Refine(prediction, attended hypervector.Vector) hypervector.Vector {
	return prediction.Bind(attended).InversePermute(1)
}
