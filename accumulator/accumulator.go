package accumulator

import (
	"fmt"
	"slices"

	"github.com/hupe1980/holomem/entropy"
	"github.com/hupe1980/holomem/hypervector"
)

// Accumulator is a signed-weight majority bundler.
//
// For every dimension it keeps the running sum of +weight for 1 bits and
// -weight for 0 bits. Build sets a bit when its sum is positive.
// Accumulator is not safe for concurrent use.
type Accumulator struct {
	dim      int
	votes    []int64
	count    int
	tieBreak TieBreak
	source   entropy.Source
}

var _ Bundler = (*Accumulator)(nil)

// New creates an empty accumulator for vectors of the given dimension.
func New(dim int, optFns ...Option) *Accumulator {
	if dim <= 0 {
		panic(&hypervector.ErrInvalidDimension{Dimension: dim})
	}
	o := applyOptions(optFns)
	return &Accumulator{
		dim:      dim,
		votes:    make([]int64, dim),
		tieBreak: o.tieBreak,
		source:   o.source,
	}
}

// Dimension returns the vector width this accumulator accepts.
func (a *Accumulator) Dimension() int { return a.dim }

// TieBreak returns the configured tie-break policy.
func (a *Accumulator) TieBreak() TieBreak { return a.tieBreak }

// Add folds v with the given weight. A zero weight still counts as an addition.
func (a *Accumulator) Add(v hypervector.Vector, weight int) {
	a.checkDim(v)
	w := int64(weight)
	forEachBit(v, func(i int, set bool) {
		if set {
			a.votes[i] += w
		} else {
			a.votes[i] -= w
		}
	})
	a.count++
}

// AddUnit folds v with weight 1.
func (a *Accumulator) AddUnit(v hypervector.Vector) {
	a.Add(v, 1)
}

// Build thresholds the votes: positive sums become 1, negative sums 0, and
// exact zeros follow the tie-break policy.
func (a *Accumulator) Build() hypervector.Vector {
	r := newResolver(a.tieBreak, a.source)
	return hypervector.FromFunc(a.dim, func(i int) bool {
		switch v := a.votes[i]; {
		case v > 0:
			return true
		case v < 0:
			return false
		default:
			return r.resolve(i)
		}
	})
}

// TotalWeight returns the sum of |votes| over all dimensions.
func (a *Accumulator) TotalWeight() int64 {
	var total int64
	for _, v := range a.votes {
		if v < 0 {
			total -= v
		} else {
			total += v
		}
	}
	return total
}

// Count returns the number of vectors folded in.
func (a *Accumulator) Count() int { return a.count }

// Reset clears all votes.
func (a *Accumulator) Reset() {
	clear(a.votes)
	a.count = 0
}

// Votes returns a copy of the per-dimension sums.
func (a *Accumulator) Votes() []int64 { return slices.Clone(a.votes) }

// Restore replaces the state with votes and count, as exported by Votes and Count.
func (a *Accumulator) Restore(votes []int64, count int) error {
	if len(votes) != a.dim {
		return &hypervector.ErrDimensionMismatch{Expected: a.dim, Actual: len(votes)}
	}
	if count < 0 {
		return fmt.Errorf("negative count %d", count)
	}
	copy(a.votes, votes)
	a.count = count
	return nil
}

// Merge adds the votes of other into a.
func (a *Accumulator) Merge(other *Accumulator) {
	if other.dim != a.dim {
		panic(&hypervector.ErrDimensionMismatch{Expected: a.dim, Actual: other.dim})
	}
	for i, v := range other.votes {
		a.votes[i] += v
	}
	a.count += other.count
}

func (a *Accumulator) checkDim(v hypervector.Vector) {
	if v.Dimension() != a.dim {
		panic(&hypervector.ErrDimensionMismatch{Expected: a.dim, Actual: v.Dimension()})
	}
}
