package accumulator

import (
	"slices"

	"github.com/hupe1980/holomem/entropy"
	"github.com/hupe1980/holomem/hypervector"
)

// Counter is an integer-count majority bundler.
//
// It records how much weight voted 1 for every dimension and the total
// weight added. A dimension is set when its ones outweigh its zeros, which
// matches Accumulator for non-negative weights.
type Counter struct {
	dim      int
	ones     []int64
	total    int64
	count    int
	tieBreak TieBreak
	source   entropy.Source
}

var _ Bundler = (*Counter)(nil)

// NewCounter creates an empty counter for vectors of the given dimension.
func NewCounter(dim int, optFns ...Option) *Counter {
	if dim <= 0 {
		panic(&hypervector.ErrInvalidDimension{Dimension: dim})
	}
	o := applyOptions(optFns)
	return &Counter{
		dim:      dim,
		ones:     make([]int64, dim),
		tieBreak: o.tieBreak,
		source:   o.source,
	}
}

// Add folds v with weight. Negative weights are treated as zero.
func (c *Counter) Add(v hypervector.Vector, weight int) {
	if v.Dimension() != c.dim {
		panic(&hypervector.ErrDimensionMismatch{Expected: c.dim, Actual: v.Dimension()})
	}
	w := int64(max(weight, 0))
	forEachBit(v, func(i int, set bool) {
		if set {
			c.ones[i] += w
		}
	})
	c.total += w
	c.count++
}

// Build sets each dimension whose ones weigh more than half the total.
func (c *Counter) Build() hypervector.Vector {
	r := newResolver(c.tieBreak, c.source)
	return hypervector.FromFunc(c.dim, func(i int) bool {
		switch twice := 2 * c.ones[i]; {
		case twice > c.total:
			return true
		case twice < c.total:
			return false
		default:
			return r.resolve(i)
		}
	})
}

// TotalWeight returns the sum of |ones - zeros| over all dimensions, the same
// measure Accumulator reports.
func (c *Counter) TotalWeight() int64 {
	var sum int64
	for _, n := range c.ones {
		d := 2*n - c.total
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

// Count returns the number of vectors folded in.
func (c *Counter) Count() int { return c.count }

// Reset clears all counts.
func (c *Counter) Reset() {
	clear(c.ones)
	c.total = 0
	c.count = 0
}

// Votes converts the counts to signed sums compatible with Accumulator.Restore.
func (c *Counter) Votes() []int64 {
	votes := slices.Clone(c.ones)
	for i, n := range votes {
		votes[i] = 2*n - c.total
	}
	return votes
}
