package accumulator

import (
	"github.com/hupe1980/holomem/entropy"
	"github.com/hupe1980/holomem/hypervector"
)

// Bundler is the common contract of the majority-vote strategies.
type Bundler interface {
	// Add folds v into the bundle with the given weight.
	Add(v hypervector.Vector, weight int)
	// Build thresholds the votes into a vector. The bundler stays usable.
	Build() hypervector.Vector
	// TotalWeight returns the sum of absolute per-dimension votes.
	TotalWeight() int64
	// Count returns the number of Add calls since the last Reset.
	Count() int
	// Reset clears all votes.
	Reset()
}

// Option configures a bundler.
type Option func(*options)

type options struct {
	tieBreak TieBreak
	source   entropy.Source
}

// WithTieBreak sets the tie-break policy.
func WithTieBreak(t TieBreak) Option {
	return func(o *options) { o.tieBreak = t }
}

// WithSource sets the entropy source used by TieRandom.
func WithSource(src entropy.Source) Option {
	return func(o *options) { o.source = src }
}

func applyOptions(optFns []Option) options {
	o := options{tieBreak: TieZero}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// forEachBit calls fn for every dimension of v with the bit value.
func forEachBit(v hypervector.Vector, fn func(i int, set bool)) {
	dim := v.Dimension()
	for w, word := range v.Words() {
		base := w << 6
		for b := 0; b < 64 && base+b < dim; b++ {
			fn(base+b, word&(1<<uint(b)) != 0)
		}
	}
}
