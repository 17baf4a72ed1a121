package hypervector

import (
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/holomem/entropy"
)

// AddNoise flips exactly round(D*level) distinct, uniformly chosen bits.
// level is clamped to [0, 1]. Positions are drawn from src; a nil src uses
// entropy.Default.
func (v Vector) AddNoise(level float64, src entropy.Source) Vector {
	level = math.Max(0, math.Min(1, level))
	flips := int(math.Round(float64(v.dim) * level))

	out := v.Clone()
	if flips == 0 {
		return out
	}
	if src == nil {
		src = entropy.Default()
	}

	// Sample the smaller side: either the bits to flip or the bits to keep.
	invert := flips > v.dim/2
	target := flips
	if invert {
		target = v.dim - flips
	}

	r := entropy.NewRand(src)
	var chosen bitset.BitSet
	for picked := 0; picked < target; {
		i := uint(r.IntN(v.dim))
		if !chosen.Test(i) {
			chosen.Set(i)
			picked++
		}
	}

	for i := range v.dim {
		if chosen.Test(uint(i)) != invert {
			out.words[i>>6] ^= 1 << uint(i&63)
		}
	}
	return out
}
