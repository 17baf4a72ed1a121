package refine

import (
	"github.com/hupe1980/holomem/hypervector"
)

// Denoise applies steps rounds of the circular three-cell majority rule.
// Bit i becomes the majority of bits i-1, i and i+1 (indices modulo the
// dimension). The loop stops early at a fixed point. steps <= 0 returns a copy.
func Denoise(v hypervector.Vector, steps int) hypervector.Vector {
	if steps <= 0 || v.IsZero() {
		return v.Clone()
	}

	cur := v.Clone()
	var (
		mid, left, right []uint64
		next             = make([]uint64, hypervector.NumWords(v.Dimension()))
	)
	for range steps {
		mid = cur.AppendWords(mid[:0])
		// Permute(1) moves bit i-1 to position i; InversePermute(1) moves i+1 to i.
		left = cur.Permute(1).AppendWords(left[:0])
		right = cur.InversePermute(1).AppendWords(right[:0])

		for w := range next {
			l, c, r := left[w], mid[w], right[w]
			next[w] = (l & c) | (l & r) | (c & r)
		}

		out, err := hypervector.FromWords(cur.Dimension(), next)
		if err != nil {
			panic(err)
		}
		if out.Equal(cur) {
			break
		}
		cur = out
	}
	return cur
}
