package hypervector

// Bind associates v with other by bitwise XOR.
//
// Bind is associative, commutative and self-inverse: a.Bind(a) is the zero
// vector and a.Bind(b).Bind(a) equals b.
func (v Vector) Bind(other Vector) Vector {
	mustMatch(v, other)
	out := Vector{dim: v.dim, words: make([]uint64, len(v.words))}
	for i, w := range v.words {
		out.words[i] = w ^ other.words[i]
	}
	return out
}

// Unbind recovers the partner of key from a bound vector. It is Bind.
func (v Vector) Unbind(key Vector) Vector {
	return v.Bind(key)
}

// Bundle is the cheap pairwise blend (XOR). Use BundleAll or an accumulator for
// a proper majority superposition.
func (v Vector) Bundle(other Vector) Vector {
	return v.Bind(other)
}

// BundleAll returns the per-dimension majority of vs. A dimension is set when
// strictly more than half of the inputs set it, so exact ties resolve to 0.
//
// An empty input yields the DefaultDimension zero vector; a single input yields
// a copy.
func BundleAll(vs ...Vector) Vector {
	switch len(vs) {
	case 0:
		return Zero(DefaultDimension)
	case 1:
		return vs[0].Clone()
	}

	dim := vs[0].dim
	counts := make([]int32, dim)
	for _, v := range vs {
		mustMatch(vs[0], v)
		for w, word := range v.words {
			base := w << 6
			for word != 0 {
				counts[base+trailingZeros(word)]++
				word &= word - 1
			}
		}
	}

	n := int32(len(vs))
	return FromFunc(dim, func(i int) bool { return 2*counts[i] > n })
}

// Permute cyclically rotates v by n positions toward higher indices. n is
// normalized to [0, D), so negative values rotate the other way.
func (v Vector) Permute(n int) Vector {
	n %= v.dim
	if n < 0 {
		n += v.dim
	}
	if n == 0 {
		return v.Clone()
	}

	up := make([]uint64, len(v.words))
	shiftUp(up, v.words, n)
	down := make([]uint64, len(v.words))
	shiftDown(down, v.words, v.dim-n)

	out := Vector{dim: v.dim, words: up}
	out.clearPadding()
	for i := range out.words {
		out.words[i] |= down[i]
	}
	return out
}

// PermuteOnce rotates v by a single position.
func (v Vector) PermuteOnce() Vector {
	return v.Permute(1)
}

// InversePermute undoes Permute(n).
func (v Vector) InversePermute(n int) Vector {
	return v.Permute(-n)
}

// shiftUp moves bits of src n positions toward higher indices into dst.
// Bits shifted past the last word are dropped.
func shiftUp(dst, src []uint64, n int) {
	ws, bs := n>>6, uint(n&63)
	for i := len(dst) - 1; i >= 0; i-- {
		j := i - ws
		var w uint64
		if j >= 0 {
			w = src[j] << bs
			if bs != 0 && j > 0 {
				w |= src[j-1] >> (64 - bs)
			}
		}
		dst[i] = w
	}
}

// shiftDown moves bits of src n positions toward lower indices into dst.
func shiftDown(dst, src []uint64, n int) {
	ws, bs := n>>6, uint(n&63)
	for i := range dst {
		j := i + ws
		var w uint64
		if j < len(src) {
			w = src[j] >> bs
			if bs != 0 && j+1 < len(src) {
				w |= src[j+1] << (64 - bs)
			}
		}
		dst[i] = w
	}
}
