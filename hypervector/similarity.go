package hypervector

import (
	"math"
	"math/bits"
)

// HammingDistance counts the bit positions where v and other differ.
func (v Vector) HammingDistance(other Vector) int {
	mustMatch(v, other)
	dist := 0
	for i, w := range v.words {
		dist += bits.OnesCount64(w ^ other.words[i])
	}
	return dist
}

// Similarity returns 1 - HammingDistance/D.
// 1.0 means identical, about 0.5 statistically independent, 0.0 the exact complement.
func (v Vector) Similarity(other Vector) float64 {
	return 1 - float64(v.HammingDistance(other))/float64(v.dim)
}

// CosineSimilarity returns |v AND other| / sqrt(|v| * |other|), treating the
// vectors as sets of set bits. It returns 0 when either vector is empty.
func (v Vector) CosineSimilarity(other Vector) float64 {
	mustMatch(v, other)
	overlap := 0
	for i, w := range v.words {
		overlap += bits.OnesCount64(w & other.words[i])
	}
	a, b := v.Cardinality(), other.Cardinality()
	if a == 0 || b == 0 {
		return 0
	}
	return float64(overlap) / math.Sqrt(float64(a)*float64(b))
}

func trailingZeros(w uint64) int {
	return bits.TrailingZeros64(w)
}
