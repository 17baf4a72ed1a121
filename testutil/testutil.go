package testutil

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/hupe1980/holomem/hypervector"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe and implements entropy.Source.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	r := &RNG{seed: seed}
	r.rand = rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	return r
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(uint64(r.seed), uint64(r.seed)>>1|1))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Vectors generates num random vectors of the given dimension.
func (r *RNG) Vectors(num, dim int) []hypervector.Vector {
	out := make([]hypervector.Vector, num)
	for i := range out {
		out[i] = hypervector.RandomDim(dim, r)
	}
	return out
}

// NoisyCopies returns num copies of v, each with round(D*level) bits flipped.
func (r *RNG) NoisyCopies(v hypervector.Vector, num int, level float64) []hypervector.Vector {
	out := make([]hypervector.Vector, num)
	for i := range out {
		out[i] = v.AddNoise(level, r)
	}
	return out
}

// Corpus returns num sentences of length tokens each. Every token is used
// exactly once, so each transition has a single correct continuation.
func (r *RNG) Corpus(num, length int) [][]string {
	words := Words(num * length)

	r.mu.Lock()
	r.rand.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	r.mu.Unlock()

	out := make([][]string, num)
	for i := range out {
		out[i] = words[i*length : (i+1)*length]
	}
	return out
}

// Words returns n distinct tokens "w0".."w{n-1}".
func Words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i)
	}
	return out
}

// MeanSimilarity returns the mean pairwise similarity of a[i] and b[i].
func MeanSimilarity(a, b []hypervector.Vector) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		sum += a[i].Similarity(b[i])
	}
	return sum / float64(n)
}

// Accuracy returns the fraction of positions where predicted matches expected.
func Accuracy(expected, predicted []string) float64 {
	if len(expected) == 0 || len(predicted) == 0 {
		if len(expected) == 0 && len(predicted) == 0 {
			return 1.0
		}
		return 0.0
	}

	var hits int
	for i := range min(len(expected), len(predicted)) {
		if expected[i] == predicted[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(expected))
}
