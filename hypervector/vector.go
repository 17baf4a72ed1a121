package hypervector

import (
	"fmt"
	"math/bits"
	"slices"
	"strings"

	"github.com/hupe1980/holomem/entropy"
)

// DefaultDimension is the reference hypervector width.
const DefaultDimension = 10000

// Vector is an immutable-by-convention D-bit binary hypervector.
//
// The zero Vector has dimension 0 and is only useful as a "not set" marker.
type Vector struct {
	dim   int
	words []uint64
}

// NumWords returns the number of uint64 words needed to hold dim bits.
func NumWords(dim int) int {
	return (dim + 63) / 64
}

// Zero returns the all-zero vector of the given dimension.
func Zero(dim int) Vector {
	mustPositive(dim)
	return Vector{dim: dim, words: make([]uint64, NumWords(dim))}
}

// Seeded deterministically generates a DefaultDimension vector from seed.
func Seeded(seed int64) Vector {
	return SeededDim(DefaultDimension, seed)
}

// SeededDim deterministically generates a vector of the given dimension.
// Every bit is drawn from a SplitMix64 generator seeded with seed, so the same
// seed always yields the identical vector.
func SeededDim(dim int, seed int64) Vector {
	return fill(dim, entropy.NewSplitMix64(seed))
}

// Random generates a DefaultDimension vector from src.
// A nil src uses entropy.Default. The result is not reproducible unless src is.
func Random(src entropy.Source) Vector {
	return RandomDim(DefaultDimension, src)
}

// RandomDim generates a vector of the given dimension from src.
func RandomDim(dim int, src entropy.Source) Vector {
	if src == nil {
		src = entropy.Default()
	}
	return fill(dim, src)
}

func fill(dim int, src entropy.Source) Vector {
	v := Zero(dim)
	for i := range v.words {
		v.words[i] = src.Uint64()
	}
	v.clearPadding()
	return v
}

// FromWords builds a vector from packed words.
// len(words) must equal NumWords(dim). Padding bits are cleared.
func FromWords(dim int, words []uint64) (Vector, error) {
	if dim <= 0 {
		return Vector{}, &ErrInvalidDimension{Dimension: dim}
	}
	if len(words) != NumWords(dim) {
		return Vector{}, fmt.Errorf("%w: dimension %d needs %d words, got %d", ErrInvalidWords, dim, NumWords(dim), len(words))
	}
	v := Vector{dim: dim, words: slices.Clone(words)}
	v.clearPadding()
	return v, nil
}

// FromFunc builds a vector whose bit i is set when bit(i) returns true.
func FromFunc(dim int, bit func(i int) bool) Vector {
	v := Zero(dim)
	for i := range dim {
		if bit(i) {
			v.words[i>>6] |= 1 << uint(i&63)
		}
	}
	return v
}

func (v *Vector) clearPadding() {
	if r := v.dim & 63; r != 0 {
		v.words[len(v.words)-1] &= (1 << uint(r)) - 1
	}
}

// Dimension returns D.
func (v Vector) Dimension() int { return v.dim }

// IsZero reports whether v is the unset zero Vector (dimension 0).
func (v Vector) IsZero() bool { return v.dim == 0 }

// Words returns a copy of the packed words.
func (v Vector) Words() []uint64 { return slices.Clone(v.words) }

// AppendWords appends the packed words to dst.
func (v Vector) AppendWords(dst []uint64) []uint64 { return append(dst, v.words...) }

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	return Vector{dim: v.dim, words: slices.Clone(v.words)}
}

// Bit reports whether bit i is set.
func (v Vector) Bit(i int) bool {
	if i < 0 || i >= v.dim {
		panic(fmt.Sprintf("hypervector: bit index %d out of range [0,%d)", i, v.dim))
	}
	return v.words[i>>6]&(1<<uint(i&63)) != 0
}

// Equal reports whether v and other have the same dimension and bit pattern.
func (v Vector) Equal(other Vector) bool {
	return v.dim == other.dim && slices.Equal(v.words, other.words)
}

// Cardinality returns the number of set bits.
func (v Vector) Cardinality() int {
	n := 0
	for _, w := range v.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Density returns the fraction of set bits.
func (v Vector) Density() float64 {
	if v.dim == 0 {
		return 0
	}
	return float64(v.Cardinality()) / float64(v.dim)
}

// Fingerprint returns bits 0..63 as a compact identity token for display.
func (v Vector) Fingerprint() uint64 {
	if len(v.words) == 0 {
		return 0
	}
	return v.words[0]
}

func (v Vector) String() string {
	return fmt.Sprintf("HV[%d/%d bits set, fp=%X]", v.Cardinality(), v.dim, v.Fingerprint())
}

// Visualize renders the first n bits as block glyphs, 50 per line.
func (v Vector) Visualize(n int) string {
	n = min(n, v.dim)
	var sb strings.Builder
	for i := range n {
		if v.Bit(i) {
			sb.WriteString("█")
		} else {
			sb.WriteString("░")
		}
		if (i+1)%50 == 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
