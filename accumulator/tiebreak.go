package accumulator

import (
	"fmt"

	"github.com/hupe1980/holomem/entropy"
)

// TieBreak decides the bit for a dimension whose votes cancel exactly.
type TieBreak uint8

const (
	// TieZero resolves ties to 0. This is the default.
	TieZero TieBreak = iota
	// TieOne resolves ties to 1.
	TieOne
	// TieAlternate resolves ties to the parity of the dimension index
	// (odd dimensions get 1), which keeps the density near 0.5 while
	// staying deterministic.
	TieAlternate
	// TieRandom flips a coin per tied dimension. Builds are not reproducible.
	TieRandom
)

// String returns the policy name.
func (t TieBreak) String() string {
	switch t {
	case TieZero:
		return "zero"
	case TieOne:
		return "one"
	case TieAlternate:
		return "alternate"
	case TieRandom:
		return "random"
	default:
		return fmt.Sprintf("TieBreak(%d)", uint8(t))
	}
}

// ParseTieBreak parses a policy name as returned by String.
func ParseTieBreak(s string) (TieBreak, error) {
	switch s {
	case "", "zero":
		return TieZero, nil
	case "one":
		return TieOne, nil
	case "alternate":
		return TieAlternate, nil
	case "random":
		return TieRandom, nil
	default:
		return TieZero, fmt.Errorf("unknown tie-break policy %q", s)
	}
}

// Deterministic reports whether the policy yields reproducible builds.
func (t TieBreak) Deterministic() bool {
	return t != TieRandom
}

type resolver struct {
	policy TieBreak
	src    entropy.Source
	word   uint64
	left   int
}

func newResolver(policy TieBreak, src entropy.Source) *resolver {
	if policy == TieRandom && src == nil {
		src = entropy.Default()
	}
	return &resolver{policy: policy, src: src}
}

func (r *resolver) resolve(dim int) bool {
	switch r.policy {
	case TieOne:
		return true
	case TieAlternate:
		return dim&1 == 1
	case TieRandom:
		if r.left == 0 {
			r.word = r.src.Uint64()
			r.left = 64
		}
		bit := r.word&1 == 1
		r.word >>= 1
		r.left--
		return bit
	default:
		return false
	}
}
