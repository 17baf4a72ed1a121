package snapshot

import (
	"fmt"

	"github.com/hupe1980/holomem/hypervector"
)

// State is the complete learned state of an engine.
type State struct {
	Dimension  int           `json:"dimension"`
	Seed       int64         `json:"seed"`
	Prototypes []Prototype   `json:"prototypes"`
	Memories   []MemoryState `json:"memories"`
}

// Prototype is one cleanup memory entry.
type Prototype struct {
	Symbol string   `json:"symbol"`
	Words  []uint64 `json:"words"`
}

// MemoryState is the raw accumulator of one transition memory.
type MemoryState struct {
	Count int     `json:"count"`
	Votes []int64 `json:"votes"`
}

// Validate checks the internal consistency of s.
func (s *State) Validate() error {
	if s.Dimension <= 0 {
		return &hypervector.ErrInvalidDimension{Dimension: s.Dimension}
	}
	words := hypervector.NumWords(s.Dimension)
	for i, p := range s.Prototypes {
		if len(p.Words) != words {
			return fmt.Errorf("%w: prototype %d (%q) has %d words, want %d", ErrCorrupt, i, p.Symbol, len(p.Words), words)
		}
	}
	for i, m := range s.Memories {
		if len(m.Votes) != s.Dimension {
			return fmt.Errorf("%w: memory %d: %w", ErrCorrupt, i,
				&hypervector.ErrDimensionMismatch{Expected: s.Dimension, Actual: len(m.Votes)})
		}
		if m.Count < 0 {
			return fmt.Errorf("%w: memory %d has negative count %d", ErrCorrupt, i, m.Count)
		}
	}
	return nil
}
