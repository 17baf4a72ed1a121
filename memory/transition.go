package memory

import (
	"github.com/hupe1980/holomem/accumulator"
	"github.com/hupe1980/holomem/hypervector"
)

// TransitionState is the exported accumulator content of a Transition.
type TransitionState struct {
	Votes []int64
	Count int
}

// Transition is a single-order associative key->value memory.
// It is not safe for concurrent use.
type Transition struct {
	acc      *accumulator.Accumulator
	hologram *hypervector.Vector
	stale    bool
}

// NewTransition creates an empty memory for vectors of the given dimension.
func NewTransition(dim int, optFns ...accumulator.Option) *Transition {
	return &Transition{acc: accumulator.New(dim, optFns...)}
}

// Dimension returns the vector width.
func (t *Transition) Dimension() int { return t.acc.Dimension() }

// Learn stores the association key->value with the given weight.
func (t *Transition) Learn(key, value hypervector.Vector, weight int) {
	t.acc.Add(key.Bind(value), weight)
	t.stale = true
}

// Predict returns an approximation of the value associated with key.
// The result is blurred by every other association in the hologram.
func (t *Transition) Predict(key hypervector.Vector) hypervector.Vector {
	return t.Hologram().Bind(key)
}

// Hologram returns the bundled traces, rebuilding them if a Learn happened
// since the last build.
func (t *Transition) Hologram() hypervector.Vector {
	if t.hologram == nil || t.stale {
		h := t.acc.Build()
		t.hologram = &h
		t.stale = false
	}
	return *t.hologram
}

// HasData reports whether at least one association has been learned.
func (t *Transition) HasData() bool { return t.acc.Count() > 0 }

// Traces returns the number of learned associations.
func (t *Transition) Traces() int { return t.acc.Count() }

// TotalWeight returns the information measure of the accumulator.
func (t *Transition) TotalWeight() int64 { return t.acc.TotalWeight() }

// State exports the accumulator votes verbatim.
func (t *Transition) State() TransitionState {
	return TransitionState{Votes: t.acc.Votes(), Count: t.acc.Count()}
}

// Restore replaces the accumulator with s. The hologram is rebuilt lazily.
func (t *Transition) Restore(s TransitionState) error {
	if err := t.acc.Restore(s.Votes, s.Count); err != nil {
		return err
	}
	t.stale = true
	return nil
}

// Reset forgets all associations.
func (t *Transition) Reset() {
	t.acc.Reset()
	t.hologram = nil
	t.stale = false
}
