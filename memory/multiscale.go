package memory

import (
	"errors"
	"fmt"

	"github.com/hupe1980/holomem/accumulator"
	"github.com/hupe1980/holomem/entropy"
	"github.com/hupe1980/holomem/hypervector"
)

// Orders is the number of transition memories held by MultiScale.
const Orders = 3

// ErrEmptyContext is returned when a prediction is requested without context.
var ErrEmptyContext = errors.New("context must contain at least one element")

// MultiScaleState is the exported content of all orders, lowest order first.
type MultiScaleState struct {
	Orders [Orders]TransitionState
}

// Option configures a MultiScale memory.
type Option func(*options)

type options struct {
	order3   bool
	tieBreak accumulator.TieBreak
	source   entropy.Source
}

// WithOrder3 enables learning and querying the order-3 memory.
// When disabled (the default) the order-3 memory stays empty and inert.
func WithOrder3(enabled bool) Option {
	return func(o *options) { o.order3 = enabled }
}

// WithTieBreak sets the tie-break policy of every accumulator.
func WithTieBreak(t accumulator.TieBreak) Option {
	return func(o *options) { o.tieBreak = t }
}

// WithSource sets the entropy source used by accumulator.TieRandom.
func WithSource(src entropy.Source) Option {
	return func(o *options) { o.source = src }
}

// MultiScale mixes transition memories trained on 1, 2 and 3 steps of history.
//
//	order 1: key = P1(x[i])                   value = x[i+1]
//	order 2: key = P2(x[i-1]) ^ P1(x[i])      value = x[i+1]
//	order 3: key = P3(x[i-2]) ^ order-2 key   value = x[i+1]
//
// where Pn is Permute(n). Predictions are combined by a majority vote weighted
// by order.
type MultiScale struct {
	dim    int
	orders [Orders]*Transition
	opts   options
}

// NewMultiScale creates an empty multi-scale memory.
func NewMultiScale(dim int, optFns ...Option) *MultiScale {
	o := options{tieBreak: accumulator.TieZero}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	m := &MultiScale{dim: dim, opts: o}
	for i := range m.orders {
		m.orders[i] = NewTransition(dim, m.accumulatorOptions()...)
	}
	return m
}

func (m *MultiScale) accumulatorOptions() []accumulator.Option {
	return []accumulator.Option{
		accumulator.WithTieBreak(m.opts.tieBreak),
		accumulator.WithSource(m.opts.source),
	}
}

// Dimension returns the vector width.
func (m *MultiScale) Dimension() int { return m.dim }

// Order returns the transition memory of order n (1-based).
func (m *MultiScale) Order(n int) *Transition {
	if n < 1 || n > Orders {
		panic(fmt.Sprintf("memory: order %d out of range [1,%d]", n, Orders))
	}
	return m.orders[n-1]
}

// Order3Enabled reports whether the order-3 memory participates.
func (m *MultiScale) Order3Enabled() bool { return m.opts.order3 }

// LearnSequence learns every transition in seq. Sequences with fewer than two
// elements carry no transition and are ignored.
func (m *MultiScale) LearnSequence(seq []hypervector.Vector) {
	if len(seq) < 2 {
		return
	}
	for i := 0; i+1 < len(seq); i++ {
		next := seq[i+1]
		m.orders[0].Learn(orderOneKey(seq[i]), next, 1)
		if i >= 1 {
			m.orders[1].Learn(orderTwoKey(seq[i-1], seq[i]), next, 1)
		}
		if m.opts.order3 && i >= 2 {
			m.orders[2].Learn(orderThreeKey(seq[i-2], seq[i-1], seq[i]), next, 1)
		}
	}
}

// Predict returns the mixed prediction for the element following context.
//
// Order 1 is always queried on the last element. Order 2 joins when the
// context has at least two elements and the order-2 memory holds data, with
// twice the weight of order 1. Order 3 (if enabled) joins likewise with weight 3.
func (m *MultiScale) Predict(context []hypervector.Vector) (hypervector.Vector, error) {
	n := len(context)
	if n == 0 {
		return hypervector.Vector{}, ErrEmptyContext
	}

	first := m.orders[0].Predict(orderOneKey(context[n-1]))

	acc := accumulator.New(m.dim, m.accumulatorOptions()...)
	acc.Add(first, 1)
	contributions := 1

	if n >= 2 && m.orders[1].HasData() {
		acc.Add(m.orders[1].Predict(orderTwoKey(context[n-2], context[n-1])), 2)
		contributions++
	}
	if m.opts.order3 && n >= 3 && m.orders[2].HasData() {
		acc.Add(m.orders[2].Predict(orderThreeKey(context[n-3], context[n-2], context[n-1])), 3)
		contributions++
	}

	if contributions == 1 {
		return first, nil
	}
	return acc.Build(), nil
}

// HasData delegates to the order-1 memory.
func (m *MultiScale) HasData() bool { return m.orders[0].HasData() }

// Associations returns the number of order-1 transitions learned.
func (m *MultiScale) Associations() int { return m.orders[0].Traces() }

// State exports every order's accumulator.
func (m *MultiScale) State() MultiScaleState {
	var s MultiScaleState
	for i, t := range m.orders {
		s.Orders[i] = t.State()
	}
	return s
}

// Restore replaces every order's accumulator with s.
// On error the memory is left unchanged.
func (m *MultiScale) Restore(s MultiScaleState) error {
	for i, ts := range s.Orders {
		if len(ts.Votes) != m.dim {
			return fmt.Errorf("order %d: %w", i+1, &hypervector.ErrDimensionMismatch{Expected: m.dim, Actual: len(ts.Votes)})
		}
		if ts.Count < 0 {
			return fmt.Errorf("order %d: negative count %d", i+1, ts.Count)
		}
	}
	for i, ts := range s.Orders {
		if err := m.orders[i].Restore(ts); err != nil {
			return fmt.Errorf("order %d: %w", i+1, err)
		}
	}
	return nil
}

// Reset forgets everything.
func (m *MultiScale) Reset() {
	for _, t := range m.orders {
		t.Reset()
	}
}

func orderOneKey(cur hypervector.Vector) hypervector.Vector {
	return cur.Permute(1)
}

func orderTwoKey(prev, cur hypervector.Vector) hypervector.Vector {
	return prev.Permute(2).Bind(cur.Permute(1))
}

func orderThreeKey(prev2, prev, cur hypervector.Vector) hypervector.Vector {
	return prev2.Permute(3).Bind(orderTwoKey(prev, cur))
}
