package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/holomem/hypervector"
)

type vocab map[string]hypervector.Vector

func newVocab(words ...string) vocab {
	v := make(vocab, len(words))
	for i, w := range words {
		v[w] = hypervector.Seeded(int64(7919 * (i + 1)))
	}
	return v
}

func (v vocab) seq(words ...string) []hypervector.Vector {
	out := make([]hypervector.Vector, len(words))
	for i, w := range words {
		out[i] = v[w]
	}
	return out
}

func TestMultiScale_ToySequences(t *testing.T) {
	v := newVocab("the", "cat", "sat", "dog", "ran")
	m := NewMultiScale(hypervector.DefaultDimension)
	assert.False(t, m.HasData())

	m.LearnSequence(v.seq("the", "cat", "sat"))
	m.LearnSequence(v.seq("the", "dog", "ran"))
	assert.True(t, m.HasData())
	assert.Equal(t, 4, m.Associations())
	assert.Equal(t, 2, m.Order(2).Traces())
	assert.False(t, m.Order(3).HasData())

	p, err := m.Predict(v.seq("the", "cat"))
	require.NoError(t, err)
	assert.Greater(t, p.Similarity(v["sat"]), p.Similarity(v["ran"])+0.1)

	p, err = m.Predict(v.seq("the"))
	require.NoError(t, err)
	assert.Greater(t, p.Similarity(v["cat"]), 0.6)
	assert.Greater(t, p.Similarity(v["dog"]), 0.6)
	assert.InDelta(t, 0.5, p.Similarity(v["ran"]), 0.03)
}

func TestMultiScale_ShortSequencesAreIgnored(t *testing.T) {
	m := NewMultiScale(512)
	m.LearnSequence(nil)
	m.LearnSequence([]hypervector.Vector{hypervector.SeededDim(512, 1)})
	assert.False(t, m.HasData())
	assert.Equal(t, 0, m.Associations())
}

func TestMultiScale_EmptyContext(t *testing.T) {
	m := NewMultiScale(512)
	_, err := m.Predict(nil)
	assert.ErrorIs(t, err, ErrEmptyContext)
}

func TestMultiScale_OrderOneOnlyWhenOrderTwoEmpty(t *testing.T) {
	v := newVocab("a", "b")
	m := NewMultiScale(hypervector.DefaultDimension)
	m.LearnSequence(v.seq("a", "b"))
	assert.False(t, m.Order(2).HasData())

	p, err := m.Predict(v.seq("b", "a"))
	require.NoError(t, err)
	assert.True(t, p.Equal(v["b"]))
}

func TestMultiScale_Order3Disambiguates(t *testing.T) {
	v := newVocab("a", "x", "b", "c", "d", "e")
	m := NewMultiScale(hypervector.DefaultDimension, WithOrder3(true))
	assert.True(t, m.Order3Enabled())

	m.LearnSequence(v.seq("a", "b", "c", "d"))
	m.LearnSequence(v.seq("x", "b", "c", "e"))
	assert.Equal(t, 2, m.Order(3).Traces())

	p, err := m.Predict(v.seq("a", "b", "c"))
	require.NoError(t, err)
	assert.Greater(t, p.Similarity(v["d"]), p.Similarity(v["e"]))

	p, err = m.Predict(v.seq("x", "b", "c"))
	require.NoError(t, err)
	assert.Greater(t, p.Similarity(v["e"]), p.Similarity(v["d"]))
}

func TestMultiScale_StateRestore(t *testing.T) {
	v := newVocab("the", "cat", "sat", "dog", "ran")
	src := NewMultiScale(hypervector.DefaultDimension)
	src.LearnSequence(v.seq("the", "cat", "sat"))
	src.LearnSequence(v.seq("the", "dog", "ran"))

	dst := NewMultiScale(hypervector.DefaultDimension)
	require.NoError(t, dst.Restore(src.State()))
	assert.Equal(t, src.State(), dst.State())

	ctx := v.seq("the", "cat")
	want, err := src.Predict(ctx)
	require.NoError(t, err)
	got, err := dst.Predict(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	bad := src.State()
	bad.Orders[1].Votes = bad.Orders[1].Votes[:10]
	fresh := NewMultiScale(hypervector.DefaultDimension)
	assert.Error(t, fresh.Restore(bad))
	assert.False(t, fresh.HasData())

	dst.Reset()
	assert.False(t, dst.HasData())
}

func TestMultiScale_OrderOutOfRange(t *testing.T) {
	m := NewMultiScale(64)
	assert.Panics(t, func() { m.Order(0) })
	assert.Panics(t, func() { m.Order(4) })
}
