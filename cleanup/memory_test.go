package cleanup

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/holomem/entropy"
	"github.com/hupe1980/holomem/hypervector"
	"github.com/hupe1980/holomem/resource"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemory_EmptyDecodesUnknown(t *testing.T) {
	m := New(hypervector.DefaultDimension)
	match := m.DecodeMatch(hypervector.Seeded(1))
	assert.Equal(t, Match{Symbol: Unknown}, match)
	assert.Equal(t, Unknown, m.Decode(hypervector.Seeded(2)))
}

func TestMemory_DecodeNoisy(t *testing.T) {
	m := New(hypervector.DefaultDimension)
	words := []string{"the", "cat", "sat", "dog", "ran"}
	for i, w := range words {
		require.NoError(t, m.Memorize(w, hypervector.Seeded(int64(i+1))))
	}

	src := entropy.NewSplitMix64(42)
	for i, w := range words {
		noisy := hypervector.Seeded(int64(i+1)).AddNoise(0.3, src)
		match := m.DecodeMatch(noisy)
		assert.Equal(t, w, match.Symbol)
		assert.True(t, match.Known)
		assert.InDelta(t, 0.7, match.Similarity, 1e-9)
	}
}

func TestMemory_Threshold(t *testing.T) {
	m := New(100, WithThreshold(0.9))
	proto := hypervector.SeededDim(100, 1)
	require.NoError(t, m.Memorize("a", proto))

	// Exactly at the threshold is not enough.
	at := proto.AddNoise(0.1, entropy.NewSplitMix64(1))
	match := m.DecodeMatch(at)
	assert.False(t, match.Known)
	assert.Equal(t, Unknown, match.Symbol)
	assert.InDelta(t, 0.9, match.Similarity, 1e-9)

	above := proto.AddNoise(0.09, entropy.NewSplitMix64(1))
	assert.Equal(t, "a", m.Decode(above))
	assert.InDelta(t, 0.9, m.Threshold(), 0)
}

func TestMemory_TiesResolveToEarliest(t *testing.T) {
	m := New(64)
	v := hypervector.SeededDim(64, 3)
	require.NoError(t, m.Memorize("first", v))
	require.NoError(t, m.Memorize("second", v))
	assert.Equal(t, "first", m.Decode(v))

	// Overwriting keeps the original slot.
	require.NoError(t, m.Memorize("first", v))
	assert.Equal(t, "first", m.Decode(v))
	assert.Equal(t, []string{"first", "second"}, m.Symbols())
}

func TestMemory_Overwrite(t *testing.T) {
	m := New(256)
	a, b := hypervector.SeededDim(256, 1), hypervector.SeededDim(256, 2)
	require.NoError(t, m.Memorize("x", a))
	require.NoError(t, m.Memorize("y", b))
	require.NoError(t, m.Memorize("x", b))

	got, ok := m.Lookup("x")
	require.True(t, ok)
	assert.True(t, got.Equal(b))
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "x", m.Decode(b))

	_, ok = m.Lookup("z")
	assert.False(t, ok)
}

func TestMemory_DimensionMismatch(t *testing.T) {
	m := New(128)
	err := m.Memorize("a", hypervector.SeededDim(64, 1))
	var mismatch *hypervector.ErrDimensionMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 128, mismatch.Expected)
	assert.Equal(t, 0, m.Len())

	assert.Panics(t, func() { m.Decode(hypervector.SeededDim(64, 1)) })
}

func TestMemory_TopK(t *testing.T) {
	m := New(hypervector.DefaultDimension)
	base := hypervector.Seeded(1)
	src := entropy.NewSplitMix64(7)
	require.NoError(t, m.Memorize("far", base.AddNoise(0.4, src)))
	require.NoError(t, m.Memorize("near", base.AddNoise(0.1, src)))
	require.NoError(t, m.Memorize("twin", base.AddNoise(0.1, src)))
	require.NoError(t, m.Memorize("mid", base.AddNoise(0.2, src)))

	top := m.TopK(base, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "near", top[0].Symbol)
	assert.Equal(t, "twin", top[1].Symbol)
	assert.Equal(t, "mid", top[2].Symbol)
	for _, match := range top {
		assert.True(t, match.Known)
	}

	assert.Len(t, m.TopK(base, 10), 4)
	assert.Nil(t, m.TopK(base, 0))
}

func TestMemory_ForgetCompact(t *testing.T) {
	m := New(512)
	for i := range 5 {
		require.NoError(t, m.Memorize(fmt.Sprintf("s%d", i), hypervector.SeededDim(512, int64(i))))
	}

	assert.True(t, m.Forget("s1"))
	assert.True(t, m.Forget("s3"))
	assert.False(t, m.Forget("s3"))
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"s0", "s2", "s4"}, m.Symbols())
	assert.NotEqual(t, "s1", m.Decode(hypervector.SeededDim(512, 1)))

	assert.Equal(t, 2, m.Compact())
	assert.Equal(t, 0, m.Compact())
	assert.Equal(t, []string{"s0", "s2", "s4"}, m.Symbols())
	assert.Equal(t, "s4", m.Decode(hypervector.SeededDim(512, 4)))

	require.NoError(t, m.Memorize("s1", hypervector.SeededDim(512, 1)))
	assert.Equal(t, []string{"s0", "s2", "s4", "s1"}, m.Symbols())

	entries := m.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "s1", entries[3].Symbol)
	assert.True(t, entries[3].Vector.Equal(hypervector.SeededDim(512, 1)))
}

func TestMemory_Budget(t *testing.T) {
	dim := 640 // 10 words, 80 bytes per prototype
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 200})
	m := New(dim, WithResourceController(rc), WithCacheSize(0))

	require.NoError(t, m.Memorize("a", hypervector.SeededDim(dim, 1)))
	require.NoError(t, m.Memorize("b", hypervector.SeededDim(dim, 2)))
	assert.Equal(t, int64(160), rc.MemoryUsage())

	err := m.Memorize("c", hypervector.SeededDim(dim, 3))
	assert.ErrorIs(t, err, ErrVocabularyFull)
	assert.Equal(t, 2, m.Len())

	// Overwrites need no new budget.
	require.NoError(t, m.Memorize("a", hypervector.SeededDim(dim, 4)))

	m.Forget("b")
	assert.Equal(t, int64(80), rc.MemoryUsage())
	require.NoError(t, m.Memorize("c", hypervector.SeededDim(dim, 3)))

	m.Reset()
	assert.Equal(t, int64(0), rc.MemoryUsage())
	assert.Equal(t, 0, m.Len())
}

func TestMemory_BudgetReclaimsCache(t *testing.T) {
	dim := 640
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 240})
	m := New(dim, WithResourceController(rc), WithCacheSize(4))

	require.NoError(t, m.Memorize("a", hypervector.SeededDim(dim, 1)))
	require.NoError(t, m.Memorize("b", hypervector.SeededDim(dim, 2)))
	m.Decode(hypervector.SeededDim(dim, 9))
	assert.Equal(t, int64(240), rc.MemoryUsage())

	// The cached decode result is dropped to make room for the prototype.
	require.NoError(t, m.Memorize("c", hypervector.SeededDim(dim, 3)))
	assert.Equal(t, int64(240), rc.MemoryUsage())
}

func TestMemory_Cache(t *testing.T) {
	m := New(1024, WithCacheSize(8))
	require.NoError(t, m.Memorize("a", hypervector.SeededDim(1024, 1)))

	q := hypervector.SeededDim(1024, 1)
	assert.Equal(t, "a", m.Decode(q))
	assert.Equal(t, "a", m.Decode(q))
	hits, misses := m.CacheStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	// Mutations invalidate cached results.
	require.NoError(t, m.Memorize("a", hypervector.SeededDim(1024, 2)))
	require.NoError(t, m.Memorize("b", hypervector.SeededDim(1024, 1)))
	assert.Equal(t, "b", m.Decode(q))
}

func TestMemory_ParallelMatchesSequential(t *testing.T) {
	dim := 1024
	seq := New(dim, WithWorkers(1), WithCacheSize(0))
	par := New(dim, WithWorkers(4), WithParallelThreshold(8), WithCacheSize(0))

	for i := range 100 {
		v := hypervector.SeededDim(dim, int64(i%40)) // duplicates create ties
		require.NoError(t, seq.Memorize(fmt.Sprintf("s%d", i), v))
		require.NoError(t, par.Memorize(fmt.Sprintf("s%d", i), v))
	}

	src := entropy.NewSplitMix64(5)
	for i := range 50 {
		q := hypervector.SeededDim(dim, int64(i)).AddNoise(0.2, src)
		assert.Equal(t, seq.DecodeMatch(q), par.DecodeMatch(q), "query %d", i)
	}
	// Ties go to the first insertion even when it lives in another shard.
	assert.Equal(t, "s3", par.Decode(hypervector.SeededDim(dim, 3)))
}

func TestMemory_Concurrent(t *testing.T) {
	m := New(512, WithWorkers(4), WithParallelThreshold(16))
	var wg sync.WaitGroup
	for g := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				sym := fmt.Sprintf("g%d-%d", g, i)
				v := hypervector.SeededDim(512, int64(g*1000+i))
				assert.NoError(t, m.Memorize(sym, v))
				assert.Equal(t, sym, m.Decode(v))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 200, m.Len())
}

func BenchmarkDecode(b *testing.B) {
	m := New(hypervector.DefaultDimension, WithCacheSize(0))
	for i := range 1000 {
		_ = m.Memorize(fmt.Sprintf("s%d", i), hypervector.Seeded(int64(i)))
	}
	q := hypervector.Seeded(500)
	for b.Loop() {
		_ = m.Decode(q)
	}
}
