package holomem

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/holomem/blobstore"
	"github.com/hupe1980/holomem/hypervector"
	"github.com/hupe1980/holomem/resource"
	"github.com/hupe1980/holomem/snapshot"
	"github.com/hupe1980/holomem/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newToy(t *testing.T, opts ...Option) *Orchestrator {
	t.Helper()

	hm, err := New(append([]Option{WithSeed(42)}, opts...)...)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, hm.LearnText(ctx, "the cat sat"))
	require.NoError(t, hm.LearnText(ctx, "the dog ran"))
	return hm
}

func TestNew_Validation(t *testing.T) {
	_, err := New(WithDimension(0))
	var invalid *ErrInvalidDimension
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 0, invalid.Dimension)

	_, err = New(WithThreshold(1.5))
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = New(WithDenoiseSteps(-1))
	assert.ErrorIs(t, err, ErrInvalidDenoiseSteps)

	_, err = New(WithRefinement(Refinement(9)))
	assert.Error(t, err)

	hm, err := New()
	require.NoError(t, err)
	assert.Equal(t, hypervector.DefaultDimension, hm.Dimension())
}

func TestOrchestrator_ToyScenario(t *testing.T) {
	ctx := context.Background()
	hm := newToy(t)

	assert.Equal(t, 5, hm.VocabSize())
	assert.Equal(t, 4, hm.MemorySize())
	assert.Equal(t, []string{"the", "cat", "sat", "dog", "ran"}, hm.Vocabulary())

	next, err := hm.Predict(ctx, []string{"the", "cat"})
	require.NoError(t, err)
	assert.Equal(t, "sat", next)

	next, err = hm.Predict(ctx, []string{"the", "dog"})
	require.NoError(t, err)
	assert.Equal(t, "ran", next)

	next, err = hm.Predict(ctx, []string{"the"})
	require.NoError(t, err)
	assert.Contains(t, []string{"cat", "dog"}, next)

	m, err := hm.PredictMatch(ctx, []string{"cat"})
	require.NoError(t, err)
	assert.Equal(t, "sat", m.Symbol)
	assert.True(t, m.Known)
	assert.Greater(t, m.Similarity, 0.55)
}

func TestOrchestrator_CorpusAccuracy(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(2024)
	corpus := rng.Corpus(10, 5)

	hm, err := New(WithSeed(rng.Seed()), WithEntropy(rng))
	require.NoError(t, err)
	for _, s := range corpus {
		require.NoError(t, hm.Learn(ctx, s))
	}
	assert.Equal(t, 50, hm.VocabSize())
	assert.Equal(t, 40, hm.MemorySize())

	var expected, predicted []string
	for _, s := range corpus {
		for i := 1; i+1 < len(s); i++ {
			next, err := hm.Predict(ctx, s[i-1:i+1])
			require.NoError(t, err)
			expected = append(expected, s[i+1])
			predicted = append(predicted, next)
		}
	}
	assert.GreaterOrEqual(t, testutil.Accuracy(expected, predicted), 0.9)
}

func TestOrchestrator_RefinementModes(t *testing.T) {
	ctx := context.Background()

	for _, mode := range []Refinement{RefineIfSharper, RefineAlways, RefineNever} {
		t.Run(mode.String(), func(t *testing.T) {
			hm := newToy(t, WithRefinement(mode))

			m, err := hm.PredictMatch(ctx, []string{"the", "cat"})
			require.NoError(t, err)
			assert.Equal(t, "sat", m.Symbol)
		})
	}

	raw := newToy(t, WithRefinement(RefineNever))
	best := newToy(t, WithRefinement(RefineIfSharper))
	for _, tokens := range [][]string{{"the", "cat"}, {"the", "dog"}, {"the"}} {
		r, err := raw.PredictMatch(ctx, tokens)
		require.NoError(t, err)
		b, err := best.PredictMatch(ctx, tokens)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, b.Similarity, r.Similarity)
	}
}

func TestOrchestrator_RefineIfSharperFallsBackToRaw(t *testing.T) {
	ctx := context.Background()

	for seed := int64(1); seed <= 5; seed++ {
		raw := newToy(t, WithSeed(seed), WithRefinement(RefineNever))
		best := newToy(t, WithSeed(seed), WithRefinement(RefineIfSharper))
		for _, tokens := range [][]string{{"the", "cat"}, {"the", "dog"}} {
			r, err := raw.PredictMatch(ctx, tokens)
			require.NoError(t, err)
			b, err := best.PredictMatch(ctx, tokens)
			require.NoError(t, err)
			assert.Equal(t, r, b, "seed %d context %v", seed, tokens)
		}
	}
}

func TestOrchestrator_Embed(t *testing.T) {
	a, err := New(WithSeed(7), WithDimension(1024))
	require.NoError(t, err)
	b, err := New(WithSeed(7), WithDimension(1024))
	require.NoError(t, err)
	c, err := New(WithSeed(8), WithDimension(1024))
	require.NoError(t, err)

	va, err := a.Embed("token")
	require.NoError(t, err)
	vb, err := b.Embed("token")
	require.NoError(t, err)
	vc, err := c.Embed("token")
	require.NoError(t, err)

	assert.True(t, va.Equal(vb))
	assert.False(t, va.Equal(vc))
	assert.Less(t, va.Similarity(vc), 0.6)
	assert.Equal(t, 1024, va.Dimension())

	again, err := a.Embed("token")
	require.NoError(t, err)
	assert.True(t, va.Equal(again))
	assert.Equal(t, 1, a.VocabSize())

	other, err := a.Embed("other")
	require.NoError(t, err)
	assert.Less(t, va.Similarity(other), 0.6)
}

func TestOrchestrator_Errors(t *testing.T) {
	hm := newToy(t)

	_, err := hm.Predict(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyContext)

	_, err = hm.Candidates(context.Background(), nil, 3)
	assert.ErrorIs(t, err, ErrEmptyContext)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = hm.Predict(ctx, []string{"the"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, hm.Learn(ctx, []string{"a", "b"}), context.Canceled)
}

func TestOrchestrator_ShortSequence(t *testing.T) {
	hm, err := New(WithSeed(1), WithDimension(2048))
	require.NoError(t, err)

	require.NoError(t, hm.Learn(context.Background(), []string{"alone"}))
	assert.Equal(t, 1, hm.VocabSize())
	assert.Equal(t, 0, hm.MemorySize())

	require.NoError(t, hm.Learn(context.Background(), nil))
	assert.Equal(t, 0, hm.MemorySize())
}

func TestOrchestrator_Candidates(t *testing.T) {
	hm := newToy(t)

	matches, err := hm.Candidates(context.Background(), []string{"the", "cat"}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "sat", matches[0].Symbol)
	assert.GreaterOrEqual(t, matches[0].Similarity, matches[1].Similarity)
	assert.GreaterOrEqual(t, matches[1].Similarity, matches[2].Similarity)
}

func TestOrchestrator_Reset(t *testing.T) {
	hm := newToy(t)
	seed := hm.Seed()
	before, err := hm.Embed("cat")
	require.NoError(t, err)

	hm.Reset()
	assert.Equal(t, 0, hm.VocabSize())
	assert.Equal(t, 0, hm.MemorySize())
	assert.Equal(t, seed, hm.Seed())

	after, err := hm.Embed("cat")
	require.NoError(t, err)
	assert.True(t, before.Equal(after))
}

func TestOrchestrator_Budget(t *testing.T) {
	// 640 bits = 80 bytes per prototype, so two prototypes fit.
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 200})
	hm, err := New(
		WithSeed(3),
		WithDimension(640),
		WithDecodeCacheSize(0),
		WithResourceController(rc),
	)
	require.NoError(t, err)

	ctx := context.Background()
	err = hm.Learn(ctx, []string{"a", "b", "c"})
	require.ErrorIs(t, err, ErrVocabularyFull)
	assert.Equal(t, 0, hm.MemorySize())
	assert.Equal(t, 0, hm.VocabSize())
	assert.Equal(t, int64(0), rc.MemoryUsage())

	require.NoError(t, hm.Learn(ctx, []string{"a", "b"}))
	assert.Equal(t, 1, hm.MemorySize())
	assert.Equal(t, int64(160), rc.MemoryUsage())

	hm.Reset()
	assert.Equal(t, int64(0), rc.MemoryUsage())
}

func TestOrchestrator_BudgetFailureKeepsVocabulary(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 200})
	hm, err := New(WithSeed(3), WithDimension(640), WithResourceController(rc), WithDecodeCacheSize(0))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, hm.Learn(ctx, []string{"a"}))
	before := hm.ExportState()

	// "a" is known, "b" fits, "c" does not: only "b" must be rolled back.
	err = hm.Learn(ctx, []string{"a", "b", "c", "b"})
	require.ErrorIs(t, err, ErrVocabularyFull)
	assert.Equal(t, []string{"a"}, hm.Vocabulary())
	assert.Equal(t, int64(80), rc.MemoryUsage())
	assert.Equal(t, before, hm.ExportState())

	_, err = hm.Predict(ctx, []string{"a", "x", "y"})
	require.ErrorIs(t, err, ErrVocabularyFull)
	assert.Equal(t, []string{"a"}, hm.Vocabulary())
}

func TestOrchestrator_StateRoundTrip(t *testing.T) {
	ctx := context.Background()
	hm := newToy(t, WithOrder3(true))
	require.NoError(t, hm.LearnText(ctx, "a b c d"))

	state := hm.ExportState()
	assert.Equal(t, hypervector.DefaultDimension, state.Dimension)
	assert.Equal(t, int64(42), state.Seed)
	assert.Len(t, state.Prototypes, 9)
	assert.Len(t, state.Memories, 3)

	restored, err := FromState(state, WithDimension(16), WithOrder3(true))
	require.NoError(t, err)
	assert.Equal(t, state.Dimension, restored.Dimension())
	assert.Equal(t, hm.Seed(), restored.Seed())
	assert.Equal(t, state, restored.ExportState())
	assert.Equal(t, hm.Stats().Transitions, restored.Stats().Transitions)

	for _, tokens := range [][]string{{"the", "cat"}, {"the", "dog"}, {"a", "b", "c"}} {
		want, err := hm.PredictMatch(ctx, tokens)
		require.NoError(t, err)
		got, err := restored.PredictMatch(ctx, tokens)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Exported state is a copy.
	state.Memories[0].Votes[0] += 100
	assert.NotEqual(t, state, hm.ExportState())
}

func TestFromState_Invalid(t *testing.T) {
	_, err := FromState(nil)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	state := newToy(t).ExportState()

	short := *state
	short.Memories = short.Memories[:2]
	_, err = FromState(&short)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	bad := *state
	bad.Prototypes = append([]snapshot.Prototype{{Symbol: "x", Words: []uint64{1}}}, bad.Prototypes...)
	_, err = FromState(&bad)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	zero := *state
	zero.Dimension = 0
	_, err = FromState(&zero)
	var invalid *ErrInvalidDimension
	assert.ErrorAs(t, err, &invalid)
}

func TestOrchestrator_SaveLoad(t *testing.T) {
	ctx := context.Background()

	stores := map[string]blobstore.Store{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	}
	formats := []snapshot.Options{
		snapshot.DefaultOptions,
		{Format: snapshot.FormatJSON, Compression: snapshot.CompressionZSTD},
		{Format: snapshot.FormatGoJSON, Compression: snapshot.CompressionNone},
	}

	for name, store := range stores {
		for _, so := range formats {
			t.Run(name+"/"+so.Format.String()+"/"+so.Compression.String(), func(t *testing.T) {
				hm := newToy(t, WithSnapshotOptions(so))
				blob := "demo_brain.hdcs"

				require.NoError(t, hm.Save(ctx, store, blob))

				restored, err := Load(ctx, store, blob)
				require.NoError(t, err)
				assert.Equal(t, hm.ExportState(), restored.ExportState())

				next, err := restored.Predict(ctx, []string{"the", "cat"})
				require.NoError(t, err)
				assert.Equal(t, "sat", next)
			})
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_, err := Load(ctx, store, "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, "garbage", bytes.Repeat([]byte("x"), 64)))
	_, err = Load(ctx, store, "garbage")
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
	assert.ErrorIs(t, err, snapshot.ErrInvalidMagic)

	hm := newToy(t)
	require.NoError(t, hm.Save(ctx, store, "good"))
	data, err := blobstore.ReadAll(ctx, store, "good")
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, store.Put(ctx, "flipped", data))

	_, err = Load(ctx, store, "flipped")
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
	assert.True(t, snapshot.IsChecksumMismatch(err))
}

func TestOrchestrator_SaveThrottled(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30})
	hm := newToy(t, WithResourceController(rc))
	store := blobstore.NewMemoryStore()

	require.NoError(t, hm.Save(ctx, store, "throttled"))
	restored, err := Load(ctx, store, "throttled", WithResourceController(rc))
	require.NoError(t, err)
	assert.Equal(t, hm.VocabSize(), restored.VocabSize())
}

func TestOrchestrator_Metrics(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	hm := newToy(t, WithMetricsCollector(metrics))

	_, err := hm.Predict(ctx, []string{"the", "cat"})
	require.NoError(t, err)
	_, err = hm.Predict(ctx, nil)
	require.Error(t, err)

	store := blobstore.NewMemoryStore()
	require.NoError(t, hm.Save(ctx, store, "m"))
	_, err = Load(ctx, store, "m", WithMetricsCollector(metrics))
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.LearnCount)
	assert.Equal(t, int64(6), stats.LearnTokens)
	assert.Equal(t, int64(2), stats.PredictCount)
	assert.Equal(t, int64(1), stats.PredictErrors)
	assert.Equal(t, int64(2), stats.DecodeCount)
	assert.Equal(t, int64(1), stats.SaveCount)
	assert.Equal(t, int64(1), stats.LoadCount)
	assert.Zero(t, stats.SnapshotErrors)
	assert.Greater(t, stats.SnapshotBytes, int64(2*snapshot.HeaderSize))
}

func TestOrchestrator_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hm := newToy(t, WithLogger(logger))

	_, err := hm.Predict(context.Background(), []string{"the", "cat"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"learn completed"`)
	assert.Contains(t, out, `"msg":"predict completed"`)
	assert.Contains(t, out, `"symbol":"sat"`)
	assert.Contains(t, out, `"seed":42`)
}

func TestOrchestrator_Concurrent(t *testing.T) {
	ctx := context.Background()
	hm, err := New(WithSeed(5), WithDimension(2048))
	require.NoError(t, err)

	sentences := []string{"a b c", "b c d", "c d e", "d e f"}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := sentences[i%len(sentences)]
			assert.NoError(t, hm.LearnText(ctx, s))
			_, err := hm.Predict(ctx, Tokenize(s)[:2])
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, hm.VocabSize())
	assert.Equal(t, 16, hm.MemorySize())
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	var dm *ErrDimensionMismatch
	err := translateError(&hypervector.ErrDimensionMismatch{Expected: 10, Actual: 3})
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 10, dm.Expected)
	assert.Equal(t, 3, dm.Actual)

	var inner *hypervector.ErrDimensionMismatch
	assert.ErrorAs(t, err, &inner)

	other := errors.New("other")
	assert.Equal(t, other, translateError(other))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"the", "cat", "sat"}, Tokenize("  The CAT\tsat\n"))
	assert.Empty(t, Tokenize(" \n "))
}

func TestParseRefinement(t *testing.T) {
	for _, mode := range []Refinement{RefineIfSharper, RefineAlways, RefineNever} {
		got, err := ParseRefinement(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	_, err := ParseRefinement("bogus")
	assert.Error(t, err)
}

func BenchmarkPredict(b *testing.B) {
	ctx := context.Background()
	hm, err := New(WithSeed(1))
	require.NoError(b, err)
	require.NoError(b, hm.LearnText(ctx, "the quick brown fox jumps over the lazy dog"))

	tokens := []string{"the", "quick"}
	for b.Loop() {
		_, _ = hm.Predict(ctx, tokens)
	}
}
