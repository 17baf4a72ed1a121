package holomem

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/holomem/cleanup"
	"github.com/hupe1980/holomem/hypervector"
	"github.com/hupe1980/holomem/internal/hash"
	"github.com/hupe1980/holomem/memory"
	"github.com/hupe1980/holomem/refine"
)

// Unknown is the symbol returned when no prototype clears the threshold.
const Unknown = cleanup.Unknown

// Match is a decoded prediction.
type Match = cleanup.Match

// Orchestrator learns token sequences and predicts their continuation.
//
// It owns a multi-scale transition memory and a cleanup memory of token
// prototypes. All methods are safe for concurrent use; learning, prediction
// and export are serialized by a single mutex.
type Orchestrator struct {
	mu      sync.Mutex
	opts    options
	memory  *memory.MultiScale
	cleanup *cleanup.Memory
	logger  *Logger
	metrics MetricsCollector
}

// New creates an empty Orchestrator.
func New(optFns ...Option) (*Orchestrator, error) {
	o := applyOptions(optFns)
	if err := o.validate(); err != nil {
		return nil, err
	}
	return newOrchestrator(o), nil
}

func newOrchestrator(o options) *Orchestrator {
	cleanupOpts := []cleanup.Option{
		cleanup.WithThreshold(o.threshold),
		cleanup.WithParallelThreshold(o.parallelThreshold),
		cleanup.WithCacheSize(o.decodeCacheSize),
		cleanup.WithResourceController(o.rc),
	}
	if o.decodeWorkers > 0 {
		cleanupOpts = append(cleanupOpts, cleanup.WithWorkers(o.decodeWorkers))
	}

	return &Orchestrator{
		opts: o,
		memory: memory.NewMultiScale(o.dimension,
			memory.WithOrder3(o.order3),
			memory.WithTieBreak(o.tieBreak),
			memory.WithSource(o.source),
		),
		cleanup: cleanup.New(o.dimension, cleanupOpts...),
		logger:  o.logger.WithDimension(o.dimension).WithSeed(o.seed),
		metrics: o.metricsCollector,
	}
}

// Seed returns the instance seed.
func (h *Orchestrator) Seed() int64 { return h.opts.seed }

// Dimension returns the hypervector width.
func (h *Orchestrator) Dimension() int { return h.opts.dimension }

// Tokenize lower-cases text and splits it on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Embed returns the vector of token and registers it as a prototype.
//
// Embeddings are deterministic: the vector is seeded with the FNV-1a hash of
// the token mixed with the instance seed.
func (h *Orchestrator) Embed(token string) (hypervector.Vector, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, err := h.embed(token)
	return v, translateError(err)
}

func (h *Orchestrator) embedding(token string) hypervector.Vector {
	seed := int64(hash.FNV1a64(token) ^ uint64(h.opts.seed))
	return hypervector.SeededDim(h.opts.dimension, seed)
}

func (h *Orchestrator) embed(token string) (hypervector.Vector, error) {
	if v, ok := h.cleanup.Lookup(token); ok {
		return v, nil
	}
	v := h.embedding(token)
	if err := h.cleanup.Memorize(token, v); err != nil {
		return hypervector.Vector{}, fmt.Errorf("embed %q: %w", token, err)
	}
	return v, nil
}

// embedAll embeds tokens in order. If any token fails, the prototypes it
// added for earlier tokens are forgotten so the vocabulary is left as it was.
func (h *Orchestrator) embedAll(tokens []string) ([]hypervector.Vector, error) {
	seq := make([]hypervector.Vector, len(tokens))
	var added []string
	for i, tok := range tokens {
		_, known := h.cleanup.Lookup(tok)
		v, err := h.embed(tok)
		if err != nil {
			h.forget(added)
			return nil, err
		}
		if !known {
			added = append(added, tok)
		}
		seq[i] = v
	}
	return seq, nil
}

func (h *Orchestrator) forget(symbols []string) {
	if len(symbols) == 0 {
		return
	}
	for _, sym := range symbols {
		h.cleanup.Forget(sym)
	}
	// New prototypes sit at the end of the slot order, so compacting
	// restores the previous layout.
	h.cleanup.Compact()
}

// Learn embeds every token and learns each transition of the sequence.
// Sequences shorter than two tokens only register their vocabulary.
func (h *Orchestrator) Learn(ctx context.Context, tokens []string) error {
	start := time.Now()
	err := h.learn(ctx, tokens)
	h.metrics.RecordLearn(len(tokens), time.Since(start), err)
	h.logger.LogLearn(ctx, len(tokens), h.cleanup.Len(), err)
	return err
}

func (h *Orchestrator) learn(ctx context.Context, tokens []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	seq, err := h.embedAll(tokens)
	if err != nil {
		return translateError(err)
	}
	h.memory.LearnSequence(seq)
	return nil
}

// LearnText tokenizes text with Tokenize and learns the resulting sequence.
func (h *Orchestrator) LearnText(ctx context.Context, text string) error {
	return h.Learn(ctx, Tokenize(text))
}

// Predict returns the token expected to follow tokens, or Unknown.
func (h *Orchestrator) Predict(ctx context.Context, tokens []string) (string, error) {
	m, err := h.PredictMatch(ctx, tokens)
	if err != nil {
		return "", err
	}
	return m.Symbol, nil
}

// PredictMatch is like Predict but also reports the similarity of the match.
func (h *Orchestrator) PredictMatch(ctx context.Context, tokens []string) (Match, error) {
	start := time.Now()
	m, refined, err := h.predict(ctx, tokens)
	h.metrics.RecordPredict(len(tokens), m.Known, time.Since(start), err)
	h.logger.LogPredict(ctx, len(tokens), m.Symbol, m.Similarity, refined, err)
	return m, err
}

func (h *Orchestrator) predict(ctx context.Context, tokens []string) (Match, bool, error) {
	unknown := Match{Symbol: Unknown}
	if len(tokens) == 0 {
		return unknown, false, ErrEmptyContext
	}
	if err := ctx.Err(); err != nil {
		return unknown, false, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	seq, err := h.embedAll(tokens)
	if err != nil {
		return unknown, false, translateError(err)
	}
	prediction, err := h.memory.Predict(seq)
	if err != nil {
		return unknown, false, translateError(err)
	}

	if !h.memory.HasData() || h.opts.refinement == RefineNever {
		return h.decode(prediction), false, nil
	}

	attended, err := refine.Attend(seq)
	if err != nil {
		return unknown, false, translateError(err)
	}
	refined := refine.Refine(prediction, attended)
	if h.opts.refinement == RefineAlways {
		return h.decode(refined), true, nil
	}

	raw, sharp := h.decode(prediction), h.decode(refined)
	if sharp.Similarity > raw.Similarity {
		return sharp, true, nil
	}
	return raw, false, nil
}

func (h *Orchestrator) decode(v hypervector.Vector) Match {
	start := time.Now()
	m := h.cleanup.DecodeMatch(refine.Denoise(v, h.opts.denoiseSteps))
	h.metrics.RecordDecode(h.cleanup.Len(), time.Since(start))
	return m
}

// Candidates returns up to k prototypes ranked by similarity to the raw
// prediction for tokens. Unlike Predict it applies no threshold.
func (h *Orchestrator) Candidates(ctx context.Context, tokens []string, k int) ([]Match, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyContext
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	seq, err := h.embedAll(tokens)
	if err != nil {
		return nil, translateError(err)
	}
	prediction, err := h.memory.Predict(seq)
	if err != nil {
		return nil, translateError(err)
	}
	return h.cleanup.TopK(refine.Denoise(prediction, h.opts.denoiseSteps), k), nil
}

// VocabSize returns the number of known tokens.
func (h *Orchestrator) VocabSize() int { return h.cleanup.Len() }

// Vocabulary returns the known tokens in first-seen order.
func (h *Orchestrator) Vocabulary() []string { return h.cleanup.Symbols() }

// MemorySize returns the number of first-order transitions learned.
func (h *Orchestrator) MemorySize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.memory.Associations()
}

// Stats describes the learned state of an Orchestrator.
type Stats struct {
	Dimension   int
	Seed        int64
	Vocabulary  int
	Transitions [memory.Orders]int
	Order3      bool
	CacheHits   int64
	CacheMisses int64
}

// Stats returns a summary of the learned state.
func (h *Orchestrator) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Stats{
		Dimension:  h.opts.dimension,
		Seed:       h.opts.seed,
		Vocabulary: h.cleanup.Len(),
		Order3:     h.memory.Order3Enabled(),
	}
	for i := range s.Transitions {
		s.Transitions[i] = h.memory.Order(i + 1).Traces()
	}
	s.CacheHits, s.CacheMisses = h.cleanup.CacheStats()
	return s
}

// Reset forgets all learned transitions and prototypes. The seed is kept,
// so tokens embed to the same vectors as before.
func (h *Orchestrator) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.memory.Reset()
	h.cleanup.Reset()
}
