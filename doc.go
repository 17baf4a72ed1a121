// Package holomem provides a hyperdimensional sequence memory for Go.
//
// Tokens are embedded as 10,000-bit binary hypervectors. Transitions between
// tokens are stored holographically in superposed key/value bindings, and
// predictions are decoded back to tokens through a nearest-neighbor cleanup
// memory. There is no gradient training: learning is a single pass of XOR and
// majority votes.
//
// # Quick Start
//
//	ctx := context.Background()
//	hm, _ := holomem.New(holomem.WithSeed(42))
//	_ = hm.LearnText(ctx, "the cat sat on the mat")
//	_ = hm.LearnText(ctx, "the dog ran in the park")
//	next, _ := hm.Predict(ctx, []string{"the", "cat"}) // "sat"
//
// # Prediction Pipeline
//
// A prediction runs through four stages:
//
//  1. Multi-scale memory: first, second and (optionally) third order
//     transition memories vote on the next vector, weighted 1, 2 and 3.
//  2. Attention: the context is bundled with positional permutations and
//     unbound from the prediction.
//  3. Denoising: a circular rule-232 automaton sharpens the candidate.
//  4. Cleanup: the candidate is decoded to the most similar known token,
//     or Unknown when nothing clears the threshold.
//
// By default both the raw and the attention-refined candidate are decoded and
// the sharper match wins (RefineIfSharper). RefineAlways and RefineNever pin
// one branch.
//
// # Determinism
//
// Embeddings depend only on the token and the instance seed:
//
//	a, _ := holomem.New(holomem.WithSeed(7))
//	b, _ := holomem.New(holomem.WithSeed(7))
//	// a.Embed("x") equals b.Embed("x")
//
// Majority ties resolve to 0 unless another accumulator.TieBreak is chosen.
// Random tie-breaks and entropy.Chaos are the only sources of
// non-reproducible behavior.
//
// # Persistence
//
// State is saved as a checksummed, optionally compressed snapshot through any
// blobstore.Store (local disk, S3, MinIO or memory):
//
//	store := blobstore.NewLocalStore("./brains")
//	_ = hm.Save(ctx, store, "demo_brain.hdcs")
//	restored, _ := holomem.Load(ctx, store, "demo_brain.hdcs")
//
// # Resource Limits
//
// A resource.Controller bounds the memory spent on prototypes and throttles
// snapshot IO:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   64 << 20,
//	    IOLimitBytesPerSec: 32 << 20,
//	})
//	hm, _ := holomem.New(holomem.WithResourceController(rc))
//
// Learning a token that does not fit the budget fails with ErrVocabularyFull.
//
// # Observability
//
// Logging uses log/slog through Logger and is disabled by default. Metrics
// are reported to a MetricsCollector; BasicMetricsCollector keeps in-memory
// counters.
package holomem
