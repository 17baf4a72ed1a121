// Package testutil provides testing utilities for holomem.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG that doubles as an entropy.Source,
// helpers for generating hypervectors and synthetic corpora, and accuracy
// measurement for next-token prediction.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vs := rng.Vectors(16, hypervector.DefaultDimension)
//	noisy := rng.NoisyCopies(vs[0], 8, 0.2)
//
// # Synthetic Corpora
//
//	corpus := rng.Corpus(10, 5) // 10 sentences of 5 unique tokens
//
// # Accuracy
//
//	acc := testutil.Accuracy(expected, predicted)
package testutil
