// Package accumulator provides stateful majority-vote bundlers.
//
// A bundler folds many hypervectors into per-dimension vote counters and
// thresholds them on demand. Unlike bit-OR superposition it never saturates:
// every addition stays visible in the counters, so the built vector keeps
// approximate membership of all inputs.
//
// Two strategies are provided:
//
//   - Accumulator keeps a signed sum per dimension (+w for a 1 bit, -w for a 0
//     bit) and supports arbitrary integer weights.
//   - Counter keeps the number of 1 bits per dimension plus the total input
//     weight. It is equivalent to Accumulator and is cheaper to merge.
//
// Exact ties are resolved by a TieBreak policy. The default, TieZero, is
// deterministic; TieRandom reproduces a coin flip and must be opted into.
package accumulator
