// Package memory implements holographic associative memories.
//
// Transition superposes many key/value associations into one hologram:
// each association is stored as the trace key XOR value in a majority
// accumulator, and a query unbinds the hologram with the key. Retrieval
// degrades gracefully, not catastrophically, as unrelated traffic is added.
//
// MultiScale stacks transition memories trained on different history lengths
// (order 1, 2 and an optional order 3) and mixes their predictions with a
// weighted majority vote that favors longer contexts.
package memory
