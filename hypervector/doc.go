// Package hypervector implements fixed-width binary hypervectors and their algebra.
//
// A Vector is a D-bit pattern packed into ceil(D/64) little-endian uint64 words.
// Padding bits above D in the final word are always zero. Vectors are values:
// every operator returns a new Vector and never mutates its operands.
//
// # Algebra
//
//	c := a.Bind(b)          // XOR association, self-inverse: c.Bind(a) == b
//	m := BundleAll(a, b, c) // per-dimension majority, ties resolve to 0
//	p := a.Permute(3)       // cyclic rotation, encodes sequence position
//	s := a.Similarity(b)    // 1 - hamming/D: 1 identical, ~0.5 unrelated, 0 complement
//
// # Dimensions
//
// DefaultDimension (10,000) is used by the convenience constructors. Mixing
// vectors of different dimensions is a programming error and panics with
// *ErrDimensionMismatch. Use CheckDimensions to validate untrusted input.
package hypervector
