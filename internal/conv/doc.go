// Package conv provides checked integer conversions for snapshot encoding.
//
// Snapshot headers and bodies store lengths as fixed-width unsigned integers
// while the engine works with int. Every conversion that crosses that
// boundary on data read from or written to a store goes through this
// package so a corrupt or oversized value surfaces as ErrOverflow instead
// of silently wrapping.
package conv
