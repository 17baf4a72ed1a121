// Package cleanup maps noisy hypervectors back to the nearest known symbol.
//
// A Memory stores one prototype vector per symbol in insertion order. Decode
// scans every live prototype and returns the symbol with the highest
// similarity if it clears the threshold, and Unknown otherwise. Ties resolve
// to the symbol inserted first.
//
// Large vocabularies are scanned in parallel shards. Repeated queries for the
// same vector are served from an LRU cache that is dropped whenever the
// vocabulary changes. An optional resource.Controller bounds the memory held by
// prototypes.
package cleanup
