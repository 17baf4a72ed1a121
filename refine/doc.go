// Package refine post-processes raw predictions.
//
// Attend compresses an ordered context into one vector by permuting every
// element by its distance from the end and taking the majority. Denoise runs
// an elementary cellular automaton (rule 232, three-cell majority) over the
// bits of a vector so that isolated flips are absorbed by their neighbours.
package refine
