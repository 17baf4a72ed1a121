package holomem

import (
	"errors"
	"fmt"

	"github.com/hupe1980/holomem/cleanup"
	"github.com/hupe1980/holomem/hypervector"
	"github.com/hupe1980/holomem/memory"
	"github.com/hupe1980/holomem/refine"
	"github.com/hupe1980/holomem/snapshot"
)

var (
	// ErrEmptyContext is returned when Predict is called without context tokens.
	ErrEmptyContext = errors.New("context must contain at least one token")

	// ErrInvalidThreshold is returned when the decode threshold is outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be within [0, 1]")

	// ErrInvalidDenoiseSteps is returned for a negative denoise step count.
	ErrInvalidDenoiseSteps = errors.New("denoise steps must not be negative")

	// ErrVocabularyFull is returned when the memory budget cannot hold another prototype.
	ErrVocabularyFull = errors.New("vocabulary full")

	// ErrCorruptSnapshot is returned when a snapshot cannot be decoded or validated.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// ErrDimensionMismatch indicates that two vectors or a vector and a state
// disagree in dimensionality.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an invalid configured dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, memory.ErrEmptyContext) || errors.Is(err, refine.ErrEmptySequence) {
		return fmt.Errorf("%w: %w", ErrEmptyContext, err)
	}
	if errors.Is(err, cleanup.ErrVocabularyFull) {
		return fmt.Errorf("%w: %w", ErrVocabularyFull, err)
	}

	var dm *hypervector.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var id *hypervector.ErrInvalidDimension
	if errors.As(err, &id) {
		return &ErrInvalidDimension{Dimension: id.Dimension, cause: err}
	}

	if errors.Is(err, snapshot.ErrCorrupt) ||
		errors.Is(err, snapshot.ErrInvalidMagic) ||
		errors.Is(err, snapshot.ErrInvalidVersion) ||
		errors.Is(err, snapshot.ErrInvalidFormat) ||
		errors.Is(err, snapshot.ErrInvalidCompression) ||
		snapshot.IsChecksumMismatch(err) {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	return err
}
