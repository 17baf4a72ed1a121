package hypervector

import (
	"errors"
	"fmt"
)

// ErrInvalidWords is returned by FromWords when the word count does not match the dimension.
var ErrInvalidWords = errors.New("word count does not match dimension")

// ErrDimensionMismatch indicates an operation between vectors of different dimensions.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates a non-positive dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// CheckDimensions returns *ErrDimensionMismatch if the vectors do not all share
// the dimension of the first one.
func CheckDimensions(vs ...Vector) error {
	if len(vs) == 0 {
		return nil
	}
	for _, v := range vs[1:] {
		if v.dim != vs[0].dim {
			return &ErrDimensionMismatch{Expected: vs[0].dim, Actual: v.dim}
		}
	}
	return nil
}

func mustMatch(a, b Vector) {
	if a.dim != b.dim {
		panic(&ErrDimensionMismatch{Expected: a.dim, Actual: b.dim})
	}
}

func mustPositive(dim int) {
	if dim <= 0 {
		panic(&ErrInvalidDimension{Dimension: dim})
	}
}
