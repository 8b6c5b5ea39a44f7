package optim

import "errors"

var (
	// ErrInvalidBounds indicates a search box with mismatched, empty,
	// inverted or non-finite limits.
	ErrInvalidBounds = errors.New("optim: invalid search bounds")

	// ErrNonFiniteCost indicates the objective returned NaN or Inf.
	ErrNonFiniteCost = errors.New("optim: objective returned a non-finite cost")
)
