package trim

import (
	"errors"
	"fmt"

	"github.com/san-kum/flyer/internal/optim"
)

var (
	ErrInvalidBounds = optim.ErrInvalidBounds
	ErrNonFiniteCost = optim.ErrNonFiniteCost
	ErrInvalidTarget = errors.New("trim: target altitude and airspeed must be finite, airspeed positive")
)

// AbortError is returned when a search stops early. Result holds the best
// estimate at the time of the abort and always has Status Aborted.
type AbortError struct {
	Result *Result
	Err    error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("trim aborted after %d iterations: %v", e.Result.Iterations, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}
