package optim

import (
	"fmt"
	"math"
)

// Bounds is an axis-aligned search box.
type Bounds struct {
	Lo []float64
	Hi []float64
}

func (b Bounds) Dim() int {
	return len(b.Lo)
}

func (b Bounds) Validate() error {
	if len(b.Lo) == 0 || len(b.Lo) != len(b.Hi) {
		return fmt.Errorf("%w: %d lower and %d upper limits", ErrInvalidBounds, len(b.Lo), len(b.Hi))
	}
	for i := range b.Lo {
		lo, hi := b.Lo[i], b.Hi[i]
		if math.IsNaN(lo) || math.IsInf(lo, 0) || math.IsNaN(hi) || math.IsInf(hi, 0) {
			return fmt.Errorf("%w: dimension %d is not finite", ErrInvalidBounds, i)
		}
		if lo >= hi {
			return fmt.Errorf("%w: dimension %d has lo %g >= hi %g", ErrInvalidBounds, i, lo, hi)
		}
	}
	return nil
}

func (b Bounds) Clamp(x []float64) {
	for i := range x {
		x[i] = math.Max(b.Lo[i], math.Min(b.Hi[i], x[i]))
	}
}

func (b Bounds) Center() []float64 {
	c := make([]float64, len(b.Lo))
	for i := range c {
		c[i] = (b.Lo[i] + b.Hi[i]) / 2
	}
	return c
}
