package dynamo

import (
	"fmt"
	"math"
	"sync"
)

// Stepper is the Engine obtained by integrating a System with an Integrator.
type Stepper struct {
	sys  System
	pool sync.Pool
}

func NewStepper(sys System, newIntegrator func() Integrator) *Stepper {
	return &Stepper{
		sys: sys,
		pool: sync.Pool{
			New: func() interface{} {
				return newIntegrator()
			},
		},
	}
}

func (s *Stepper) StateDim() int   { return s.sys.StateDim() }
func (s *Stepper) ControlDim() int { return s.sys.ControlDim() }

func (s *Stepper) Advance(x State, u Control, dt float64) (State, error) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, ErrInvalidTimestep
	}
	if len(x) != s.sys.StateDim() {
		return nil, fmt.Errorf("state has %d elements, want %d: %w", len(x), s.sys.StateDim(), ErrDimensionMismatch)
	}
	if len(u) != s.sys.ControlDim() {
		return nil, fmt.Errorf("control has %d elements, want %d: %w", len(u), s.sys.ControlDim(), ErrDimensionMismatch)
	}

	integ := s.pool.Get().(Integrator)
	next := integ.Step(s.sys, x, u, 0, dt)
	s.pool.Put(integ)

	if n, ok := s.sys.(Normalizer); ok {
		next = n.Normalize(next)
	}
	if !next.IsValid() {
		return nil, &SimulationError{Dt: dt, State: x.Clone(), Wrapped: ErrInvalidState}
	}
	return next, nil
}
