package dynamo

import (
	"errors"
	"math"
	"sync"
	"testing"
)

type decay struct{}

func (decay) Derive(x State, u Control, t float64) State { return State{-x[0] + u[0]} }
func (decay) StateDim() int                              { return 1 }
func (decay) ControlDim() int                            { return 1 }

type blowup struct{ decay }

func (blowup) Derive(x State, u Control, t float64) State { return State{math.Inf(1)} }

type clamped struct{ decay }

func (clamped) Normalize(x State) State {
	out := x.Clone()
	if out[0] > 1 {
		out[0] = 1
	}
	return out
}

type euler struct{}

func (euler) Step(dyn System, x State, u Control, t, dt float64) State {
	dx := dyn.Derive(x, u, t)
	out := x.Clone()
	for i := range out {
		out[i] += dt * dx[i]
	}
	return out
}

func newEuler() Integrator { return euler{} }

func TestStepperAdvance(t *testing.T) {
	s := NewStepper(decay{}, newEuler)

	next, err := s.Advance(State{1}, Control{0}, 0.1)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if math.Abs(next[0]-0.9) > 1e-12 {
		t.Errorf("expected 0.9, got %f", next[0])
	}
}

func TestStepperRejectsBadInput(t *testing.T) {
	s := NewStepper(decay{}, newEuler)

	tests := []struct {
		name string
		x    State
		u    Control
		dt   float64
		want error
	}{
		{"zero dt", State{1}, Control{0}, 0, ErrInvalidTimestep},
		{"negative dt", State{1}, Control{0}, -0.1, ErrInvalidTimestep},
		{"nan dt", State{1}, Control{0}, math.NaN(), ErrInvalidTimestep},
		{"short state", State{}, Control{0}, 0.1, ErrDimensionMismatch},
		{"long control", State{1}, Control{0, 1}, 0.1, ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Advance(tt.x, tt.u, tt.dt)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestStepperDetectsDivergence(t *testing.T) {
	s := NewStepper(blowup{}, newEuler)

	_, err := s.Advance(State{1}, Control{0}, 0.1)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatal("expected *SimulationError")
	}
	if simErr.State[0] != 1 {
		t.Errorf("expected offending state to be recorded, got %v", simErr.State)
	}
}

func TestStepperAppliesNormalizer(t *testing.T) {
	s := NewStepper(clamped{}, newEuler)

	next, err := s.Advance(State{1}, Control{100}, 0.1)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if next[0] != 1 {
		t.Errorf("expected normalized state 1, got %f", next[0])
	}
}

func TestStepperConcurrentUse(t *testing.T) {
	s := NewStepper(decay{}, newEuler)

	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			next, err := s.Advance(State{1}, Control{0}, 0.1)
			if err != nil {
				t.Errorf("advance failed: %v", err)
				return
			}
			results[idx] = next[0]
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r != results[0] {
			t.Errorf("result %d = %f differs from %f", i, r, results[0])
		}
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100} {
		hits := make([]int, n)
		ParallelFor(n, 2, 4, func(start, end int) {
			for i := start; i < end; i++ {
				hits[i]++
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Errorf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}
