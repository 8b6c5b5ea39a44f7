package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

func (c Control) Clone() Control {
	out := make(Control, len(c))
	copy(out, c)
	return out
}

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Normalizer is implemented by systems whose state has a constraint the
// integrator does not preserve, e.g. a unit quaternion.
type Normalizer interface {
	Normalize(x State) State
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Engine advances a state by dt under a control input. Implementations must
// be deterministic and must not keep hidden state between calls.
type Engine interface {
	Advance(x State, u Control, dt float64) (State, error)
	StateDim() int
	ControlDim() int
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}
