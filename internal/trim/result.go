package trim

import "fmt"

type Status int

const (
	Converged Status = iota
	MaxIterations
	Aborted
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case MaxIterations:
		return "max_iterations"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{Converged, MaxIterations, Aborted} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("trim: unknown status %q", text)
}

// Control indexes.
const (
	Pitch = iota
	Elevator
	Throttle
)

type Result struct {
	Target Target `json:"target"`
	// Control is (pitch radians, elevator, throttle).
	Control      [3]float64 `json:"control"`
	Cost         float64    `json:"cost"`
	Iterations   int        `json:"iterations"`
	Status       Status     `json:"status"`
	History      []float64  `json:"history"`
	InitialCosts []float64  `json:"initial_costs"`
}

func (r *Result) Pitch() float64    { return r.Control[Pitch] }
func (r *Result) Elevator() float64 { return r.Control[Elevator] }
func (r *Result) Throttle() float64 { return r.Control[Throttle] }
