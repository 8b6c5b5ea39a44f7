package trim

import (
	"math"

	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/models"
	"github.com/san-kum/flyer/internal/vehicle"
	"gonum.org/v1/gonum/spatial/r3"
)

// CostFunc scores a (pitch, elevator, throttle) candidate. Lower is better.
type CostFunc func(control [3]float64) float64

// CostFactory builds the cost for one target.
type CostFactory func(target Target) CostFunc

const (
	AltitudeScale = 10.0
	AirspeedScale = 5.0
)

// NewEngineCost flies a level start at the target through eng for horizon
// seconds and penalises altitude loss or gain, airspeed change and the final
// pitch rate. An engine failure yields NaN.
func NewEngineCost(eng dynamo.Engine, target Target, horizon, dt float64) CostFunc {
	steps := int(math.Ceil(horizon / dt))
	if steps < 1 {
		steps = 1
	}
	start := r3.Vec{Z: -target.Altitude}

	return func(c [3]float64) float64 {
		s := vehicle.New(
			vehicle.WithPosition(start.X, start.Y, start.Z),
			vehicle.WithAttitudeEuler(0, c[Pitch], 0),
		)
		// airspeed along the world horizontal, expressed in the body frame
		s.Velocity = r3.Vec{
			X: target.Airspeed * math.Cos(c[Pitch]),
			Z: target.Airspeed * math.Sin(c[Pitch]),
		}

		u := make(dynamo.Control, models.ControlLen)
		u[models.CtrlElevator] = c[Elevator]
		u[models.CtrlThrottle] = c[Throttle]

		for i := 0; i < steps; i++ {
			if err := s.Step(eng, dt, u); err != nil {
				return math.NaN()
			}
		}

		dAlt := (s.Altitude() - target.Altitude) / AltitudeScale
		dSpeed := (s.Airspeed() - target.Airspeed) / AirspeedScale
		q := s.Rates.Y
		return dAlt*dAlt + dSpeed*dSpeed + q*q
	}
}

// EngineCost returns a CostFactory around NewEngineCost.
func EngineCost(eng dynamo.Engine, horizon, dt float64) CostFactory {
	return func(target Target) CostFunc {
		return NewEngineCost(eng, target, horizon, dt)
	}
}
