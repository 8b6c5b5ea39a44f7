// Package vehicle holds the rigid-body state of a single aircraft.
//
// A [State] is a plain value: copying it yields an independent snapshot with
// no reference back to the world or engine that produced it.
package vehicle

import (
	"fmt"
	"math"

	"github.com/brunoga/deep"
	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/geom"
	"github.com/san-kum/flyer/internal/models"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const DefaultName = "TO"

// State is one aircraft's kinematic state. Position is world frame with z
// down; Velocity (u, v, w) and Rates (p, q, r) are body frame.
type State struct {
	Name     string      `json:"name" msgpack:"name"`
	Position r3.Vec      `json:"position" msgpack:"position"`
	Velocity r3.Vec      `json:"velocity" msgpack:"velocity"`
	Attitude quat.Number `json:"attitude" msgpack:"attitude"`
	Rates    r3.Vec      `json:"rates" msgpack:"rates"`
}

type Option func(*State)

func WithName(name string) Option {
	return func(s *State) { s.Name = name }
}

func WithPosition(x, y, z float64) Option {
	return func(s *State) { s.Position = r3.Vec{X: x, Y: y, Z: z} }
}

func WithVelocity(u, v, w float64) Option {
	return func(s *State) { s.Velocity = r3.Vec{X: u, Y: v, Z: w} }
}

// WithAttitudeEuler sets the attitude from roll, pitch and yaw in radians.
func WithAttitudeEuler(roll, pitch, yaw float64) Option {
	return func(s *State) { s.Attitude = geom.FromEuler(roll, pitch, yaw) }
}

func WithAttitude(q quat.Number) Option {
	return func(s *State) { s.Attitude = q }
}

func WithRates(p, q, r float64) Option {
	return func(s *State) { s.Rates = r3.Vec{X: p, Y: q, Z: r} }
}

// New returns a state at the origin, at rest, level and pointing north,
// named DefaultName, with opts applied on top.
func New(opts ...Option) State {
	s := State{
		Name:     DefaultName,
		Attitude: geom.Identity(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.Attitude = geom.Normalize(s.Attitude)
	return s
}

// Snapshot returns an independent deep copy of s.
func (s State) Snapshot() State {
	return deep.MustCopy(s)
}

// attitudeTolerance is how far |q| may stray from 1 before Normalized
// rescales it.
const attitudeTolerance = 1e-9

// Normalized returns s with a unit attitude quaternion. A zero or
// non-finite attitude becomes level and pointing north. Attitudes already
// within tolerance of unit norm are returned bit for bit.
func (s State) Normalized() State {
	if n := quat.Abs(s.Attitude); math.Abs(n-1) > attitudeTolerance || math.IsNaN(n) {
		s.Attitude = geom.Normalize(s.Attitude)
	}
	return s
}

// Reset discards the current state and places the aircraft at position,
// wings level on heading (radians) with airspeed along the body x axis.
// The name returns to DefaultName unless opts set it.
func (s *State) Reset(position r3.Vec, heading, airspeed float64, opts ...Option) {
	base := []Option{
		WithPosition(position.X, position.Y, position.Z),
		WithVelocity(airspeed, 0, 0),
		WithAttitudeEuler(0, 0, heading),
	}
	*s = New(append(base, opts...)...)
}

// Step advances the state by dt through eng with the raw control vector u.
// The state is left untouched when eng fails.
func (s *State) Step(eng dynamo.Engine, dt float64, u dynamo.Control) error {
	next, err := eng.Advance(s.StateVector(), u, dt)
	if err != nil {
		return fmt.Errorf("vehicle %q: %w", s.Name, err)
	}
	updated, err := FromStateVector(s.Name, next)
	if err != nil {
		return err
	}
	*s = updated
	return nil
}

// StateVector flattens the state as x y z, u v w, qw qx qy qz, p q r.
func (s State) StateVector() dynamo.State {
	return dynamo.State{
		s.Position.X, s.Position.Y, s.Position.Z,
		s.Velocity.X, s.Velocity.Y, s.Velocity.Z,
		s.Attitude.Real, s.Attitude.Imag, s.Attitude.Jmag, s.Attitude.Kmag,
		s.Rates.X, s.Rates.Y, s.Rates.Z,
	}
}

// FromStateVector is the inverse of StateVector. The quaternion is
// renormalised.
func FromStateVector(name string, x dynamo.State) (State, error) {
	if len(x) != models.StateLen {
		return State{}, fmt.Errorf("state vector has %d elements, want %d: %w", len(x), models.StateLen, dynamo.ErrDimensionMismatch)
	}
	return State{
		Name:     name,
		Position: r3.Vec{X: x[models.IdxX], Y: x[models.IdxY], Z: x[models.IdxZ]},
		Velocity: r3.Vec{X: x[models.IdxU], Y: x[models.IdxV], Z: x[models.IdxW]},
		Attitude: geom.Normalize(quat.Number{
			Real: x[models.IdxQW], Imag: x[models.IdxQX], Jmag: x[models.IdxQY], Kmag: x[models.IdxQZ],
		}),
		Rates: r3.Vec{X: x[models.IdxP], Y: x[models.IdxQ], Z: x[models.IdxR]},
	}, nil
}

// Euler returns (roll, pitch, yaw) in radians.
func (s State) Euler() (roll, pitch, yaw float64) {
	return geom.Euler(s.Attitude)
}

func (s State) Pitch() float64 {
	_, pitch, _ := s.Euler()
	return pitch
}

// Altitude is height above the z=0 plane.
func (s State) Altitude() float64 {
	return -s.Position.Z
}

func (s State) Airspeed() float64 {
	return r3.Norm(s.Velocity)
}

// Dict returns the state keyed by component name, with attitude as Euler
// angles.
func (s State) Dict() map[string]float64 {
	roll, pitch, yaw := s.Euler()
	return map[string]float64{
		"x": s.Position.X, "y": s.Position.Y, "z": s.Position.Z,
		"u": s.Velocity.X, "v": s.Velocity.Y, "w": s.Velocity.Z,
		"roll": roll, "pitch": pitch, "yaw": yaw,
		"p": s.Rates.X, "q": s.Rates.Y, "r": s.Rates.Z,
	}
}
