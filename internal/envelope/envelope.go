// Package envelope decides whether a vehicle has left its safe flight
// envelope.
package envelope

import (
	"github.com/san-kum/flyer/internal/geom"
	"github.com/san-kum/flyer/internal/vehicle"
)

// Limits bounds the airborne envelope. Pitch limits are radians.
type Limits struct {
	// GroundLevel is the z above which a vehicle counts as on or near the
	// ground and is never reported as crashed.
	GroundLevel      float64
	MaxForwardSpeed  float64
	MaxVerticalSpeed float64
	MinPitch         float64
	MaxPitch         float64
}

func DefaultLimits() Limits {
	return Limits{
		GroundLevel:      -5,
		MaxForwardSpeed:  200,
		MaxVerticalSpeed: 60,
		MinPitch:         geom.Radians(-5),
		MaxPitch:         geom.Radians(30),
	}
}

type Violation int

const (
	ForwardSpeed Violation = iota
	VerticalSpeed
	PitchBelowMin
	PitchAboveMax
)

func (v Violation) String() string {
	switch v {
	case ForwardSpeed:
		return "forward speed"
	case VerticalSpeed:
		return "vertical speed"
	case PitchBelowMin:
		return "pitch below minimum"
	case PitchAboveMax:
		return "pitch above maximum"
	default:
		return "unknown"
	}
}

type Envelope struct {
	Limits Limits
}

func New(limits Limits) *Envelope {
	return &Envelope{Limits: limits}
}

// Violations lists every limit s breaks. It is empty while s is on the
// ground.
func (e *Envelope) Violations(s vehicle.State) []Violation {
	if s.Position.Z > e.Limits.GroundLevel {
		return nil
	}

	var out []Violation
	if s.Velocity.X > e.Limits.MaxForwardSpeed {
		out = append(out, ForwardSpeed)
	}
	if s.Velocity.Z > e.Limits.MaxVerticalSpeed {
		out = append(out, VerticalSpeed)
	}
	pitch := s.Pitch()
	if pitch < e.Limits.MinPitch {
		out = append(out, PitchBelowMin)
	}
	if pitch > e.Limits.MaxPitch {
		out = append(out, PitchAboveMax)
	}
	return out
}

func (e *Envelope) IsCrashed(s vehicle.State) bool {
	return len(e.Violations(s)) > 0
}

var defaultEnvelope = New(DefaultLimits())

// IsCrashed applies DefaultLimits.
func IsCrashed(s vehicle.State) bool {
	return defaultEnvelope.IsCrashed(s)
}
