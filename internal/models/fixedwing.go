package models

import (
	"math"

	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/geom"
	"github.com/san-kum/flyer/internal/integrators"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultGravity    = 9.81
	DefaultAirDensity = 1.225
)

// Indices into the 13-element state vector.
const (
	IdxX = iota
	IdxY
	IdxZ
	IdxU
	IdxV
	IdxW
	IdxQW
	IdxQX
	IdxQY
	IdxQZ
	IdxP
	IdxQ
	IdxR
	StateLen
)

// Indices into the control vector.
const (
	CtrlElevator = iota
	CtrlAileron
	CtrlRudder
	CtrlThrottle
	ControlLen
)

// Channels names the control vector entries in order.
var Channels = []string{"elevator", "aileron", "rudder", "throttle"}

// FixedWing is a light single-engine aircraft with linear aerodynamic
// coefficients. Position is world NED (z down), velocity and rates are body
// frame. Surfaces deflect in [-1, 1] and throttle in [0, 1].
type FixedWing struct {
	Mass      float64
	Ixx       float64
	Iyy       float64
	Izz       float64
	WingArea  float64
	Chord     float64
	Span      float64
	MaxThrust float64
	Gravity   float64
	Density   float64

	CL0, CLAlpha, CLElevator float64
	CD0, InducedDrag         float64
	CYBeta                   float64

	Cm0, CmAlpha, CmElevator, CmQ float64
	ClAileron, ClP                float64
	CnBeta, CnRudder, CnR         float64

	// GroundContact stops the aircraft sinking below GroundZ.
	GroundContact bool
	GroundZ       float64
}

func NewFixedWing() *FixedWing {
	return &FixedWing{
		Mass:      1043,
		Ixx:       1285,
		Iyy:       1825,
		Izz:       2667,
		WingArea:  16.2,
		Chord:     1.49,
		Span:      10.9,
		MaxThrust: 2800,
		Gravity:   DefaultGravity,
		Density:   DefaultAirDensity,

		CL0: 0.25, CLAlpha: 4.6, CLElevator: 0.35,
		CD0: 0.03, InducedDrag: 0.05,
		CYBeta: -0.3,

		Cm0: 0.04, CmAlpha: -0.6, CmElevator: -1.1, CmQ: -12,
		ClAileron: 0.18, ClP: -0.5,
		CnBeta: 0.07, CnRudder: -0.07, CnR: -0.1,

		GroundContact: true,
	}
}

func (f *FixedWing) StateDim() int   { return StateLen }
func (f *FixedWing) ControlDim() int { return ControlLen }

func (f *FixedWing) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	att := quat.Number{Real: x[IdxQW], Imag: x[IdxQX], Jmag: x[IdxQY], Kmag: x[IdxQZ]}
	vel := r3.Vec{X: x[IdxU], Y: x[IdxV], Z: x[IdxW]}
	rates := r3.Vec{X: x[IdxP], Y: x[IdxQ], Z: x[IdxR]}

	elevator := clamp(u[CtrlElevator], -1, 1)
	aileron := clamp(u[CtrlAileron], -1, 1)
	rudder := clamp(u[CtrlRudder], -1, 1)
	throttle := clamp(u[CtrlThrottle], 0, 1)

	force := r3.Vec{X: throttle * f.MaxThrust}
	var moment r3.Vec

	airspeed := r3.Norm(vel)
	if airspeed > 1e-6 {
		alpha := math.Atan2(vel.Z, vel.X)
		beta := math.Asin(clamp(vel.Y/airspeed, -1, 1))
		qbar := 0.5 * f.Density * airspeed * airspeed * f.WingArea

		cl := f.CL0 + f.CLAlpha*alpha + f.CLElevator*elevator
		cd := f.CD0 + f.InducedDrag*cl*cl
		lift, drag := qbar*cl, qbar*cd

		sa, ca := math.Sincos(alpha)
		force.X += lift*sa - drag*ca
		force.Y += qbar * f.CYBeta * beta
		force.Z += -lift*ca - drag*sa

		pHat := rates.X * f.Span / (2 * airspeed)
		qHat := rates.Y * f.Chord / (2 * airspeed)
		rHat := rates.Z * f.Span / (2 * airspeed)

		moment.X = qbar * f.Span * (f.ClAileron*aileron + f.ClP*pHat)
		moment.Y = qbar * f.Chord * (f.Cm0 + f.CmAlpha*alpha + f.CmElevator*elevator + f.CmQ*qHat)
		moment.Z = qbar * f.Span * (f.CnBeta*beta + f.CnRudder*rudder + f.CnR*rHat)
	}

	gravity := geom.InverseRotate(att, r3.Vec{Z: f.Mass * f.Gravity})
	force = r3.Add(force, gravity)

	accel := r3.Sub(r3.Scale(1/f.Mass, force), r3.Cross(rates, vel))

	p, q, r := rates.X, rates.Y, rates.Z
	pDot := (moment.X - (f.Izz-f.Iyy)*q*r) / f.Ixx
	qDot := (moment.Y - (f.Ixx-f.Izz)*p*r) / f.Iyy
	rDot := (moment.Z - (f.Iyy-f.Ixx)*p*q) / f.Izz

	posDot := geom.Rotate(att, vel)
	attDot := geom.Derivative(att, rates)

	return dynamo.State{
		posDot.X, posDot.Y, posDot.Z,
		accel.X, accel.Y, accel.Z,
		attDot.Real, attDot.Imag, attDot.Jmag, attDot.Kmag,
		pDot, qDot, rDot,
	}
}

// Normalize restores the unit quaternion after integration and, when ground
// contact is enabled, clips the aircraft to the ground plane.
func (f *FixedWing) Normalize(x dynamo.State) dynamo.State {
	out := x.Clone()
	att := geom.Normalize(quat.Number{Real: out[IdxQW], Imag: out[IdxQX], Jmag: out[IdxQY], Kmag: out[IdxQZ]})
	out[IdxQW], out[IdxQX], out[IdxQY], out[IdxQZ] = att.Real, att.Imag, att.Jmag, att.Kmag

	if f.GroundContact && out[IdxZ] > f.GroundZ {
		out[IdxZ] = f.GroundZ
		world := geom.Rotate(att, r3.Vec{X: out[IdxU], Y: out[IdxV], Z: out[IdxW]})
		if world.Z > 0 {
			world.Z = 0
			body := geom.InverseRotate(att, world)
			out[IdxU], out[IdxV], out[IdxW] = body.X, body.Y, body.Z
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DefaultEngine integrates a default FixedWing with RK4.
func DefaultEngine() *dynamo.Stepper {
	return dynamo.NewStepper(NewFixedWing(), func() dynamo.Integrator { return integrators.NewRK4() })
}
