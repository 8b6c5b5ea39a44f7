// Package geom holds the attitude and frame helpers shared by the vehicle,
// dynamics and runway packages.
//
// Attitudes are unit quaternions (gonum num/quat) mapping body-frame vectors
// into the world frame. Euler angles always use the aerospace Z-Y-X sequence
// (yaw, then pitch, then roll) and are returned as (roll, pitch, yaw).
package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the attitude with zero roll, pitch and yaw.
func Identity() quat.Number {
	return quat.Number{Real: 1}
}

// FromEuler builds a unit quaternion from Z-Y-X Euler angles in radians.
func FromEuler(roll, pitch, yaw float64) quat.Number {
	sr, cr := math.Sincos(roll / 2)
	sp, cp := math.Sincos(pitch / 2)
	sy, cy := math.Sincos(yaw / 2)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// Euler decomposes q into Z-Y-X Euler angles. Pitch is clamped to ±π/2 at
// the gimbal-lock singularity.
func Euler(q quat.Number) (roll, pitch, yaw float64) {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sp := 2 * (w*y - z*x)
	switch {
	case sp >= 1:
		pitch = math.Pi / 2
	case sp <= -1:
		pitch = -math.Pi / 2
	default:
		pitch = math.Asin(sp)
	}

	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return roll, pitch, yaw
}

// Normalize returns q scaled to unit norm. A zero or non-finite quaternion
// collapses to Identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Identity()
	}
	return quat.Scale(1/n, q)
}

// Rotate maps the body-frame vector v into the world frame.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// InverseRotate maps the world-frame vector v into the body frame.
func InverseRotate(q quat.Number, v r3.Vec) r3.Vec {
	return Rotate(quat.Conj(q), v)
}

// Derivative is the attitude rate q̇ = ½ q ⊗ (0, ω) for body rates ω.
func Derivative(q quat.Number, rates r3.Vec) quat.Number {
	omega := quat.Number{Imag: rates.X, Jmag: rates.Y, Kmag: rates.Z}
	return quat.Scale(0.5, quat.Mul(q, omega))
}

// Rotate2 rotates p by angle radians (counter-clockwise) about center.
func Rotate2(p r2.Vec, angle float64, center r2.Vec) r2.Vec {
	s, c := math.Sincos(angle)
	d := r2.Sub(p, center)
	return r2.Add(center, r2.Vec{X: d.X*c - d.Y*s, Y: d.X*s + d.Y*c})
}

func Radians(deg float64) float64 { return deg * math.Pi / 180 }
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
