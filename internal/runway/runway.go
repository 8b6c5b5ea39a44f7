// Package runway describes a rectangular runway on the ground plane.
package runway

import (
	"math"

	"github.com/iancoleman/orderedmap"
	"github.com/san-kum/flyer/internal/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultWidth  = 45.0
	DefaultLength = 1000.0

	DefaultApproachDistance = 1000.0
	DefaultAimOffset        = 0.25
)

// Runway is a rectangle centred on Position. Its length runs along the local
// y axis; Heading rotates that axis counter-clockwise, in radians.
type Runway struct {
	Position r2.Vec  `json:"position" msgpack:"position"`
	Width    float64 `json:"width" msgpack:"width"`
	Length   float64 `json:"length" msgpack:"length"`
	Heading  float64 `json:"heading" msgpack:"heading"`

	// ApproachDistance is how far before the threshold the approach point
	// sits. AimOffset is the aim point's distance past the threshold as a
	// fraction of Length.
	ApproachDistance float64 `json:"approach_distance" msgpack:"approach_distance"`
	AimOffset        float64 `json:"aim_offset" msgpack:"aim_offset"`
}

type Option func(*Runway)

func WithPosition(x, y float64) Option {
	return func(r *Runway) { r.Position = r2.Vec{X: x, Y: y} }
}

func WithWidth(w float64) Option {
	return func(r *Runway) { r.Width = w }
}

func WithLength(l float64) Option {
	return func(r *Runway) { r.Length = l }
}

func WithHeading(h float64) Option {
	return func(r *Runway) { r.Heading = h }
}

func WithApproachDistance(d float64) Option {
	return func(r *Runway) { r.ApproachDistance = d }
}

func WithAimOffset(f float64) Option {
	return func(r *Runway) { r.AimOffset = f }
}

func Default() Runway {
	return Runway{
		Width:            DefaultWidth,
		Length:           DefaultLength,
		ApproachDistance: DefaultApproachDistance,
		AimOffset:        DefaultAimOffset,
	}
}

func New(opts ...Option) Runway {
	r := Default()
	r.Apply(opts...)
	return r
}

// Apply modifies only the fields the options name.
func (r *Runway) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(r)
	}
}

// Local maps a world point into runway coordinates: x across the runway,
// y along it.
func (r Runway) Local(p r2.Vec) r2.Vec {
	return r2.Sub(geom.Rotate2(p, -r.Heading, r.Position), r.Position)
}

// Contains reports whether p lies on the runway. Edges count as inside.
func (r Runway) Contains(p r2.Vec) bool {
	l := r.Local(p)
	return math.Abs(l.X) <= r.Width/2 && math.Abs(l.Y) <= r.Length/2
}

// Direction is the unit vector along the centerline in the landing direction.
func (r Runway) Direction() r2.Vec {
	s, c := math.Sincos(r.Heading)
	return r2.Vec{X: -s, Y: c}
}

// ApproachPoints returns the named points along the extended centerline in
// the order they are flown: approach, threshold, aim, far_threshold.
// Values are r2.Vec.
func (r Runway) ApproachPoints() *orderedmap.OrderedMap {
	d := r.Direction()
	half := r.Length / 2
	at := func(dist float64) r2.Vec {
		return r2.Add(r.Position, r2.Scale(dist, d))
	}

	points := orderedmap.New()
	points.Set("approach", at(-(half + r.ApproachDistance)))
	points.Set("threshold", at(-half))
	points.Set("aim", at(-(half - r.AimOffset*r.Length)))
	points.Set("far_threshold", at(half))
	return points
}

// Corners returns the four corners counter-clockwise, starting at the
// left side of the threshold.
func (r Runway) Corners() [4]r2.Vec {
	hw, hl := r.Width/2, r.Length/2
	local := [4]r2.Vec{
		{X: -hw, Y: -hl},
		{X: hw, Y: -hl},
		{X: hw, Y: hl},
		{X: -hw, Y: hl},
	}
	var out [4]r2.Vec
	for i, p := range local {
		out[i] = geom.Rotate2(r2.Add(r.Position, p), r.Heading, r.Position)
	}
	return out
}
