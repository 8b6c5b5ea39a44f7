package viz

import (
	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/models"
	"github.com/san-kum/flyer/internal/runway"
	"gonum.org/v1/gonum/spatial/r2"
)

// PlanView is a top-down plot of a runway and ground tracks.
type PlanView struct {
	Width, Height int
	Margin        float64

	runway *runway.Runway
	tracks [][]r2.Vec
}

func NewPlanView(w, h int) *PlanView {
	return &PlanView{Width: w, Height: h, Margin: 50}
}

func (v *PlanView) SetRunway(rw runway.Runway) {
	v.runway = &rw
}

// AddTrack adds the horizontal path of a recorded state sequence.
func (v *PlanView) AddTrack(states []dynamo.State) {
	path := make([]r2.Vec, 0, len(states))
	for _, x := range states {
		if len(x) < models.StateLen {
			continue
		}
		path = append(path, r2.Vec{X: x[models.IdxX], Y: x[models.IdxY]})
	}
	v.tracks = append(v.tracks, path)
}

func (v *PlanView) String() string {
	var pts []r2.Vec
	var corners [4]r2.Vec
	if v.runway != nil {
		corners = v.runway.Corners()
		pts = append(pts, corners[:]...)
	}
	for _, tr := range v.tracks {
		pts = append(pts, tr...)
	}

	c := NewCanvas(v.Width, v.Height)
	c.Fit(pts, v.Margin)

	if v.runway != nil {
		for i := range corners {
			c.Line(corners[i], corners[(i+1)%len(corners)])
		}
	}
	for _, tr := range v.tracks {
		for i := 1; i < len(tr); i++ {
			c.Line(tr[i-1], tr[i])
		}
		if len(tr) == 1 {
			c.Plot(tr[0])
		}
	}
	return c.String()
}
