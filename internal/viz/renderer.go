package viz

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/san-kum/flyer/internal/world"
	"golang.org/x/image/colornames"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	defaultFrameWidth  = 320
	defaultFrameHeight = 240
)

// PlanRenderer draws a top-down frame centred under the snapshot camera.
// Scale is pixels per metre.
type PlanRenderer struct {
	Scale   float64
	Ground  color.RGBA
	Runway  color.RGBA
	Vehicle color.RGBA
}

func NewPlanRenderer(scale float64) *PlanRenderer {
	return &PlanRenderer{
		Scale:   scale,
		Ground:  colornames.Darkolivegreen,
		Runway:  colornames.Dimgray,
		Vehicle: colornames.Orangered,
	}
}

var _ world.Renderer = (*PlanRenderer)(nil)

func (r *PlanRenderer) Render(s world.Snapshot) (*image.RGBA, error) {
	w, h := s.Screen.Width, s.Screen.Height
	if w <= 0 || h <= 0 {
		w, h = defaultFrameWidth, defaultFrameHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: r.Ground}, image.Point{}, draw.Src)

	centre := r2.Vec{X: s.Camera.X, Y: s.Camera.Y}
	toWorld := func(px, py int) r2.Vec {
		return r2.Vec{
			X: centre.X + (float64(px)-float64(w)/2)/r.Scale,
			Y: centre.Y - (float64(py)-float64(h)/2)/r.Scale,
		}
	}
	toPixel := func(p r2.Vec) image.Point {
		return image.Point{
			X: int(float64(w)/2 + (p.X-centre.X)*r.Scale),
			Y: int(float64(h)/2 - (p.Y-centre.Y)*r.Scale),
		}
	}

	if rw := s.Runway; rw != nil {
		for py := 0; py < h; py++ {
			for px := 0; px < w; px++ {
				if rw.Contains(toWorld(px, py)) {
					img.SetRGBA(px, py, r.Runway)
				}
			}
		}
	}

	for _, v := range s.Vehicles {
		p := toPixel(r2.Vec{X: v.Position.X, Y: v.Position.Y})
		marker := image.Rect(p.X-1, p.Y-1, p.X+2, p.Y+2).Intersect(img.Bounds())
		draw.Draw(img, marker, &image.Uniform{C: r.Vehicle}, image.Point{}, draw.Src)
	}
	return img, nil
}
