package viz

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

var trackColors = []string{"#ff4500", "#00ccff", "#ffcc00", "#ff00ff", "#88ff88"}

// SVG renders the canvas dots as circles, scale pixels per dot.
func (c *Canvas) SVG(scale float64) string {
	width := float64(c.Width) * scale * 2
	height := float64(c.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	for y := 0; y < c.Height*4; y++ {
		for x := 0; x < c.Width*2; x++ {
			if c.Lit(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, scale*0.4)
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// SVG renders the plan as vector paths: the runway as a filled polygon and
// one polyline per track. North is up.
func (v *PlanView) SVG(width, height int) string {
	var pts []r2.Vec
	var corners [4]r2.Vec
	if v.runway != nil {
		corners = v.runway.Corners()
		pts = append(pts, corners[:]...)
	}
	for _, tr := range v.tracks {
		pts = append(pts, tr...)
	}

	lo, hi := r2.Vec{}, r2.Vec{X: 1, Y: 1}
	if len(pts) > 0 {
		lo, hi = pts[0], pts[0]
		for _, p := range pts[1:] {
			lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
			hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
		}
	}
	pad := r2.Vec{X: v.Margin, Y: v.Margin}
	lo, hi = r2.Sub(lo, pad), r2.Add(hi, pad)
	scale := math.Min(float64(width)/math.Max(hi.X-lo.X, 1e-9), float64(height)/math.Max(hi.Y-lo.Y, 1e-9))
	px := func(p r2.Vec) string {
		return fmt.Sprintf("%.1f,%.1f", (p.X-lo.X)*scale, float64(height)-(p.Y-lo.Y)*scale)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	if v.runway != nil {
		sb.WriteString(`<polygon fill="#555555" points="`)
		for i, p := range corners {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(px(p))
		}
		sb.WriteString("\"/>\n")
	}

	for i, tr := range v.tracks {
		if len(tr) == 0 {
			continue
		}
		fmt.Fprintf(&sb, `<polyline fill="none" stroke="%s" stroke-width="1.5" points="`, trackColors[i%len(trackColors)])
		for j, p := range tr {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(px(p))
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}
