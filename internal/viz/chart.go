package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/models"
)

// Plot renders values as an ASCII line chart. Non-finite samples are
// dropped.
func Plot(values []float64, caption string, width, height int) string {
	data := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return caption + ": no data\n"
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// Convergence plots best cost per trim iteration on a log10 axis.
func Convergence(history []float64) string {
	logged := make([]float64, len(history))
	for i, c := range history {
		logged[i] = math.Log10(math.Max(c, 1e-12))
	}
	return Plot(logged, "log10 best cost per iteration", 80, 12)
}

// Altitude plots height above ground for a recorded trajectory.
func Altitude(states []dynamo.State) string {
	return Plot(Column(states, models.IdxZ, -1), "altitude (m)", 80, 10)
}

// Column extracts one state component, multiplied by sign.
func Column(states []dynamo.State, idx int, sign float64) []float64 {
	out := make([]float64, 0, len(states))
	for _, x := range states {
		if idx < len(x) {
			out = append(out, sign*x[idx])
		}
	}
	return out
}
