package world

import (
	"fmt"

	"github.com/brunoga/deep"
	"github.com/san-kum/flyer/internal/runway"
	"github.com/san-kum/flyer/internal/vehicle"
	"gonum.org/v1/gonum/spatial/r3"
)

// Snapshot is a self-contained copy of the world's mutable state.
type Snapshot struct {
	Time     float64         `json:"time" msgpack:"time"`
	Ticks    int             `json:"ticks" msgpack:"ticks"`
	Vehicles []vehicle.State `json:"vehicles" msgpack:"vehicles"`
	Controls [][]float64     `json:"controls" msgpack:"controls"`
	Runway   *runway.Runway  `json:"runway,omitempty" msgpack:"runway,omitempty"`
	Camera   r3.Vec          `json:"camera" msgpack:"camera"`
	Screen   Screen          `json:"screen" msgpack:"screen"`
}

func (w *World) Snapshot() Snapshot {
	controls := make([][]float64, len(w.controls))
	for i, c := range w.controls {
		controls[i] = c
	}
	return deep.MustCopy(Snapshot{
		Time:     w.time,
		Ticks:    w.ticks,
		Vehicles: w.vehicles,
		Controls: controls,
		Runway:   w.runway,
		Camera:   w.cfg.Camera,
		Screen:   w.cfg.Screen,
	})
}

// Restore replaces the world's state with a copy of s. Every vehicle gets
// fresh metric instances.
func (w *World) Restore(s Snapshot) error {
	if len(s.Controls) != len(s.Vehicles) {
		return fmt.Errorf("%w: snapshot has %d vehicles and %d control vectors", ErrControlCount, len(s.Vehicles), len(s.Controls))
	}
	dim := w.engine.ControlDim()
	for i, c := range s.Controls {
		if len(c) != dim {
			return fmt.Errorf("%w: vehicle %d has %d controls, want %d", ErrControlCount, i, len(c), dim)
		}
	}

	s = deep.MustCopy(s)
	w.time = s.Time
	w.ticks = s.Ticks
	w.vehicles = s.Vehicles
	w.controls = w.controls[:0]
	w.metrics = w.metrics[:0]
	for i, c := range s.Controls {
		w.vehicles[i] = w.vehicles[i].Normalized()
		w.controls = append(w.controls, c)
		w.metrics = append(w.metrics, w.vehicleMetrics())
	}
	w.runway = s.Runway
	w.cfg.Camera = s.Camera
	w.cfg.Screen = s.Screen
	w.observeFleet()
	return nil
}
