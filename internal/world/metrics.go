package world

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus instruments a World updates.
type Collector struct {
	Ticks        prometheus.Counter
	Vehicles     prometheus.Gauge
	Crashed      prometheus.Gauge
	StepDuration prometheus.Histogram
}

// NewCollector registers world metrics against reg, defaulting to the
// global registry when nil. Registering twice on one registry returns the
// existing instruments.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	ticks, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flyer_world_ticks_total",
		Help: "Number of committed world steps.",
	}), "flyer_world_ticks_total")
	if err != nil {
		return nil, err
	}
	vehicles, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flyer_world_vehicles",
		Help: "Current number of vehicles in the world.",
	}), "flyer_world_vehicles")
	if err != nil {
		return nil, err
	}
	crashed, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flyer_world_crashed_vehicles",
		Help: "Vehicles currently outside the safety envelope.",
	}), "flyer_world_crashed_vehicles")
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flyer_world_step_duration_seconds",
		Help:    "Wall time spent in World.Step.",
		Buckets: []float64{1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3, 0.01, 0.05},
	}), "flyer_world_step_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		Ticks:        ticks,
		Vehicles:     vehicles,
		Crashed:      crashed,
		StepDuration: duration,
	}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
