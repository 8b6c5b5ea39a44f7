package metrics

import (
	"math"

	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/models"
)

// EnergyHeight returns altitude plus airspeed²/2g, the height the aircraft
// could reach by trading all its kinetic energy.
func EnergyHeight(x dynamo.State, gravity float64) float64 {
	v2 := x[models.IdxU]*x[models.IdxU] + x[models.IdxV]*x[models.IdxV] + x[models.IdxW]*x[models.IdxW]
	return -x[models.IdxZ] + v2/(2*gravity)
}

// Energy is the mean energy height over the observed samples.
type Energy struct {
	name        string
	gravity     float64
	samples     int
	totalEnergy float64
}

func NewEnergy(gravity float64) *Energy {
	return &Energy{
		name:    "energy",
		gravity: gravity,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) != models.StateLen {
		return
	}
	e.totalEnergy += EnergyHeight(x, e.gravity)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative departure of energy height from the
// first observed sample.
type EnergyDrift struct {
	name          string
	gravity       float64
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(gravity float64) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		gravity: gravity,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) != models.StateLen {
		return
	}
	energy := EnergyHeight(x, e.gravity)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
