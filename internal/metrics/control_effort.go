package metrics

import (
	"math"

	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/models"
)

var surfaces = [...]int{models.CtrlElevator, models.CtrlAileron, models.CtrlRudder}

// ControlEffort is the mean absolute control-surface deflection, averaged
// over elevator, aileron and rudder. Deflections are clamped to [-1, 1] the
// way the airframe sees them, so the value lies in [0, 1]. Throttle is not
// a surface and is reported by Throttle.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) != len(models.Channels) {
		return
	}
	deflection := 0.0
	for _, ch := range surfaces {
		deflection += math.Min(math.Abs(u[ch]), 1)
	}
	c.sum += deflection / float64(len(surfaces))
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// Throttle is the mean commanded throttle, clamped to [0, 1].
type Throttle struct {
	sum     float64
	samples int
}

func NewThrottle() *Throttle {
	return &Throttle{}
}

func (m *Throttle) Name() string { return "throttle" }

func (m *Throttle) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) != len(models.Channels) {
		return
	}
	m.sum += math.Max(0, math.Min(u[models.CtrlThrottle], 1))
	m.samples++
}

func (m *Throttle) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Throttle) Reset() {
	m.sum = 0
	m.samples = 0
}
