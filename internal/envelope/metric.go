package envelope

import (
	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/vehicle"
)

// CrashMetric reports the fraction of observed states that were inside the
// envelope. 1.0 means no sample crashed.
type CrashMetric struct {
	env        *Envelope
	violations int
	samples    int
}

func NewCrashMetric(env *Envelope) *CrashMetric {
	return &CrashMetric{env: env}
}

func (m *CrashMetric) Name() string {
	return "envelope"
}

func (m *CrashMetric) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s, err := vehicle.FromStateVector("", x)
	if err != nil {
		return
	}
	m.samples++
	if m.env.IsCrashed(s) {
		m.violations++
	}
}

func (m *CrashMetric) Value() float64 {
	if m.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(m.violations)/float64(m.samples)
}

func (m *CrashMetric) Reset() {
	m.violations = 0
	m.samples = 0
}
