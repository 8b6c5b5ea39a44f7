package control

import "math"

// PID is a discrete PID loop. Output is clamped to [Min, Max] when Max > Min,
// and the integral stops growing while the output saturates.
type PID struct {
	Kp  float64
	Ki  float64
	Kd  float64
	Min float64
	Max float64

	integral float64
	prevErr  float64
	first    bool
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		first: true,
	}
}

// WithLimits sets the output range and returns p.
func (p *PID) WithLimits(min, max float64) *PID {
	p.Min, p.Max = min, max
	return p
}

// Update advances the loop by dt with the current error (setpoint minus
// measurement).
func (p *PID) Update(err, dt float64) float64 {
	if p.first || dt <= 0 {
		p.prevErr = err
		p.first = false
		return p.clamp(p.Kp*err + p.Ki*p.integral)
	}

	derivative := (err - p.prevErr) / dt
	p.prevErr = err

	integral := p.integral + err*dt
	u := p.Kp*err + p.Ki*integral + p.Kd*derivative
	out := p.clamp(u)
	if out == u {
		p.integral = integral
	}
	return out
}

func (p *PID) clamp(u float64) float64 {
	if p.Max > p.Min {
		return math.Max(p.Min, math.Min(p.Max, u))
	}
	return u
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": p.Kp,
		"Ki": p.Ki,
		"Kd": p.Kd,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	}
}
