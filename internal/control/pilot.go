package control

import (
	"math"

	"github.com/san-kum/flyer/internal/geom"
	"github.com/san-kum/flyer/internal/vehicle"
)

// Pilot produces channel commands for one vehicle. The map feeds
// world.World.Act; channels it leaves out keep their held value.
type Pilot interface {
	Command(s vehicle.State, dt float64) map[string]float64
}

// Hold returns the same commands every tick until Set changes them.
type Hold struct {
	cmd map[string]float64
}

func NewHold(cmd map[string]float64) *Hold {
	h := &Hold{cmd: map[string]float64{}}
	h.Set(cmd)
	return h
}

// Set merges cmd into the held commands.
func (h *Hold) Set(cmd map[string]float64) {
	for k, v := range cmd {
		h.cmd[k] = v
	}
}

func (h *Hold) Command(vehicle.State, float64) map[string]float64 {
	out := make(map[string]float64, len(h.cmd))
	for k, v := range h.cmd {
		out[k] = v
	}
	return out
}

type Gains struct {
	AltitudeToPitch PIDGains `yaml:"altitude_to_pitch"`
	PitchToElevator PIDGains `yaml:"pitch_to_elevator"`
	Airspeed        PIDGains `yaml:"airspeed"`
	HeadingToRoll   PIDGains `yaml:"heading_to_roll"`
	RollToAileron   PIDGains `yaml:"roll_to_aileron"`

	// Commanded attitude limits in radians. The default nose-down limit
	// stays inside the default envelope.
	MinPitch float64 `yaml:"min_pitch"`
	MaxPitch float64 `yaml:"max_pitch"`
	MaxRoll  float64 `yaml:"max_roll"`
	// TrimThrottle is added to the airspeed loop output.
	TrimThrottle float64 `yaml:"trim_throttle"`
}

type PIDGains struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

func DefaultGains() Gains {
	return Gains{
		AltitudeToPitch: PIDGains{Kp: 0.01, Ki: 0.001, Kd: 0.02},
		PitchToElevator: PIDGains{Kp: 2.0, Kd: 0.5},
		Airspeed:        PIDGains{Kp: 0.1, Ki: 0.02},
		HeadingToRoll:   PIDGains{Kp: 0.8},
		RollToAileron:   PIDGains{Kp: 1.5, Kd: 0.3},
		MinPitch:        geom.Radians(-4),
		MaxPitch:        geom.Radians(10),
		MaxRoll:         geom.Radians(20),
		TrimThrottle:    0.5,
	}
}

// Autopilot holds altitude through pitch, airspeed through throttle and
// heading through bank. Positive elevator pitches the nose down.
type Autopilot struct {
	Altitude float64
	Airspeed float64
	Heading  float64

	gains    Gains
	altPitch *PID
	pitchEl  *PID
	speed    *PID
	hdgRoll  *PID
	rollAil  *PID
}

func NewAutopilot(g Gains, altitude, airspeed, heading float64) *Autopilot {
	mk := func(pg PIDGains) *PID { return NewPID(pg.Kp, pg.Ki, pg.Kd) }
	return &Autopilot{
		Altitude: altitude,
		Airspeed: airspeed,
		Heading:  heading,
		gains:    g,
		altPitch: mk(g.AltitudeToPitch).WithLimits(g.MinPitch, g.MaxPitch),
		pitchEl:  mk(g.PitchToElevator).WithLimits(-1, 1),
		speed:    mk(g.Airspeed).WithLimits(-g.TrimThrottle, 1-g.TrimThrottle),
		hdgRoll:  mk(g.HeadingToRoll).WithLimits(-g.MaxRoll, g.MaxRoll),
		rollAil:  mk(g.RollToAileron).WithLimits(-1, 1),
	}
}

func (a *Autopilot) Command(s vehicle.State, dt float64) map[string]float64 {
	roll, pitch, yaw := s.Euler()

	pitchCmd := a.altPitch.Update(a.Altitude-s.Altitude(), dt)
	elevator := -a.pitchEl.Update(pitchCmd-pitch, dt)

	throttle := a.gains.TrimThrottle + a.speed.Update(a.Airspeed-s.Airspeed(), dt)

	rollCmd := a.hdgRoll.Update(wrapAngle(a.Heading-yaw), dt)
	aileron := a.rollAil.Update(rollCmd-roll, dt)

	return map[string]float64{
		"elevator": elevator,
		"aileron":  aileron,
		"rudder":   0,
		"throttle": throttle,
	}
}

func (a *Autopilot) Reset() {
	for _, p := range []*PID{a.altPitch, a.pitchEl, a.speed, a.hdgRoll, a.rollAil} {
		p.Reset()
	}
}

// wrapAngle maps a to (-pi, pi].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
