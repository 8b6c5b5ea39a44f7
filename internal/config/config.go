package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/flyer/internal/control"
	"github.com/san-kum/flyer/internal/envelope"
	"github.com/san-kum/flyer/internal/geom"
	"github.com/san-kum/flyer/internal/logging"
	"github.com/san-kum/flyer/internal/optim"
	"github.com/san-kum/flyer/internal/runway"
	"github.com/san-kum/flyer/internal/trim"
	"github.com/san-kum/flyer/internal/vehicle"
	"github.com/san-kum/flyer/internal/world"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultAltitude = 300.0
	DefaultAirspeed = 50.0
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the on-disk description of a run. Angles are degrees.
type Config struct {
	Model      string          `yaml:"model"`
	Integrator string          `yaml:"integrator"`
	World      WorldConfig     `yaml:"world"`
	Envelope   EnvelopeConfig  `yaml:"envelope"`
	Trim       TrimConfig      `yaml:"trim"`
	Runway     *RunwayConfig   `yaml:"runway,omitempty"`
	Vehicles   []VehicleConfig `yaml:"vehicles"`
	Metrics    []string        `yaml:"metrics,omitempty"`
	Log        logging.Config  `yaml:"log"`
}

type WorldConfig struct {
	Dt           float64    `yaml:"dt"`
	Duration     float64    `yaml:"duration"`
	Camera       [3]float64 `yaml:"camera,flow"`
	ScreenWidth  int        `yaml:"screen_width"`
	ScreenHeight int        `yaml:"screen_height"`
	AssetsDir    string     `yaml:"assets_dir"`
	TerrainDir   string     `yaml:"terrain_dir"`
	RenderMode   string     `yaml:"render_mode"`
	Parallel     bool       `yaml:"parallel"`
	Workers      int        `yaml:"workers,omitempty"`
}

type EnvelopeConfig struct {
	GroundLevel      float64 `yaml:"ground_level"`
	MaxForwardSpeed  float64 `yaml:"max_forward_speed"`
	MaxVerticalSpeed float64 `yaml:"max_vertical_speed"`
	MinPitch         float64 `yaml:"min_pitch"`
	MaxPitch         float64 `yaml:"max_pitch"`
}

type TrimConfig struct {
	Particles        int        `yaml:"particles"`
	MaxIterations    int        `yaml:"max_iterations"`
	Inertia          float64    `yaml:"inertia"`
	Cognitive        float64    `yaml:"cognitive"`
	Social           float64    `yaml:"social"`
	VelocityFraction float64    `yaml:"velocity_fraction"`
	Tolerance        float64    `yaml:"tolerance"`
	StallIterations  int        `yaml:"stall_iterations"`
	Seed             uint64     `yaml:"seed"`
	Workers          int        `yaml:"workers"`
	CacheSize        int        `yaml:"cache_size"`
	Horizon          float64    `yaml:"horizon"`
	Dt               float64    `yaml:"dt"`
	PitchBounds      [2]float64 `yaml:"pitch_bounds,flow"` // degrees
	ElevatorBounds   [2]float64 `yaml:"elevator_bounds,flow"`
	ThrottleBounds   [2]float64 `yaml:"throttle_bounds,flow"`
}

type RunwayConfig struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Width   float64 `yaml:"width"`
	Length  float64 `yaml:"length"`
	Heading float64 `yaml:"heading"`
}

type VehicleConfig struct {
	Name     string             `yaml:"name"`
	Position [3]float64         `yaml:"position,flow"`
	Heading  float64            `yaml:"heading"`
	Airspeed float64            `yaml:"airspeed"`
	Pilot    string             `yaml:"pilot"` // hold or autopilot
	Controls map[string]float64 `yaml:"controls,omitempty"`
	// Autopilot targets; zero altitude or airspeed means "as initialised".
	Target *PilotTarget `yaml:"target,omitempty"`
}

type PilotTarget struct {
	Altitude float64 `yaml:"altitude"`
	Airspeed float64 `yaml:"airspeed"`
	Heading  float64 `yaml:"heading"`
}

func DefaultConfig() *Config {
	limits := envelope.DefaultLimits()
	trimDefaults := trim.DefaultConfig()
	swarm := trimDefaults.Swarm
	b := trimDefaults.Bounds
	wc := world.DefaultConfig()

	return &Config{
		Model:      "fixedwing",
		Integrator: "rk4",
		World: WorldConfig{
			Dt:           DefaultDt,
			Duration:     DefaultDuration,
			Camera:       [3]float64{wc.Camera.X, wc.Camera.Y, wc.Camera.Z},
			ScreenWidth:  wc.Screen.Width,
			ScreenHeight: wc.Screen.Height,
			AssetsDir:    wc.AssetsDir,
			TerrainDir:   wc.TerrainDir,
			RenderMode:   wc.RenderMode,
		},
		Envelope: EnvelopeConfig{
			GroundLevel:      limits.GroundLevel,
			MaxForwardSpeed:  limits.MaxForwardSpeed,
			MaxVerticalSpeed: limits.MaxVerticalSpeed,
			MinPitch:         geom.Degrees(limits.MinPitch),
			MaxPitch:         geom.Degrees(limits.MaxPitch),
		},
		Trim: TrimConfig{
			Particles:        swarm.Particles,
			MaxIterations:    200,
			Inertia:          swarm.Inertia,
			Cognitive:        swarm.Cognitive,
			Social:           swarm.Social,
			VelocityFraction: swarm.VelocityFraction,
			Tolerance:        swarm.Tolerance,
			StallIterations:  swarm.StallIterations,
			Seed:             swarm.Seed,
			Workers:          swarm.Workers,
			Horizon:          trimDefaults.Horizon,
			Dt:               trimDefaults.Dt,
			PitchBounds:      [2]float64{geom.Degrees(b.Lo[trim.Pitch]), geom.Degrees(b.Hi[trim.Pitch])},
			ElevatorBounds:   [2]float64{b.Lo[trim.Elevator], b.Hi[trim.Elevator]},
			ThrottleBounds:   [2]float64{b.Lo[trim.Throttle], b.Hi[trim.Throttle]},
		},
		Vehicles: []VehicleConfig{
			{
				Name:     vehicle.DefaultName,
				Position: [3]float64{0, 0, -DefaultAltitude},
				Airspeed: DefaultAirspeed,
				Pilot:    "autopilot",
			},
		},
		Log: logging.DefaultConfig(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.World.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.World.Dt)
	}
	if c.World.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, c.World.Duration)
	}
	if err := c.TrimConfig().Swarm.Validate(); err != nil {
		return fmt.Errorf("%w: trim: %v", ErrInvalidConfig, err)
	}
	for i, v := range c.Vehicles {
		switch v.Pilot {
		case "", "hold", "autopilot":
		default:
			return fmt.Errorf("%w: vehicle %d: unknown pilot %q", ErrInvalidConfig, i, v.Pilot)
		}
	}
	return nil
}

func (c *Config) WorldConfig() world.Config {
	return world.Config{
		Camera:     r3.Vec{X: c.World.Camera[0], Y: c.World.Camera[1], Z: c.World.Camera[2]},
		Screen:     world.Screen{Width: c.World.ScreenWidth, Height: c.World.ScreenHeight},
		AssetsDir:  c.World.AssetsDir,
		TerrainDir: c.World.TerrainDir,
		RenderMode: c.World.RenderMode,
		Parallel:   c.World.Parallel,
		Workers:    c.World.Workers,
	}
}

func (c *Config) EnvelopeLimits() envelope.Limits {
	return envelope.Limits{
		GroundLevel:      c.Envelope.GroundLevel,
		MaxForwardSpeed:  c.Envelope.MaxForwardSpeed,
		MaxVerticalSpeed: c.Envelope.MaxVerticalSpeed,
		MinPitch:         geom.Radians(c.Envelope.MinPitch),
		MaxPitch:         geom.Radians(c.Envelope.MaxPitch),
	}
}

func (c *Config) TrimConfig() trim.Config {
	t := c.Trim
	return trim.Config{
		Swarm: optim.PSOConfig{
			Particles:        t.Particles,
			Inertia:          t.Inertia,
			Cognitive:        t.Cognitive,
			Social:           t.Social,
			VelocityFraction: t.VelocityFraction,
			Tolerance:        t.Tolerance,
			StallIterations:  t.StallIterations,
			Seed:             t.Seed,
			Workers:          t.Workers,
			CacheSize:        t.CacheSize,
		},
		Bounds: trim.Bounds{
			Lo: [3]float64{geom.Radians(t.PitchBounds[0]), t.ElevatorBounds[0], t.ThrottleBounds[0]},
			Hi: [3]float64{geom.Radians(t.PitchBounds[1]), t.ElevatorBounds[1], t.ThrottleBounds[1]},
		},
		Horizon: t.Horizon,
		Dt:      t.Dt,
	}
}

// RunwayOptions is nil when the config has no runway.
func (c *Config) RunwayOptions() []runway.Option {
	if c.Runway == nil {
		return nil
	}
	r := c.Runway
	opts := []runway.Option{
		runway.WithPosition(r.X, r.Y),
		runway.WithHeading(geom.Radians(r.Heading)),
	}
	if r.Width > 0 {
		opts = append(opts, runway.WithWidth(r.Width))
	}
	if r.Length > 0 {
		opts = append(opts, runway.WithLength(r.Length))
	}
	return opts
}

func (v VehicleConfig) State() vehicle.State {
	var s vehicle.State
	pos := r3.Vec{X: v.Position[0], Y: v.Position[1], Z: v.Position[2]}
	var opts []vehicle.Option
	if v.Name != "" {
		opts = append(opts, vehicle.WithName(v.Name))
	}
	s.Reset(pos, geom.Radians(v.Heading), v.Airspeed, opts...)
	return s
}

// PilotTarget resolves the autopilot target, defaulting to the initial
// altitude, airspeed and heading. Heading is returned in radians.
func (v VehicleConfig) PilotTarget() (altitude, airspeed, heading float64) {
	altitude, airspeed, heading = -v.Position[2], v.Airspeed, geom.Radians(v.Heading)
	if v.Target == nil {
		return
	}
	if v.Target.Altitude != 0 {
		altitude = v.Target.Altitude
	}
	if v.Target.Airspeed != 0 {
		airspeed = v.Target.Airspeed
	}
	heading = geom.Radians(v.Target.Heading)
	return
}

func (v VehicleConfig) NewPilot() control.Pilot {
	if v.Pilot == "autopilot" {
		alt, spd, hdg := v.PilotTarget()
		return control.NewAutopilot(control.DefaultGains(), alt, spd, hdg)
	}
	return control.NewHold(v.Controls)
}
