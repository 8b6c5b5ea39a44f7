package config

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/flyer/internal/control"
	"github.com/san-kum/flyer/internal/envelope"
	"github.com/san-kum/flyer/internal/trim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Integrator != "rk4" {
		t.Errorf("expected integrator rk4, got %s", cfg.Integrator)
	}
	if cfg.World.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.World.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefaultsRoundTripToRuntimeTypes(t *testing.T) {
	cfg := DefaultConfig()

	limits := cfg.EnvelopeLimits()
	want := envelope.DefaultLimits()
	if math.Abs(limits.MinPitch-want.MinPitch) > 1e-12 || math.Abs(limits.MaxPitch-want.MaxPitch) > 1e-12 {
		t.Errorf("expected pitch limits %v, got %v", want, limits)
	}
	if limits.GroundLevel != want.GroundLevel || limits.MaxForwardSpeed != want.MaxForwardSpeed {
		t.Errorf("expected %v, got %v", want, limits)
	}

	tc := cfg.TrimConfig()
	wantTrim := trim.DefaultConfig()
	for i := 0; i < 3; i++ {
		if math.Abs(tc.Bounds.Lo[i]-wantTrim.Bounds.Lo[i]) > 1e-12 || math.Abs(tc.Bounds.Hi[i]-wantTrim.Bounds.Hi[i]) > 1e-12 {
			t.Errorf("bound %d: expected %v, got %v", i, wantTrim.Bounds, tc.Bounds)
		}
	}
	if tc.Swarm != wantTrim.Swarm {
		t.Errorf("expected swarm %+v, got %+v", wantTrim.Swarm, tc.Swarm)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("approach")
	cfg.Envelope.MaxForwardSpeed = 150

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Envelope.MaxForwardSpeed != 150 {
		t.Errorf("expected 150, got %f", loaded.Envelope.MaxForwardSpeed)
	}
	if loaded.Runway == nil || loaded.Runway.Length != 1000 {
		t.Errorf("runway not preserved: %+v", loaded.Runway)
	}
	if len(loaded.Vehicles) != 1 || loaded.Vehicles[0].Target == nil || loaded.Vehicles[0].Target.Altitude != 60 {
		t.Errorf("vehicles not preserved: %+v", loaded.Vehicles)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero dt", func(c *Config) { c.World.Dt = 0 }},
		{"negative duration", func(c *Config) { c.World.Duration = -1 }},
		{"no particles", func(c *Config) { c.Trim.Particles = 0 }},
		{"unknown pilot", func(c *Config) { c.Vehicles[0].Pilot = "robot" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("formation")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if len(cfg.Vehicles) != 4 || !cfg.World.Parallel {
		t.Errorf("unexpected formation preset: %+v", cfg.World)
	}

	cfg.Vehicles[0].Name = "changed"
	if GetPreset("formation").Vehicles[0].Name != "lead" {
		t.Error("GetPreset should return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	want := []string{"approach", "formation", "pattern"}
	if len(presets) != len(want) {
		t.Fatalf("expected %v, got %v", want, presets)
	}
	for i := range want {
		if presets[i] != want[i] {
			t.Errorf("expected %v, got %v", want, presets)
		}
	}
	for _, name := range presets {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestVehicleState(t *testing.T) {
	v := VehicleConfig{Name: "x", Position: [3]float64{1, 2, -300}, Heading: 90, Airspeed: 45}
	s := v.State()

	if s.Name != "x" || s.Altitude() != 300 || s.Velocity.X != 45 {
		t.Errorf("unexpected state: %+v", s)
	}
	_, _, yaw := s.Euler()
	if math.Abs(yaw-math.Pi/2) > 1e-9 {
		t.Errorf("expected yaw pi/2, got %f", yaw)
	}

	if (VehicleConfig{}).State().Name != "TO" {
		t.Error("expected default name")
	}
}

func TestNewPilot(t *testing.T) {
	v := VehicleConfig{Position: [3]float64{0, 0, -300}, Airspeed: 50, Pilot: "autopilot", Target: &PilotTarget{Airspeed: 45}}
	ap, ok := v.NewPilot().(*control.Autopilot)
	if !ok {
		t.Fatal("expected autopilot")
	}
	if ap.Altitude != 300 || ap.Airspeed != 45 {
		t.Errorf("unexpected targets: alt=%f speed=%f", ap.Altitude, ap.Airspeed)
	}

	v = VehicleConfig{Controls: map[string]float64{"throttle": 0.4}}
	if _, ok := v.NewPilot().(*control.Hold); !ok {
		t.Error("expected hold pilot")
	}
}

func TestRunwayOptions(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RunwayOptions() != nil {
		t.Error("expected no runway options")
	}
	cfg.Runway = &RunwayConfig{X: 10, Heading: 90}
	if n := len(cfg.RunwayOptions()); n != 2 {
		t.Errorf("expected 2 options, got %d", n)
	}
}
