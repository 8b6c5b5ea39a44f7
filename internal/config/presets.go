package config

import (
	"sort"

	"github.com/brunoga/deep"
)

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

var Presets = map[string]*Config{
	// A single aircraft on downwind alongside a north-south runway.
	"pattern": preset(func(c *Config) {
		c.World.Duration = 30
		c.Runway = &RunwayConfig{Width: 45, Length: 1000}
		c.Vehicles = []VehicleConfig{{
			Name:     "TO",
			Position: [3]float64{600, -800, -300},
			Heading:  0,
			Airspeed: 45,
			Pilot:    "autopilot",
		}}
	}),
	// Established on final, descending towards the threshold.
	"approach": preset(func(c *Config) {
		c.World.Duration = 20
		c.Runway = &RunwayConfig{Width: 45, Length: 1000}
		c.Vehicles = []VehicleConfig{{
			Name:     "TO",
			Position: [3]float64{0, -1500, -150},
			Heading:  0,
			Airspeed: 40,
			Pilot:    "autopilot",
			Target:   &PilotTarget{Altitude: 60, Airspeed: 35},
		}}
	}),
	// Four aircraft abreast, stepped in parallel.
	"formation": preset(func(c *Config) {
		c.World.Duration = 15
		c.World.Parallel = true
		c.Vehicles = nil
		for i, name := range []string{"lead", "two", "three", "four"} {
			c.Vehicles = append(c.Vehicles, VehicleConfig{
				Name:     name,
				Position: [3]float64{-30 * float64(i), 40 * float64(i), -500},
				Airspeed: 55,
				Pilot:    "autopilot",
			})
		}
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return deep.MustCopy(cfg)
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
