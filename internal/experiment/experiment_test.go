package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/flyer/internal/config"
	"github.com/san-kum/flyer/internal/models"
	"github.com/san-kum/flyer/internal/world"
)

func shortConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.World.Duration = 0.5
	cfg.World.Dt = 0.01
	return cfg
}

func TestRun(t *testing.T) {
	exp, err := New(shortConfig())
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Steps != 50 {
		t.Errorf("expected 50 steps, got %d", res.Steps)
	}
	if len(res.Tracks) != 1 || len(res.Tracks[0].States) != 51 || len(res.Tracks[0].Times) != 51 {
		t.Fatalf("unexpected tracks: %d", len(res.Tracks))
	}
	if len(res.Tracks[0].States[0]) != models.StateLen {
		t.Errorf("expected %d-element states", models.StateLen)
	}
	if res.Tracks[0].Name != "TO" {
		t.Errorf("expected TO, got %s", res.Tracks[0].Name)
	}
	if len(res.Crashes) != 0 {
		t.Errorf("unexpected crashes: %+v", res.Crashes)
	}
	if res.Metrics["envelope"] != 1.0 {
		t.Errorf("expected envelope metric 1.0, got %f", res.Metrics["envelope"])
	}
	if res.OnRunway != nil {
		t.Error("expected no runway result without a runway")
	}
	if len(res.Final.Vehicles) != 1 {
		t.Error("expected final snapshot")
	}
}

func TestRunRecordsCrash(t *testing.T) {
	cfg := shortConfig()
	cfg.Metrics = []string{"energy"}
	cfg.Vehicles = []config.VehicleConfig{
		{Name: "calm", Position: [3]float64{0, 0, -500}, Airspeed: 50, Pilot: "hold", Controls: map[string]float64{"throttle": 0.5}},
		{Name: "fast", Position: [3]float64{0, 100, -500}, Airspeed: 260, Pilot: "hold"},
	}

	exp, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := exp.World().Controls()[0][models.CtrlThrottle]; got != 0.5 {
		t.Errorf("expected initial throttle 0.5, got %f", got)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Crashes) != 1 {
		t.Fatalf("expected one crash, got %+v", res.Crashes)
	}
	c := res.Crashes[0]
	if c.Vehicle != 1 || c.Name != "fast" || c.Violations[0] != "forward speed" {
		t.Errorf("unexpected crash: %+v", c)
	}
	if c.Time <= 0 || c.Time > 0.011 {
		t.Errorf("expected crash on the first tick, got t=%f", c.Time)
	}
	if _, ok := res.Metrics["energy"]; !ok {
		t.Error("expected energy metric")
	}
	if v := res.Metrics["envelope"]; v != 0.5 {
		t.Errorf("expected envelope metric 0.5, got %f", v)
	}
}

func TestRunMetricsPerVehicle(t *testing.T) {
	cfg := shortConfig()
	cfg.World.Duration = 0.05
	cfg.Metrics = []string{"energy_drift", "throttle"}
	cfg.Vehicles = []config.VehicleConfig{
		{Name: "high", Position: [3]float64{0, 0, -1000}, Airspeed: 50, Pilot: "hold", Controls: map[string]float64{"throttle": 0.2}},
		{Name: "low", Position: [3]float64{0, 100, -200}, Airspeed: 50, Pilot: "hold", Controls: map[string]float64{"throttle": 0.6}},
	}

	exp, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	drift := res.VehicleMetrics["energy_drift"]
	if len(drift) != 2 {
		t.Fatalf("expected per-vehicle drift, got %v", res.VehicleMetrics)
	}
	for i, d := range drift {
		if d > 0.01 {
			t.Errorf("vehicle %d: drift %f", i, d)
		}
	}
	if got, want := res.Metrics["energy_drift"], (drift[0]+drift[1])/2; got != want {
		t.Errorf("expected fleet drift %f, got %f", want, got)
	}
	if th := res.VehicleMetrics["throttle"]; len(th) != 2 || math.Abs(th[0]-0.2) > 1e-12 || math.Abs(th[1]-0.6) > 1e-12 {
		t.Errorf("unexpected throttle %v", th)
	}
}

func TestRunWithRunway(t *testing.T) {
	cfg := config.GetPreset("approach")
	cfg.World.Duration = 0.1
	exp, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.OnRunway) != 1 || res.OnRunway[0] {
		t.Errorf("expected airborne off-runway result, got %v", res.OnRunway)
	}
	if res.Final.Runway == nil {
		t.Error("expected runway in final snapshot")
	}
}

func TestRunCanceled(t *testing.T) {
	exp, err := New(shortConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := exp.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Steps != 0 || len(res.Tracks[0].States) != 1 {
		t.Errorf("expected only the initial sample, got %d steps", res.Steps)
	}
}

type counter struct{ n int }

func (c *counter) OnStep(w *world.World, t float64) { c.n++ }

func TestObserver(t *testing.T) {
	exp, err := New(shortConfig())
	if err != nil {
		t.Fatal(err)
	}
	c := &counter{}
	exp.AddObserver(c)
	if _, err := exp.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.n != 50 {
		t.Errorf("expected 50 notifications, got %d", c.n)
	}
}

func TestNewRejectsBadSetup(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"integrator", func(c *config.Config) { c.Integrator = "leapfrog" }},
		{"model", func(c *config.Config) { c.Model = "glider" }},
		{"metric", func(c *config.Config) { c.Metrics = []string{"lyapunov"} }},
		{"channel", func(c *config.Config) { c.Vehicles[0].Controls = map[string]float64{"flaps": 1} }},
		{"pilot", func(c *config.Config) { c.Vehicles[0].Pilot = "robot" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := shortConfig()
			tt.mutate(cfg)
			if _, err := New(cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParallelPresetMatchesSequential(t *testing.T) {
	run := func(parallel bool) *Result {
		cfg := config.GetPreset("formation")
		cfg.World.Duration = 0.3
		cfg.World.Parallel = parallel
		exp, err := New(cfg)
		if err != nil {
			t.Fatal(err)
		}
		res, err := exp.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	a, b := run(false), run(true)
	for i := range a.Tracks {
		last := len(a.Tracks[i].States) - 1
		for j, v := range a.Tracks[i].States[last] {
			if b.Tracks[i].States[last][j] != v {
				t.Fatalf("vehicle %d element %d differs", i, j)
			}
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if models := r.ListModels(); len(models) != 1 || models[0] != "fixedwing" {
		t.Errorf("unexpected models: %v", models)
	}
	eng, err := r.GetEngine("fixedwing", "euler")
	if err != nil {
		t.Fatal(err)
	}
	if eng.StateDim() != models.StateLen || eng.ControlDim() != models.ControlLen {
		t.Errorf("unexpected dims %d/%d", eng.StateDim(), eng.ControlDim())
	}
}
