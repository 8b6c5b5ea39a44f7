package automation

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/san-kum/flyer/internal/config"
	"github.com/san-kum/flyer/internal/experiment"
	"github.com/san-kum/flyer/internal/models"
	"github.com/san-kum/flyer/internal/trim"
)

func baseConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.World.Duration = 0.2
	cfg.World.Dt = 0.02
	return cfg
}

func TestDisperse(t *testing.T) {
	base := baseConfig()
	mc := MonteCarloConfig{Trials: 5, Seed: 7, Position: 10, Airspeed: 2, Heading: 5}

	a, err := Disperse(base, mc)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Disperse(base, mc)
	if len(a) != 5 {
		t.Fatalf("expected 5 configs, got %d", len(a))
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("expected the same seed to give the same dispersion")
	}

	orig := base.Vehicles[0]
	for i, cfg := range a {
		v := cfg.Vehicles[0]
		for axis := range v.Position {
			if d := math.Abs(v.Position[axis] - orig.Position[axis]); d > 10 {
				t.Errorf("trial %d: axis %d moved %f", i, axis, d)
			}
		}
		if math.Abs(v.Airspeed-orig.Airspeed) > 2 || math.Abs(v.Heading-orig.Heading) > 5 {
			t.Errorf("trial %d: dispersion out of range: %+v", i, v)
		}
	}
	if reflect.DeepEqual(a[0].Vehicles, a[1].Vehicles) {
		t.Error("expected trials to differ")
	}
	if !reflect.DeepEqual(base.Vehicles[0], orig) {
		t.Error("base config was modified")
	}

	c, _ := Disperse(base, MonteCarloConfig{Trials: 5, Seed: 8, Position: 10})
	if reflect.DeepEqual(a[0].Vehicles[0].Position, c[0].Vehicles[0].Position) {
		t.Error("expected a different seed to change the dispersion")
	}
}

func TestDisperseRejectsBadConfig(t *testing.T) {
	for _, mc := range []MonteCarloConfig{{Trials: 0}, {Trials: 2, Airspeed: -1}} {
		if _, err := Disperse(baseConfig(), mc); !errors.Is(err, ErrInvalidStudy) {
			t.Errorf("%+v: expected ErrInvalidStudy, got %v", mc, err)
		}
	}
}

func TestRunMonteCarloOrdered(t *testing.T) {
	base := baseConfig()
	mc := MonteCarloConfig{Trials: 4, Seed: 3, Position: 5, Airspeed: 1, Workers: 3}

	results, err := RunMonteCarlo(context.Background(), base, mc, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfgs, _ := Disperse(base, mc)
	if len(results) != len(cfgs) {
		t.Fatalf("expected %d results, got %d", len(cfgs), len(results))
	}
	for i, r := range results {
		if r.Trial != i {
			t.Errorf("result %d has trial %d", i, r.Trial)
		}
		if !reflect.DeepEqual(r.Vehicles, cfgs[i].Vehicles) {
			t.Errorf("trial %d flew the wrong configuration", i)
		}
		if _, ok := r.Metrics["envelope"]; !ok {
			t.Errorf("trial %d missing envelope metric", i)
		}
	}
}

func TestRunMonteCarloCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunMonteCarlo(ctx, baseConfig(), MonteCarloConfig{Trials: 2}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]TrialResult{
		{Crashes: []experiment.Crash{{Vehicle: 0}}},
		{OnRunway: []bool{true, true}},
		{OnRunway: []bool{false, true}},
	})
	want := MonteCarloSummary{Trials: 3, Crashed: 1, Landed: 3}
	if s != want {
		t.Errorf("expected %+v, got %+v", want, s)
	}
}

func TestTrimSweep(t *testing.T) {
	cfg := trim.DefaultConfig()
	cfg.Swarm.Particles = 6
	cfg.Horizon = 0.2

	points, err := TrimSweep(context.Background(), models.DefaultEngine(), cfg, 300, 40, 60, 3, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i, want := range []float64{40, 50, 60} {
		p := points[i]
		if p.Airspeed != want {
			t.Errorf("point %d: expected airspeed %f, got %f", i, want, p.Airspeed)
		}
		if p.Result == nil || p.Result.Target.Airspeed != want {
			t.Fatalf("point %d: missing result", i)
		}
		if p.Err == nil && p.Result.Iterations > 2 {
			t.Errorf("point %d: ran %d iterations", i, p.Result.Iterations)
		}
	}
}

func TestTrimSweepRejectsBadRange(t *testing.T) {
	_, err := TrimSweep(context.Background(), models.DefaultEngine(), trim.DefaultConfig(), 300, 60, 40, 3, 2, nil)
	if !errors.Is(err, ErrInvalidStudy) {
		t.Errorf("expected ErrInvalidStudy, got %v", err)
	}
}
