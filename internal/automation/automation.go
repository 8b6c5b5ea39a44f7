// Package automation runs batches of flights and trims: Monte Carlo
// dispersions of a configuration and trim sweeps across airspeed.
package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/MichaelTJones/pcg"
	"github.com/brunoga/deep"
	"github.com/san-kum/flyer/internal/config"
	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/experiment"
	"github.com/san-kum/flyer/internal/trim"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidStudy = errors.New("automation: invalid study")

// MonteCarloConfig disperses every vehicle's initial conditions uniformly
// within the given half-widths.
type MonteCarloConfig struct {
	Trials   int     `yaml:"trials"`
	Seed     uint64  `yaml:"seed"`
	Position float64 `yaml:"position"` // m, each axis
	Airspeed float64 `yaml:"airspeed"` // m/s
	Heading  float64 `yaml:"heading"`  // degrees
	Workers  int     `yaml:"workers"`
}

func (c MonteCarloConfig) validate() error {
	if c.Trials <= 0 {
		return fmt.Errorf("%w: trials must be positive, got %d", ErrInvalidStudy, c.Trials)
	}
	if c.Position < 0 || c.Airspeed < 0 || c.Heading < 0 {
		return fmt.Errorf("%w: dispersions must be non-negative", ErrInvalidStudy)
	}
	return nil
}

type TrialResult struct {
	Trial    int                    `json:"trial"`
	Vehicles []config.VehicleConfig `json:"vehicles"`
	Crashes  []experiment.Crash     `json:"crashes"`
	OnRunway []bool                 `json:"on_runway,omitempty"`
	Metrics  map[string]float64     `json:"metrics"`
}

type MonteCarloSummary struct {
	Trials int `json:"trials"`
	// Crashed counts trials where any vehicle left the envelope.
	Crashed int `json:"crashed"`
	// Landed counts vehicles that finished on the runway, over all trials.
	Landed int `json:"landed"`
}

// Disperse returns mc.Trials copies of base with perturbed vehicles. The
// same seed always yields the same configurations.
func Disperse(base *config.Config, mc MonteCarloConfig) ([]*config.Config, error) {
	if err := mc.validate(); err != nil {
		return nil, err
	}

	rng := pcg.NewPCG32()
	rng.Seed(mc.Seed, 0xda3e39cb94b95bdb)
	spread := func(halfWidth float64) float64 {
		return (2*float64(rng.Random())/(1<<32) - 1) * halfWidth
	}

	out := make([]*config.Config, mc.Trials)
	for t := range out {
		cfg := deep.MustCopy(base)
		for i := range cfg.Vehicles {
			v := &cfg.Vehicles[i]
			for axis := range v.Position {
				v.Position[axis] += spread(mc.Position)
			}
			v.Airspeed += spread(mc.Airspeed)
			v.Heading += spread(mc.Heading)
		}
		out[t] = cfg
	}
	return out, nil
}

// RunMonteCarlo flies every dispersed configuration. Trials run on up to
// mc.Workers goroutines; results are in trial order regardless.
func RunMonteCarlo(ctx context.Context, base *config.Config, mc MonteCarloConfig, logger *slog.Logger) ([]TrialResult, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfgs, err := Disperse(base, mc)
	if err != nil {
		return nil, err
	}

	results := make([]TrialResult, len(cfgs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(mc.Workers, 1))
	for t, cfg := range cfgs {
		g.Go(func() error {
			exp, err := experiment.New(cfg)
			if err != nil {
				return fmt.Errorf("trial %d: %w", t, err)
			}
			res, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("trial %d: %w", t, err)
			}
			results[t] = TrialResult{
				Trial:    t,
				Vehicles: cfg.Vehicles,
				Crashes:  res.Crashes,
				OnRunway: res.OnRunway,
				Metrics:  res.Metrics,
			}
			logger.Debug("trial finished", slog.Int("trial", t), slog.Int("crashes", len(res.Crashes)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := Summarize(results)
	logger.Info("monte carlo finished",
		slog.Int("trials", s.Trials), slog.Int("crashed", s.Crashed), slog.Int("landed", s.Landed))
	return results, nil
}

func Summarize(results []TrialResult) MonteCarloSummary {
	s := MonteCarloSummary{Trials: len(results)}
	for _, r := range results {
		if len(r.Crashes) > 0 {
			s.Crashed++
		}
		for _, on := range r.OnRunway {
			if on {
				s.Landed++
			}
		}
	}
	return s
}

// SweepPoint is one trim along a sweep. Err is set when that trim aborted;
// Result still holds its best estimate.
type SweepPoint struct {
	Airspeed float64      `json:"airspeed"`
	Result   *trim.Result `json:"result"`
	Err      error        `json:"-"`
}

// TrimSweep trims at a fixed altitude for n airspeeds evenly spaced over
// [lo, hi]. Individual aborts are recorded per point; only cancellation
// stops the sweep.
func TrimSweep(ctx context.Context, eng dynamo.Engine, cfg trim.Config, altitude, lo, hi float64, n, maxIterations int, logger *slog.Logger) ([]SweepPoint, error) {
	if n <= 0 || lo <= 0 || hi < lo {
		return nil, fmt.Errorf("%w: sweep needs n > 0 and 0 < lo <= hi", ErrInvalidStudy)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	solver := trim.NewSolver(eng, trim.WithConfig(cfg), trim.WithLogger(logger))
	points := make([]SweepPoint, 0, n)
	for i := 0; i < n; i++ {
		speed := lo
		if n > 1 {
			speed = lo + float64(i)*(hi-lo)/float64(n-1)
		}
		res, err := solver.Trim(ctx, trim.Target{Altitude: altitude, Airspeed: speed}, maxIterations)
		if err != nil && ctx.Err() != nil {
			return points, err
		}
		points = append(points, SweepPoint{Airspeed: speed, Result: res, Err: err})
	}
	return points, nil
}
