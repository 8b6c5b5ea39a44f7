package trim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/optim"
)

type Target struct {
	Altitude float64 `json:"altitude"`
	Airspeed float64 `json:"airspeed"`
}

func (t Target) validate() error {
	if math.IsNaN(t.Altitude) || math.IsInf(t.Altitude, 0) ||
		math.IsNaN(t.Airspeed) || math.IsInf(t.Airspeed, 0) || t.Airspeed <= 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidTarget, t)
	}
	return nil
}

// Bounds is the search box over (pitch, elevator, throttle).
type Bounds struct {
	Lo [3]float64
	Hi [3]float64
}

func DefaultBounds() Bounds {
	return Bounds{
		Lo: [3]float64{-0.2, -0.5, 0},
		Hi: [3]float64{0.3, 0.5, 1},
	}
}

func (b Bounds) box() optim.Bounds {
	return optim.Bounds{Lo: b.Lo[:], Hi: b.Hi[:]}
}

type Config struct {
	Swarm  optim.PSOConfig
	Bounds Bounds
	// Horizon and Dt drive the default engine cost.
	Horizon float64
	Dt      float64
}

func DefaultConfig() Config {
	return Config{
		Swarm:   optim.DefaultPSOConfig(),
		Bounds:  DefaultBounds(),
		Horizon: 2.0,
		Dt:      0.02,
	}
}

// Observer receives the global best after every generation.
type Observer func(iteration int, control [3]float64, cost float64)

type Solver struct {
	cfg      Config
	cost     CostFactory
	logger   *slog.Logger
	observer Observer
}

type Option func(*Solver)

func WithConfig(cfg Config) Option {
	return func(s *Solver) { s.cfg = cfg }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Solver) { s.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(s *Solver) { s.observer = o }
}

// WithCost replaces the engine cost.
func WithCost(f CostFactory) Option {
	return func(s *Solver) { s.cost = f }
}

// NewSolver trims against eng. eng may be nil when WithCost is given.
func NewSolver(eng dynamo.Engine, opts ...Option) *Solver {
	s := &Solver{
		cfg:    DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cost == nil {
		s.cost = EngineCost(eng, s.cfg.Horizon, s.cfg.Dt)
	}
	return s
}

func (s *Solver) Config() Config {
	return s.cfg
}

// Trim searches for at most maxIterations generations. The returned cost is
// never worse than the best particle of the initial swarm.
func (s *Solver) Trim(ctx context.Context, target Target, maxIterations int) (*Result, error) {
	res := &Result{Target: target, Cost: math.Inf(1), Status: Aborted}
	if maxIterations < 0 {
		maxIterations = 0
	}
	if err := target.validate(); err != nil {
		return res, &AbortError{Result: res, Err: err}
	}

	cost := s.cost(target)
	objective := func(x []float64) float64 {
		return cost([3]float64{x[0], x[1], x[2]})
	}

	var observe func(optim.Generation)
	if s.observer != nil {
		observe = func(g optim.Generation) {
			s.observer(g.Iteration, toControl(g.Best), g.BestCost)
		}
	}

	log := s.logger.With(slog.Float64("altitude", target.Altitude), slog.Float64("airspeed", target.Airspeed))
	pso := optim.NewPSO(s.cfg.Swarm, log)
	out, err := pso.Minimize(ctx, objective, s.cfg.Bounds.box(), maxIterations, observe)

	res.Iterations = out.Iterations
	res.History = out.History
	res.InitialCosts = out.InitialCosts
	res.Cost = out.BestCost
	if out.Best != nil {
		res.Control = toControl(out.Best)
	} else {
		res.Control = s.cfg.Bounds.center()
	}

	if err != nil {
		log.Warn("trim aborted", slog.Int("iterations", res.Iterations), slog.Any("error", err))
		return res, &AbortError{Result: res, Err: err}
	}

	res.Status = MaxIterations
	if out.Converged {
		res.Status = Converged
	}
	log.Info("trim finished",
		slog.String("status", res.Status.String()),
		slog.Int("iterations", res.Iterations),
		slog.Float64("cost", res.Cost),
		slog.Float64("pitch", res.Pitch()),
		slog.Float64("elevator", res.Elevator()),
		slog.Float64("throttle", res.Throttle()))
	return res, nil
}

func (b Bounds) center() [3]float64 {
	var c [3]float64
	for i := range c {
		c[i] = (b.Lo[i] + b.Hi[i]) / 2
	}
	return c
}

func toControl(x []float64) [3]float64 {
	var c [3]float64
	copy(c[:], x)
	return c
}
