package optim

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"

	"github.com/MichaelTJones/pcg"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// Objective is minimised over a Bounds box. It must be deterministic and
// safe for concurrent use when Workers > 1.
type Objective func(x []float64) float64

type PSOConfig struct {
	Particles int
	Inertia   float64
	Cognitive float64
	Social    float64
	// VelocityFraction caps each velocity component at this fraction of the
	// box span along that axis.
	VelocityFraction float64
	Tolerance        float64
	StallIterations  int
	Seed             uint64
	Workers          int
	// CacheSize enables an LRU memo of objective values when positive.
	CacheSize int
}

func DefaultPSOConfig() PSOConfig {
	return PSOConfig{
		Particles:        40,
		Inertia:          0.7298,
		Cognitive:        1.49618,
		Social:           1.49618,
		VelocityFraction: 0.5,
		Tolerance:        1e-6,
		StallIterations:  25,
		Seed:             1,
		Workers:          1,
	}
}

// Generation is passed to an observer after every swarm update.
type Generation struct {
	Iteration int
	Best      []float64
	BestCost  float64
}

func (c PSOConfig) Validate() error {
	switch {
	case c.Particles < 1:
		return fmt.Errorf("optim: particle count must be positive, got %d", c.Particles)
	case c.VelocityFraction <= 0:
		return fmt.Errorf("optim: velocity fraction must be positive, got %g", c.VelocityFraction)
	case c.Tolerance < 0 || c.StallIterations < 0:
		return fmt.Errorf("optim: tolerance and stall iterations must not be negative")
	case c.Workers < 0 || c.CacheSize < 0:
		return fmt.Errorf("optim: workers and cache size must not be negative")
	}
	for _, v := range []float64{c.Inertia, c.Cognitive, c.Social, c.VelocityFraction, c.Tolerance} {
		if !isFinite(v) {
			return fmt.Errorf("optim: swarm coefficients must be finite")
		}
	}
	return nil
}

type Outcome struct {
	Best       []float64
	BestCost   float64
	Iterations int
	Converged  bool
	// History holds the global best cost after the initial swarm and after
	// each generation.
	History      []float64
	InitialCosts []float64
}

type PSO struct {
	cfg    PSOConfig
	logger *slog.Logger
}

func NewPSO(cfg PSOConfig, logger *slog.Logger) *PSO {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PSO{cfg: cfg, logger: logger}
}

func (p *PSO) Config() PSOConfig {
	return p.cfg
}

type swarm struct {
	pos      [][]float64
	vel      [][]float64
	best     [][]float64
	bestCost []float64
	cost     []float64
}

// Minimize runs at most maxIterations generations. On failure the returned
// Outcome still holds the best point found so far, and Best is nil only when
// no finite cost was ever observed.
func (p *PSO) Minimize(ctx context.Context, f Objective, b Bounds, maxIterations int, observe func(Generation)) (*Outcome, error) {
	out := &Outcome{BestCost: math.Inf(1)}
	if err := b.Validate(); err != nil {
		return out, err
	}
	if err := p.cfg.Validate(); err != nil {
		return out, err
	}

	eval, err := p.evaluator(f)
	if err != nil {
		return out, err
	}

	rng := pcg.NewPCG32()
	rng.Seed(p.cfg.Seed, 0xda3e39cb94b95bdb)
	uniform := func() float64 {
		return float64(rng.Random()) / (1 << 32)
	}

	dim := b.Dim()
	vmax := make([]float64, dim)
	for d := range vmax {
		vmax[d] = p.cfg.VelocityFraction * (b.Hi[d] - b.Lo[d])
	}

	n := p.cfg.Particles
	s := swarm{
		pos:      make([][]float64, n),
		vel:      make([][]float64, n),
		best:     make([][]float64, n),
		bestCost: make([]float64, n),
		cost:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.pos[i] = make([]float64, dim)
		s.vel[i] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			s.pos[i][d] = b.Lo[d] + uniform()*(b.Hi[d]-b.Lo[d])
			s.vel[i][d] = (2*uniform() - 1) * vmax[d]
		}
	}

	if err := ctx.Err(); err != nil {
		return out, err
	}
	if err := p.evaluate(ctx, eval, s.pos, s.cost); err != nil {
		return out, err
	}
	out.InitialCosts = append([]float64(nil), s.cost...)

	gbest := -1
	for i := 0; i < n; i++ {
		s.best[i] = append([]float64(nil), s.pos[i]...)
		s.bestCost[i] = s.cost[i]
		if isFinite(s.cost[i]) && (gbest < 0 || s.cost[i] < s.bestCost[gbest]) {
			gbest = i
		}
	}
	record := func() {
		if gbest >= 0 {
			out.Best = append(out.Best[:0], s.best[gbest]...)
			out.BestCost = s.bestCost[gbest]
		}
		out.History = append(out.History, out.BestCost)
	}
	record()
	if i := firstNonFinite(s.cost); i >= 0 {
		return out, fmt.Errorf("%w: particle %d at %v", ErrNonFiniteCost, i, s.pos[i])
	}

	if out.BestCost < p.cfg.Tolerance {
		out.Converged = true
		return out, nil
	}

	stall := 0
	lastBest := out.BestCost
	for iter := 1; iter <= maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		g := s.best[gbest]
		for i := 0; i < n; i++ {
			for d := 0; d < dim; d++ {
				r1, r2 := uniform(), uniform()
				v := p.cfg.Inertia*s.vel[i][d] +
					p.cfg.Cognitive*r1*(s.best[i][d]-s.pos[i][d]) +
					p.cfg.Social*r2*(g[d]-s.pos[i][d])
				s.vel[i][d] = math.Max(-vmax[d], math.Min(vmax[d], v))
				s.pos[i][d] += s.vel[i][d]
			}
			b.Clamp(s.pos[i])
		}

		if err := p.evaluate(ctx, eval, s.pos, s.cost); err != nil {
			return out, err
		}
		out.Iterations = iter

		bad := firstNonFinite(s.cost)
		for i := 0; i < n; i++ {
			if !isFinite(s.cost[i]) {
				continue
			}
			if s.cost[i] < s.bestCost[i] {
				s.bestCost[i] = s.cost[i]
				copy(s.best[i], s.pos[i])
			}
			if s.bestCost[i] < s.bestCost[gbest] {
				gbest = i
			}
		}
		record()

		p.logger.Debug("pso generation",
			slog.Int("iteration", iter),
			slog.Float64("best_cost", out.BestCost),
			slog.Any("best", out.Best))
		if observe != nil {
			observe(Generation{
				Iteration: iter,
				Best:      append([]float64(nil), out.Best...),
				BestCost:  out.BestCost,
			})
		}

		if bad >= 0 {
			return out, fmt.Errorf("%w: particle %d at %v", ErrNonFiniteCost, bad, s.pos[bad])
		}
		if out.BestCost < p.cfg.Tolerance {
			out.Converged = true
			return out, nil
		}
		if lastBest-out.BestCost > p.cfg.Tolerance {
			lastBest = out.BestCost
			stall = 0
			continue
		}
		stall++
		if p.cfg.StallIterations > 0 && stall >= p.cfg.StallIterations {
			out.Converged = true
			return out, nil
		}
	}
	return out, nil
}

func (p *PSO) evaluator(f Objective) (Objective, error) {
	if p.cfg.CacheSize <= 0 {
		return f, nil
	}
	cache, err := lru.New[string, float64](p.cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("optim: cost cache: %w", err)
	}
	return func(x []float64) float64 {
		key := cacheKey(x)
		if c, ok := cache.Get(key); ok {
			return c
		}
		c := f(x)
		cache.Add(key, c)
		return c
	}, nil
}

// evaluate fills cost[i] = f(pos[i]). Each worker writes only its own slots.
func (p *PSO) evaluate(ctx context.Context, f Objective, pos [][]float64, cost []float64) error {
	workers := p.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 {
		for i := range pos {
			cost[i] = f(pos[i])
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range pos {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cost[i] = f(pos[i])
			return nil
		})
	}
	return g.Wait()
}

func cacheKey(x []float64) string {
	buf := make([]byte, 0, 8*len(x))
	for _, v := range x {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return string(buf)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func firstNonFinite(costs []float64) int {
	for i, c := range costs {
		if !isFinite(c) {
			return i
		}
	}
	return -1
}
