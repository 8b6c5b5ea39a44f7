package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/san-kum/flyer/internal/config"
	"github.com/san-kum/flyer/internal/control"
	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/envelope"
	"github.com/san-kum/flyer/internal/world"
)

// Track is one vehicle's recorded trajectory. Controls[i] is the command
// held over the step that ended at Times[i]; Controls[0] is the initial hold.
type Track struct {
	Name     string
	Times    []float64
	States   []dynamo.State
	Controls []dynamo.Control
}

// Crash records the first tick a vehicle left the envelope.
type Crash struct {
	Vehicle    int      `json:"vehicle"`
	Name       string   `json:"name"`
	Time       float64  `json:"time"`
	Violations []string `json:"violations"`
}

type Result struct {
	Tracks         []Track
	// Metrics is the mean of each metric over the fleet; VehicleMetrics
	// holds the per-vehicle values it was taken from, in vehicle order.
	Metrics        map[string]float64
	VehicleMetrics map[string][]float64
	Crashes        []Crash
	// OnRunway is set per vehicle when a runway exists and the vehicle ends
	// on the ground inside it.
	OnRunway       []bool
	Steps          int
	Time           float64
	Final          world.Snapshot
}

// Observer is notified after every committed tick.
type Observer interface {
	OnStep(w *world.World, t float64)
}

type Experiment struct {
	cfg       *config.Config
	world     *world.World
	envelope  *envelope.Envelope
	pilots    []control.Pilot
	metrics   []func() dynamo.Metric
	observers []Observer
	logger    *slog.Logger
	worldOpts []world.Option
}

type Option func(*Experiment)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Experiment) { e.logger = logger }
}

// WithWorldOptions passes extra options, such as a metrics collector, to the
// world.
func WithWorldOptions(opts ...world.Option) Option {
	return func(e *Experiment) { e.worldOpts = append(e.worldOpts, opts...) }
}

func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Experiment{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}

	reg := NewRegistry()
	eng, err := reg.GetEngine(cfg.Model, cfg.Integrator)
	if err != nil {
		return nil, err
	}
	e.envelope = envelope.New(cfg.EnvelopeLimits())
	e.metrics, err = reg.Metrics(cfg.Metrics, e.envelope)
	if err != nil {
		return nil, err
	}

	wopts := append([]world.Option{
		world.WithConfig(cfg.WorldConfig()),
		world.WithEngine(eng),
		world.WithEnvelope(e.envelope),
		world.WithLogger(e.logger),
	}, e.worldOpts...)
	e.world = world.New(wopts...)

	if opts := cfg.RunwayOptions(); opts != nil {
		e.world.CreateRunway(opts...)
	}

	initial := make([]map[string]float64, len(cfg.Vehicles))
	for i, v := range cfg.Vehicles {
		e.world.AddVehicle(v.State())
		e.pilots = append(e.pilots, v.NewPilot())
		initial[i] = v.Controls
	}
	if err := e.world.Act(initial); err != nil {
		return nil, err
	}
	for _, m := range e.metrics {
		e.world.AddMetric(m)
	}
	return e, nil
}

func (e *Experiment) World() *world.World { return e.world }

func (e *Experiment) AddObserver(o Observer) { e.observers = append(e.observers, o) }

// Run flies every vehicle for the configured duration. On cancellation or a
// step failure the partial result is returned with the error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	dt := e.cfg.World.Dt
	steps := int(math.Round(e.cfg.World.Duration / dt))
	n := e.world.Len()

	res := &Result{
		Tracks:  make([]Track, n),
		Metrics: make(map[string]float64),
	}
	e.world.ResetMetrics()

	crashed := make([]bool, n)
	record := func() {
		t := e.world.Time()
		controls := e.world.Controls()
		for i, v := range e.world.Vehicles() {
			tr := &res.Tracks[i]
			tr.Name = v.Name
			tr.Times = append(tr.Times, t)
			tr.States = append(tr.States, v.StateVector())
			tr.Controls = append(tr.Controls, controls[i])
		}
	}
	record()

	log := e.logger.With(slog.Int("vehicles", n), slog.Float64("dt", dt))
	log.Info("run started", slog.Int("steps", steps))

	var runErr error
	for s := 0; s < steps; s++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		vehicles := e.world.Vehicles()
		cmds := make([]map[string]float64, n)
		for i, p := range e.pilots {
			cmds[i] = p.Command(vehicles[i], dt)
		}
		if err := e.world.Act(cmds); err != nil {
			runErr = err
			break
		}
		if err := e.world.Step(dt); err != nil {
			runErr = err
			break
		}
		res.Steps++
		record()
		e.checkCrashes(res, crashed, log)

		for _, o := range e.observers {
			o.OnStep(e.world, e.world.Time())
		}
	}

	res.Time = e.world.Time()
	res.Metrics, res.VehicleMetrics = e.fleetMetrics()
	res.OnRunway = e.onRunway()
	res.Final = e.world.Snapshot()

	if runErr != nil {
		log.Warn("run stopped", slog.Int("steps", res.Steps), slog.Any("error", runErr))
		return res, fmt.Errorf("run stopped at t=%.3f: %w", res.Time, runErr)
	}
	log.Info("run finished", slog.Int("steps", res.Steps), slog.Int("crashes", len(res.Crashes)))
	return res, nil
}

func (e *Experiment) checkCrashes(res *Result, crashed []bool, log *slog.Logger) {
	for i, v := range e.world.Vehicles() {
		if crashed[i] {
			continue
		}
		violations := e.envelope.Violations(v)
		if len(violations) == 0 {
			continue
		}
		crashed[i] = true
		names := make([]string, len(violations))
		for j, vi := range violations {
			names[j] = vi.String()
		}
		res.Crashes = append(res.Crashes, Crash{Vehicle: i, Name: v.Name, Time: e.world.Time(), Violations: names})
		log.Warn("vehicle left envelope",
			slog.Int("index", i),
			slog.String("name", v.Name),
			slog.Float64("t", e.world.Time()),
			slog.Any("violations", names))
	}
}

// fleetMetrics averages every metric over the vehicles. With no vehicles a
// metric reports its unobserved value.
func (e *Experiment) fleetMetrics() (map[string]float64, map[string][]float64) {
	per := e.world.Metrics()
	fleet := make(map[string]float64, len(e.metrics))
	for _, newMetric := range e.metrics {
		m := newMetric()
		values := per[m.Name()]
		if len(values) == 0 {
			fleet[m.Name()] = m.Value()
			continue
		}
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		fleet[m.Name()] = sum / float64(len(values))
	}
	return fleet, per
}

// groundTolerance is how far above z=0 still counts as on the ground.
const groundTolerance = 1.0

func (e *Experiment) onRunway() []bool {
	if _, err := e.world.Runway(); err != nil {
		return nil
	}
	out := make([]bool, e.world.Len())
	for i, v := range e.world.Vehicles() {
		on, _ := e.world.PointOnRunway(v.Position.X, v.Position.Y)
		out[i] = on && v.Altitude() < groundTolerance
	}
	return out
}
