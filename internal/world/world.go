// Package world owns a set of aircraft, their held controls and an optional
// runway, and advances them together.
//
// Vehicles are addressed by insertion index. Every query returns copies, so
// callers never share memory with the world.
package world

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/brunoga/deep"
	"github.com/iancoleman/orderedmap"
	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/envelope"
	"github.com/san-kum/flyer/internal/models"
	"github.com/san-kum/flyer/internal/runway"
	"github.com/san-kum/flyer/internal/vehicle"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

type Screen struct {
	Width  int `json:"width" msgpack:"width"`
	Height int `json:"height" msgpack:"height"`
}

// Config is carried for collaborators; the world itself only reads
// Parallel and Workers. Parallel stepping requires an engine that is safe
// for concurrent use, which dynamo.Stepper is.
type Config struct {
	Camera     r3.Vec
	Screen     Screen
	AssetsDir  string
	TerrainDir string
	RenderMode string
	Parallel   bool
	Workers    int
}

func DefaultConfig() Config {
	return Config{
		Camera:     r3.Vec{X: -50, Z: -20},
		Screen:     Screen{Width: 800, Height: 600},
		AssetsDir:  "assets",
		TerrainDir: "terrain",
		RenderMode: "rgb",
	}
}

type World struct {
	cfg      Config
	engine   dynamo.Engine
	envelope *envelope.Envelope
	logger   *slog.Logger

	vehicles []vehicle.State
	controls []dynamo.Control
	runway   *runway.Runway
	time     float64
	ticks    int

	// metrics[i] holds vehicle i's instance of each factory, in order.
	newMetrics []func() dynamo.Metric
	metrics    [][]dynamo.Metric
	collector  *Collector

	mapGen   MapGenerator
	renderer Renderer
	mounter  ResourceMounter
}

type Option func(*World)

func WithConfig(cfg Config) Option {
	return func(w *World) { w.cfg = cfg }
}

func WithEngine(eng dynamo.Engine) Option {
	return func(w *World) { w.engine = eng }
}

func WithEnvelope(env *envelope.Envelope) Option {
	return func(w *World) { w.envelope = env }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *World) { w.logger = logger }
}

func WithCollector(c *Collector) Option {
	return func(w *World) { w.collector = c }
}

func WithMapGenerator(g MapGenerator) Option {
	return func(w *World) { w.mapGen = g }
}

func WithRenderer(r Renderer) Option {
	return func(w *World) { w.renderer = r }
}

func WithResourceMounter(m ResourceMounter) Option {
	return func(w *World) { w.mounter = m }
}

// New returns an empty world flying the default fixed-wing engine.
func New(opts ...Option) *World {
	w := &World{
		cfg:      DefaultConfig(),
		envelope: envelope.New(envelope.DefaultLimits()),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.engine == nil {
		w.engine = models.DefaultEngine()
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w
}

func (w *World) Config() Config { return w.cfg }
func (w *World) Time() float64  { return w.time }
func (w *World) Ticks() int     { return w.ticks }
func (w *World) Len() int       { return len(w.vehicles) }

func (w *World) SetCamera(pos r3.Vec) { w.cfg.Camera = pos }

// AddMetric gives every vehicle, present and future, its own instance from
// newMetric. Instances observe their vehicle after each committed step.
func (w *World) AddMetric(newMetric func() dynamo.Metric) {
	w.newMetrics = append(w.newMetrics, newMetric)
	for i := range w.metrics {
		w.metrics[i] = append(w.metrics[i], newMetric())
	}
}

// Metrics returns each metric's value per vehicle, keyed by metric name.
func (w *World) Metrics() map[string][]float64 {
	out := make(map[string][]float64, len(w.newMetrics))
	for i, ms := range w.metrics {
		for _, m := range ms {
			if out[m.Name()] == nil {
				out[m.Name()] = make([]float64, len(w.metrics))
			}
			out[m.Name()][i] = m.Value()
		}
	}
	return out
}

func (w *World) ResetMetrics() {
	for _, ms := range w.metrics {
		for _, m := range ms {
			m.Reset()
		}
	}
}

func (w *World) vehicleMetrics() []dynamo.Metric {
	ms := make([]dynamo.Metric, len(w.newMetrics))
	for j, newMetric := range w.newMetrics {
		ms[j] = newMetric()
	}
	return ms
}

// AddVehicle appends a copy of s with neutral controls and returns its index.
// The attitude is normalised on the way in.
func (w *World) AddVehicle(s vehicle.State) int {
	s = s.Normalized()
	w.vehicles = append(w.vehicles, s)
	w.controls = append(w.controls, make(dynamo.Control, w.engine.ControlDim()))
	w.metrics = append(w.metrics, w.vehicleMetrics())
	w.logger.Debug("vehicle added", slog.Int("index", len(w.vehicles)-1), slog.String("name", s.Name))
	w.observeFleet()
	return len(w.vehicles) - 1
}

// UpdateVehicle replaces the vehicle at index. Its held controls are kept.
func (w *World) UpdateVehicle(s vehicle.State, index int) error {
	if err := w.checkIndex(index); err != nil {
		return err
	}
	s = s.Normalized()
	w.vehicles[index] = s
	w.observeFleet()
	return nil
}

// RemoveVehicle deletes the vehicle at index; later vehicles shift down.
func (w *World) RemoveVehicle(index int) error {
	if err := w.checkIndex(index); err != nil {
		return err
	}
	w.vehicles = append(w.vehicles[:index], w.vehicles[index+1:]...)
	w.controls = append(w.controls[:index], w.controls[index+1:]...)
	w.metrics = append(w.metrics[:index], w.metrics[index+1:]...)
	w.observeFleet()
	return nil
}

func (w *World) Vehicle(index int) (vehicle.State, error) {
	if err := w.checkIndex(index); err != nil {
		return vehicle.State{}, err
	}
	return deep.MustCopy(w.vehicles[index]), nil
}

func (w *World) Vehicles() []vehicle.State {
	return deep.MustCopy(w.vehicles)
}

// Controls returns the held control vector for each vehicle.
func (w *World) Controls() []dynamo.Control {
	return deep.MustCopy(w.controls)
}

func (w *World) checkIndex(index int) error {
	if index < 0 || index >= len(w.vehicles) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(w.vehicles))
	}
	return nil
}

// Act sets held controls by channel name, one map per vehicle. Channels a
// map leaves out keep their previous value. Nothing changes unless every
// entry is valid.
func (w *World) Act(controls []map[string]float64) error {
	if len(controls) != len(w.vehicles) {
		return fmt.Errorf("%w: got %d, have %d vehicles", ErrControlCount, len(controls), len(w.vehicles))
	}

	for i, m := range controls {
		for name, v := range m {
			if channelIndex(name) < 0 {
				return fmt.Errorf("%w: %q for vehicle %d", ErrUnknownChannel, name, i)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s=%v for vehicle %d", ErrInvalidControl, name, v, i)
			}
		}
	}

	for i, m := range controls {
		for name, v := range m {
			w.controls[i][channelIndex(name)] = v
		}
	}
	return nil
}

func channelIndex(name string) int {
	for i, c := range models.Channels {
		if c == name {
			return i
		}
	}
	return -1
}

// Step advances every vehicle by dt with its held controls. Vehicles are
// integrated independently in ascending index order, or across workers when
// Parallel is set; the outcome is the same. If any vehicle fails no state
// changes and the first failure by index is returned.
func (w *World) Step(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidTimestep, dt)
	}
	start := time.Now()

	n := len(w.vehicles)
	next := make([]vehicle.State, n)
	errs := make([]error, n)
	copy(next, w.vehicles)

	advance := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			errs[i] = next[i].Step(w.engine, dt, w.controls[i])
		}
	}
	if w.cfg.Parallel {
		dynamo.ParallelFor(n, 1, w.cfg.Workers, advance)
	} else {
		advance(0, n)
	}

	for i, err := range errs {
		if err != nil {
			w.logger.Warn("step failed", slog.Int("index", i), slog.String("name", w.vehicles[i].Name), slog.Any("error", err))
			return &StepError{Index: i, Name: w.vehicles[i].Name, Wrapped: err}
		}
	}

	w.vehicles = next
	w.time += dt
	w.ticks++

	for i := range w.vehicles {
		x := w.vehicles[i].StateVector()
		for _, m := range w.metrics[i] {
			m.Observe(x, w.controls[i], w.time)
		}
	}
	if w.collector != nil {
		w.collector.StepDuration.Observe(time.Since(start).Seconds())
		w.collector.Ticks.Inc()
	}
	w.observeFleet()
	return nil
}

// StepVehicle advances one vehicle without touching the others or the
// world clock.
func (w *World) StepVehicle(index int, dt float64, u dynamo.Control) error {
	if err := w.checkIndex(index); err != nil {
		return err
	}
	return w.vehicles[index].Step(w.engine, dt, u)
}

// Crashed evaluates the envelope for each vehicle.
func (w *World) Crashed() []bool {
	out := make([]bool, len(w.vehicles))
	for i, v := range w.vehicles {
		out[i] = w.envelope.IsCrashed(v)
	}
	return out
}

func (w *World) observeFleet() {
	if w.collector == nil {
		return
	}
	crashed := 0
	for _, c := range w.Crashed() {
		if c {
			crashed++
		}
	}
	w.collector.Vehicles.Set(float64(len(w.vehicles)))
	w.collector.Crashed.Set(float64(crashed))
}

// CreateRunway creates the default runway on first use. Every call applies
// only the given options, so earlier settings survive.
func (w *World) CreateRunway(opts ...runway.Option) runway.Runway {
	if w.runway == nil {
		r := runway.Default()
		w.runway = &r
	}
	w.runway.Apply(opts...)
	w.logger.Debug("runway updated",
		slog.Float64("x", w.runway.Position.X),
		slog.Float64("y", w.runway.Position.Y),
		slog.Float64("width", w.runway.Width),
		slog.Float64("length", w.runway.Length),
		slog.Float64("heading", w.runway.Heading))
	return *w.runway
}

func (w *World) Runway() (runway.Runway, error) {
	if w.runway == nil {
		return runway.Runway{}, ErrNoRunway
	}
	return *w.runway, nil
}

// PointOnRunway reports whether the ground point (x, y) lies on the runway.
func (w *World) PointOnRunway(x, y float64) (bool, error) {
	if w.runway == nil {
		return false, ErrNoRunway
	}
	return w.runway.Contains(r2.Vec{X: x, Y: y}), nil
}

// TouchdownPoints returns the runway's approach points in flying order.
// Values are r2.Vec.
func (w *World) TouchdownPoints() (*orderedmap.OrderedMap, error) {
	if w.runway == nil {
		return nil, ErrNoRunway
	}
	return w.runway.ApproachPoints(), nil
}
