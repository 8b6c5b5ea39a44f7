package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/envelope"
	"github.com/san-kum/flyer/internal/integrators"
	"github.com/san-kum/flyer/internal/metrics"
	"github.com/san-kum/flyer/internal/models"
)

type Registry struct {
	models map[string]func() dynamo.System
}

func NewRegistry() *Registry {
	r := &Registry{
		models: make(map[string]func() dynamo.System),
	}
	r.models["fixedwing"] = func() dynamo.System { return models.NewFixedWing() }
	return r
}

func (r *Registry) GetModel(name string) (dynamo.System, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

// GetEngine pairs a model with an integrator.
func (r *Registry) GetEngine(model, integrator string) (dynamo.Engine, error) {
	sys, err := r.GetModel(model)
	if err != nil {
		return nil, err
	}
	newIntegrator, err := integrators.ByName(integrator)
	if err != nil {
		return nil, err
	}
	return dynamo.NewStepper(sys, newIntegrator), nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Metrics returns constructors for the named metrics plus the envelope
// metric, which is always included. Each vehicle gets its own instances.
func (r *Registry) Metrics(names []string, env *envelope.Envelope) ([]func() dynamo.Metric, error) {
	out := []func() dynamo.Metric{
		func() dynamo.Metric { return envelope.NewCrashMetric(env) },
	}
	for _, name := range names {
		newMetric, err := metrics.Factory(name)
		if err != nil {
			return nil, err
		}
		out = append(out, newMetric)
	}
	return out, nil
}
