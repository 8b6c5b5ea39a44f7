package metrics

import (
	"fmt"

	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/models"
)

var names = []string{"control_effort", "energy", "energy_drift", "throttle"}

func Names() []string {
	return append([]string(nil), names...)
}

// ByName builds a fresh metric. Aircraft metrics assume standard gravity.
func ByName(name string) (dynamo.Metric, error) {
	switch name {
	case "control_effort":
		return NewControlEffort(), nil
	case "energy":
		return NewEnergy(models.DefaultGravity), nil
	case "energy_drift":
		return NewEnergyDrift(models.DefaultGravity), nil
	case "throttle":
		return NewThrottle(), nil
	default:
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
}

// Factory checks name once and returns a constructor for fresh instances of
// that metric.
func Factory(name string) (func() dynamo.Metric, error) {
	if _, err := ByName(name); err != nil {
		return nil, err
	}
	return func() dynamo.Metric {
		m, _ := ByName(name)
		return m
	}, nil
}
