package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/flyer/internal/experiment"
	"github.com/san-kum/flyer/internal/vehicle"
)

type ExportVehicle struct {
	Name   string               `json:"name"`
	Times  []float64            `json:"times"`
	States []map[string]float64 `json:"states"`
}

type ExportData struct {
	Dt             float64              `json:"dt"`
	Steps          int                  `json:"steps"`
	Time           float64              `json:"time"`
	Vehicles       []ExportVehicle      `json:"vehicles"`
	Metrics        map[string]float64   `json:"metrics"`
	VehicleMetrics map[string][]float64 `json:"vehicle_metrics,omitempty"`
	Crashes        []experiment.Crash   `json:"crashes"`
	OnRunway       []bool               `json:"on_runway,omitempty"`
}

// ExportJSON writes a run with each state expanded to named components,
// attitude as Euler angles.
func ExportJSON(w io.Writer, dt float64, result *experiment.Result) error {
	data := ExportData{
		Dt:             dt,
		Steps:          result.Steps,
		Time:           result.Time,
		Vehicles:       make([]ExportVehicle, len(result.Tracks)),
		Metrics:        result.Metrics,
		VehicleMetrics: result.VehicleMetrics,
		Crashes:        result.Crashes,
		OnRunway:       result.OnRunway,
	}

	for i, tr := range result.Tracks {
		ev := ExportVehicle{Name: tr.Name, Times: tr.Times, States: make([]map[string]float64, 0, len(tr.States))}
		for _, x := range tr.States {
			s, err := vehicle.FromStateVector(tr.Name, x)
			if err != nil {
				return err
			}
			ev.States = append(ev.States, s.Dict())
		}
		data.Vehicles[i] = ev
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
