package envelope

import (
	"testing"

	"github.com/san-kum/flyer/internal/geom"
	"github.com/san-kum/flyer/internal/vehicle"
)

func TestIsCrashed(t *testing.T) {
	tests := []struct {
		name    string
		state   vehicle.State
		crashed bool
	}{
		{
			"overspeed",
			vehicle.New(vehicle.WithPosition(0, 0, -100), vehicle.WithVelocity(250, 0, 0)),
			true,
		},
		{
			"pitched 10 degrees",
			vehicle.New(vehicle.WithPosition(0, 0, -100), vehicle.WithVelocity(50, 0, 0), vehicle.WithAttitudeEuler(0, geom.Radians(10), 0)),
			false,
		},
		{
			"ground exemption",
			vehicle.New(vehicle.WithPosition(0, 0, 0), vehicle.WithVelocity(300, 0, 0)),
			false,
		},
		{
			"ground exemption ignores pitch",
			vehicle.New(vehicle.WithPosition(0, 0, -4), vehicle.WithAttitudeEuler(0, geom.Radians(80), 0)),
			false,
		},
		{
			"sink rate",
			vehicle.New(vehicle.WithPosition(0, 0, -100), vehicle.WithVelocity(50, 0, 61)),
			true,
		},
		{
			"nose down",
			vehicle.New(vehicle.WithPosition(0, 0, -100), vehicle.WithAttitudeEuler(0, geom.Radians(-6), 0)),
			true,
		},
		{
			"nose high",
			vehicle.New(vehicle.WithPosition(0, 0, -100), vehicle.WithAttitudeEuler(0, geom.Radians(31), 0)),
			true,
		},
		{
			"at ground level boundary is airborne",
			vehicle.New(vehicle.WithPosition(0, 0, -5), vehicle.WithVelocity(201, 0, 0)),
			true,
		},
		{
			"cruise",
			vehicle.New(vehicle.WithPosition(0, 0, -1000), vehicle.WithVelocity(60, 0, 2)),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCrashed(tt.state); got != tt.crashed {
				t.Errorf("IsCrashed() = %v, want %v", got, tt.crashed)
			}
		})
	}
}

func TestViolationsListsEveryLimit(t *testing.T) {
	s := vehicle.New(
		vehicle.WithPosition(0, 0, -100),
		vehicle.WithVelocity(250, 0, 70),
		vehicle.WithAttitudeEuler(0, geom.Radians(40), 0),
	)

	got := New(DefaultLimits()).Violations(s)
	want := []Violation{ForwardSpeed, VerticalSpeed, PitchAboveMax}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("violation %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestCustomLimits(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxForwardSpeed = 40
	env := New(limits)

	s := vehicle.New(vehicle.WithPosition(0, 0, -100), vehicle.WithVelocity(50, 0, 0))
	if !env.IsCrashed(s) {
		t.Error("expected crash with lowered speed limit")
	}
	if IsCrashed(s) {
		t.Error("default limits should not be affected")
	}
}

func TestCrashMetric(t *testing.T) {
	m := NewCrashMetric(New(DefaultLimits()))
	if m.Value() != 1.0 {
		t.Errorf("expected 1.0 with no samples, got %f", m.Value())
	}

	ok := vehicle.New(vehicle.WithPosition(0, 0, -100), vehicle.WithVelocity(50, 0, 0))
	bad := vehicle.New(vehicle.WithPosition(0, 0, -100), vehicle.WithVelocity(250, 0, 0))

	m.Observe(ok.StateVector(), nil, 0)
	m.Observe(bad.StateVector(), nil, 0.1)
	m.Observe(ok.StateVector(), nil, 0.2)
	m.Observe(bad.StateVector(), nil, 0.3)

	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 1.0 {
		t.Errorf("expected 1.0 after reset, got %f", m.Value())
	}
}
