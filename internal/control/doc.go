// Package control provides pilots that command a vehicle's control
// channels each tick.
//
//   - [Hold]: fixed commands, optionally changed between ticks
//   - [Autopilot]: altitude, airspeed and heading hold built on [PID] loops
//
// # Usage
//
//	ap := control.NewAutopilot(control.DefaultGains(), 300, 50, 0)
//	cmd := ap.Command(state, dt)  // channel name -> value
//	err := w.Act([]map[string]float64{cmd})
package control
