// Package dynamo provides the core primitives shared by the flight simulation packages.
//
// The package defines the state and control vectors and the contracts that tie a
// vehicle's equations of motion to a numerical integrator:
//
//   - [State]: flattened state vector
//   - [System]: equations of motion (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Engine]: advances a state by dt under a control input
//   - [Stepper]: the [Engine] built from a [System] and an [Integrator]
//
// # Example
//
//	sys := models.NewFixedWing()
//	eng := dynamo.NewStepper(sys, func() dynamo.Integrator { return integrators.NewRK4() })
//	next, err := eng.Advance(x, u, 0.01)
//
// # Thread Safety
//
// [Stepper] is safe for concurrent use: each call borrows its own integrator
// from a pool. [System] implementations must not keep mutable state.
package dynamo
