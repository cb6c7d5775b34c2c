// Package dynamo provides the shared primitives of time-stepped simulation.
//
// The package defines the types every integrator and system agrees on:
//
//   - [State]: vector of state quantities in a fixed order
//   - [System]: a composed right-hand side dX/dt = f(X, t)
//   - [JacobianSystem]: a System that also provides its Jacobian
//   - [Config]: numeric tuning of an integration run
//   - [Result]: observed rows of a run, one per output time
//
// # Example
//
//	sys, _ := system.New(inputs, models.Default())
//	integ, _ := integrators.New("auto", dynamo.DefaultConfig())
//	result, err := integ.Integrate(sys)
//
// # Thread Safety
//
// Systems mutate internal buffers on every evaluation and are NOT
// thread-safe. Each run must own its System.
package dynamo
