// Package dynamo provides the primitives shared by the population
// integrators and the solver that drives them.
//
// The package defines the interfaces and types for advancing a first-order
// system dN/dt = f(N, t):
//
//   - [State]: vector of nuclide quantities
//   - [System]: interface for ODE right-hand sides
//   - [LinearSystem]: a System with a constant sparse Jacobian
//   - [AdaptiveIntegrator]: error-controlled single-step integrator
//   - [Observer] and [Metric]: per-step hooks used by the solver
//
// # Example
//
//	sys, _ := dynamo.NewLinearODE(m.Compile())
//	integ := integrators.NewRosenbrock()
//	res, _ := integ.StepAdaptive(sys, x0, 0, dt, dynamo.Tolerance{Rel: 1e-4, Abs: 1e-6})
//
// # Thread Safety
//
// Integrators keep scratch buffers and factor caches and are NOT safe for
// concurrent use. LinearODE is read-only and may be shared.
package dynamo
