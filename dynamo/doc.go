// Package dynamo provides the core vocabulary for parameter identification
// over dynamical systems.
//
// The package defines the fundamental interfaces and types shared by the
// simulator, constraint compiler, and optimizer:
//
//   - [State]: vector representing system state
//   - [Params]: vector of derived (solved-for) parameters
//   - [Model]: interface for parametric ODE systems (dX/dt = f(X, u, p, t))
//   - [ParamSpec], [StateSpec]: declared schema for parameters and state
//   - [Detector]: continuous event indicator with an impulse map
//
// A Model declares its schema up front so that constraint references and
// candidate parameter vectors can be validated before any simulation runs.
// Schema violations are configuration errors and surface immediately.
//
// # Thread Safety
//
// Models must be pure: Derivative may be called concurrently from
// finite-difference probes and parallel restarts and must not retain or
// mutate hidden state.
package dynamo
