// Package md provides core primitives for constrained particle dynamics.
//
// The package defines the shared types and error taxonomy used by the
// integration core:
//
//   - [Frame]: per-step observation handed to metrics and observers
//   - [Metric]: running measurement over a simulation
//   - [ConvergenceWarning]: non-fatal signal that the constraint solver
//     exhausted its iteration budget
//
// Particle state is stored as flat []float64 arrays with three components
// per particle, so bulk operations map directly onto the compute backends.
//
// # Thread Safety
//
// Metrics and observers are invoked from a single driver loop and are NOT
// safe for concurrent use. [ParallelFor] is provided for data-parallel
// work inside a single step.
package md
