// Package compute provides the array-parallel execution substrate for the
// integration core.
//
// The integrator and constraint solver never loop over particles directly;
// they dispatch bulk elementwise and reduction operations over the flat
// particle arrays through a [Backend]:
//
//	backend := compute.GetBackend()
//	backend.VerletPositions(pos, vel, force, coeff, movable, dt, out)
//
// The CPU backend splits work across worker goroutines above a small
// particle-count threshold and runs serially below it. Dispatch is
// synchronous: every bulk call returns completed results.
package compute
