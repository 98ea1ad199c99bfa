package compute

// Backend is the contract the integration core requires from an
// array-parallel substrate: bulk elementwise kernels and reductions over
// particle-indexed arrays. All calls are synchronous.
type Backend interface {
	Name() string
	Available() bool

	// VerletPositions computes the unconstrained position update
	// out[3i+k] = pos[3i+k] + vel[3i+k]*dt + coeff[i]*force[3i+k]
	// for movable particles; fixed particles are copied through unchanged.
	// coeff carries the per-particle 0.5*invMass*dt² factor.
	VerletPositions(pos, vel, force, coeff []float64, movable []bool, dt float64, out []float64)

	// DeriveVelocities computes out = (newPos - oldPos) * invDt elementwise.
	DeriveVelocities(newPos, oldPos []float64, invDt float64, out []float64)

	// HalfKick applies vel[3i+k] += halfDt * invMass[i] * force[3i+k].
	// Fixed particles carry zero inverse mass and are unaffected.
	HalfKick(vel, force, invMass []float64, halfDt float64)

	// MaxAbs reduces an array to its largest absolute element.
	MaxAbs(a []float64) float64

	// ShakeDeltas computes one simultaneous constraint-correction pass.
	// For constraint c joining particles ci[c] and cj[c], out[6c:6c+3]
	// receives the displacement for ci[c] and out[6c+3:6c+6] the
	// displacement for cj[c]; both are zero when the constraint is within
	// tol of its target. dist2 holds squared target distances, invRed the
	// per-constraint reduced-mass factor 1/(wI+wJ), wI and wJ the inverse
	// masses of the two particles. ref supplies the reference bond
	// directions. Returns the number of violated constraints.
	ShakeDeltas(pos, ref []float64, ci, cj []int, dist2, invRed, wI, wJ []float64, tol float64, out []float64) int

	Cleanup()
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	if activeBackend != nil {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

// AutoSelectBackend returns the best available backend. Only the CPU
// substrate is compiled in; accelerator selection belongs to the host.
func AutoSelectBackend() Backend {
	return NewCPUBackend()
}
