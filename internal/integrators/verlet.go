// Package integrators advances particle state through time.
//
// Verlet implements constrained velocity-Verlet: an unconstrained position
// update, a constraint projection on the candidate positions, then
// velocities re-derived from the constrained displacement so they stay
// consistent with the corrected geometry.
package integrators

import (
	"errors"
	"fmt"
	"log"

	"github.com/san-kum/bondsim/internal/compute"
	"github.com/san-kum/bondsim/internal/constraint"
	"github.com/san-kum/bondsim/internal/md"
	"github.com/san-kum/bondsim/internal/particle"
)

// ConstraintApplier corrects candidate positions against pre-step reference
// positions. *constraint.Solver satisfies it; tests may substitute a stub.
type ConstraintApplier interface {
	Apply(ref, pos []float64) (*constraint.Report, error)
}

// Verlet advances positions and velocities by one timestep. It owns the
// per-particle kinematic coefficients, recomputed whenever the step size
// changes through UpdateParameters.
type Verlet struct {
	n       int
	invMass []float64
	movable []bool
	coeff   []float64 // 0.5*invMass*dt² per particle
	dt      float64

	backend compute.Backend
	logger  *log.Logger
	scratch *particle.BufferPool
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

// Setup precomputes per-particle inverse masses. Zero-mass particles are
// treated as fixed and excluded from position updates. backend may be nil
// to use the process-wide backend; logger may be nil to drop diagnostics.
func (v *Verlet) Setup(masses []float64, backend compute.Backend, logger *log.Logger) error {
	if len(masses) == 0 {
		return fmt.Errorf("%w: no particles", md.ErrConfiguration)
	}

	n := len(masses)
	invMass := make([]float64, n)
	movable := make([]bool, n)
	for i, m := range masses {
		if m < 0 {
			return fmt.Errorf("%w: particle %d has negative mass %g", md.ErrConfiguration, i, m)
		}
		if m > 0 {
			invMass[i] = 1 / m
			movable[i] = true
		}
	}

	if backend == nil {
		backend = compute.GetBackend()
	}

	v.n = n
	v.invMass = invMass
	v.movable = movable
	v.coeff = make([]float64, n)
	v.dt = 0
	v.backend = backend
	v.logger = logger
	v.scratch = particle.NewBufferPool(n)

	if v.logger != nil {
		v.logger.Printf("verlet integrator: %d particles on %s backend", n, backend.Name())
	}
	return nil
}

// UpdateParameters recomputes the step-size-dependent coefficients.
// It must be called whenever the effective timestep changes; stale
// coefficients silently corrupt the trajectory.
func (v *Verlet) UpdateParameters(dt float64) error {
	if v.n == 0 {
		return fmt.Errorf("%w: integrator not set up", md.ErrConfiguration)
	}
	if dt <= 0 {
		return fmt.Errorf("%w: got %g", md.ErrStepSize, dt)
	}

	half := 0.5 * dt * dt
	for i, w := range v.invMass {
		v.coeff[i] = half * w
	}
	v.dt = dt

	if v.logger != nil {
		v.logger.Printf("verlet integrator: coefficients recomputed for dt=%g", dt)
	}
	return nil
}

// StepSize returns the step size the coefficients were last computed for,
// or zero before the first UpdateParameters call.
func (v *Verlet) StepSize() float64 {
	return v.dt
}

// Update performs one integration step in place: the unconstrained
// candidate positions are projected by solver (nil skips projection),
// velocities are re-derived from the constrained displacement, and the
// final state is written back into pos and vel.
//
// A returned *md.ConvergenceWarning is non-fatal: pos and vel still hold
// the best-effort step output. Any other non-nil error leaves pos and vel
// untouched.
func (v *Verlet) Update(pos, vel, force []float64, solver ConstraintApplier) (*constraint.Report, error) {
	if v.n == 0 {
		return nil, fmt.Errorf("%w: integrator not set up", md.ErrConfiguration)
	}
	if v.dt <= 0 {
		return nil, fmt.Errorf("%w: UpdateParameters not called", md.ErrStepSize)
	}
	if len(pos) != 3*v.n || len(vel) != 3*v.n || len(force) != 3*v.n {
		return nil, fmt.Errorf("%w: arrays must have %d elements, got %d/%d/%d",
			md.ErrState, 3*v.n, len(pos), len(vel), len(force))
	}

	scratch := v.scratch.Get()
	defer v.scratch.Put(scratch)

	v.backend.VerletPositions(pos, vel, force, v.coeff, v.movable, v.dt, scratch)

	var rep *constraint.Report
	var warn *md.ConvergenceWarning
	if solver != nil {
		var err error
		rep, err = solver.Apply(pos, scratch)
		if err != nil && !errors.As(err, &warn) {
			return nil, err
		}
	}

	// Velocity consistent with the constrained displacement, completed by
	// the second half-kick of velocity-Verlet.
	v.backend.DeriveVelocities(scratch, pos, 1/v.dt, vel)
	v.backend.HalfKick(vel, force, v.invMass, 0.5*v.dt)
	copy(pos, scratch)

	if warn != nil {
		return rep, warn
	}
	return rep, nil
}
