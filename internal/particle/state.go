// Package particle owns the per-particle state arrays borrowed by the
// integrator and constraint solver during a step.
package particle

import (
	"fmt"

	"github.com/san-kum/bondsim/internal/md"
)

// State holds mass, position, velocity and force arrays for a fixed number
// of particles. Positions, Velocities and Forces are flat arrays with three
// components per particle.
type State struct {
	N          int
	Masses     []float64
	Positions  []float64
	Velocities []float64
	Forces     []float64
}

func New(n int) *State {
	return &State{
		N:          n,
		Masses:     make([]float64, n),
		Positions:  make([]float64, 3*n),
		Velocities: make([]float64, 3*n),
		Forces:     make([]float64, 3*n),
	}
}

func (s *State) Clone() *State {
	c := New(s.N)
	copy(c.Masses, s.Masses)
	copy(c.Positions, s.Positions)
	copy(c.Velocities, s.Velocities)
	copy(c.Forces, s.Forces)
	return c
}

// SetPosition places particle i at (x, y, z).
func (s *State) SetPosition(i int, x, y, z float64) {
	s.Positions[3*i] = x
	s.Positions[3*i+1] = y
	s.Positions[3*i+2] = z
}

// SetVelocity assigns particle i the velocity (vx, vy, vz).
func (s *State) SetVelocity(i int, vx, vy, vz float64) {
	s.Velocities[3*i] = vx
	s.Velocities[3*i+1] = vy
	s.Velocities[3*i+2] = vz
}

// Dist returns the distance between particles i and j.
func (s *State) Dist(i, j int) float64 {
	return md.Dist(s.Positions, i, j)
}

// Validate checks array sizes against N and scans for NaN/Inf.
func (s *State) Validate() error {
	if len(s.Masses) != s.N || len(s.Positions) != 3*s.N ||
		len(s.Velocities) != 3*s.N || len(s.Forces) != 3*s.N {
		return fmt.Errorf("%w: array sizes disagree with particle count %d", md.ErrState, s.N)
	}
	if !md.Valid(s.Positions) || !md.Valid(s.Velocities) || !md.Valid(s.Forces) {
		return md.ErrInvalidValues
	}
	return nil
}
