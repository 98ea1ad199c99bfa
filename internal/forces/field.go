// Package forces supplies per-step external force arrays to the driver.
// The integrator itself never evaluates forces; it consumes whatever array
// the host hands it, and these providers play that host role for the CLI.
package forces

import "math"

// Field fills out with the force on each particle at time t.
type Field interface {
	Eval(t float64, pos []float64, out []float64)
}

// Zero leaves every particle force-free.
type Zero struct{}

func (Zero) Eval(t float64, pos []float64, out []float64) {
	for i := range out {
		out[i] = 0
	}
}

// Uniform applies a constant acceleration field (gravity-like) scaled by
// each particle's mass.
type Uniform struct {
	masses     []float64
	ax, ay, az float64
}

func NewUniform(masses []float64, ax, ay, az float64) *Uniform {
	return &Uniform{masses: masses, ax: ax, ay: ay, az: az}
}

func (u *Uniform) Eval(t float64, pos []float64, out []float64) {
	for i, m := range u.masses {
		i3 := 3 * i
		out[i3] = m * u.ax
		out[i3+1] = m * u.ay
		out[i3+2] = m * u.az
	}
}

// Spring is a harmonic bond between two particles.
type Spring struct {
	I, J    int
	Rest, K float64
}

// Springs evaluates harmonic bond forces over a fixed topology.
type Springs struct {
	masses  []float64
	springs []Spring
	gravity *Uniform
}

// NewSprings builds a spring field; pass a non-nil gravity field to add a
// uniform background acceleration.
func NewSprings(masses []float64, springs []Spring, gravity *Uniform) *Springs {
	return &Springs{masses: masses, springs: springs, gravity: gravity}
}

func (s *Springs) Eval(t float64, pos []float64, out []float64) {
	if s.gravity != nil {
		s.gravity.Eval(t, pos, out)
	} else {
		for i := range out {
			out[i] = 0
		}
	}

	for _, sp := range s.springs {
		i3, j3 := 3*sp.I, 3*sp.J

		dx := pos[j3] - pos[i3]
		dy := pos[j3+1] - pos[i3+1]
		dz := pos[j3+2] - pos[i3+2]
		d := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if d == 0 {
			continue
		}

		f := sp.K * (d - sp.Rest) / d
		out[i3] += f * dx
		out[i3+1] += f * dy
		out[i3+2] += f * dz
		out[j3] -= f * dx
		out[j3+1] -= f * dy
		out[j3+2] -= f * dz
	}
}
