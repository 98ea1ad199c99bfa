package md

import "math"

// Frame is the per-step observation handed to metrics and observers.
// Positions and Velocities alias the live state arrays and must not be
// retained past the call.
type Frame struct {
	Step       int
	Time       float64
	Positions  []float64
	Velocities []float64

	// Constraint solver outcome for this step; zero values when the
	// step ran unconstrained.
	Iterations   int
	MaxViolation float64
	Converged    bool
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f Frame)
}

// Valid reports whether every element of a is finite.
func Valid(a []float64) bool {
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Dist returns the distance between particles i and j in a flat
// three-component position array.
func Dist(pos []float64, i, j int) float64 {
	i3, j3 := 3*i, 3*j
	dx := pos[i3] - pos[j3]
	dy := pos[i3+1] - pos[j3+1]
	dz := pos[i3+2] - pos[j3+2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
