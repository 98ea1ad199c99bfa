package integrators

import (
	"errors"
	"testing"

	"github.com/san-kum/bondsim/internal/constraint"
	"github.com/san-kum/bondsim/internal/md"
)

func benchState(n int) (masses, pos, vel, force []float64, cons []constraint.Constraint) {
	masses = make([]float64, n)
	pos = make([]float64, 3*n)
	vel = make([]float64, 3*n)
	force = make([]float64, 3*n)
	cons = make([]constraint.Constraint, 0, n-1)

	for i := 0; i < n; i++ {
		masses[i] = 1.0
		pos[3*i] = float64(i)
		force[3*i+1] = -9.81
		if i > 0 {
			cons = append(cons, constraint.Constraint{I: i - 1, J: i, Distance: 1.0})
		}
	}
	return
}

func BenchmarkVerletUnconstrained(b *testing.B) {
	masses, pos, vel, force, _ := benchState(1024)

	v := NewVerlet()
	if err := v.Setup(masses, nil, nil); err != nil {
		b.Fatal(err)
	}
	if err := v.UpdateParameters(0.001); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Update(pos, vel, force, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVerletConstrainedChain(b *testing.B) {
	masses, pos, vel, force, cons := benchState(1024)

	v := NewVerlet()
	if err := v.Setup(masses, nil, nil); err != nil {
		b.Fatal(err)
	}
	if err := v.UpdateParameters(0.001); err != nil {
		b.Fatal(err)
	}

	s := constraint.NewSolver()
	if err := s.Setup(masses, cons, nil, nil); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Update(pos, vel, force, s); err != nil {
			var warn *md.ConvergenceWarning
			if !errors.As(err, &warn) {
				b.Fatal(err)
			}
		}
	}
}
