package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/bondsim/internal/md"
)

func TestMaxViolationTracksWorst(t *testing.T) {
	m := NewMaxViolation()

	m.Observe(md.Frame{Iterations: 3, MaxViolation: 1e-8, Converged: true})
	m.Observe(md.Frame{Iterations: 40, MaxViolation: 1e-3, Converged: false})
	m.Observe(md.Frame{Iterations: 2, MaxViolation: 1e-9, Converged: true})

	if m.Value() != 1e-3 {
		t.Errorf("expected worst violation 1e-3, got %g", m.Value())
	}
	if m.UnconvergedSteps() != 1 {
		t.Errorf("expected 1 unconverged step, got %d", m.UnconvergedSteps())
	}

	m.Reset()
	if m.Value() != 0 || m.UnconvergedSteps() != 0 {
		t.Error("reset did not clear state")
	}
}

func TestSolverIterationsAverages(t *testing.T) {
	m := NewSolverIterations()

	m.Observe(md.Frame{Iterations: 2, Converged: true})
	m.Observe(md.Frame{Iterations: 6, Converged: true})
	m.Observe(md.Frame{}) // unconstrained step ignored

	if math.Abs(m.Value()-4.0) > 1e-12 {
		t.Errorf("expected average 4, got %g", m.Value())
	}
}

func TestKineticEnergy(t *testing.T) {
	e := NewKineticEnergy([]float64{2})

	e.Observe(md.Frame{Velocities: []float64{3, 0, 4}})

	// 0.5 * 2 * 25
	if math.Abs(e.Value()-25.0) > 1e-12 {
		t.Errorf("expected 25, got %g", e.Value())
	}
}

func TestEnergyDrift(t *testing.T) {
	e := NewEnergyDrift([]float64{1})

	e.Observe(md.Frame{Velocities: []float64{1, 0, 0}}) // E = 0.5
	e.Observe(md.Frame{Velocities: []float64{1, 0, 0}})
	if e.Value() != 0 {
		t.Errorf("no drift expected, got %g", e.Value())
	}

	e.Observe(md.Frame{Velocities: []float64{2, 0, 0}}) // E = 2.0
	if math.Abs(e.Value()-3.0) > 1e-12 {
		t.Errorf("expected relative drift 3, got %g", e.Value())
	}
}
