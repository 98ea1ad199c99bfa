package compute

import (
	"math"
	"testing"
)

func TestVerletPositionsMatchesSerial(t *testing.T) {
	b := NewCPUBackend()
	n := 100

	pos := make([]float64, 3*n)
	vel := make([]float64, 3*n)
	force := make([]float64, 3*n)
	coeff := make([]float64, n)
	movable := make([]bool, n)

	for i := 0; i < n; i++ {
		coeff[i] = 0.5 * 1e-6
		movable[i] = i%7 != 0
		for k := 0; k < 3; k++ {
			pos[3*i+k] = float64(i) + 0.1*float64(k)
			vel[3*i+k] = 0.01 * float64(i-k)
			force[3*i+k] = float64(k - i)
		}
	}

	dt := 0.001
	out := make([]float64, 3*n)
	b.VerletPositions(pos, vel, force, coeff, movable, dt, out)

	for i := 0; i < n; i++ {
		for k := 0; k < 3; k++ {
			idx := 3*i + k
			want := pos[idx]
			if movable[i] {
				want = pos[idx] + vel[idx]*dt + coeff[i]*force[idx]
			}
			if math.Abs(out[idx]-want) > 1e-15 {
				t.Fatalf("particle %d component %d: got %g, want %g", i, k, out[idx], want)
			}
		}
	}
}

func TestDeriveVelocities(t *testing.T) {
	b := NewCPUBackend()
	oldPos := []float64{0, 0, 0, 1, 1, 1}
	newPos := []float64{1, 0, 0, 1, 3, 1}
	out := make([]float64, 6)

	b.DeriveVelocities(newPos, oldPos, 1/0.5, out)

	want := []float64{2, 0, 0, 0, 4, 0}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Errorf("component %d: got %g, want %g", i, out[i], want[i])
		}
	}
}

func TestMaxAbs(t *testing.T) {
	b := NewCPUBackend()

	a := make([]float64, 500)
	for i := range a {
		a[i] = float64(i % 37)
	}
	a[123] = -250.0

	if got := b.MaxAbs(a); got != 250.0 {
		t.Errorf("expected 250, got %g", got)
	}

	a[200] = math.NaN()
	if got := b.MaxAbs(a); !math.IsNaN(got) {
		t.Errorf("expected NaN propagation, got %g", got)
	}
}
