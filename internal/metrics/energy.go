package metrics

import (
	"math"

	"github.com/san-kum/bondsim/internal/md"
)

// KineticEnergy averages the total kinetic energy over a run.
type KineticEnergy struct {
	name    string
	masses  []float64
	total   float64
	samples int
}

func NewKineticEnergy(masses []float64) *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy", masses: masses}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(f md.Frame) {
	e.total += kinetic(e.masses, f.Velocities)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative deviation of kinetic energy from
// its first observed value. For a constrained system under zero external
// force, drift measures how much the projection scheme pumps or bleeds
// energy.
type EnergyDrift struct {
	name     string
	masses   []float64
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(masses []float64) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", masses: masses}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f md.Frame) {
	energy := kinetic(e.masses, f.Velocities)

	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

func kinetic(masses, vel []float64) float64 {
	total := 0.0
	for i, m := range masses {
		i3 := 3 * i
		v2 := vel[i3]*vel[i3] + vel[i3+1]*vel[i3+1] + vel[i3+2]*vel[i3+2]
		total += 0.5 * m * v2
	}
	return total
}
