package main

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/bondsim/internal/config"
	"github.com/san-kum/bondsim/internal/constraint"
	"github.com/san-kum/bondsim/internal/forces"
	"github.com/san-kum/bondsim/internal/particle"
)

// Rigid water geometry (TIP3P distances, nm scaled to model units).
const (
	waterOH = 0.9572
	waterHH = 1.5139
)

type scenario struct {
	state       *particle.State
	constraints []constraint.Constraint
	field       forces.Field
}

func buildScenario(cfg *config.Config) (*scenario, error) {
	switch cfg.Scenario {
	case "chain":
		return buildChain(cfg), nil
	case "water":
		return buildWater(cfg), nil
	case "gas":
		return buildGas(cfg), nil
	default:
		return nil, fmt.Errorf("unknown scenario %q", cfg.Scenario)
	}
}

// buildChain lays particles along x at bond-length spacing, each linked to
// its neighbor by a rigid constraint. With fixed_head the first particle
// is immovable and the chain swings like a discrete pendulum.
func buildChain(cfg *config.Config) *scenario {
	n := cfg.Particles
	if n < 2 {
		n = 2
	}

	state := particle.New(n)
	cons := make([]constraint.Constraint, 0, n-1)

	for i := 0; i < n; i++ {
		state.Masses[i] = cfg.Physics.Mass
		state.SetPosition(i, float64(i)*cfg.Physics.BondLength, 0, 0)
		if i > 0 {
			cons = append(cons, constraint.Constraint{
				I: i - 1, J: i, Distance: cfg.Physics.BondLength,
			})
		}
	}
	if cfg.Physics.FixedHead {
		state.Masses[0] = 0
	}

	return &scenario{
		state:       state,
		constraints: cons,
		field:       forces.NewUniform(state.Masses, 0, -cfg.Physics.Gravity, 0),
	}
}

// buildWater places rigid three-site molecules on a grid. Each molecule
// carries two O-H bonds plus an H-H constraint that fixes the angle.
func buildWater(cfg *config.Config) *scenario {
	molecules := cfg.Particles / 3
	if molecules < 1 {
		molecules = 1
	}
	n := molecules * 3

	state := particle.New(n)
	cons := make([]constraint.Constraint, 0, 3*molecules)

	for m := 0; m < molecules; m++ {
		o := 3 * m
		h1, h2 := o+1, o+2

		ox := 3.0 * float64(m%8)
		oz := 3.0 * float64(m/8)

		state.Masses[o] = 16 * cfg.Physics.Mass
		state.Masses[h1] = cfg.Physics.Mass
		state.Masses[h2] = cfg.Physics.Mass

		state.SetPosition(o, ox, 0, oz)
		state.SetPosition(h1, ox+waterOH, 0, oz)
		state.SetPosition(h2, ox-0.2399, 0.9266, oz) // ~104.5° from the first bond

		cons = append(cons,
			constraint.Constraint{I: o, J: h1, Distance: waterOH},
			constraint.Constraint{I: o, J: h2, Distance: waterOH},
			constraint.Constraint{I: h1, J: h2, Distance: waterHH},
		)
	}

	return &scenario{
		state:       state,
		constraints: cons,
		field:       forces.Zero{},
	}
}

// buildGas scatters free particles with random thermal velocities; no
// constraints, no external field.
func buildGas(cfg *config.Config) *scenario {
	n := cfg.Particles
	if n < 1 {
		n = 1
	}

	state := particle.New(n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	side := 1
	for side*side*side < n {
		side++
	}

	for i := 0; i < n; i++ {
		state.Masses[i] = cfg.Physics.Mass
		state.SetPosition(i,
			float64(i%side), float64((i/side)%side), float64(i/(side*side)))
		state.SetVelocity(i,
			rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64())
	}

	return &scenario{
		state: state,
		field: forces.Zero{},
	}
}
