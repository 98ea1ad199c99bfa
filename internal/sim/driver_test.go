package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/bondsim/internal/constraint"
	"github.com/san-kum/bondsim/internal/forces"
	"github.com/san-kum/bondsim/internal/integrators"
	"github.com/san-kum/bondsim/internal/md"
	"github.com/san-kum/bondsim/internal/particle"
)

func freeParticleDriver(t *testing.T, solver integrators.ConstraintApplier, field forces.Field) (*Driver, *particle.State) {
	t.Helper()

	state := particle.New(1)
	state.Masses[0] = 1.0

	v := integrators.NewVerlet()
	if err := v.Setup(state.Masses, nil, nil); err != nil {
		t.Fatalf("integrator setup failed: %v", err)
	}

	return New(state, v, solver, field), state
}

func TestStepControllerReconfiguresOnChange(t *testing.T) {
	d, state := freeParticleDriver(t, nil, forces.NewUniform([]float64{1}, 1, 0, 0))

	d.SetStepSize(0.001)
	if _, err := d.Step(); err != nil {
		t.Fatalf("first step failed: %v", err)
	}

	posAfterFirst := state.Positions[0]
	velAfterFirst := state.Velocities[0]

	d.SetStepSize(0.002)
	if _, err := d.Step(); err != nil {
		t.Fatalf("second step failed: %v", err)
	}

	if got := d.integrator.StepSize(); got != 0.002 {
		t.Fatalf("integrator not reconfigured: step size %g", got)
	}

	// The coefficients used must correspond to the new dt.
	dt := 0.002
	wantPos := posAfterFirst + velAfterFirst*dt + 0.5*dt*dt
	if math.Abs(state.Positions[0]-wantPos) > 1e-15 {
		t.Errorf("trajectory used stale coefficients: got %g, want %g", state.Positions[0], wantPos)
	}
}

func TestStepControllerIgnoresSubEpsilonChange(t *testing.T) {
	d, _ := freeParticleDriver(t, nil, nil)

	d.SetStepSize(0.001)
	if _, err := d.Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	// Below StepSizeEpsilon the integrator keeps its configured step.
	d.SetStepSize(0.001 + StepSizeEpsilon/2)
	if _, err := d.Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if got := d.integrator.StepSize(); got != 0.001 {
		t.Errorf("integrator reconfigured for a sub-epsilon change: %g", got)
	}
}

func TestStepRequiresStepSize(t *testing.T) {
	d, _ := freeParticleDriver(t, nil, nil)
	if _, err := d.Step(); !errors.Is(err, md.ErrStepSize) {
		t.Errorf("expected ErrStepSize, got %v", err)
	}
}

type warningSolver struct{ calls int }

func (w *warningSolver) Apply(ref, pos []float64) (*constraint.Report, error) {
	w.calls++
	return &constraint.Report{Iterations: 40, MaxViolation: 1e-3},
		&md.ConvergenceWarning{Iterations: 40, MaxViolation: 1e-3, Tolerance: 1e-6}
}

func TestRunAccumulatesWarningsWithoutAborting(t *testing.T) {
	solver := &warningSolver{}
	d, _ := freeParticleDriver(t, solver, nil)

	cfg := DefaultConfig()
	cfg.Steps = 25
	cfg.SampleEvery = 5

	result, err := d.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run should survive convergence warnings: %v", err)
	}
	if result.StepsTaken != 25 {
		t.Errorf("expected 25 steps, got %d", result.StepsTaken)
	}
	if len(result.Warnings) != 25 {
		t.Errorf("expected a warning per step, got %d", len(result.Warnings))
	}
	if solver.calls != 25 {
		t.Errorf("solver should run every step, ran %d times", solver.calls)
	}
}

// divergingSolver overwrites a coordinate with a non-finite value, standing
// in for a blown-up constraint projection.
type divergingSolver struct{ value float64 }

func (s *divergingSolver) Apply(ref, pos []float64) (*constraint.Report, error) {
	pos[0] = s.value
	return &constraint.Report{Converged: true}, nil
}

func TestRunStopsOnNonFinitePositions(t *testing.T) {
	for _, tc := range []struct {
		name  string
		value float64
	}{
		{"nan", math.NaN()},
		{"positive inf", math.Inf(1)},
		{"negative inf", math.Inf(-1)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, _ := freeParticleDriver(t, &divergingSolver{value: tc.value}, nil)

			cfg := DefaultConfig()
			cfg.Steps = 20
			cfg.ValidateState = true

			result, err := d.Run(context.Background(), cfg)
			if err != nil {
				t.Fatalf("divergence is recorded, not returned: %v", err)
			}
			if result.StepsTaken != 1 {
				t.Errorf("run should stop after the diverging step, took %d", result.StepsTaken)
			}
			if len(result.Errors) != 1 {
				t.Fatalf("expected one recorded error, got %d", len(result.Errors))
			}
			if !errors.Is(result.Errors[0], md.ErrInvalidValues) {
				t.Errorf("expected ErrInvalidValues, got %v", result.Errors[0])
			}
		})
	}
}

func TestStepConfiguresFreshIntegratorForTinyDt(t *testing.T) {
	d, _ := freeParticleDriver(t, nil, nil)

	// Below the reconfiguration epsilon, but still a legal step size.
	d.SetStepSize(StepSizeEpsilon / 2)
	if _, err := d.Step(); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if got := d.integrator.StepSize(); got != StepSizeEpsilon/2 {
		t.Errorf("integrator left unconfigured: step size %g", got)
	}
}

func TestRunSamplesSnapshots(t *testing.T) {
	d, _ := freeParticleDriver(t, nil, forces.NewUniform([]float64{1}, 0, -9.81, 0))

	cfg := DefaultConfig()
	cfg.Steps = 100
	cfg.SampleEvery = 10

	result, err := d.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Initial snapshot plus one per ten steps.
	if len(result.Times) != 11 {
		t.Errorf("expected 11 snapshots, got %d", len(result.Times))
	}
	if len(result.Positions) != len(result.Times) || len(result.Velocities) != len(result.Times) {
		t.Error("snapshot arrays out of step")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	d, _ := freeParticleDriver(t, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	if _, err := d.Run(ctx, cfg); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunValidatesConfig(t *testing.T) {
	d, _ := freeParticleDriver(t, nil, nil)

	cfg := DefaultConfig()
	cfg.Dt = 0
	if _, err := d.Run(context.Background(), cfg); !errors.Is(err, md.ErrStepSize) {
		t.Errorf("expected ErrStepSize for zero dt, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Steps = 0
	if _, err := d.Run(context.Background(), cfg); !errors.Is(err, md.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for zero steps, got %v", err)
	}
}

func TestEnsembleRunsIndependently(t *testing.T) {
	build := func(idx int) *Driver {
		state := particle.New(1)
		state.Masses[0] = 1.0
		state.SetVelocity(0, float64(idx), 0, 0)

		v := integrators.NewVerlet()
		if err := v.Setup(state.Masses, nil, nil); err != nil {
			// Fatalf must not run off the test goroutine; build is
			// called from the ensemble's workers.
			t.Errorf("setup failed: %v", err)
		}
		return New(state, v, nil, nil)
	}

	cfg := DefaultConfig()
	cfg.Steps = 10

	results, err := NewEnsemble(4, build).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.StepsTaken != 10 {
			t.Errorf("run %d took %d steps", i, r.StepsTaken)
		}
	}
}
