// Package sim orchestrates constrained integration steps: per-step force
// evaluation, step-size control, constraint warnings and metric collection.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/bondsim/internal/compute"
	"github.com/san-kum/bondsim/internal/constraint"
	"github.com/san-kum/bondsim/internal/forces"
	"github.com/san-kum/bondsim/internal/integrators"
	"github.com/san-kum/bondsim/internal/md"
	"github.com/san-kum/bondsim/internal/particle"
)

// StepSizeEpsilon is the threshold above which a requested step-size change
// forces the integrator to recompute its coefficients. It sits well below
// any physically meaningful step-size change.
const StepSizeEpsilon = 1e-4

type Config struct {
	Dt            float64
	Steps         int
	SampleEvery   int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.001,
		Steps:         1000,
		SampleEvery:   10,
		ValidateState: true,
	}
}

type Result struct {
	Times      []float64
	Positions  [][]float64
	Velocities [][]float64
	Metrics    map[string]float64
	Warnings   []*md.ConvergenceWarning
	StepsTaken int
	Errors     []error
}

// Driver runs the per-step control flow: check for a step-size change,
// reconfigure the integrator if needed, evaluate forces, integrate, and
// record outcomes. Not safe for concurrent use.
type Driver struct {
	state      *particle.State
	integrator *integrators.Verlet
	solver     integrators.ConstraintApplier
	field      forces.Field

	metrics   []md.Metric
	observers []md.Observer

	requestedDt float64
	t           float64
	step        int
}

func New(state *particle.State, integ *integrators.Verlet, solver integrators.ConstraintApplier, field forces.Field) *Driver {
	if field == nil {
		field = forces.Zero{}
	}
	return &Driver{
		state:      state,
		integrator: integ,
		solver:     solver,
		field:      field,
	}
}

func (d *Driver) AddMetric(m md.Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o md.Observer) { d.observers = append(d.observers, o) }

// SetStepSize records the host-requested step size. The integrator is
// reconfigured lazily, immediately before the next step executes.
func (d *Driver) SetStepSize(dt float64) { d.requestedDt = dt }

func (d *Driver) Time() float64 { return d.t }

// Step advances the simulation by one timestep. A *md.ConvergenceWarning
// in the returned error is non-fatal and accompanies best-effort output.
func (d *Driver) Step() (*constraint.Report, error) {
	if d.requestedDt <= 0 {
		return nil, fmt.Errorf("%w: requested %g", md.ErrStepSize, d.requestedDt)
	}

	// Reconfigure before the position update, or stale coefficients
	// silently corrupt the trajectory. An unconfigured integrator
	// (StepSize 0) always needs coefficients, however small the dt.
	if d.integrator.StepSize() == 0 ||
		math.Abs(d.requestedDt-d.integrator.StepSize()) > StepSizeEpsilon {
		if err := d.integrator.UpdateParameters(d.requestedDt); err != nil {
			return nil, err
		}
	}

	d.field.Eval(d.t, d.state.Positions, d.state.Forces)

	rep, err := d.integrator.Update(d.state.Positions, d.state.Velocities, d.state.Forces, d.solver)
	if err != nil {
		var warn *md.ConvergenceWarning
		if !errors.As(err, &warn) {
			return nil, &md.StepError{Step: d.step, Time: d.t, Wrapped: err}
		}
	}

	d.t += d.integrator.StepSize()
	d.step++
	return rep, err
}

// Run executes cfg.Steps timesteps, collecting sampled snapshots, metric
// values and convergence warnings. Convergence warnings never abort the
// run; invalid state (NaN/Inf) stops it with a recorded error.
func (d *Driver) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	sample := cfg.SampleEvery
	if sample <= 0 {
		sample = 1
	}

	result := &Result{
		Times:      make([]float64, 0, cfg.Steps/sample+1),
		Positions:  make([][]float64, 0, cfg.Steps/sample+1),
		Velocities: make([][]float64, 0, cfg.Steps/sample+1),
		Metrics:    make(map[string]float64),
	}

	for _, m := range d.metrics {
		m.Reset()
	}

	d.SetStepSize(cfg.Dt)
	d.snapshot(result)

	backend := compute.GetBackend()

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		rep, err := d.Step()
		if err != nil {
			var warn *md.ConvergenceWarning
			if errors.As(err, &warn) {
				result.Warnings = append(result.Warnings, warn)
			} else {
				result.Errors = append(result.Errors, err)
				return result, err
			}
		}
		result.StepsTaken++

		frame := md.Frame{
			Step:       d.step,
			Time:       d.t,
			Positions:  d.state.Positions,
			Velocities: d.state.Velocities,
		}
		if rep != nil {
			frame.Iterations = rep.Iterations
			frame.MaxViolation = rep.MaxViolation
			frame.Converged = rep.Converged
		}
		for _, m := range d.metrics {
			m.Observe(frame)
		}
		for _, obs := range d.observers {
			obs.OnStep(frame)
		}

		if cfg.ValidateState {
			if v := backend.MaxAbs(d.state.Positions); math.IsNaN(v) || math.IsInf(v, 0) {
				err := &md.StepError{Step: d.step, Time: d.t, Wrapped: md.ErrInvalidValues}
				result.Errors = append(result.Errors, err)
				break
			}
		}

		if d.step%sample == 0 {
			d.snapshot(result)
		}
	}

	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (d *Driver) snapshot(result *Result) {
	result.Times = append(result.Times, d.t)
	result.Positions = append(result.Positions, append([]float64(nil), d.state.Positions...))
	result.Velocities = append(result.Velocities, append([]float64(nil), d.state.Velocities...))
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", md.ErrStepSize, cfg.Dt)
	}
	if cfg.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", md.ErrConfiguration, cfg.Steps)
	}
	return nil
}
