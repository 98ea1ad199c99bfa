package md

import (
	"errors"
	"fmt"
)

// Domain errors for the integration core.
var (
	// ErrConfiguration indicates malformed setup input: out-of-range
	// constraint indices, negative masses, non-positive distances or
	// duplicate constraint pairs.
	ErrConfiguration = errors.New("md: invalid configuration")

	// ErrState indicates malformed per-step input: array sizes that
	// disagree with the configured particle count.
	ErrState = errors.New("md: invalid state")

	// ErrStepSize indicates a zero or negative step size at update time,
	// or an integrator stepped before UpdateParameters configured it.
	ErrStepSize = errors.New("md: invalid step size")

	// ErrInvalidValues indicates NaN or Inf detected in a particle array.
	ErrInvalidValues = errors.New("md: invalid values (NaN or Inf detected)")
)

// ConvergenceWarning reports that the constraint solver hit its iteration
// ceiling before every constraint reached tolerance. It is non-fatal: the
// step still produced best-effort output and the simulation may continue.
type ConvergenceWarning struct {
	Iterations   int
	MaxViolation float64
	Tolerance    float64
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("md: constraints not converged after %d iterations (worst violation %.3e, tolerance %.3e)",
		w.Iterations, w.MaxViolation, w.Tolerance)
}

// StepError wraps an error with the step at which it occurred.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
