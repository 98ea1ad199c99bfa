package metrics

import "github.com/san-kum/bondsim/internal/md"

// MaxViolation tracks the worst constraint violation seen over a run,
// along with how many steps failed to converge. Repeated convergence
// failures are a data-quality signal for the caller.
type MaxViolation struct {
	name        string
	worst       float64
	unconverged int
}

func NewMaxViolation() *MaxViolation {
	return &MaxViolation{name: "max_violation"}
}

func (m *MaxViolation) Name() string { return m.name }

func (m *MaxViolation) Observe(f md.Frame) {
	if f.MaxViolation > m.worst {
		m.worst = f.MaxViolation
	}
	if f.Iterations > 0 && !f.Converged {
		m.unconverged++
	}
}

func (m *MaxViolation) Value() float64 { return m.worst }

func (m *MaxViolation) UnconvergedSteps() int { return m.unconverged }

func (m *MaxViolation) Reset() {
	m.worst = 0
	m.unconverged = 0
}

// SolverIterations averages the constraint passes spent per step.
type SolverIterations struct {
	name    string
	total   int
	samples int
}

func NewSolverIterations() *SolverIterations {
	return &SolverIterations{name: "solver_iterations"}
}

func (m *SolverIterations) Name() string { return m.name }

func (m *SolverIterations) Observe(f md.Frame) {
	if f.Iterations > 0 {
		m.total += f.Iterations
		m.samples++
	}
}

func (m *SolverIterations) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.total) / float64(m.samples)
}

func (m *SolverIterations) Reset() {
	m.total = 0
	m.samples = 0
}
