// Package constraint implements SHAKE-style iterative projection of
// pairwise distance constraints.
//
// Positions are corrected along the reference bond direction, weighted by
// inverse mass, until every constrained pair sits within tolerance of its
// target distance or the iteration budget runs out. The default Apply runs
// deterministic Gauss-Seidel sweeps in topology insertion order; ApplyJacobi
// dispatches simultaneous correction passes through the compute backend.
package constraint

import (
	"fmt"
	"log"
	"math"

	"github.com/san-kum/bondsim/internal/compute"
	"github.com/san-kum/bondsim/internal/md"
)

const (
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 40
)

// Constraint fixes the distance between two particles.
type Constraint struct {
	I, J     int
	Distance float64
}

// Report describes the outcome of one Apply call.
type Report struct {
	Iterations   int
	MaxViolation float64
	Converged    bool
}

// Solver corrects candidate positions so that all pairwise distance
// constraints hold within tolerance. The topology is immutable after Setup;
// tolerance and iteration budget are mutable through setters and take
// effect on the next Apply.
type Solver struct {
	n int

	// Per-constraint arrays, laid out for bulk dispatch.
	ci, cj []int
	dist2  []float64
	invRed []float64
	wI, wJ []float64
	relax  []float64 // per-particle Jacobi averaging factor

	tolerance float64
	maxIter   int

	backend compute.Backend
	logger  *log.Logger

	deltas []float64 // Jacobi scratch, 6 per constraint
}

func NewSolver() *Solver {
	return &Solver{
		tolerance: DefaultTolerance,
		maxIter:   DefaultMaxIterations,
	}
}

// Setup validates the topology and precomputes inverse-mass and
// reduced-mass coefficients. backend may be nil, in which case the
// process-wide backend is used; logger may be nil to drop diagnostics.
func (s *Solver) Setup(masses []float64, cons []Constraint, backend compute.Backend, logger *log.Logger) error {
	if len(masses) == 0 {
		return fmt.Errorf("%w: no particles", md.ErrConfiguration)
	}

	n := len(masses)
	invMass := make([]float64, n)
	for i, m := range masses {
		if m < 0 {
			return fmt.Errorf("%w: particle %d has negative mass %g", md.ErrConfiguration, i, m)
		}
		if m > 0 {
			invMass[i] = 1 / m
		}
	}

	m := len(cons)
	s.ci = make([]int, m)
	s.cj = make([]int, m)
	s.dist2 = make([]float64, m)
	s.invRed = make([]float64, m)
	s.wI = make([]float64, m)
	s.wJ = make([]float64, m)

	degree := make([]int, n)
	seen := make(map[[2]int]struct{}, m)

	for c, con := range cons {
		if con.I < 0 || con.I >= n || con.J < 0 || con.J >= n {
			return fmt.Errorf("%w: constraint %d references particle out of range [0,%d)", md.ErrConfiguration, c, n)
		}
		if con.I == con.J {
			return fmt.Errorf("%w: constraint %d joins particle %d to itself", md.ErrConfiguration, c, con.I)
		}
		if con.Distance <= 0 {
			return fmt.Errorf("%w: constraint %d has non-positive distance %g", md.ErrConfiguration, c, con.Distance)
		}

		key := [2]int{con.I, con.J}
		if con.J < con.I {
			key = [2]int{con.J, con.I}
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate constraint on pair (%d,%d)", md.ErrConfiguration, key[0], key[1])
		}
		seen[key] = struct{}{}

		wi, wj := invMass[con.I], invMass[con.J]
		if wi == 0 && wj == 0 {
			return fmt.Errorf("%w: constraint %d joins two fixed particles", md.ErrConfiguration, c)
		}

		s.ci[c] = con.I
		s.cj[c] = con.J
		s.dist2[c] = con.Distance * con.Distance
		s.wI[c] = wi
		s.wJ[c] = wj
		s.invRed[c] = 1 / (wi + wj)
		degree[con.I]++
		degree[con.J]++
	}

	s.relax = make([]float64, n)
	for i, d := range degree {
		if d > 0 {
			s.relax[i] = 1 / float64(d)
		}
	}

	s.n = n
	if backend == nil {
		backend = compute.GetBackend()
	}
	s.backend = backend
	s.logger = logger
	s.deltas = nil

	if s.logger != nil {
		s.logger.Printf("constraint solver: %d particles, %d constraints, tol=%g maxIter=%d",
			n, m, s.tolerance, s.maxIter)
	}
	return nil
}

func (s *Solver) SetTolerance(tol float64) error {
	if tol <= 0 {
		return fmt.Errorf("%w: tolerance must be positive, got %g", md.ErrConfiguration, tol)
	}
	s.tolerance = tol
	return nil
}

func (s *Solver) SetMaxIterations(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", md.ErrConfiguration, n)
	}
	s.maxIter = n
	return nil
}

func (s *Solver) Tolerance() float64  { return s.tolerance }
func (s *Solver) MaxIterations() int  { return s.maxIter }
func (s *Solver) NumConstraints() int { return len(s.ci) }

// Apply corrects pos in place so all constraints hold within tolerance,
// using sequential Gauss-Seidel sweeps in topology insertion order. ref
// supplies the pre-step positions whose bond directions the corrections
// project along. When the iteration budget is exhausted the best-effort
// positions are kept and a *md.ConvergenceWarning is returned; any other
// non-nil error is fatal.
func (s *Solver) Apply(ref, pos []float64) (*Report, error) {
	if err := s.checkArrays(ref, pos); err != nil {
		return nil, err
	}
	if len(s.ci) == 0 {
		return &Report{Converged: true}, nil
	}

	rep := &Report{}
	for rep.Iterations < s.maxIter {
		rep.Iterations++
		if s.sweep(ref, pos) == 0 {
			rep.Converged = true
			break
		}
	}

	return s.finish(rep, pos)
}

// sweep runs one Gauss-Seidel pass and returns the number of constraints
// it had to correct.
func (s *Solver) sweep(ref, pos []float64) int {
	violated := 0

	for c := range s.ci {
		i3, j3 := 3*s.ci[c], 3*s.cj[c]

		dx := pos[i3] - pos[j3]
		dy := pos[i3+1] - pos[j3+1]
		dz := pos[i3+2] - pos[j3+2]
		d2 := dx*dx + dy*dy + dz*dz
		diff := d2 - s.dist2[c]

		if math.Abs(diff) <= s.tolerance*s.dist2[c] {
			continue
		}
		violated++

		rx := ref[i3] - ref[j3]
		ry := ref[i3+1] - ref[j3+1]
		rz := ref[i3+2] - ref[j3+2]
		dot := rx*dx + ry*dy + rz*dz

		if dot < 1e-6*s.dist2[c] {
			rx, ry, rz = dx, dy, dz
			dot = d2
		}
		if dot == 0 {
			continue
		}

		g := diff * 0.5 * s.invRed[c] / dot

		gi := s.wI[c] * g
		pos[i3] -= gi * rx
		pos[i3+1] -= gi * ry
		pos[i3+2] -= gi * rz

		gj := s.wJ[c] * g
		pos[j3] += gj * rx
		pos[j3+1] += gj * ry
		pos[j3+2] += gj * rz
	}

	return violated
}

func (s *Solver) checkArrays(ref, pos []float64) error {
	if s.n == 0 {
		return fmt.Errorf("%w: solver not set up", md.ErrConfiguration)
	}
	if len(ref) != 3*s.n || len(pos) != 3*s.n {
		return fmt.Errorf("%w: position arrays must have %d elements, got %d and %d",
			md.ErrState, 3*s.n, len(ref), len(pos))
	}
	return nil
}

// finish fills in the final violation measure and converts a missed budget
// into a ConvergenceWarning.
func (s *Solver) finish(rep *Report, pos []float64) (*Report, error) {
	rep.MaxViolation = s.maxViolation(pos)
	if !rep.Converged && rep.MaxViolation <= s.tolerance {
		// The final pass landed within tolerance.
		rep.Converged = true
	}
	if rep.Converged {
		return rep, nil
	}

	warn := &md.ConvergenceWarning{
		Iterations:   rep.Iterations,
		MaxViolation: rep.MaxViolation,
		Tolerance:    s.tolerance,
	}
	if s.logger != nil {
		s.logger.Printf("%v", warn)
	}
	return rep, warn
}

// maxViolation returns the worst relative squared-distance error over the
// topology.
func (s *Solver) maxViolation(pos []float64) float64 {
	worst := 0.0
	for c := range s.ci {
		i3, j3 := 3*s.ci[c], 3*s.cj[c]
		dx := pos[i3] - pos[j3]
		dy := pos[i3+1] - pos[j3+1]
		dz := pos[i3+2] - pos[j3+2]
		d2 := dx*dx + dy*dy + dz*dz
		rel := math.Abs(d2-s.dist2[c]) / s.dist2[c]
		if rel > worst {
			worst = rel
		}
	}
	return worst
}
