package constraint

// JacobiApplier adapts a Solver so its simultaneous-correction scheme
// satisfies the same Apply contract as the default Gauss-Seidel one.
type JacobiApplier struct {
	S *Solver
}

func (j JacobiApplier) Apply(ref, pos []float64) (*Report, error) {
	return j.S.ApplyJacobi(ref, pos)
}

// ApplyJacobi corrects pos in place using simultaneous constraint passes:
// every correction in a pass is computed from the same position snapshot
// by the compute backend, then accumulated with per-particle averaging.
// The result is independent of the backend's dispatch width because the
// accumulation always runs in topology insertion order.
func (s *Solver) ApplyJacobi(ref, pos []float64) (*Report, error) {
	if err := s.checkArrays(ref, pos); err != nil {
		return nil, err
	}
	if len(s.ci) == 0 {
		return &Report{Converged: true}, nil
	}

	if len(s.deltas) != 6*len(s.ci) {
		s.deltas = make([]float64, 6*len(s.ci))
	}

	rep := &Report{}
	for rep.Iterations < s.maxIter {
		rep.Iterations++

		violated := s.backend.ShakeDeltas(pos, ref, s.ci, s.cj, s.dist2, s.invRed, s.wI, s.wJ, s.tolerance, s.deltas)
		if violated == 0 {
			rep.Converged = true
			break
		}

		for c := range s.ci {
			o := 6 * c
			i, j := s.ci[c], s.cj[c]
			i3, j3 := 3*i, 3*j

			ri := s.relax[i]
			pos[i3] += ri * s.deltas[o]
			pos[i3+1] += ri * s.deltas[o+1]
			pos[i3+2] += ri * s.deltas[o+2]

			rj := s.relax[j]
			pos[j3] += rj * s.deltas[o+3]
			pos[j3+1] += rj * s.deltas[o+4]
			pos[j3+2] += rj * s.deltas[o+5]
		}
	}

	return s.finish(rep, pos)
}
