package constraint_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bondsim/internal/constraint"
	"github.com/san-kum/bondsim/internal/md"
)

var _ = Describe("Solver projection", func() {
	newPair := func(mI, mJ float64) *constraint.Solver {
		s := constraint.NewSolver()
		err := s.Setup([]float64{mI, mJ}, []constraint.Constraint{{I: 0, J: 1, Distance: 1.0}}, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	DescribeTable("converges a single constraint within tolerance",
		func(mI, mJ, startSep float64) {
			s := newPair(mI, mJ)

			ref := []float64{0, 0, 0, startSep, 0, 0}
			pos := append([]float64(nil), ref...)

			rep, err := s.Apply(ref, pos)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Converged).To(BeTrue())

			sep := md.Dist(pos, 0, 1)
			Expect(math.Abs(sep*sep - 1.0)).To(BeNumerically("<=", s.Tolerance()))
		},
		Entry("equal masses, stretched", 1.0, 1.0, 1.5),
		Entry("equal masses, compressed", 1.0, 1.0, 0.4),
		Entry("heavy-light pair", 16.0, 1.0, 2.0),
		Entry("light-heavy pair", 1.0, 16.0, 2.0),
		Entry("one fixed particle", 0.0, 1.0, 1.7),
		Entry("barely violated", 1.0, 1.0, 1.001),
	)

	It("returns the candidate unchanged when every constraint already holds", func() {
		s := newPair(1, 1)

		ref := []float64{0, 0, 0, 1, 0, 0}
		pos := append([]float64(nil), ref...)

		rep, err := s.Apply(ref, pos)
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Iterations).To(BeNumerically("<=", 1))
		Expect(pos).To(Equal(ref))
	})

	It("never exceeds the iteration budget and surfaces a warning", func() {
		s := constraint.NewSolver()
		err := s.Setup([]float64{1, 1, 1}, []constraint.Constraint{
			{I: 0, J: 1, Distance: 1},
			{I: 1, J: 2, Distance: 1},
		}, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.SetTolerance(1e-14)).To(Succeed())
		Expect(s.SetMaxIterations(2)).To(Succeed())

		ref := []float64{0, 0, 0, 1.9, 0, 0, 3.8, 0, 0}
		pos := append([]float64(nil), ref...)

		rep, err := s.Apply(ref, pos)
		Expect(rep.Iterations).To(Equal(2))

		var warn *md.ConvergenceWarning
		Expect(errors.As(err, &warn)).To(BeTrue())
		Expect(warn.MaxViolation).To(BeNumerically(">", 1e-14))
	})

	It("produces the same final geometry from Gauss-Seidel and Jacobi passes", func() {
		build := func() (*constraint.Solver, []float64, []float64) {
			s := constraint.NewSolver()
			err := s.Setup([]float64{1, 1, 1}, []constraint.Constraint{
				{I: 0, J: 1, Distance: 1},
				{I: 1, J: 2, Distance: 1},
			}, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetMaxIterations(500)).To(Succeed())
			ref := []float64{0, 0, 0, 1.3, 0.2, 0, 2.6, 0, 0.1}
			return s, ref, append([]float64(nil), ref...)
		}

		gs, refGS, posGS := build()
		_, err := gs.Apply(refGS, posGS)
		Expect(err).NotTo(HaveOccurred())

		jc, refJC, posJC := build()
		_, err = jc.ApplyJacobi(refJC, posJC)
		Expect(err).NotTo(HaveOccurred())

		// Both schemes must satisfy the same topology; exact positions may differ.
		for _, b := range [][2]int{{0, 1}, {1, 2}} {
			sepGS := md.Dist(posGS, b[0], b[1])
			sepJC := md.Dist(posJC, b[0], b[1])
			Expect(math.Abs(sepGS*sepGS - 1.0)).To(BeNumerically("<=", 1e-6))
			Expect(math.Abs(sepJC*sepJC - 1.0)).To(BeNumerically("<=", 1e-6))
		}
	})
})
