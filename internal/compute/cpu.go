package compute

import (
	"math"
	"runtime"
	"sync"

	"github.com/san-kum/bondsim/internal/md"
)

// serialThreshold is the particle count below which chunked dispatch costs
// more than it saves.
const serialThreshold = 16

type CPUBackend struct {
	workers int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers: runtime.NumCPU(),
	}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) VerletPositions(pos, vel, force, coeff []float64, movable []bool, dt float64, out []float64) {
	n := len(coeff)
	if n < serialThreshold {
		c.verletRange(pos, vel, force, coeff, movable, dt, out, 0, n)
		return
	}
	c.parallelOver(n, func(start, end int) {
		c.verletRange(pos, vel, force, coeff, movable, dt, out, start, end)
	})
}

func (c *CPUBackend) verletRange(pos, vel, force, coeff []float64, movable []bool, dt float64, out []float64, start, end int) {
	for i := start; i < end; i++ {
		i3 := 3 * i
		if !movable[i] {
			out[i3] = pos[i3]
			out[i3+1] = pos[i3+1]
			out[i3+2] = pos[i3+2]
			continue
		}
		ci := coeff[i]
		out[i3] = pos[i3] + vel[i3]*dt + ci*force[i3]
		out[i3+1] = pos[i3+1] + vel[i3+1]*dt + ci*force[i3+1]
		out[i3+2] = pos[i3+2] + vel[i3+2]*dt + ci*force[i3+2]
	}
}

func (c *CPUBackend) DeriveVelocities(newPos, oldPos []float64, invDt float64, out []float64) {
	n := len(out) / 3
	if n < serialThreshold {
		for k := range out {
			out[k] = (newPos[k] - oldPos[k]) * invDt
		}
		return
	}
	c.parallelOver(n, func(start, end int) {
		for k := 3 * start; k < 3*end; k++ {
			out[k] = (newPos[k] - oldPos[k]) * invDt
		}
	})
}

func (c *CPUBackend) HalfKick(vel, force, invMass []float64, halfDt float64) {
	n := len(invMass)
	kick := func(start, end int) {
		for i := start; i < end; i++ {
			s := halfDt * invMass[i]
			i3 := 3 * i
			vel[i3] += s * force[i3]
			vel[i3+1] += s * force[i3+1]
			vel[i3+2] += s * force[i3+2]
		}
	}
	if n < serialThreshold {
		kick(0, n)
		return
	}
	c.parallelOver(n, kick)
}

func (c *CPUBackend) MaxAbs(a []float64) float64 {
	n := len(a)
	if n < 3*serialThreshold {
		return maxAbsRange(a, 0, n)
	}

	locals := make([]float64, c.workers)
	var wg sync.WaitGroup
	chunkSize := (n + c.workers - 1) / c.workers

	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			start := worker * chunkSize
			end := start + chunkSize
			if end > n {
				end = n
			}
			if start < end {
				locals[worker] = maxAbsRange(a, start, end)
			}
		}(w)
	}

	wg.Wait()

	out := 0.0
	for _, v := range locals {
		if math.IsNaN(v) {
			return v
		}
		if v > out {
			out = v
		}
	}
	return out
}

func maxAbsRange(a []float64, start, end int) float64 {
	out := 0.0
	for i := start; i < end; i++ {
		v := math.Abs(a[i])
		if math.IsNaN(v) {
			return v
		}
		if v > out {
			out = v
		}
	}
	return out
}

func (c *CPUBackend) parallelOver(n int, fn func(start, end int)) {
	md.ParallelFor(n, serialThreshold, fn)
}
