package compute

import (
	"math"
	"sync"
)

func (c *CPUBackend) ShakeDeltas(pos, ref []float64, ci, cj []int, dist2, invRed, wI, wJ []float64, tol float64, out []float64) int {
	m := len(ci)
	if m < serialThreshold {
		return shakeRange(pos, ref, ci, cj, dist2, invRed, wI, wJ, tol, out, 0, m)
	}

	violated := make([]int, c.workers)
	var wg sync.WaitGroup
	chunkSize := (m + c.workers - 1) / c.workers

	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			start := worker * chunkSize
			end := start + chunkSize
			if end > m {
				end = m
			}
			if start < end {
				violated[worker] = shakeRange(pos, ref, ci, cj, dist2, invRed, wI, wJ, tol, out, start, end)
			}
		}(w)
	}

	wg.Wait()

	total := 0
	for _, v := range violated {
		total += v
	}
	return total
}

func shakeRange(pos, ref []float64, ci, cj []int, dist2, invRed, wI, wJ []float64, tol float64, out []float64, start, end int) int {
	violated := 0

	for c := start; c < end; c++ {
		o := 6 * c
		i3, j3 := 3*ci[c], 3*cj[c]

		dx := pos[i3] - pos[j3]
		dy := pos[i3+1] - pos[j3+1]
		dz := pos[i3+2] - pos[j3+2]
		d2 := dx*dx + dy*dy + dz*dz
		diff := d2 - dist2[c]

		if math.Abs(diff) <= tol*dist2[c] {
			out[o], out[o+1], out[o+2] = 0, 0, 0
			out[o+3], out[o+4], out[o+5] = 0, 0, 0
			continue
		}
		violated++

		rx := ref[i3] - ref[j3]
		ry := ref[i3+1] - ref[j3+1]
		rz := ref[i3+2] - ref[j3+2]
		dot := rx*dx + ry*dy + rz*dz

		// The reference bond may be degenerate or near-orthogonal to the
		// current bond; project along the current bond instead.
		if dot < degenerateDot*dist2[c] {
			rx, ry, rz = dx, dy, dz
			dot = d2
		}
		if dot == 0 {
			// Coincident particles leave no direction to correct along.
			out[o], out[o+1], out[o+2] = 0, 0, 0
			out[o+3], out[o+4], out[o+5] = 0, 0, 0
			continue
		}

		g := diff * 0.5 * invRed[c] / dot

		gi := wI[c] * g
		out[o] = -gi * rx
		out[o+1] = -gi * ry
		out[o+2] = -gi * rz

		gj := wJ[c] * g
		out[o+3] = gj * rx
		out[o+4] = gj * ry
		out[o+5] = gj * rz
	}

	return violated
}

const degenerateDot = 1e-6
