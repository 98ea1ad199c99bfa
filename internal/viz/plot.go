// Package viz renders run results in the terminal: asciigraph plots for
// stored trajectories and a bubbletea live view for running simulations.
package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// CoordinatePlot graphs one coordinate of one particle across the sampled
// trajectory.
func CoordinatePlot(positions [][]float64, times []float64, particleIdx, component int, height int) string {
	series := make([]float64, 0, len(positions))
	for _, pos := range positions {
		idx := 3*particleIdx + component
		if idx < len(pos) {
			series = append(series, pos[idx])
		}
	}
	if len(series) == 0 || len(times) == 0 {
		return "no data"
	}

	caption := fmt.Sprintf("particle %d, %s over t=[%.3f, %.3f]",
		particleIdx, [3]string{"x", "y", "z"}[component], times[0], times[len(times)-1])

	return asciigraph.Plot(series,
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
}

// ViolationPlot graphs the per-step worst constraint violation on a
// logarithmic-friendly scale by plotting raw values with a caption noting
// the peak.
func ViolationPlot(violations []float64, height int) string {
	if len(violations) == 0 {
		return "no constraint data"
	}

	peak := 0.0
	for _, v := range violations {
		if v > peak {
			peak = v
		}
	}

	plot := asciigraph.Plot(violations,
		asciigraph.Height(height),
		asciigraph.Caption(fmt.Sprintf("constraint violation per step (peak %.3e)", peak)),
	)

	var b strings.Builder
	b.WriteString(plot)
	b.WriteString("\n")
	return b.String()
}
