package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
)

// SweepPoint holds the run summary for one parameter value.
type SweepPoint struct {
	Param   float64
	Metrics map[string]float64
}

// Sweep runs a fresh engine for every value of paramName, each for frames
// steps with the standard metrics, and records the summaries. Runs are
// sequential and share cfg's seed, so points differ only in the parameter.
func Sweep(ctx context.Context, cfg sim.Config, paramName string, values []float64, frames int) ([]SweepPoint, error) {
	defaults := fluid.DefaultParams()
	if _, err := defaults.Get(paramName); err != nil {
		return nil, err
	}

	points := make([]SweepPoint, 0, len(values))
	for _, v := range values {
		c := cfg
		if err := c.Params.Set(paramName, v); err != nil {
			return points, err
		}
		eng := sim.New(c)
		for _, m := range metrics.Standard(c.Params.RestDensity, c.Params.MaxVelocity) {
			eng.AddMetric(m)
		}
		res, err := eng.Run(ctx, frames, nil)
		if err != nil {
			return points, fmt.Errorf("%s=%g: %w", paramName, v, err)
		}
		points = append(points, SweepPoint{Param: v, Metrics: res.Metrics})
	}
	return points, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	step := (hi - lo) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Best returns the point minimising metric, or false if none carries it.
func Best(points []SweepPoint, metric string) (SweepPoint, bool) {
	best := math.Inf(1)
	var out SweepPoint
	found := false
	for _, p := range points {
		v, ok := p.Metrics[metric]
		if ok && v < best {
			best, out, found = v, p, true
		}
	}
	return out, found
}
