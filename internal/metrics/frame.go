package metrics

import (
	"log/slog"
	"math"
	"sort"

	"github.com/san-kum/fluidsim/internal/fluid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// boundsSlack absorbs float rounding at the walls.
const boundsSlack = 1e-6

// Frame is a snapshot of aggregate quantities after one step. The csv tags
// define the column layout of saved runs.
type Frame struct {
	Frame         int     `csv:"frame"`
	Time          float64 `csv:"time"`
	Particles     int     `csv:"particles"`
	MaxSpeed      float64 `csv:"max_speed"`
	SpeedP90      float64 `csv:"speed_p90"`
	KineticEnergy float64 `csv:"kinetic_energy"`
	MeanDensity   float64 `csv:"mean_density"`
	DensityStdDev float64 `csv:"density_stddev"`
	MeanHeight    float64 `csv:"mean_height"`
	OutOfBounds   int     `csv:"out_of_bounds"`
}

// Sample measures the world as it stands.
func Sample(w *fluid.World) Frame {
	f := Frame{
		Frame:     w.Frames(),
		Time:      w.Clock.Now(),
		Particles: w.State.Len(),
	}
	if f.Particles == 0 {
		return f
	}

	pos := w.State.Positions()
	vel := w.State.Velocities()
	speeds := make([]float64, len(vel))
	heights := make([]float64, len(pos))
	box := w.Bounds()
	mass := w.Params.ParticleMass
	for i, v := range vel {
		s2 := r3.Norm2(v)
		speeds[i] = math.Sqrt(s2)
		f.KineticEnergy += 0.5 * mass * s2
		heights[i] = pos[i].Y
		if outside(pos[i], box) {
			f.OutOfBounds++
		}
	}

	f.MaxSpeed = floats.Max(speeds)
	sort.Float64s(speeds)
	f.SpeedP90 = stat.Quantile(0.9, stat.Empirical, speeds, nil)
	f.MeanHeight = stat.Mean(heights, nil)
	if len(pos) > 1 {
		f.MeanDensity, f.DensityStdDev = stat.MeanStdDev(w.State.Densities(), nil)
	} else {
		f.MeanDensity = w.State.Densities()[0]
	}
	return f
}

func outside(p r3.Vec, b r3.Box) bool {
	return p.X < b.Min.X-boundsSlack || p.X > b.Max.X+boundsSlack ||
		p.Y < b.Min.Y-boundsSlack || p.Y > b.Max.Y+boundsSlack ||
		p.Z < b.Min.Z-boundsSlack || p.Z > b.Max.Z+boundsSlack
}

// LogValue implements slog.LogValuer.
func (f Frame) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frame", f.Frame),
		slog.Float64("time", f.Time),
		slog.Int("particles", f.Particles),
		slog.Float64("max_speed", f.MaxSpeed),
		slog.Float64("speed_p90", f.SpeedP90),
		slog.Float64("kinetic_energy", f.KineticEnergy),
		slog.Float64("mean_density", f.MeanDensity),
		slog.Float64("density_stddev", f.DensityStdDev),
		slog.Float64("mean_height", f.MeanHeight),
		slog.Int("out_of_bounds", f.OutOfBounds),
	)
}

// Column returns the named series value of f, using the csv column names.
func (f Frame) Column(name string) (float64, bool) {
	switch name {
	case "frame":
		return float64(f.Frame), true
	case "time":
		return f.Time, true
	case "particles":
		return float64(f.Particles), true
	case "max_speed":
		return f.MaxSpeed, true
	case "speed_p90":
		return f.SpeedP90, true
	case "kinetic_energy":
		return f.KineticEnergy, true
	case "mean_density":
		return f.MeanDensity, true
	case "density_stddev":
		return f.DensityStdDev, true
	case "mean_height":
		return f.MeanHeight, true
	case "out_of_bounds":
		return float64(f.OutOfBounds), true
	}
	return 0, false
}

// Columns lists the names Column accepts.
func Columns() []string {
	return []string{
		"frame", "time", "particles", "max_speed", "speed_p90", "kinetic_energy",
		"mean_density", "density_stddev", "mean_height", "out_of_bounds",
	}
}

// Series extracts one column across frames.
func Series(frames []Frame, name string) ([]float64, bool) {
	if _, ok := (Frame{}).Column(name); !ok {
		return nil, false
	}
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i], _ = f.Column(name)
	}
	return out, true
}
