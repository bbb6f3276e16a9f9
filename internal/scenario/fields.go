package scenario

import (
	"fmt"
	"math"

	"github.com/san-kum/fluidsim/internal/fluid"
	"gonum.org/v1/gonum/spatial/r3"
)

// FieldInterval is how often, in seconds of simulation time, active force
// fields fire.
const FieldInterval = 0.05

// Field kinds accepted in scenario definitions.
const (
	KindWave      = "wave"
	KindWhirlpool = "whirlpool"
)

// whirlpoolCore is the planar distance inside which the vortex does nothing.
const whirlpoolCore = 0.1

// Field is a global force applied to every particle on each clock tick.
// Strengths are read from the world's live parameters, so retuning
// waveAmplitude or whirlpoolStrength takes effect on the next tick.
//
// dt is the tick interval. Wave adds waveAmplitude straight to velocity
// each tick, while Whirlpool treats whirlpoolStrength as an acceleration
// and adds strength·dt.
type Field interface {
	Apply(w *fluid.World, now, dt float64)
}

// FieldSpec is the serialisable form of a Field.
type FieldSpec struct {
	Kind   string  `yaml:"kind"`
	K      float64 `yaml:"k,omitempty"`
	Center r3.Vec  `yaml:"center,omitempty"`
}

// Build resolves Kind into a concrete Field.
func (fs FieldSpec) Build() (Field, error) {
	switch fs.Kind {
	case KindWave:
		return Wave{K: fs.K}, nil
	case KindWhirlpool:
		return Whirlpool{Center: fs.Center}, nil
	default:
		return nil, fmt.Errorf("unknown field kind %q", fs.Kind)
	}
}

// Wave kicks vertical velocity by sin(t·f + x·k)·cos(t·f + z·k)·A per tick,
// where A and f are waveAmplitude and waveFrequency. A is a velocity.
type Wave struct {
	K float64
}

func (f Wave) Apply(w *fluid.World, now, _ float64) {
	amp := w.Params.WaveAmplitude
	phase := now * w.Params.WaveFrequency
	pos := w.State.Positions()
	vel := w.State.Velocities()
	for i, p := range pos {
		vel[i].Y += math.Sin(phase+p.X*f.K) * math.Cos(phase+p.Z*f.K) * amp
	}
}

// Whirlpool accelerates particles tangentially about a vertical axis
// through Center with magnitude whirlpoolStrength / max(1, d), d being the
// horizontal distance to the axis.
type Whirlpool struct {
	Center r3.Vec
}

func (f Whirlpool) Apply(w *fluid.World, _, dt float64) {
	strength := w.Params.WhirlpoolStrength
	pos := w.State.Positions()
	vel := w.State.Velocities()
	for i, p := range pos {
		rx := p.X - f.Center.X
		rz := p.Z - f.Center.Z
		d := math.Hypot(rx, rz)
		if d <= whirlpoolCore {
			continue
		}
		a := strength / math.Max(1, d)
		// (-rz, rx)/d is the unit tangent.
		vel[i].X += -rz / d * a * dt
		vel[i].Z += rx / d * a * dt
	}
}
