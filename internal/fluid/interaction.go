package fluid

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// defaultDispersion is the random spread of an impulse, as a fraction of
// its strength.
const defaultDispersion = 0.1

// Interaction turns a world-space pointer event into an instantaneous
// velocity kick on nearby particles. It is applied directly to velocities,
// not integrated over a time step.
type Interaction struct {
	Dispersion float64

	scratch []int
}

// NewInteraction returns an interaction field with the default dispersion.
func NewInteraction() *Interaction {
	return &Interaction{Dispersion: defaultDispersion}
}

// Apply kicks every particle strictly within radius of center. Positive
// strength pushes away from center, negative pulls toward it; the kick is
// attenuated linearly by 1 - d/radius. The grid must be current for the
// positions in st. It returns the number of particles affected.
func (in *Interaction) Apply(st *State, g *Grid, rng *rand.Rand, center r3.Vec, radius, strength float64) int {
	if radius <= 0 {
		return 0
	}
	pos := st.Positions()
	vel := st.Velocities()
	in.scratch = g.QueryPoint(center, radius, in.scratch[:0])

	spread := in.Dispersion * abs(strength)
	for _, i := range in.scratch {
		d := r3.Sub(pos[i], center)
		dist := r3.Norm(d)
		dir := r3.Vec{Y: 1}
		if dist > minSeparation {
			dir = r3.Scale(1/dist, d)
		}
		kick := r3.Scale(strength*(1-dist/radius), dir)
		if spread > 0 {
			kick = r3.Add(kick, r3.Vec{
				X: (rng.Float64()*2 - 1) * spread,
				Y: (rng.Float64()*2 - 1) * spread,
				Z: (rng.Float64()*2 - 1) * spread,
			})
		}
		vel[i] = r3.Add(vel[i], kick)
	}
	return len(in.scratch)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
