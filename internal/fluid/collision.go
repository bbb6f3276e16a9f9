package fluid

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	groundFriction   = 0.98
	perturbChance    = 0.02
	perturbMagnitude = 0.05
)

// Obstacle is a static sphere collider.
type Obstacle struct {
	Center r3.Vec  `yaml:"center"`
	Radius float64 `yaml:"radius"`
}

// bounds returns the axis-aligned region particles are confined to.
func (p *Params) bounds() r3.Box {
	half := p.GridSize / 2
	return r3.Box{
		Min: r3.Vec{X: -half, Y: 0, Z: -half},
		Max: r3.Vec{X: half, Y: p.BoxHeight, Z: half},
	}
}

func clampAxis(p, v *float64, lo, hi, damping float64) {
	if *p < lo {
		*p = lo
		*v = math.Abs(*v) * damping
	} else if *p > hi {
		*p = hi
		*v = -math.Abs(*v) * damping
	}
}

// collideBox clamps p into b and turns the offending velocity component
// back inward, scaled by damping.
func collideBox(p, v *r3.Vec, b r3.Box, damping float64) {
	clampAxis(&p.X, &v.X, b.Min.X, b.Max.X, damping)
	clampAxis(&p.Y, &v.Y, b.Min.Y, b.Max.Y, damping)
	clampAxis(&p.Z, &v.Z, b.Min.Z, b.Max.Z, damping)
}

// containBox clamps position only.
func containBox(p *r3.Vec, b r3.Box) {
	p.X = math.Min(math.Max(p.X, b.Min.X), b.Max.X)
	p.Y = math.Min(math.Max(p.Y, b.Min.Y), b.Max.Y)
	p.Z = math.Min(math.Max(p.Z, b.Min.Z), b.Max.Z)
}

// collideGround handles the fixed plane y = 0 and its horizontal limits.
// A falling particle within threshold of the plane is clamped onto it,
// bounced, slowed by friction and occasionally nudged sideways to break
// symmetry.
func collideGround(p, v *r3.Vec, prm *Params, rng *rand.Rand) {
	if math.Abs(p.Y) < prm.CollisionThreshold && v.Y < 0 {
		p.Y = 0
		v.Y = math.Abs(v.Y) * prm.Damping
		v.X *= groundFriction
		v.Z *= groundFriction
		if rng.Float64() < perturbChance {
			v.X += (rng.Float64()*2 - 1) * perturbMagnitude
			v.Z += (rng.Float64()*2 - 1) * perturbMagnitude
			clampSpeed(v, prm.MaxVelocity)
		}
	}

	limit := prm.GridSize / 2
	clampAxis(&p.X, &v.X, -limit, limit, prm.Damping)
	clampAxis(&p.Z, &v.Z, -limit, limit, prm.Damping)
}

// collideObstacle projects a particle inside the sphere onto its surface
// and mirrors the inward velocity about the surface normal.
func collideObstacle(p, v *r3.Vec, o Obstacle, damping float64) bool {
	d := r3.Sub(*p, o.Center)
	dist := r3.Norm(d)
	if dist >= o.Radius {
		return false
	}
	n := r3.Vec{Y: 1}
	if dist > minSeparation {
		n = r3.Scale(1/dist, d)
	}
	*p = r3.Add(o.Center, r3.Scale(o.Radius, n))
	if vn := r3.Dot(*v, n); vn < 0 {
		*v = r3.Scale(damping, r3.Sub(*v, r3.Scale(2*vn, n)))
	}
	return true
}

func clampSpeed(v *r3.Vec, max float64) {
	s2 := r3.Norm2(*v)
	if math.IsInf(s2, 0) || math.IsNaN(s2) {
		*v = r3.Vec{}
		return
	}
	if s2 > max*max {
		*v = r3.Scale(max/math.Sqrt(s2), *v)
	}
}
