package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// minDensity floors a density before it is used as a divisor.
	minDensity = 1e-6
	// minSeparation skips coincident pairs.
	minSeparation = 1e-12
	// cohesionRange is the fraction of h inside which cohesion acts.
	cohesionRange = 0.9
)

// Solver evaluates SPH density, pressure and per-particle accelerations.
type Solver struct {
	Kernels *Kernels
}

// NewSolver returns a solver using kernels k.
func NewSolver(k *Kernels) *Solver {
	return &Solver{Kernels: k}
}

// GatherNeighbors refreshes every neighbor set from a freshly rebuilt grid.
func (sv *Solver) GatherNeighbors(s *State, g *Grid) {
	h := sv.Kernels.H()
	nb := s.Neighbors()
	for i := range nb {
		nb[i] = g.QueryNeighbors(i, h, nb[i][:0])
	}
}

// ComputeDensityPressure sets ρ_i = m·[W(0) + Σ W(|p_i - p_j|)] and the Tait
// pressure P_i = k·((ρ_i/ρ0)^7 - 1), which goes negative when under-dense.
func (sv *Solver) ComputeDensityPressure(s *State, p *Params) {
	k := sv.Kernels
	pos := s.Positions()
	rho := s.Densities()
	press := s.Pressures()
	nb := s.Neighbors()
	self := k.Poly6(0)

	for i := range pos {
		sum := self
		for _, j := range nb[i] {
			sum += k.Poly6(math.Sqrt(r3.Norm2(r3.Sub(pos[i], pos[j]))))
		}
		rho[i] = p.ParticleMass * sum
		press[i] = taitPressure(rho[i], p.RestDensity, p.GasConstant)
	}
}

func taitPressure(rho, rest, gas float64) float64 {
	x := rho / rest
	x3 := x * x * x
	return gas * (x3*x3*x - 1)
}

// ComputeForces resets every acceleration to gravity and accumulates the
// pressure, viscosity and cohesion contributions of each neighbor. Only a_i
// is written while visiting pair (i, j).
func (sv *Solver) ComputeForces(s *State, p *Params) {
	k := sv.Kernels
	h := k.H()
	pos := s.Positions()
	vel := s.Velocities()
	acc := s.Accelerations()
	rho := s.Densities()
	press := s.Pressures()
	nb := s.Neighbors()

	gravity := r3.Vec{Y: -p.Gravity * p.GravityScale}
	m := p.ParticleMass

	for i := range pos {
		a := gravity
		for _, j := range nb[i] {
			r := r3.Sub(pos[i], pos[j])
			dist := r3.Norm(r)
			if dist < minSeparation {
				continue
			}
			dir := r3.Scale(1/dist, r)
			rhoJ := math.Max(rho[j], minDensity)

			q := (h - dist) / h
			fp := m * (press[i] + press[j]) / (2 * rhoJ) * q * q * p.PressureScale
			// dir points from j to i, so positive pressure pushes i away from j.
			a = r3.Add(a, r3.Scale(fp, dir))

			var fv float64
			if p.ViscosityLaplacian {
				fv = p.Viscosity * m / rhoJ * k.ViscosityLaplacian(dist)
			} else {
				fv = p.Viscosity * m / rhoJ * (h - dist)
			}
			a = r3.Add(a, r3.Scale(fv, r3.Sub(vel[j], vel[i])))

			if dist < cohesionRange*h {
				c := 1 - dist/h
				a = r3.Add(a, r3.Scale(-m*p.SurfaceTension*c*c, dir))
			}
		}
		acc[i] = a
	}
}
