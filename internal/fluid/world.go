package fluid

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// World is the complete simulation state plus the components that advance
// it. It is not safe for concurrent use.
type World struct {
	Params    Params
	State     *State
	Grid      *Grid
	Kernels   *Kernels
	Solver    *Solver
	Sources   Sources
	Obstacles []Obstacle
	Clock     Clock
	Touch     *Interaction

	rng    *rand.Rand
	buffer []float32
	frames int
}

// NewWorld builds an empty world. Call Initialize to populate it.
func NewWorld(p Params, seed int64) *World {
	k := NewKernels(p.SmoothingLength)
	return &World{
		Params:  p,
		State:   NewState(p.ParticleCount),
		Grid:    NewGrid(),
		Kernels: k,
		Solver:  NewSolver(k),
		Touch:   NewInteraction(),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Rand exposes the world's random source for components that must share its
// sequence, such as scenario emitters.
func (w *World) Rand() *rand.Rand { return w.rng }

// Frames is the number of completed steps since the last Initialize.
func (w *World) Frames() int { return w.frames }

// Bounds is the axis-aligned region particles are confined to.
func (w *World) Bounds() r3.Box { return w.Params.bounds() }

// Initialize resets the particle block to count particles (capped at
// ParticleCount) laid out on a jittered lattice from the floor up, all at
// rest. Obstacles, sources and clock callbacks are left alone.
func (w *World) Initialize(count int) {
	w.State.Reset(w.Params.ParticleCount)
	if count > w.State.Cap() {
		count = w.State.Cap()
	}

	b := w.Bounds()
	spacing := 0.5 * w.Params.SmoothingLength
	if spacing <= 0 {
		spacing = 0.1
	}
	margin := spacing / 2
	nx := int(math.Max(1, math.Floor((b.Max.X-b.Min.X-2*margin)/spacing)+1))
	nz := int(math.Max(1, math.Floor((b.Max.Z-b.Min.Z-2*margin)/spacing)+1))
	// Keep the block roughly cubic about the box centre.
	side := int(math.Ceil(math.Cbrt(float64(count))))
	if side < nx {
		nx = side
	}
	if side < nz {
		nz = side
	}
	x0 := -float64(nx-1) * spacing / 2
	z0 := -float64(nz-1) * spacing / 2

	jitter := spacing * 0.1
	for i := 0; i < count; i++ {
		layer := i / (nx * nz)
		rem := i % (nx * nz)
		p := r3.Vec{
			X: x0 + float64(rem%nx)*spacing + (w.rng.Float64()*2-1)*jitter,
			Y: margin + float64(layer)*spacing,
			Z: z0 + float64(rem/nx)*spacing + (w.rng.Float64()*2-1)*jitter,
		}
		containBox(&p, b)
		w.State.Append(p, r3.Vec{})
	}
	w.frames = 0
	w.refreshBuffer()
}

// Reset restores a full block of ParticleCount resting particles and drops
// every obstacle. Sources persist until ClearSources.
func (w *World) Reset() {
	w.ClearObstacles()
	w.Initialize(w.Params.ParticleCount)
}

// Step advances the world by dt: neighbor search, density and pressure,
// forces, emitters, then SubSteps rounds of velocity update, speed clamp,
// position update and collision resolution (box, ground, obstacles). Due
// clock callbacks fire afterwards and the position buffer is refreshed.
func (w *World) Step(dt float64) {
	p := &w.Params
	st := w.State

	w.Grid.Rebuild(st.Positions(), w.Kernels.H())
	w.Solver.GatherNeighbors(st, w.Grid)
	w.Solver.ComputeDensityPressure(st, p)
	w.Solver.ComputeForces(st, p)

	w.Sources.Update(w.Clock.Now()+dt, st, p.SourceJitter, w.rng)

	n := p.subSteps()
	sub := dt / float64(n)
	box := p.bounds()

	pos := st.Positions()
	vel := st.Velocities()
	acc := st.Accelerations()
	for s := 0; s < n; s++ {
		for i := range pos {
			vel[i] = r3.Add(vel[i], r3.Scale(sub, acc[i]))
			clampSpeed(&vel[i], p.MaxVelocity)
			pos[i] = r3.Add(pos[i], r3.Scale(sub, vel[i]))

			collideBox(&pos[i], &vel[i], box, p.BoundaryDamping)
			collideGround(&pos[i], &vel[i], p, w.rng)
			for _, o := range w.Obstacles {
				if collideObstacle(&pos[i], &vel[i], o, p.Damping) {
					containBox(&pos[i], box)
				}
			}
		}
	}

	w.Clock.Advance(dt)
	w.frames++
	w.refreshBuffer()
}

// PositionBuffer returns x,y,z triples for every active particle. The slice
// is reused between steps.
func (w *World) PositionBuffer() []float32 {
	return w.buffer
}

func (w *World) refreshBuffer() {
	pos := w.State.Positions()
	if cap(w.buffer) < 3*len(pos) {
		w.buffer = make([]float32, 3*w.State.Cap())
	}
	w.buffer = w.buffer[:3*len(pos)]
	for i, p := range pos {
		w.buffer[3*i] = float32(p.X)
		w.buffer[3*i+1] = float32(p.Y)
		w.buffer[3*i+2] = float32(p.Z)
	}
}

// AddObstacle adds a static sphere collider.
func (w *World) AddObstacle(center r3.Vec, radius float64) {
	w.Obstacles = append(w.Obstacles, Obstacle{Center: center, Radius: radius})
}

// ClearObstacles removes every obstacle.
func (w *World) ClearObstacles() { w.Obstacles = w.Obstacles[:0] }

// AddSource adds a user emitter at p using the current sourceRate. It starts
// counting from the current simulation time.
func (w *World) AddSource(p r3.Vec) {
	w.Sources.User = append(w.Sources.User, Source{
		Pos:   p,
		Rate:  w.Params.SourceRate,
		Start: w.Clock.Now(),
	})
}

// AddScenarioSource adds an emitter to the scenario-owned pool.
func (w *World) AddScenarioSource(src Source) {
	src.Start = w.Clock.Now()
	src.Attempts = 0
	w.Sources.Scenario = append(w.Sources.Scenario, src)
}

// ClearSources empties both emitter pools.
func (w *World) ClearSources() { w.Sources.Clear() }

// ApplyInteractionForce kicks particles around p using interactionRadius and
// interactionForce. It returns the number of particles affected.
func (w *World) ApplyInteractionForce(p r3.Vec) int {
	return w.ApplyImpulse(p, w.Params.InteractionRadius, w.Params.InteractionForce)
}

// ApplyImpulse kicks particles within radius of center with the given
// strength.
func (w *World) ApplyImpulse(center r3.Vec, radius, strength float64) int {
	w.Grid.Rebuild(w.State.Positions(), w.Kernels.H())
	return w.Touch.Apply(w.State, w.Grid, w.rng, center, radius, strength)
}

// SetParameter updates a named parameter and applies its side effects:
// particleCount re-initializes the block at the new capacity,
// smoothingLength recomputes kernel constants, gravity and gravityScale
// rewrite the vertical component of every current acceleration.
func (w *World) SetParameter(name string, v float64) error {
	if err := w.Params.Set(name, v); err != nil {
		return err
	}
	switch name {
	case "particleCount":
		w.Reset()
	case "smoothingLength":
		w.Kernels.SetH(w.Params.SmoothingLength)
	case "gravity", "gravityScale":
		g := -w.Params.Gravity * w.Params.GravityScale
		acc := w.State.Accelerations()
		for i := range acc {
			acc[i].Y = g
		}
	}
	return nil
}
