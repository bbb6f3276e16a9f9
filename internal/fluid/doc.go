// Package fluid implements the smoothed-particle-hydrodynamics core of the
// simulator: particle storage, the spatial hash grid, smoothing kernels, the
// density/pressure/force solver, sub-stepped integration with collision
// resolution against static primitives, particle emitters and pointer
// impulses.
//
// The package is single-threaded by contract. A [World] is advanced one
// frame at a time with [World.Step]; every mutation (parameter changes,
// obstacles, sources, impulses) must happen between steps.
//
//	w := fluid.NewWorld(fluid.DefaultParams(), 42)
//	w.Initialize(w.Params.ParticleCount)
//	for i := 0; i < 600; i++ {
//	    w.Step(w.Params.TimeStep)
//	    draw(w.PositionBuffer())
//	}
//
// # Approximations
//
// Force evaluation is one-sided: the contribution of j on i is accumulated
// while visiting i only. Newton's third law holds approximately because the
// neighbor relation produced by [Grid] is exactly symmetric.
package fluid
