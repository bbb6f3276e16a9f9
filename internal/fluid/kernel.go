package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kernels holds the standard radially symmetric SPH smoothing kernels for a
// smoothing length h together with their precomputed constants.
type Kernels struct {
	h, h2, h3, h6, h9 float64

	poly6     float64 // 315/(64π h⁹)
	poly6Grad float64 // -945/(32π h⁹)
	spiky     float64 // 15/(π h⁶)
	spikyGrad float64 // -45/(π h⁶)
	viscLap   float64 // 45/(π h⁶)
}

// NewKernels returns the kernel set for smoothing length h.
func NewKernels(h float64) *Kernels {
	k := &Kernels{}
	k.SetH(h)
	return k
}

// SetH recomputes every derived constant. A non-positive h yields
// meaningless constants; callers own that.
func (k *Kernels) SetH(h float64) {
	k.h = h
	k.h2 = h * h
	k.h3 = k.h2 * h
	k.h6 = k.h3 * k.h3
	k.h9 = k.h6 * k.h3

	k.poly6 = 315.0 / (64.0 * math.Pi * k.h9)
	k.poly6Grad = -945.0 / (32.0 * math.Pi * k.h9)
	k.spiky = 15.0 / (math.Pi * k.h6)
	k.spikyGrad = -45.0 / (math.Pi * k.h6)
	k.viscLap = 45.0 / (math.Pi * k.h6)
}

func (k *Kernels) H() float64 { return k.h }

// Poly6 is the density kernel.
func (k *Kernels) Poly6(r float64) float64 {
	if r > k.h {
		return 0
	}
	d := k.h2 - r*r
	return k.poly6 * d * d * d
}

// Poly6Grad is the gradient of Poly6 for separation vector d.
func (k *Kernels) Poly6Grad(d r3.Vec) r3.Vec {
	r2 := r3.Norm2(d)
	if r2 > k.h2 {
		return r3.Vec{}
	}
	x := k.h2 - r2
	return r3.Scale(k.poly6Grad*x*x, d)
}

// Spiky is the pressure kernel.
func (k *Kernels) Spiky(r float64) float64 {
	if r > k.h {
		return 0
	}
	d := k.h - r
	return k.spiky * d * d * d
}

// SpikyGrad is the scalar factor of the spiky gradient along the separation
// vector, i.e. ∇W = SpikyGrad(r)·(dx,dy,dz). It is zero at r = 0.
func (k *Kernels) SpikyGrad(r float64) float64 {
	if r > k.h || r < minSeparation {
		return 0
	}
	d := k.h - r
	return k.spikyGrad * d * d / r
}

// ViscosityLaplacian is the Laplacian of the viscosity kernel.
func (k *Kernels) ViscosityLaplacian(r float64) float64 {
	if r > k.h {
		return 0
	}
	return k.viscLap * (k.h - r)
}
