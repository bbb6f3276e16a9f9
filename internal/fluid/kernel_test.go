package fluid

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestKernels_ZeroOutsideSupport(t *testing.T) {
	k := NewKernels(0.5)
	for _, r := range []float64{0.51, 1, 10} {
		if v := k.Poly6(r); v != 0 {
			t.Errorf("Poly6(%v) = %v, want 0", r, v)
		}
		if v := k.Spiky(r); v != 0 {
			t.Errorf("Spiky(%v) = %v, want 0", r, v)
		}
		if v := k.SpikyGrad(r); v != 0 {
			t.Errorf("SpikyGrad(%v) = %v, want 0", r, v)
		}
		if v := k.ViscosityLaplacian(r); v != 0 {
			t.Errorf("ViscosityLaplacian(%v) = %v, want 0", r, v)
		}
	}
	if g := k.Poly6Grad(r3.Vec{X: 0.6}); g != (r3.Vec{}) {
		t.Errorf("Poly6Grad outside support = %v, want zero", g)
	}
}

func TestKernels_KnownValues(t *testing.T) {
	h := 0.5
	k := NewKernels(h)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"poly6(0)", k.Poly6(0), 315 / (64 * math.Pi * math.Pow(h, 3))},
		{"poly6(h/2)", k.Poly6(h / 2), 315 / (64 * math.Pi * math.Pow(h, 9)) * math.Pow(h*h-h*h/4, 3)},
		{"spiky(0)", k.Spiky(0), 15 / (math.Pi * math.Pow(h, 3))},
		{"spikyGrad(h/2)", k.SpikyGrad(h / 2), -45 / (math.Pi * math.Pow(h, 6)) * math.Pow(h/2, 2) / (h / 2)},
		{"viscLap(h/4)", k.ViscosityLaplacian(h / 4), 45 / (math.Pi * math.Pow(h, 6)) * (h - h/4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-9*math.Abs(tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestKernels_SetHRecomputes(t *testing.T) {
	k := NewKernels(0.5)
	before := k.Poly6(0)
	k.SetH(1)
	want := 315 / (64 * math.Pi)
	if got := k.Poly6(0); math.Abs(got-want) > 1e-12 {
		t.Errorf("Poly6(0) after SetH(1) = %v, want %v", got, want)
	}
	if k.Poly6(0) == before {
		t.Error("kernel constants unchanged after SetH")
	}
	if k.Poly6(0.8) == 0 {
		t.Error("support radius not updated after SetH")
	}
}

func TestKernels_Poly6GradPointsInward(t *testing.T) {
	k := NewKernels(1)
	d := r3.Vec{X: 0.3, Y: -0.2}
	g := k.Poly6Grad(d)
	if r3.Dot(g, d) >= 0 {
		t.Errorf("gradient %v not opposed to separation %v", g, d)
	}
}

func TestKernels_SpikyGradSingularity(t *testing.T) {
	k := NewKernels(1)
	if v := k.SpikyGrad(0); v != 0 {
		t.Errorf("SpikyGrad(0) = %v, want 0", v)
	}
}
