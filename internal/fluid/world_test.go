package fluid

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func smallParams() Params {
	p := DefaultParams()
	p.ParticleCount = 200
	p.GridSize = 4
	p.BoxHeight = 4
	return p
}

func TestWorld_InitializeLayout(t *testing.T) {
	w := NewWorld(smallParams(), 1)
	w.Initialize(150)

	if got := w.State.Len(); got != 150 {
		t.Fatalf("Len() = %d, want 150", got)
	}
	b := w.Bounds()
	for i, p := range w.State.Positions() {
		if !inside(p, b, 0) {
			t.Errorf("particle %d at %v outside %v", i, p, b)
		}
	}
	for i, v := range w.State.Velocities() {
		if v != (r3.Vec{}) {
			t.Errorf("particle %d starts with velocity %v", i, v)
		}
	}
	if len(w.PositionBuffer()) != 3*150 {
		t.Errorf("buffer length = %d, want %d", len(w.PositionBuffer()), 3*150)
	}
}

func TestWorld_InitializeCapsAtCapacity(t *testing.T) {
	w := NewWorld(smallParams(), 1)
	w.Initialize(10000)
	if got := w.State.Len(); got != 200 {
		t.Errorf("Len() = %d, want capacity 200", got)
	}
}

func inside(p r3.Vec, b r3.Box, eps float64) bool {
	return p.X >= b.Min.X-eps && p.X <= b.Max.X+eps &&
		p.Y >= b.Min.Y-eps && p.Y <= b.Max.Y+eps &&
		p.Z >= b.Min.Z-eps && p.Z <= b.Max.Z+eps
}

func TestWorld_StepKeepsInvariants(t *testing.T) {
	p := smallParams()
	w := NewWorld(p, 42)
	w.Initialize(p.ParticleCount)
	w.AddObstacle(r3.Vec{Y: 1}, 0.6)
	w.AddObstacle(r3.Vec{X: 1.5, Y: 0.3}, 0.4)

	b := w.Bounds()
	dt := p.TimeStep
	for step := 0; step < 240; step++ {
		if step%30 == 0 {
			w.ApplyImpulse(r3.Vec{Y: 0.5}, 2, 25)
		}
		w.Step(dt)

		for i, v := range w.State.Velocities() {
			if s := r3.Norm(v); s > p.MaxVelocity+1e-9 || math.IsNaN(s) {
				t.Fatalf("step %d: particle %d speed %v exceeds %v", step, i, s, p.MaxVelocity)
			}
		}
		for i, q := range w.State.Positions() {
			if !inside(q, b, 1e-9) {
				t.Fatalf("step %d: particle %d at %v escaped %v", step, i, q, b)
			}
		}
		if len(w.PositionBuffer()) != 3*w.State.Len() {
			t.Fatalf("step %d: buffer length %d for %d particles", step, len(w.PositionBuffer()), w.State.Len())
		}
	}
	if w.Frames() != 240 {
		t.Errorf("Frames() = %d, want 240", w.Frames())
	}
}

func TestWorld_SourcesFillToCapacity(t *testing.T) {
	p := smallParams()
	p.ParticleCount = 50
	w := NewWorld(p, 3)
	w.Initialize(0)
	w.AddSource(r3.Vec{Y: 3})
	w.Params.SourceRate = 1000 // only affects later sources
	w.AddScenarioSource(Source{Pos: r3.Vec{X: 1, Y: 3}, Rate: 30})

	for i := 0; i < 120; i++ {
		w.Step(p.TimeStep)
	}
	if got := w.State.Len(); got != 50 {
		t.Errorf("Len() = %d, want 50", got)
	}
	if w.Sources.User[0].Rate != p.SourceRate {
		t.Errorf("user source rate = %v, want %v", w.Sources.User[0].Rate, p.SourceRate)
	}
}

func TestWorld_ResetRestoresBlock(t *testing.T) {
	p := smallParams()
	w := NewWorld(p, 7)
	w.Initialize(20)
	w.AddObstacle(r3.Vec{}, 1)
	w.AddSource(r3.Vec{Y: 2})
	for i := 0; i < 30; i++ {
		w.Step(p.TimeStep)
	}

	w.Reset()
	if w.State.Len() != p.ParticleCount {
		t.Errorf("Len() after Reset = %d, want %d", w.State.Len(), p.ParticleCount)
	}
	if len(w.Obstacles) != 0 {
		t.Errorf("obstacles after Reset = %v", w.Obstacles)
	}
	if w.Sources.Len() != 1 {
		t.Errorf("sources after Reset = %d, want 1", w.Sources.Len())
	}
	for i, v := range w.State.Velocities() {
		if v != (r3.Vec{}) {
			t.Fatalf("particle %d velocity %v after Reset", i, v)
		}
	}
	if w.Frames() != 0 {
		t.Errorf("Frames() after Reset = %d", w.Frames())
	}
}

func TestWorld_SetParameter(t *testing.T) {
	t.Run("particleCount", func(t *testing.T) {
		w := NewWorld(smallParams(), 1)
		w.Initialize(10)
		if err := w.SetParameter("particleCount", 64); err != nil {
			t.Fatal(err)
		}
		if w.State.Cap() != 64 || w.State.Len() != 64 {
			t.Errorf("cap=%d len=%d, want 64", w.State.Cap(), w.State.Len())
		}
	})

	t.Run("smoothingLength", func(t *testing.T) {
		w := NewWorld(smallParams(), 1)
		if err := w.SetParameter("smoothingLength", 0.8); err != nil {
			t.Fatal(err)
		}
		if w.Kernels.H() != 0.8 {
			t.Errorf("kernel h = %v, want 0.8", w.Kernels.H())
		}
	})

	t.Run("gravity", func(t *testing.T) {
		w := NewWorld(smallParams(), 1)
		w.Initialize(5)
		if err := w.SetParameter("gravityScale", 2); err != nil {
			t.Fatal(err)
		}
		want := -w.Params.Gravity * 2
		for i, a := range w.State.Accelerations() {
			if a.Y != want {
				t.Errorf("acc[%d].Y = %v, want %v", i, a.Y, want)
			}
		}
	})

	t.Run("unknown", func(t *testing.T) {
		w := NewWorld(smallParams(), 1)
		err := w.SetParameter("warpFactor", 9)
		if !errors.Is(err, ErrUnknownParameter) {
			t.Errorf("err = %v, want ErrUnknownParameter", err)
		}
	})
}

func TestWorld_ApplyInteractionForceUsesParams(t *testing.T) {
	p := smallParams()
	p.InteractionRadius = 0.01
	w := NewWorld(p, 1)
	w.Initialize(50)
	if n := w.ApplyInteractionForce(r3.Vec{X: 100}); n != 0 {
		t.Errorf("affected %d particles far from the block", n)
	}
	w.Params.InteractionRadius = 10
	if n := w.ApplyInteractionForce(r3.Vec{}); n != 50 {
		t.Errorf("affected %d particles, want 50", n)
	}
}

func TestWorld_ClockCallbacksAdvanceWithSteps(t *testing.T) {
	w := NewWorld(smallParams(), 1)
	w.Initialize(10)
	n := 0
	w.Clock.Every(0.05, func(float64, float64) { n++ })
	for i := 0; i < 60; i++ {
		w.Step(1.0 / 60)
	}
	if n != 20 {
		t.Errorf("callback fired %d times over one second, want 20", n)
	}
}

func TestWorld_SourceSpawnCountOnWholeDurations(t *testing.T) {
	tests := []struct {
		name   string
		rate   float64
		frames int
		dt     float64
		want   int
	}{
		{"60/s for 1s at 60fps", 60, 60, 1.0 / 60, 60},
		{"20/s for 2s at 60fps", 20, 120, 1.0 / 60, 40},
		{"10/s for 1s at 30fps", 10, 30, 1.0 / 30, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := smallParams()
			p.SourceRate = tt.rate
			w := NewWorld(p, 1)
			w.Initialize(0)
			w.AddSource(r3.Vec{Y: 2})
			for i := 0; i < tt.frames; i++ {
				w.Step(tt.dt)
			}
			if got := w.State.Len(); got != tt.want {
				t.Errorf("spawned %d, want %d (now=%v)", got, tt.want, w.Clock.Now())
			}
		})
	}
}
