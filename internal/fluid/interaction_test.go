package fluid

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func kickState(pos []r3.Vec) (*State, *Grid) {
	st := NewState(len(pos))
	for _, p := range pos {
		st.Append(p, r3.Vec{})
	}
	g := NewGrid()
	g.Rebuild(st.Positions(), 0.5)
	return st, g
}

func TestInteraction_RadialKick(t *testing.T) {
	st, g := kickState([]r3.Vec{{X: 0.5}, {Z: -1}, {X: 3}})
	in := &Interaction{}
	n := in.Apply(st, g, rand.New(rand.NewSource(1)), r3.Vec{}, 2, 4)
	if n != 2 {
		t.Fatalf("affected %d particles, want 2", n)
	}

	vel := st.Velocities()
	tests := []struct {
		name string
		got  r3.Vec
		want r3.Vec
	}{
		{"near", vel[0], r3.Vec{X: 4 * (1 - 0.5/2)}},
		{"mid", vel[1], r3.Vec{Z: -4 * (1 - 1.0/2)}},
		{"outside", vel[2], r3.Vec{}},
	}
	for _, tt := range tests {
		if r3.Norm(r3.Sub(tt.got, tt.want)) > 1e-12 {
			t.Errorf("%s: velocity = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestInteraction_NegativeStrengthPulls(t *testing.T) {
	st, g := kickState([]r3.Vec{{X: 1}})
	in := &Interaction{}
	in.Apply(st, g, rand.New(rand.NewSource(1)), r3.Vec{}, 2, -3)
	if v := st.Velocities()[0]; v.X >= 0 {
		t.Errorf("velocity = %v, want pull toward center", v)
	}
}

func TestInteraction_DispersionBounded(t *testing.T) {
	st, g := kickState(randomCloud(200, 1, 4))
	in := NewInteraction()
	center := r3.Vec{Y: 0.5}
	radius, strength := 1.5, 2.0
	in.Apply(st, g, rand.New(rand.NewSource(2)), center, radius, strength)

	spread := defaultDispersion * strength
	// Radial part plus at most spread per axis.
	limit := strength + math.Sqrt(3)*spread
	for i, v := range st.Velocities() {
		if s := r3.Norm(v); s > limit+1e-12 {
			t.Errorf("particle %d kicked to %v, limit %v", i, s, limit)
		}
	}
}

func TestInteraction_ZeroRadius(t *testing.T) {
	st, g := kickState([]r3.Vec{{}})
	if n := NewInteraction().Apply(st, g, rand.New(rand.NewSource(1)), r3.Vec{}, 0, 5); n != 0 {
		t.Errorf("affected %d particles with zero radius", n)
	}
}
