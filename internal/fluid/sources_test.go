package fluid

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestSources_SpawnCountFollowsRate(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		duration float64
		dt       float64
		want     int
	}{
		{"60fps", 10, 1.55, 1.0 / 60, 15},
		{"30fps", 10, 1.55, 1.0 / 30, 15},
		{"one big step", 10, 1.55, 1.55, 15},
		{"fast emitter", 125, 0.5, 1.0 / 60, 62},
		{"whole second at 60fps", 60, 1, 1.0 / 60, 60},
		{"two seconds at 60fps", 20, 2, 1.0 / 60, 40},
		{"whole second at 30fps", 10, 1, 1.0 / 30, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewState(1000)
			s := Sources{User: []Source{{Rate: tt.rate}}}
			rng := rand.New(rand.NewSource(1))

			// now is summed frame by frame, as the world's clock does
			steps := int(math.Round(tt.duration / tt.dt))
			total, now := 0, 0.0
			for i := 0; i < steps; i++ {
				now += tt.dt
				total += s.Update(now, st, 0, rng)
			}
			if total != tt.want {
				t.Errorf("spawned %d, want %d", total, tt.want)
			}
			if st.Len() != total {
				t.Errorf("state holds %d, want %d", st.Len(), total)
			}
		})
	}
}

func TestSources_CapacityIsSilent(t *testing.T) {
	st := NewState(5)
	s := Sources{Scenario: []Source{{Rate: 100, Vel: r3.Vec{Y: -1}}}}
	rng := rand.New(rand.NewSource(1))

	if n := s.Update(1, st, 0.1, rng); n != 5 {
		t.Errorf("spawned %d, want 5", n)
	}
	if !st.Full() {
		t.Error("state not full")
	}
	// dropped attempts still count
	if got := s.Scenario[0].Attempts; got != 100 {
		t.Errorf("Attempts = %d, want 100", got)
	}
	if last := s.Scenario[0].LastSpawn(); math.Abs(last-1) > 1e-12 {
		t.Errorf("LastSpawn() = %v, want 1", last)
	}
	if n := s.Update(2, st, 0.1, rng); n != 0 {
		t.Errorf("spawned %d into a full state", n)
	}
	for i, v := range st.Velocities() {
		if v != (r3.Vec{Y: -1}) {
			t.Errorf("velocity[%d] = %v, want emitter velocity", i, v)
		}
	}
}

func TestSources_JitterBounded(t *testing.T) {
	st := NewState(200)
	origin := r3.Vec{X: 1, Y: 2, Z: 3}
	s := Sources{User: []Source{{Pos: origin, Rate: 200}}}
	s.Update(1, st, 0.05, rand.New(rand.NewSource(9)))

	for i, p := range st.Positions() {
		d := r3.Sub(p, origin)
		if math.Abs(d.X) > 0.05 || math.Abs(d.Y) > 0.05 || math.Abs(d.Z) > 0.05 {
			t.Errorf("particle %d spawned at %v, outside jitter", i, p)
		}
	}
}

func TestSources_NonPositiveRate(t *testing.T) {
	st := NewState(10)
	s := Sources{User: []Source{{Rate: 0}, {Rate: -3}}}
	if n := s.Update(10, st, 0, rand.New(rand.NewSource(1))); n != 0 {
		t.Errorf("spawned %d from idle emitters", n)
	}
}

func TestSources_Clear(t *testing.T) {
	s := Sources{User: []Source{{}}, Scenario: []Source{{}, {}}}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d", s.Len())
	}
}
