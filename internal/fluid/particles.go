package fluid

import "gonum.org/v1/gonum/spatial/r3"

// State stores per-particle quantities as parallel arrays. Storage is
// allocated once for the full capacity; Len is a cursor over the active
// prefix, so appending or truncating never reallocates.
type State struct {
	pos       []r3.Vec
	vel       []r3.Vec
	acc       []r3.Vec
	density   []float64
	pressure  []float64
	neighbors [][]int
	n         int
}

// NewState allocates a state able to hold capacity particles.
func NewState(capacity int) *State {
	s := &State{}
	s.Reset(capacity)
	return s
}

// Reset empties the state and resizes storage when capacity changes.
func (s *State) Reset(capacity int) {
	if capacity < 0 {
		capacity = 0
	}
	if capacity != len(s.pos) {
		s.pos = make([]r3.Vec, capacity)
		s.vel = make([]r3.Vec, capacity)
		s.acc = make([]r3.Vec, capacity)
		s.density = make([]float64, capacity)
		s.pressure = make([]float64, capacity)
		s.neighbors = make([][]int, capacity)
	}
	s.n = 0
}

func (s *State) Len() int { return s.n }
func (s *State) Cap() int { return len(s.pos) }

// Full reports whether no more particles can be appended.
func (s *State) Full() bool { return s.n >= len(s.pos) }

// Append adds a particle with zero acceleration, density and pressure and an
// empty neighbor set. It is a no-op returning false when the state is full.
func (s *State) Append(pos, vel r3.Vec) bool {
	if s.Full() {
		return false
	}
	i := s.n
	s.pos[i] = pos
	s.vel[i] = vel
	s.acc[i] = r3.Vec{}
	s.density[i] = 0
	s.pressure[i] = 0
	s.neighbors[i] = s.neighbors[i][:0]
	s.n++
	return true
}

// The accessors below return views of the active prefix. The returned
// slices alias internal storage and are valid until the next Reset.

func (s *State) Positions() []r3.Vec     { return s.pos[:s.n] }
func (s *State) Velocities() []r3.Vec    { return s.vel[:s.n] }
func (s *State) Accelerations() []r3.Vec { return s.acc[:s.n] }
func (s *State) Densities() []float64    { return s.density[:s.n] }
func (s *State) Pressures() []float64    { return s.pressure[:s.n] }
func (s *State) Neighbors() [][]int      { return s.neighbors[:s.n] }
