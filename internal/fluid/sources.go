package fluid

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Source is a particle emitter. Rate is in particles per second of
// simulation time. Start is the simulation time the emitter was added and
// Attempts counts the spawns it has tried since then.
type Source struct {
	Pos      r3.Vec  `yaml:"pos"`
	Rate     float64 `yaml:"rate"`
	Vel      r3.Vec  `yaml:"vel"`
	Start    float64 `yaml:"-"`
	Attempts int     `yaml:"-"`
}

// LastSpawn is the simulation time of the most recent spawn attempt.
func (src *Source) LastSpawn() float64 {
	if src.Rate <= 0 {
		return src.Start
	}
	return src.Start + float64(src.Attempts)/src.Rate
}

// Sources holds the user-added and scenario-owned emitter pools.
type Sources struct {
	User     []Source
	Scenario []Source
}

// Len is the total number of emitters in both pools.
func (s *Sources) Len() int { return len(s.User) + len(s.Scenario) }

// Clear empties both pools.
func (s *Sources) Clear() {
	s.User = s.User[:0]
	s.Scenario = s.Scenario[:0]
}

// Update spawns particles for every emitter whose interval has elapsed. An
// emitter that fell behind catches up within the same call, so an emitter of
// rate R running for T seconds produces floor(T·R) spawn attempts whatever
// the frame rate. Attempts beyond capacity are dropped silently. It returns
// the number of particles added.
func (s *Sources) Update(now float64, st *State, jitter float64, rng *rand.Rand) int {
	spawned := 0
	for _, pool := range [][]Source{s.User, s.Scenario} {
		for i := range pool {
			spawned += pool[i].update(now, st, jitter, rng)
		}
	}
	return spawned
}

func (src *Source) update(now float64, st *State, jitter float64, rng *rand.Rand) int {
	if src.Rate <= 0 {
		return 0
	}
	due := int(math.Floor((now-src.Start)*src.Rate + timeEpsilon))
	spawned := 0
	for src.Attempts < due {
		src.Attempts++
		pos := r3.Add(src.Pos, r3.Vec{
			X: (rng.Float64()*2 - 1) * jitter,
			Y: (rng.Float64()*2 - 1) * jitter,
			Z: (rng.Float64()*2 - 1) * jitter,
		})
		if st.Append(pos, src.Vel) {
			spawned++
		}
	}
	return spawned
}
