package automation

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
)

// MonteCarloConfig perturbs each named parameter by a uniform relative
// amount in [-Perturb[name], +Perturb[name]] per trial.
type MonteCarloConfig struct {
	Trials  int
	Frames  int
	Seed    int64
	Perturb map[string]float64
}

// Trial is one perturbed run. Stable means every frame stayed inside the
// box and under the speed limit.
type Trial struct {
	ID      int
	Params  map[string]float64
	Stable  bool
	Metrics map[string]float64
}

// RunMonteCarlo draws perturbations from a generator seeded with cfg.Seed,
// so the same config always produces the same trials.
func RunMonteCarlo(ctx context.Context, base sim.Config, cfg MonteCarloConfig) ([]Trial, error) {
	if cfg.Trials <= 0 || cfg.Frames <= 0 {
		return nil, fmt.Errorf("trials and frames must be positive")
	}
	names := make([]string, 0, len(cfg.Perturb))
	for name := range cfg.Perturb {
		if _, err := base.Params.Get(name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	rng := rand.New(rand.NewSource(cfg.Seed))
	trials := make([]Trial, 0, cfg.Trials)
	for t := 0; t < cfg.Trials; t++ {
		c := base
		c.Seed = cfg.Seed + int64(t)
		applied := make(map[string]float64, len(names))
		for _, name := range names {
			v, _ := c.Params.Get(name)
			v *= 1 + (rng.Float64()*2-1)*cfg.Perturb[name]
			if err := c.Params.Set(name, v); err != nil {
				return trials, err
			}
			applied[name] = v
		}

		eng := sim.New(c)
		for _, m := range metrics.Standard(c.Params.RestDensity, c.Params.MaxVelocity) {
			eng.AddMetric(m)
		}

		res, err := eng.Run(ctx, cfg.Frames, nil)
		if err != nil {
			return trials, fmt.Errorf("trial %d: %w", t, err)
		}
		trials = append(trials, Trial{
			ID:      t,
			Params:  applied,
			Stable:  res.Metrics["stability"] == 1,
			Metrics: res.Metrics,
		})
	}
	return trials, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(trials []Trial) (stable, unstable int) {
	for _, t := range trials {
		if t.Stable {
			stable++
		} else {
			unstable++
		}
	}
	return
}
