// Package automation runs scripted sequences of simulations and Monte Carlo
// parameter studies on top of the engine.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/storage"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScript = errors.New("automation: invalid script")

// Script is a named sequence of runs loaded from YAML.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run of a script. Zero Seed keeps the base seed; Params are
// applied on top of the base parameters before the scenario loads.
type Step struct {
	Scenario string             `yaml:"scenario"`
	Frames   int                `yaml:"frames"`
	Seed     int64              `yaml:"seed,omitempty"`
	Params   map[string]float64 `yaml:"params,omitempty"`
	Save     bool               `yaml:"save,omitempty"`
}

// StepResult is the outcome of one step. RunID is empty unless the step
// was saved.
type StepResult struct {
	Step     int
	Scenario string
	RunID    string
	Frames   int
	Metrics  map[string]float64
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScript)
	}
	defaults := fluid.DefaultParams()
	for i, st := range s.Steps {
		if st.Frames <= 0 {
			return fmt.Errorf("%w: step %d: frames must be positive", ErrInvalidScript, i+1)
		}
		for name := range st.Params {
			if _, err := defaults.Get(name); err != nil {
				return fmt.Errorf("%w: step %d: %v", ErrInvalidScript, i+1, err)
			}
		}
	}
	return nil
}

// Run executes the steps in order, each on a fresh engine built from base.
// Steps with Save set are recorded to store, which may be nil if no step
// saves. Results gathered before a failure are returned with the error.
func Run(ctx context.Context, s *Script, base sim.Config, store *storage.Store) ([]StepResult, error) {
	logger := base.Logger
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(s.Steps))

	for i, step := range s.Steps {
		cfg := base
		cfg.Scenario = step.Scenario
		if step.Seed != 0 {
			cfg.Seed = step.Seed
		}
		for name, v := range step.Params {
			if err := cfg.Params.Set(name, v); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}

		eng := sim.New(cfg)
		for _, m := range metrics.Standard(cfg.Params.RestDensity, cfg.Params.MaxVelocity) {
			eng.AddMetric(m)
		}

		var rec *storage.Recorder
		if step.Save {
			if store == nil {
				return results, fmt.Errorf("step %d: save requested without a store", i+1)
			}
			var err error
			rec, err = store.Record(storage.RunMetadata{
				Scenario: eng.Controller().Active(),
				Seed:     cfg.Seed,
				Params:   eng.Params(),
			})
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
			eng.AddObserver(rec)
		}

		logger.Info("script step", "script", s.Name, "step", i+1, "of", len(s.Steps), "scenario", eng.Controller().Active())
		res, err := eng.Run(ctx, step.Frames, nil)
		if err != nil {
			if rec != nil {
				rec.Close(nil)
			}
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		out := StepResult{Step: i + 1, Scenario: eng.Controller().Active(), Frames: res.Frames, Metrics: res.Metrics}
		if rec != nil {
			if out.RunID, err = rec.Close(res.Metrics); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, out)
	}
	return results, nil
}
