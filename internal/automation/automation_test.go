package automation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/storage"
)

func baseConfig() sim.Config {
	p := fluid.DefaultParams()
	p.ParticleCount = 80
	return sim.Config{Params: p, Seed: 1, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

const script = `name: tour
description: two short runs
steps:
  - scenario: lake
    frames: 5
  - scenario: waves
    frames: 4
    seed: 9
    params:
      gasConstant: 3
    save: true
`

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tour.yaml")
	if err := os.WriteFile(path, []byte(script), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadScript(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "tour" || len(s.Steps) != 2 {
		t.Fatalf("unexpected script %+v", s)
	}
	if s.Steps[1].Params["gasConstant"] != 3 || !s.Steps[1].Save {
		t.Errorf("step 2 not parsed: %+v", s.Steps[1])
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("steps: [oops"), 0644)
	if _, err := LoadScript(bad); !errors.Is(err, ErrInvalidScript) {
		t.Errorf("expected ErrInvalidScript, got %v", err)
	}
}

func TestScript_Validate(t *testing.T) {
	tests := []struct {
		name    string
		script  Script
		wantErr bool
	}{
		{"ok", Script{Steps: []Step{{Scenario: "lake", Frames: 1}}}, false},
		{"no steps", Script{}, true},
		{"zero frames", Script{Steps: []Step{{Scenario: "lake"}}}, true},
		{"unknown param", Script{Steps: []Step{{Frames: 1, Params: map[string]float64{"warp": 1}}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.script.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidScript) {
				t.Errorf("expected ErrInvalidScript, got %v", err)
			}
		})
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tour.yaml")
	os.WriteFile(path, []byte(script), 0644)
	s, err := LoadScript(path)
	if err != nil {
		t.Fatal(err)
	}

	store := storage.New(filepath.Join(dir, "runs"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	results, err := Run(context.Background(), s, baseConfig(), store)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Scenario != "lake" || results[0].Frames != 5 || results[0].RunID != "" {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].RunID == "" {
		t.Fatal("expected saved second step")
	}

	meta, err := store.Load(results[1].RunID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Seed != 9 || meta.Params.GasConstant != 3 || meta.Params.Viscosity != 0.08 || meta.Frames != 4 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if _, ok := results[1].Metrics["stability"]; !ok {
		t.Error("expected standard metrics")
	}
}

func TestRun_SaveWithoutStore(t *testing.T) {
	s := &Script{Steps: []Step{{Frames: 2}, {Frames: 2, Save: true}}}
	results, err := Run(context.Background(), s, baseConfig(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(results) != 1 {
		t.Errorf("expected the first step to complete, got %d", len(results))
	}
}

func TestRunMonteCarlo(t *testing.T) {
	cfg := MonteCarloConfig{
		Trials:  3,
		Frames:  3,
		Seed:    42,
		Perturb: map[string]float64{"viscosity": 0.5, "gasConstant": 0.2},
	}
	a, err := RunMonteCarlo(context.Background(), baseConfig(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RunMonteCarlo(context.Background(), baseConfig(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 3 {
		t.Fatalf("expected 3 trials, got %d", len(a))
	}

	base := fluid.DefaultParams()
	for i := range a {
		v := a[i].Params["viscosity"]
		if v != b[i].Params["viscosity"] {
			t.Errorf("trial %d not reproducible: %g vs %g", i, v, b[i].Params["viscosity"])
		}
		if v < base.Viscosity*0.5 || v > base.Viscosity*1.5 {
			t.Errorf("trial %d viscosity %g outside perturbation range", i, v)
		}
	}

	stable, unstable := MonteCarloStats(a)
	if stable+unstable != 3 {
		t.Errorf("expected counts to sum to 3, got %d+%d", stable, unstable)
	}

	if _, err := RunMonteCarlo(context.Background(), baseConfig(), MonteCarloConfig{Trials: 1, Frames: 1, Perturb: map[string]float64{"warp": 1}}); err == nil {
		t.Error("expected unknown parameter error")
	}
}
