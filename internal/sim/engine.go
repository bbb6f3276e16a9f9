// Package sim is the collaborator-facing surface of the fluid core: one
// Engine per simulation, driven one frame at a time or through Run.
package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/scenario"
	"gonum.org/v1/gonum/spatial/r3"
)

// Engine owns a world and its scenario controller. All methods must be
// called from one goroutine; mutations between frames take effect on the
// next Step.
type Engine struct {
	world     *fluid.World
	ctrl      *scenario.Controller
	logger    *slog.Logger
	metrics   []metrics.Metric
	observers []Observer
}

// New builds an engine and loads cfg.Scenario, or the default scenario when
// it is empty.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w := fluid.NewWorld(cfg.Params, cfg.Seed)
	e := &Engine{
		world:  w,
		ctrl:   scenario.NewController(w, cfg.Catalog, logger),
		logger: logger,
	}
	name := cfg.Scenario
	if name == "" {
		name = scenario.DefaultName
	}
	e.ctrl.Load(name)
	return e
}

func (e *Engine) World() *fluid.World              { return e.world }
func (e *Engine) Controller() *scenario.Controller { return e.ctrl }
func (e *Engine) Params() fluid.Params             { return e.world.Params }

func (e *Engine) AddMetric(m metrics.Metric) { e.metrics = append(e.metrics, m) }
func (e *Engine) AddObserver(o Observer)     { e.observers = append(e.observers, o) }

// Initialize replaces the particle block with count resting particles.
func (e *Engine) Initialize(count int) { e.world.Initialize(count) }

// Step advances one frame. A non-positive dt uses the timeStep parameter.
func (e *Engine) Step(dt float64) {
	if dt <= 0 {
		dt = e.world.Params.TimeStep
	}
	e.world.Step(dt)
}

// PositionBuffer is the flat x,y,z buffer of active particles, refreshed by
// every Step. It is only valid until the next mutation.
func (e *Engine) PositionBuffer() []float32 { return e.world.PositionBuffer() }

func (e *Engine) AddObstacle(center r3.Vec, radius float64) {
	e.world.AddObstacle(center, radius)
}

func (e *Engine) AddSource(p r3.Vec) { e.world.AddSource(p) }

func (e *Engine) ApplyInteractionForce(p r3.Vec) int {
	return e.world.ApplyInteractionForce(p)
}

func (e *Engine) SetParameter(name string, v float64) error {
	if err := e.world.SetParameter(name, v); err != nil {
		return err
	}
	e.logger.Debug("parameter set", "name", name, "value", v)
	return nil
}

// ResetSimulation restores a full resting block and drops obstacles.
func (e *Engine) ResetSimulation() {
	e.world.Reset()
	e.logger.Info("simulation reset", "particles", e.world.State.Len())
}

// LoadScenario activates a preset and returns the name actually loaded.
func (e *Engine) LoadScenario(name string) string { return e.ctrl.Load(name) }

// Sample measures the current frame.
func (e *Engine) Sample() metrics.Frame { return metrics.Sample(e.world) }

// Run steps frames times at the timeStep parameter, feeding metrics and
// observers after each step. fn may be nil; returning false from it stops
// the run early. The context is checked before every frame.
func (e *Engine) Run(ctx context.Context, frames int, fn func(metrics.Frame) bool) (*Result, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("frames must be positive, got %d", frames)
	}
	if dt := e.world.Params.TimeStep; dt <= 0 {
		return nil, fmt.Errorf("timeStep must be positive, got %f", dt)
	}

	for _, m := range e.metrics {
		m.Reset()
	}
	result := &Result{
		History: make([]metrics.Frame, 0, frames),
		Metrics: make(map[string]float64),
	}

	e.logger.Info("run started", "scenario", e.ctrl.Active(), "frames", frames)
	var err error
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		default:
		}
		if err != nil {
			break
		}

		e.Step(0)
		f := e.Sample()
		result.History = append(result.History, f)
		result.Last = f
		result.Frames++

		for _, m := range e.metrics {
			m.Observe(f)
		}
		for _, o := range e.observers {
			o.OnFrame(f)
		}
		if fn != nil && !fn(f) {
			break
		}
	}
	result.Time = e.world.Clock.Now()

	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	e.logger.Info("run finished", "frames", result.Frames, "last", result.Last)
	return result, err
}
