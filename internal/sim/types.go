package sim

import (
	"log/slog"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/scenario"
)

// Observer is notified after every frame of a Run.
type Observer interface {
	OnFrame(f metrics.Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(metrics.Frame)

func (fn ObserverFunc) OnFrame(f metrics.Frame) { fn(f) }

// Config assembles an Engine. Zero Catalog and Logger select the built-in
// presets and slog.Default().
type Config struct {
	Params   fluid.Params
	Seed     int64
	Scenario string
	Catalog  scenario.Catalog
	Logger   *slog.Logger
}

// Result summarises a Run.
type Result struct {
	Frames  int
	Time    float64
	Last    metrics.Frame
	History []metrics.Frame
	Metrics map[string]float64
}
