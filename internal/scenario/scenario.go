// Package scenario swaps whole simulation setups at runtime: parameter
// overrides, obstacle sets, scenario-owned emitters and periodic global force
// fields.
package scenario

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/fluidsim/internal/fluid"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultName is the scenario loaded when a requested name is unknown.
const DefaultName = "default"

var ErrInvalidScenario = errors.New("scenario: invalid definition")

// Scenario describes one preset. InitialFill is the fraction of particle
// capacity the block starts with; zero means full.
type Scenario struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Overrides   map[string]float64 `yaml:"overrides,omitempty"`
	Obstacles   []fluid.Obstacle   `yaml:"obstacles,omitempty"`
	Sources     []fluid.Source     `yaml:"sources,omitempty"`
	Fields      []FieldSpec        `yaml:"fields,omitempty"`
	InitialFill float64            `yaml:"initial_fill,omitempty"`
}

// Validate checks names and ranges. Override names must be known parameters.
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidScenario)
	}
	if s.InitialFill < 0 || s.InitialFill > 1 {
		return fmt.Errorf("%w: %s: initial_fill %v not in [0,1]", ErrInvalidScenario, s.Name, s.InitialFill)
	}
	defaults := fluid.DefaultParams()
	for name := range s.Overrides {
		if _, err := defaults.Get(name); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidScenario, s.Name, err)
		}
	}
	for i, o := range s.Obstacles {
		if o.Radius <= 0 {
			return fmt.Errorf("%w: %s: obstacle %d has radius %v", ErrInvalidScenario, s.Name, i, o.Radius)
		}
	}
	for i, src := range s.Sources {
		if src.Rate <= 0 {
			return fmt.Errorf("%w: %s: source %d has rate %v", ErrInvalidScenario, s.Name, i, src.Rate)
		}
	}
	for _, f := range s.Fields {
		if _, err := f.Build(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidScenario, s.Name, err)
		}
	}
	return nil
}

func (s Scenario) fill() float64 {
	if s.InitialFill <= 0 {
		return 1
	}
	return s.InitialFill
}

// Catalog maps scenario names to definitions.
type Catalog map[string]Scenario

// Presets returns a fresh catalog holding the built-in scenarios.
func Presets() Catalog {
	c := make(Catalog, len(builtin))
	for _, s := range builtin {
		c[s.Name] = s
	}
	return c
}

// Register validates s and adds it, replacing any scenario of the same name.
func (c Catalog) Register(s Scenario) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c[s.Name] = s
	return nil
}

// Names returns the scenario names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var builtin = []Scenario{
	{
		Name:        DefaultName,
		Description: "a resting block of water in an open box",
	},
	{
		Name:        "waterfall",
		Description: "two high emitters pour over a rock onto a shallow pool",
		Overrides:   map[string]float64{"viscosity": 0.05},
		Obstacles: []fluid.Obstacle{
			{Center: r3.Vec{X: -1.5, Y: 2.5}, Radius: 0.8},
		},
		Sources: []fluid.Source{
			{Pos: r3.Vec{X: -3.2, Y: 6, Z: -0.3}, Rate: 40, Vel: r3.Vec{X: 1.5}},
			{Pos: r3.Vec{X: -3.2, Y: 6, Z: 0.3}, Rate: 40, Vel: r3.Vec{X: 1.5}},
		},
		InitialFill: 0.3,
	},
	{
		Name:        "lake",
		Description: "a calm lake around three islands",
		Overrides:   map[string]float64{"viscosity": 0.2, "surfaceTension": 0.08},
		Obstacles: []fluid.Obstacle{
			{Center: r3.Vec{X: 1.5, Z: 1.5}, Radius: 1},
			{Center: r3.Vec{X: -2, Z: -1}, Radius: 0.8},
			{Center: r3.Vec{X: 0.5, Z: -2.5}, Radius: 0.6},
		},
	},
	{
		Name:        "waves",
		Description: "a travelling standing-wave field drives the surface",
		Overrides:   map[string]float64{"viscosity": 0.08},
		Fields:      []FieldSpec{{Kind: KindWave, K: 1.5}},
	},
	{
		Name:        "fountain",
		Description: "a jet shoots up from the middle of the floor",
		Overrides:   map[string]float64{"surfaceTension": 0.02},
		Sources: []fluid.Source{
			{Pos: r3.Vec{Y: 0.2}, Rate: 60, Vel: r3.Vec{Y: 8}},
		},
		InitialFill: 0.25,
	},
	{
		Name:        "rain",
		Description: "drops fall from a grid of emitters near the ceiling",
		Sources: []fluid.Source{
			{Pos: r3.Vec{X: -2, Y: 7.5, Z: -2}, Rate: 10, Vel: r3.Vec{Y: -1}},
			{Pos: r3.Vec{X: 2, Y: 7.5, Z: -2}, Rate: 10, Vel: r3.Vec{Y: -1}},
			{Pos: r3.Vec{Y: 7.5}, Rate: 10, Vel: r3.Vec{Y: -1}},
			{Pos: r3.Vec{X: -2, Y: 7.5, Z: 2}, Rate: 10, Vel: r3.Vec{Y: -1}},
			{Pos: r3.Vec{X: 2, Y: 7.5, Z: 2}, Rate: 10, Vel: r3.Vec{Y: -1}},
		},
		InitialFill: 0.1,
	},
	{
		Name:        "whirlpool",
		Description: "a vortex spins the water about the vertical axis",
		Overrides:   map[string]float64{"gravityScale": 2.5, "viscosity": 0.15},
		Fields:      []FieldSpec{{Kind: KindWhirlpool}},
	},
}
