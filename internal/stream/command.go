package stream

import (
	"errors"
	"fmt"

	"github.com/san-kum/fluidsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

var ErrUnknownOp = errors.New("stream: unknown command")

// Command is a JSON message from a renderer. Points are world-space,
// already resolved by the renderer's picking.
type Command struct {
	Op     string     `json:"op"`
	Point  [3]float64 `json:"point,omitempty"`
	Radius float64    `json:"radius,omitempty"`
	Name   string     `json:"name,omitempty"`
	Value  float64    `json:"value,omitempty"`
}

func (c Command) point() r3.Vec {
	return r3.Vec{X: c.Point[0], Y: c.Point[1], Z: c.Point[2]}
}

// Apply runs the command against the engine. It must be called from the
// goroutine that steps the engine.
func (c Command) Apply(e *sim.Engine) error {
	switch c.Op {
	case "impulse":
		e.ApplyInteractionForce(c.point())
	case "obstacle":
		if c.Radius <= 0 {
			return fmt.Errorf("obstacle radius must be positive, got %g", c.Radius)
		}
		e.AddObstacle(c.point(), c.Radius)
	case "source":
		e.AddSource(c.point())
	case "set":
		return e.SetParameter(c.Name, c.Value)
	case "scenario":
		e.LoadScenario(c.Name)
	case "reset":
		e.ResetSimulation()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, c.Op)
	}
	return nil
}
