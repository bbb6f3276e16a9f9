package stream

import (
	"context"
	"errors"
	"time"

	"github.com/san-kum/fluidsim/internal/sim"
)

// Run steps the engine at fps until ctx is done, applying queued commands
// before each step and publishing the position buffer after it.
func Run(ctx context.Context, eng *sim.Engine, s *Server, fps int) error {
	if fps <= 0 {
		return errors.New("stream: fps must be positive")
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	frame := 0
	s.hub.Publish(frame, eng.PositionBuffer())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		Drain(eng, s)
		eng.Step(0)
		frame++
		s.hub.Publish(frame, eng.PositionBuffer())
	}
}

// Drain applies every queued command without blocking and returns how
// many ran.
func Drain(eng *sim.Engine, s *Server) int {
	n := 0
	for {
		select {
		case cmd := <-s.commands:
			if err := cmd.Apply(eng); err != nil {
				s.logger.Warn("command rejected", "op", cmd.Op, "err", err)
				continue
			}
			n++
		default:
			return n
		}
	}
}
