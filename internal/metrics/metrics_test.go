package metrics

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/fluidsim/internal/fluid"
	"gonum.org/v1/gonum/spatial/r3"
)

func testWorld(vels ...r3.Vec) *fluid.World {
	p := fluid.DefaultParams()
	p.ParticleCount = len(vels)
	w := fluid.NewWorld(p, 1)
	w.Initialize(0)
	for i, v := range vels {
		w.State.Append(r3.Vec{X: float64(i) * 0.1, Y: 1}, v)
	}
	return w
}

func TestSample(t *testing.T) {
	w := testWorld(r3.Vec{X: 3, Y: 4}, r3.Vec{}, r3.Vec{Z: 1})
	f := Sample(w)

	if f.Particles != 3 {
		t.Errorf("expected 3 particles, got %d", f.Particles)
	}
	if f.MaxSpeed != 5 {
		t.Errorf("expected max speed 5, got %f", f.MaxSpeed)
	}
	wantKE := 0.5 * (25 + 0 + 1)
	if math.Abs(f.KineticEnergy-wantKE) > 1e-12 {
		t.Errorf("expected kinetic energy %f, got %f", wantKE, f.KineticEnergy)
	}
	if f.MeanHeight != 1 {
		t.Errorf("expected mean height 1, got %f", f.MeanHeight)
	}
	if f.OutOfBounds != 0 {
		t.Errorf("expected no particles out of bounds, got %d", f.OutOfBounds)
	}
}

func TestSample_OutOfBounds(t *testing.T) {
	w := testWorld(r3.Vec{}, r3.Vec{})
	w.State.Positions()[1] = r3.Vec{X: 100}
	if f := Sample(w); f.OutOfBounds != 1 {
		t.Errorf("expected 1 particle out of bounds, got %d", f.OutOfBounds)
	}
}

func TestSample_Empty(t *testing.T) {
	w := testWorld()
	f := Sample(w)
	if f.Particles != 0 || f.MaxSpeed != 0 || f.MeanDensity != 0 {
		t.Errorf("expected zero frame, got %+v", f)
	}
}

func TestSample_AfterStep(t *testing.T) {
	p := fluid.DefaultParams()
	p.ParticleCount = 100
	w := fluid.NewWorld(p, 1)
	w.Initialize(100)
	w.Step(p.TimeStep)

	f := Sample(w)
	if f.Frame != 1 {
		t.Errorf("expected frame 1, got %d", f.Frame)
	}
	if f.MeanDensity <= 0 {
		t.Errorf("expected positive mean density, got %f", f.MeanDensity)
	}
	if f.MaxSpeed > p.MaxVelocity+1e-9 {
		t.Errorf("max speed %f above limit %f", f.MaxSpeed, p.MaxVelocity)
	}
	if f.SpeedP90 > f.MaxSpeed {
		t.Errorf("p90 %f above max %f", f.SpeedP90, f.MaxSpeed)
	}
}

func TestMetrics(t *testing.T) {
	frames := []Frame{
		{Particles: 10, KineticEnergy: 2, MaxSpeed: 1, MeanDensity: 30},
		{Particles: 10, KineticEnergy: 4, MaxSpeed: 3, MeanDensity: 20, OutOfBounds: 1},
		{Particles: 10, KineticEnergy: 6, MaxSpeed: 12, MeanDensity: 25},
	}

	tests := []struct {
		metric Metric
		want   float64
	}{
		{NewEnergy(), 4},
		{NewPeakSpeed(), 12},
		{NewCompression(25), (0.2 + 0.2 + 0) / 3},
		{NewStability(10), 1.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.metric.Name(), func(t *testing.T) {
			for _, f := range frames {
				tt.metric.Observe(f)
			}
			if got := tt.metric.Value(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
			tt.metric.Reset()
			if tt.metric.Name() != "stability" && tt.metric.Value() != 0 {
				t.Errorf("expected zero after reset, got %f", tt.metric.Value())
			}
		})
	}
}

func TestFrameLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("frame", "stats", Frame{Frame: 7, Particles: 3})

	out := buf.String()
	for _, want := range []string{"stats.frame=7", "stats.particles=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestSeries(t *testing.T) {
	frames := []Frame{{MaxSpeed: 1}, {MaxSpeed: 2}}
	s, ok := Series(frames, "max_speed")
	if !ok || len(s) != 2 || s[1] != 2 {
		t.Errorf("unexpected series %v (ok=%v)", s, ok)
	}
	if _, ok := Series(frames, "colour"); ok {
		t.Error("expected unknown column to be rejected")
	}
	for _, c := range Columns() {
		if _, ok := (Frame{}).Column(c); !ok {
			t.Errorf("column %q not readable", c)
		}
	}
}
