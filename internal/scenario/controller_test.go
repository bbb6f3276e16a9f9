package scenario_test

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/scenario"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newWorld() *fluid.World {
	p := fluid.DefaultParams()
	p.ParticleCount = 120
	w := fluid.NewWorld(p, 1)
	w.Initialize(p.ParticleCount)
	return w
}

var _ = Describe("Controller", func() {
	var (
		w    *fluid.World
		ctrl *scenario.Controller
	)

	BeforeEach(func() {
		w = newWorld()
		ctrl = scenario.NewController(w, nil, quietLogger())
	})

	Describe("Load", func() {
		It("clears obstacles when switching from lake to default", func() {
			ctrl.Load("lake")
			Expect(w.Obstacles).To(HaveLen(3))

			ctrl.Load("default")
			Expect(w.Obstacles).To(BeEmpty())
		})

		It("falls back to default for an unknown name", func() {
			Expect(ctrl.Load("tsunami")).To(Equal(scenario.DefaultName))
			Expect(ctrl.Active()).To(Equal(scenario.DefaultName))
			Expect(w.State.Len()).To(Equal(w.Params.ParticleCount))
		})

		It("clears both emitter pools", func() {
			w.AddSource(r3.Vec{Y: 4})
			ctrl.Load("rain")
			Expect(w.Sources.User).To(BeEmpty())
			Expect(w.Sources.Scenario).To(HaveLen(5))

			ctrl.Load("fountain")
			Expect(w.Sources.Scenario).To(HaveLen(1))
			Expect(w.Sources.Scenario[0].Vel).To(Equal(r3.Vec{Y: 8}))
		})

		It("starts emitter scenarios partly filled", func() {
			ctrl.Load("fountain")
			Expect(w.State.Len()).To(Equal(int(math.Ceil(0.25 * 120))))
			Expect(w.Frames()).To(BeZero())
		})

		It("applies and rolls back parameter overrides", func() {
			ctrl.Load("whirlpool")
			Expect(w.Params.GravityScale).To(Equal(2.5))
			Expect(w.Params.Viscosity).To(Equal(0.15))

			ctrl.Load("default")
			Expect(w.Params.GravityScale).To(Equal(1.0))
			Expect(w.Params.Viscosity).To(Equal(fluid.DefaultParams().Viscosity))
		})

		It("keeps a parameter the user changed while the scenario was active", func() {
			ctrl.Load("whirlpool")
			Expect(w.SetParameter("gravityScale", 3)).To(Succeed())

			ctrl.Load("default")
			Expect(w.Params.GravityScale).To(Equal(3.0))
		})

		It("registers fields on the clock and cancels them on switch", func() {
			ctrl.Load("waves")
			Expect(w.Clock.Pending()).To(Equal(1))

			ctrl.Load("whirlpool")
			Expect(w.Clock.Pending()).To(Equal(1))

			ctrl.Load("lake")
			Expect(w.Clock.Pending()).To(BeZero())
		})

		It("drives the whirlpool as the world steps", func() {
			ctrl.Load("whirlpool")
			w.Params.Gravity = 0
			for i := 0; i < 30; i++ {
				w.Step(w.Params.TimeStep)
			}
			var swirl float64
			for i, p := range w.State.Positions() {
				v := w.State.Velocities()[i]
				// y-component of r × v; the vortex drives it negative
				swirl += p.Z*v.X - p.X*v.Z
			}
			Expect(swirl).To(BeNumerically("<", 0))
		})
	})
})

var _ = Describe("Whirlpool", func() {
	var w *fluid.World

	BeforeEach(func() {
		w = newWorld()
		w.Initialize(0)
	})

	DescribeTable("tangential kick",
		func(pos r3.Vec, wantMag float64) {
			w.State.Append(pos, r3.Vec{})
			scenario.Whirlpool{}.Apply(w, 0, scenario.FieldInterval)

			v := w.State.Velocities()[0]
			Expect(v.Y).To(BeZero())
			Expect(math.Hypot(v.X, v.Z)).To(BeNumerically("~", wantMag*scenario.FieldInterval, 1e-12))
			radial := r3.Vec{X: pos.X, Z: pos.Z}
			Expect(r3.Dot(v, radial)).To(BeNumerically("~", 0, 1e-12))
		},
		Entry("far from the axis", r3.Vec{X: 3, Y: 1}, fluid.DefaultParams().WhirlpoolStrength/3),
		Entry("inside unit distance", r3.Vec{X: -0.3, Y: 1, Z: 0.4}, fluid.DefaultParams().WhirlpoolStrength),
		Entry("on the diagonal", r3.Vec{X: 2, Z: 2}, fluid.DefaultParams().WhirlpoolStrength/math.Hypot(2, 2)),
		Entry("inside the core", r3.Vec{X: 0.05, Z: 0.05}, 0.0),
	)

	It("follows whirlpoolStrength live", func() {
		w.State.Append(r3.Vec{X: 2}, r3.Vec{})
		Expect(w.SetParameter("whirlpoolStrength", 10)).To(Succeed())
		scenario.Whirlpool{}.Apply(w, 0, 1)
		Expect(w.State.Velocities()[0].Z).To(BeNumerically("~", 5, 1e-12))
	})
})

var _ = Describe("Wave", func() {
	It("kicks vertical velocity by the travelling pattern", func() {
		w := newWorld()
		w.Initialize(0)
		w.State.Append(r3.Vec{X: 0.5, Z: -0.25}, r3.Vec{X: 1})

		f := scenario.Wave{K: 1.5}
		now := 0.7
		f.Apply(w, now, scenario.FieldInterval)

		p := w.Params
		t := now * p.WaveFrequency
		want := math.Sin(t+0.5*1.5) * math.Cos(t-0.25*1.5) * p.WaveAmplitude
		v := w.State.Velocities()[0]
		Expect(v.Y).To(BeNumerically("~", want, 1e-12))
		Expect(v.X).To(Equal(1.0))
	})

	It("adds a velocity that does not depend on the tick interval", func() {
		kick := func(dt float64) float64 {
			w := newWorld()
			w.Initialize(0)
			w.State.Append(r3.Vec{X: 0.3, Z: 0.2}, r3.Vec{})
			scenario.Wave{K: 1}.Apply(w, 0.4, dt)
			return w.State.Velocities()[0].Y
		}
		Expect(kick(scenario.FieldInterval)).NotTo(BeZero())
		Expect(kick(1)).To(Equal(kick(scenario.FieldInterval)))
	})
})

var _ = Describe("Catalog", func() {
	It("ships the built-in presets", func() {
		Expect(scenario.Presets().Names()).To(ConsistOf(
			"default", "fountain", "lake", "rain", "waterfall", "waves", "whirlpool",
		))
	})

	It("holds only valid presets", func() {
		for _, s := range scenario.Presets() {
			Expect(s.Validate()).To(Succeed(), s.Name)
		}
	})

	It("rejects unknown override names", func() {
		err := scenario.Presets().Register(scenario.Scenario{
			Name:      "bad",
			Overrides: map[string]float64{"warpFactor": 9},
		})
		Expect(err).To(MatchError(scenario.ErrInvalidScenario))
	})

	It("rejects unknown field kinds", func() {
		err := scenario.Scenario{
			Name:   "bad",
			Fields: []scenario.FieldSpec{{Kind: "tornado"}},
		}.Validate()
		Expect(err).To(MatchError(scenario.ErrInvalidScenario))
	})
})

var _ = Describe("Scenario files", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("round-trips through YAML and loads into a controller", func() {
		path := filepath.Join(dir, "pond.yaml")
		src := scenario.Scenario{
			Name:      "pond",
			Overrides: map[string]float64{"viscosity": 0.3},
			Obstacles: []fluid.Obstacle{{Center: r3.Vec{X: 1, Z: 1}, Radius: 0.5}},
			Sources:   []fluid.Source{{Pos: r3.Vec{Y: 6}, Rate: 15, Vel: r3.Vec{Y: -2}}},
			Fields:    []scenario.FieldSpec{{Kind: scenario.KindWave, K: 2}},
		}
		Expect(scenario.SaveFile(path, src)).To(Succeed())

		got, err := scenario.LoadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(src))

		cat := scenario.Presets()
		Expect(cat.Register(got)).To(Succeed())

		w := newWorld()
		ctrl := scenario.NewController(w, cat, quietLogger())
		Expect(ctrl.Load("pond")).To(Equal("pond"))
		Expect(w.Obstacles).To(HaveLen(1))
		Expect(w.Sources.Scenario).To(HaveLen(1))
		Expect(w.Params.Viscosity).To(Equal(0.3))
		Expect(w.Clock.Pending()).To(Equal(1))
	})

	It("takes the name from the file when missing", func() {
		path := filepath.Join(dir, "calm.yml")
		Expect(os.WriteFile(path, []byte("description: still water\n"), 0644)).To(Succeed())

		names, err := scenario.Presets().RegisterDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(ConsistOf("calm"))
	})

	It("reports malformed files as invalid scenarios", func() {
		path := filepath.Join(dir, "broken.yaml")
		Expect(os.WriteFile(path, []byte("obstacles: [radius: -1]\n"), 0644)).To(Succeed())

		_, err := scenario.LoadFile(path)
		Expect(err).To(MatchError(scenario.ErrInvalidScenario))
	})
})
