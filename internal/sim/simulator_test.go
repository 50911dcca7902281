package sim_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/mutators"
	"github.com/san-kum/partsim/internal/quadtree"
	"github.com/san-kum/partsim/internal/sim"
	"github.com/san-kum/partsim/internal/vec"
)

// recorder records what it observes without touching any entity.
type recorder struct {
	kind        mutators.Kind
	clusterRuns int
	entityRuns  int
	indexed     []int
	destroyed   int
}

func (p *recorder) Kind() mutators.Kind           { return p.kind }
func (p *recorder) Debug(sink mutators.DebugSink) {}
func (p *recorder) Destroy()                      { p.destroyed++ }

func (p *recorder) ApplyCluster(idx *quadtree.Tree) {
	p.clusterRuns++
	p.indexed = append(p.indexed, idx.Len())
}

func (p *recorder) ApplyEntity(e *body.Entity, idx *quadtree.Tree) {
	p.entityRuns++
}

// nudger rewrites each entity's own position; neighbours must not see it.
type nudger struct {
	seen []vec.Vec2
}

func (n *nudger) Kind() mutators.Kind            { return "nudger" }
func (n *nudger) Debug(sink mutators.DebugSink) {}
func (n *nudger) Destroy()                       {}

func (n *nudger) ApplyEntity(e *body.Entity, idx *quadtree.Tree) {
	for _, it := range idx.All() {
		if it.Entity != e {
			n.seen = append(n.seen, it.Position)
		}
	}
	e.Position.X += 10
}

type recordingSink struct {
	circles int
	rects   int
}

func (r *recordingSink) Circle(center vec.Vec2, radius float64, label string) { r.circles++ }
func (r *recordingSink) Rect(b quadtree.Box)                                  { r.rects++ }

type nothing struct{}

func (nothing) Kind() mutators.Kind            { return "nothing" }
func (nothing) Debug(sink mutators.DebugSink) {}
func (nothing) Destroy()                       {}

func entity(x, y, mass float64) *body.Entity {
	return &body.Entity{Position: vec.New(x, y), Mass: mass, Opacity: 0.4, BaseOpacity: 0.4}
}

func attractor() *mutators.FixedBody {
	fb, err := mutators.NewFixedBodyAt(vec.Zero, 500, mutators.Law{
		Gravity:       0.05,
		DistanceRange: mutators.Range{10, 20},
	})
	Expect(err).NotTo(HaveOccurred())
	return fb
}

var _ = Describe("Simulation", func() {
	world := quadtree.NewBox(vec.Zero, 400, 400)

	Describe("construction", func() {
		It("starts in the constructed state with no index", func() {
			s, err := sim.New(config.GetPreset("default"))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State()).To(Equal(sim.Constructed))
			Expect(s.Index()).To(BeNil())
			Expect(s.Entities()).To(HaveLen(config.DefaultAmount))
			Expect(s.Mutators()).To(HaveLen(3))
		})

		It("rejects an unknown mutator kind as a configuration error", func() {
			cfg := config.DefaultConfig()
			cfg.Mutators = []config.MutatorConfig{{Kind: "antigravity"}}

			_, err := sim.New(cfg)
			var ce *config.ConfigError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(ce.Field).To(Equal("mutators[0].kind"))
			Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
		})

		It("rejects out-of-range mutator parameters", func() {
			cfg := config.DefaultConfig()
			cfg.Mutators = []config.MutatorConfig{
				config.Mutator(string(mutators.KindGravity), mutators.GravityOptions{
					Gravity: 0.1, DistanceRange: mutators.Range{0, 10},
				}),
			}

			_, err := sim.New(cfg)
			Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
		})

		It("rejects a non-finite gravity window from yaml", func() {
			cfg, err := config.Parse([]byte(`
mutators:
  - kind: gravity
    params:
      gravity: 0.1
      distance_range: [.nan, 100]
`))
			Expect(err).NotTo(HaveOccurred())

			_, err = sim.New(cfg)
			var ce *config.ConfigError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
		})

		It("rejects a non-finite world", func() {
			nan := quadtree.NewBox(vec.Zero, math.NaN(), 400)
			_, err := sim.NewWithEntities(nan, nil, nil)
			Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
		})

		It("rejects an invalid configuration before building anything", func() {
			cfg := config.DefaultConfig()
			cfg.World.Width = -1
			_, err := sim.New(cfg)
			Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
		})

		It("rejects a mutator without a contract", func() {
			_, err := sim.NewWithEntities(world, nil, []mutators.Mutator{nothing{}})
			Expect(err).To(HaveOccurred())
		})

		It("rejects entities without positive mass", func() {
			_, err := sim.NewWithEntities(world, []*body.Entity{entity(0, 0, 0)}, nil)
			Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
		})
	})

	Describe("Step", func() {
		It("leaves resting entities in place without mutators", func() {
			s, err := sim.New(config.GetPreset("calm"))
			Expect(err).NotTo(HaveOccurred())
			before := s.Snapshot()

			for i := 0; i < 10; i++ {
				Expect(s.Step()).To(Succeed())
			}
			Expect(s.Snapshot()).To(Equal(before))
			Expect(s.State()).To(Equal(sim.Stepping))
			Expect(s.StepCount()).To(Equal(10))
		})

		It("pulls entities toward a fixed attractor", func() {
			a := entity(100, 0, 9)
			b := entity(-100, 0, 16)
			s, err := sim.NewWithEntities(world, []*body.Entity{a, b}, []mutators.Mutator{attractor()})
			Expect(err).NotTo(HaveOccurred())

			prev := a.Position.Magnitude()
			for step := 1; a.Position.X > 0; step++ {
				Expect(s.Step()).To(Succeed())
				if a.Position.X <= 0 {
					break
				}
				d := a.Position.Magnitude()
				Expect(d).To(BeNumerically("<", prev), "step %d", step)
				prev = d

				want := 100 - 1.25*float64(step*(step+1))/2
				Expect(a.Position.X).To(BeNumerically("~", want, 1e-9))
				Expect(b.Position.X).To(BeNumerically("~", -want, 1e-9))
			}
			Expect(s.StepCount()).To(Equal(13))
		})

		It("runs cluster mutators once and entity mutators once per entity", func() {
			p := &recorder{kind: "recorder"}
			entities := []*body.Entity{entity(0, 0, 1), entity(10, 10, 1), entity(-10, 5, 1)}
			s, err := sim.NewWithEntities(world, entities, []mutators.Mutator{p})
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Step()).To(Succeed())
			Expect(s.Step()).To(Succeed())
			Expect(p.clusterRuns).To(Equal(2))
			Expect(p.entityRuns).To(Equal(6))
			Expect(p.indexed).To(Equal([]int{3, 3}))
		})

		It("exposes only start-of-step positions to neighbours", func() {
			n := &nudger{}
			entities := []*body.Entity{entity(0, 0, 1), entity(50, 0, 1)}
			s, err := sim.NewWithEntities(world, entities, []mutators.Mutator{n})
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Step()).To(Succeed())
			Expect(n.seen).To(ConsistOf(vec.New(50, 0), vec.New(0, 0)))
			Expect(entities[0].Position.X).To(Equal(10.0))
		})

		It("wraps an entity that left the world and warns about the drop", func() {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			small := quadtree.NewBox(vec.Zero, 200, 200)
			e := entity(106, 0, 25)
			wrap := mutators.NewEdgeWrap(mutators.DefaultEdgeWrapOptions(), mutators.Env{World: small})
			s, err := sim.NewWithEntities(small, []*body.Entity{e}, []mutators.Mutator{wrap}, sim.WithLogger(logger))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Step()).To(Succeed())
			Expect(e.Position.X).To(Equal(-100.0))
			Expect(s.Dropped()).To(Equal(1))
			Expect(errors.Is(s.LastIndexError(), quadtree.ErrOutOfBounds)).To(BeTrue())
			Expect(buf.String()).To(ContainSubstring("entities outside world bounds"))
			Expect(buf.String()).To(ContainSubstring("dropped=1"))

			buf.Reset()
			Expect(s.Step()).To(Succeed())
			Expect(s.Dropped()).To(Equal(0))
			Expect(buf.String()).To(BeEmpty())
		})

		It("leaves an entity in place when edge wrap is inactive", func() {
			small := quadtree.NewBox(vec.Zero, 200, 200)
			e := entity(106, 0, 25)
			wrap := mutators.NewEdgeWrap(mutators.EdgeWrapOptions{Active: false}, mutators.Env{World: small})
			s, err := sim.NewWithEntities(small, []*body.Entity{e}, []mutators.Mutator{wrap})
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Step()).To(Succeed())
			Expect(e.Position.X).To(Equal(106.0))
		})

		It("restores base opacity before mutators run", func() {
			e := entity(0, 0, 1)
			e.Opacity = 0.9
			s, err := sim.NewWithEntities(world, []*body.Entity{e}, nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Step()).To(Succeed())
			Expect(e.Opacity).To(Equal(0.4))
		})

		It("crashes on a non-finite state and refuses further steps", func() {
			e := entity(0, 0, 1)
			e.Velocity = vec.New(math.Inf(1), 0)
			s, err := sim.NewWithEntities(world, []*body.Entity{e}, nil, sim.WithValidation(true))
			Expect(err).NotTo(HaveOccurred())

			err = s.Step()
			var se *sim.StepError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(Equal(0))
			Expect(errors.Is(err, sim.ErrCrashed)).To(BeTrue())
			Expect(errors.Is(err, sim.ErrInvalidState)).To(BeTrue())

			Expect(errors.Is(s.Step(), sim.ErrCrashed)).To(BeTrue())
			Expect(s.StepCount()).To(Equal(0))
		})
	})

	Describe("determinism", func() {
		run := func(seed int64, workers int) []body.Particle {
			cfg := config.GetPreset("galaxy")
			cfg.Seed = seed
			s, err := sim.New(cfg, sim.WithWorkers(workers))
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()
			Expect(s.Run(context.Background(), 30, nil)).To(Succeed())
			return s.Snapshot()
		}

		It("reproduces the same frames for the same seed", func() {
			Expect(run(7, 1)).To(Equal(run(7, 1)))
		})

		It("produces different frames for different seeds", func() {
			Expect(run(7, 1)).NotTo(Equal(run(8, 1)))
		})

		It("matches sequential results when the entity phase is parallel", func() {
			Expect(run(7, 4)).To(Equal(run(7, 1)))
		})
	})

	Describe("Run", func() {
		It("stops when the callback returns false", func() {
			s, err := sim.New(config.GetPreset("calm"))
			Expect(err).NotTo(HaveOccurred())

			var frames []int
			err = s.Run(context.Background(), 100, func(f sim.Frame) bool {
				frames = append(frames, f.Step)
				return f.Step < 3
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(frames).To(Equal([]int{1, 2, 3}))
		})

		It("honours context cancellation", func() {
			s, err := sim.New(config.GetPreset("calm"))
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(s.Run(ctx, 10, nil)).To(MatchError(context.Canceled))
			Expect(s.StepCount()).To(Equal(0))
		})
	})

	Describe("Debug and Close", func() {
		It("reports markers without changing state", func() {
			e := entity(100, 0, 9)
			s, err := sim.NewWithEntities(world, []*body.Entity{e}, []mutators.Mutator{attractor()})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Step()).To(Succeed())

			before := s.Snapshot()
			sink := &recordingSink{}
			s.Debug(sink)
			Expect(sink.circles).To(Equal(1))
			Expect(sink.rects).To(BeNumerically(">=", 1))
			Expect(s.Snapshot()).To(Equal(before))
		})

		It("destroys mutators exactly once", func() {
			p := &recorder{kind: "recorder"}
			s, err := sim.NewWithEntities(world, nil, []mutators.Mutator{p})
			Expect(err).NotTo(HaveOccurred())

			s.Close()
			s.Close()
			Expect(p.destroyed).To(Equal(1))
			Expect(s.Step()).To(MatchError(sim.ErrClosed))
		})
	})
})

var _ = Describe("Registry", func() {
	It("knows every mutator kind", func() {
		Expect(sim.NewRegistry().ListKinds()).To(ConsistOf(
			"edge_wrap", "fixed_body_attractor", "gravity",
			"noise_drift", "pointer_pusher", "velocity_alpha",
		))
	})

	It("decodes params on top of defaults", func() {
		mc := config.Mutator(string(mutators.KindGravity), map[string]any{"gravity": 0.5})
		m, err := sim.NewRegistry().Build(0, mc, mutators.Env{})
		Expect(err).NotTo(HaveOccurred())

		g, ok := m.(*mutators.Gravity)
		Expect(ok).To(BeTrue())
		Expect(g.Radius()).To(BeNumerically("~", math.Sqrt(mutators.DefaultGravityOptions().DistanceRange.Max()), 1e-12))
	})
})
