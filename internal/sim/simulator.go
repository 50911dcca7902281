package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/mutators"
	"github.com/san-kum/partsim/internal/quadtree"
)

// minChunk is the smallest slice of entities handed to one worker.
const minChunk = 64

// Simulation owns the entities, the mutators and the per-step index.
// It is not safe for concurrent use; Step itself may fan out internally.
type Simulation struct {
	world    quadtree.Box
	entities []*body.Entity

	mutators  []mutators.Mutator
	cluster   []mutators.ClusterMutator
	perEntity []mutators.EntityMutator
	stepAware []mutators.StepAware

	index    *quadtree.Tree
	capacity int
	maxDepth int
	workers  int
	validate bool
	registry *Registry
	logger   *slog.Logger

	state     State
	step      int
	dropped   int
	lastDrop  error
	crashed   error
	closed    bool
	observers []Observer
}

type Option func(*Simulation)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkers sets how many goroutines run the entity-mutator phase.
func WithWorkers(n int) Option {
	return func(s *Simulation) { s.workers = n }
}

// WithValidation makes Step check every entity for NaN or Inf after
// integration and crash the simulation if one is found.
func WithValidation(on bool) Option {
	return func(s *Simulation) { s.validate = on }
}

func WithIndex(capacity, maxDepth int) Option {
	return func(s *Simulation) {
		s.capacity = capacity
		s.maxDepth = maxDepth
	}
}

// WithRegistry replaces the mutator registry used by New.
func WithRegistry(r *Registry) Option {
	return func(s *Simulation) { s.registry = r }
}

func WithObserver(o Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}

func newSimulation(world quadtree.Box) *Simulation {
	return &Simulation{
		world:    world,
		capacity: quadtree.DefaultCapacity,
		maxDepth: quadtree.DefaultMaxDepth,
		workers:  1,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// New validates cfg, builds its mutators in order and populates the entity
// set from cfg.Seed. A configuration error leaves nothing running.
func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := newSimulation(World(cfg.World))
	s.capacity = cfg.Index.Capacity
	s.maxDepth = cfg.Index.MaxDepth
	s.validate = cfg.ValidateState
	if cfg.Workers > 0 {
		s.workers = cfg.Workers
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}

	env := mutators.Env{World: s.world, Seed: uint64(cfg.Seed)}
	for i, mc := range cfg.Mutators {
		m, err := s.registry.Build(i, mc, env)
		if err != nil {
			s.Close()
			return nil, err
		}
		if err := s.addMutator(m); err != nil {
			m.Destroy()
			s.Close()
			return nil, config.WrapMutatorError(i, mc.Kind, err)
		}
	}

	s.entities = Populate(cfg.Entities, NewRand(cfg.Seed))
	s.logger.Debug("simulation constructed",
		"entities", len(s.entities),
		"mutators", len(s.mutators),
		"workers", s.workers,
	)
	return s, nil
}

// NewWithEntities builds a simulation from an explicit entity set and
// already constructed mutators, applied in the given order.
func NewWithEntities(world quadtree.Box, entities []*body.Entity, muts []mutators.Mutator, opts ...Option) (*Simulation, error) {
	if !(world.Width > 0 && world.Height > 0) || math.IsInf(world.Width, 0) || math.IsInf(world.Height, 0) {
		return nil, &config.ConfigError{Field: "world", Reason: fmt.Sprintf("extents must be positive, got %gx%g", world.Width, world.Height)}
	}
	for i, e := range entities {
		if e == nil || !(e.Mass > 0) || math.IsInf(e.Mass, 0) {
			return nil, &config.ConfigError{Field: fmt.Sprintf("entities[%d].mass", i), Reason: "must be positive"}
		}
	}

	s := newSimulation(world)
	for _, opt := range opts {
		opt(s)
	}
	for i, m := range muts {
		if err := s.addMutator(m); err != nil {
			return nil, config.WrapMutatorError(i, string(m.Kind()), err)
		}
	}
	s.entities = entities
	return s, nil
}

func (s *Simulation) addMutator(m mutators.Mutator) error {
	c, isCluster := m.(mutators.ClusterMutator)
	e, isEntity := m.(mutators.EntityMutator)
	if !isCluster && !isEntity {
		return fmt.Errorf("%s implements neither the cluster nor the entity contract", m.Kind())
	}
	if isCluster {
		s.cluster = append(s.cluster, c)
	}
	if isEntity {
		s.perEntity = append(s.perEntity, e)
	}
	if sa, ok := m.(mutators.StepAware); ok {
		s.stepAware = append(s.stepAware, sa)
	}
	s.mutators = append(s.mutators, m)
	return nil
}

func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Step advances the simulation by one tick: rebuild the index from the
// current positions, run cluster mutators, run entity mutators for every
// entity, then integrate. Mutators only see positions from the start of
// the step through the index.
func (s *Simulation) Step() error {
	if s.closed {
		return ErrClosed
	}
	if s.crashed != nil {
		return s.crashed
	}
	s.state = Stepping

	for _, e := range s.entities {
		e.Opacity = e.BaseOpacity
	}
	for _, m := range s.stepAware {
		m.BeginStep(s.step)
	}

	s.rebuild()

	for _, m := range s.cluster {
		m.ApplyCluster(s.index)
	}
	if len(s.perEntity) > 0 {
		parallelFor(len(s.entities), s.workers, minChunk, func(start, end int) {
			for _, e := range s.entities[start:end] {
				for _, m := range s.perEntity {
					m.ApplyEntity(e, s.index)
				}
			}
		})
	}

	for _, e := range s.entities {
		e.Integrate()
	}

	if s.validate {
		for i, e := range s.entities {
			if !e.IsValid() {
				s.crashed = &StepError{Step: s.step, Entity: i, Wrapped: ErrInvalidState}
				s.logger.Error("simulation crashed", "step", s.step, "entity", i)
				return s.crashed
			}
		}
	}

	s.step++
	if len(s.observers) > 0 {
		f := s.Frame()
		for _, o := range s.observers {
			o.OnStep(f)
		}
	}
	return nil
}

func (s *Simulation) rebuild() {
	s.index = quadtree.New(s.world, s.capacity, quadtree.WithMaxDepth(s.maxDepth))
	s.dropped = 0
	s.lastDrop = nil
	for _, e := range s.entities {
		if s.index.Insert(e) {
			continue
		}
		s.dropped++
		if s.lastDrop == nil {
			s.lastDrop = &quadtree.IndexError{Position: e.Position, Boundary: s.world}
		}
	}
	if s.dropped > 0 {
		s.logger.Warn("entities outside world bounds",
			"step", s.step,
			"dropped", s.dropped,
			"err", s.lastDrop,
		)
	}
}

// Run steps the simulation until steps ticks have completed, ctx is done
// or cb returns false. cb may be nil.
func (s *Simulation) Run(ctx context.Context, steps int, cb func(f Frame) bool) error {
	if steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", steps)
	}
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.Step(); err != nil {
			return err
		}
		if cb != nil && !cb(s.Frame()) {
			return nil
		}
	}
	return nil
}

// Frame describes the state after the latest step.
func (s *Simulation) Frame() Frame {
	indexed := 0
	if s.index != nil {
		indexed = s.index.Len()
	}
	return Frame{
		Step:     s.step,
		Entities: s.entities,
		Indexed:  indexed,
		Dropped:  s.dropped,
	}
}

// Snapshot returns the render view of every entity in collection order.
func (s *Simulation) Snapshot() []body.Particle {
	return s.SnapshotInto(make([]body.Particle, 0, len(s.entities)))
}

// SnapshotInto appends the render view to out and returns it.
func (s *Simulation) SnapshotInto(out []body.Particle) []body.Particle {
	for _, e := range s.entities {
		out = append(out, e.Particle())
	}
	return out
}

// Debug reports every mutator's markers followed by the current index
// nodes. It never changes simulation state.
func (s *Simulation) Debug(sink mutators.DebugSink) {
	for _, m := range s.mutators {
		m.Debug(sink)
	}
	if s.index == nil {
		return
	}
	s.index.Walk(func(n quadtree.NodeInfo) bool {
		sink.Rect(n.Box)
		return true
	})
}

// Close destroys every mutator. Further calls to Step return ErrClosed.
func (s *Simulation) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, m := range s.mutators {
		m.Destroy()
	}
}

// Entities returns the live entity collection. Callers must not modify it
// while a step is running.
func (s *Simulation) Entities() []*body.Entity { return s.entities }

// Index returns the index built by the latest step, or nil before the first.
func (s *Simulation) Index() *quadtree.Tree { return s.index }

func (s *Simulation) Mutators() []mutators.Mutator { return s.mutators }
func (s *Simulation) World() quadtree.Box          { return s.world }
func (s *Simulation) State() State                 { return s.state }
func (s *Simulation) StepCount() int               { return s.step }
func (s *Simulation) Dropped() int                 { return s.dropped }

// LastIndexError returns the first IndexError of the latest step, if any.
func (s *Simulation) LastIndexError() error { return s.lastDrop }

// Err returns the crash error, or nil while the simulation is healthy.
func (s *Simulation) Err() error { return s.crashed }
