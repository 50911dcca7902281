package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/sim"
)

// Frame is one recorded render snapshot.
type Frame struct {
	Step      int             `json:"step" msgpack:"step"`
	Particles []body.Particle `json:"particles" msgpack:"particles"`
}

// Result holds one run's metric series and recorded frames. World is the
// world extent as width, height; Names lists metrics in observation order.
type Result struct {
	Name       string
	Seed       int64
	StepsTaken int
	Duration   time.Duration
	World      [2]float64
	Names      []string
	Series     map[string][]float64
	Metrics    map[string]float64
	Frames     []Frame
}

type Experiment struct {
	cfg         *config.Config
	simulator   *sim.Simulation
	metrics     []sim.Metric
	recordEvery int
	simOpts     []sim.Option
	logger      *slog.Logger
}

type Option func(*Experiment)

func WithMetrics(ms ...sim.Metric) Option {
	return func(e *Experiment) { e.metrics = ms }
}

// WithFrames records a snapshot every n steps, plus the initial one.
// Zero disables recording.
func WithFrames(n int) Option {
	return func(e *Experiment) { e.recordEvery = n }
}

func WithSimOptions(opts ...sim.Option) Option {
	return func(e *Experiment) { e.simOpts = append(e.simOpts, opts...) }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) {
		e.logger = l
		e.simOpts = append(e.simOpts, sim.WithLogger(l))
	}
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.Default()
	}
	return e
}

// Setup builds the simulation. Run calls it when needed.
func (e *Experiment) Setup() error {
	if e.simulator != nil {
		return nil
	}
	s, err := sim.New(e.cfg, e.simOpts...)
	if err != nil {
		return err
	}
	e.simulator = s
	return nil
}

// Run advances the simulation cfg.Steps times. On cancellation or a crash
// the partial result is returned with the error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if err := e.Setup(); err != nil {
		return nil, err
	}

	result := &Result{
		Name:    e.cfg.Name,
		Seed:    e.cfg.Seed,
		World:   [2]float64{e.cfg.World.Width, e.cfg.World.Height},
		Names:   make([]string, 0, len(e.metrics)),
		Series:  make(map[string][]float64, len(e.metrics)),
		Metrics: make(map[string]float64, len(e.metrics)),
	}
	for _, m := range e.metrics {
		m.Reset()
		result.Names = append(result.Names, m.Name())
		result.Series[m.Name()] = make([]float64, 0, e.cfg.Steps)
	}
	if e.recordEvery > 0 {
		result.Frames = append(result.Frames, Frame{Step: 0, Particles: e.simulator.Snapshot()})
	}

	start := time.Now()
	err := e.simulator.Run(ctx, e.cfg.Steps, func(f sim.Frame) bool {
		for _, m := range e.metrics {
			m.Observe(f)
			result.Series[m.Name()] = append(result.Series[m.Name()], m.Value())
		}
		if e.recordEvery > 0 && f.Step%e.recordEvery == 0 {
			result.Frames = append(result.Frames, Frame{Step: f.Step, Particles: e.simulator.Snapshot()})
		}
		result.StepsTaken = f.Step
		return true
	})
	result.Duration = time.Since(start)

	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	e.logger.Debug("experiment finished",
		"name", result.Name,
		"steps", result.StepsTaken,
		"duration", result.Duration,
	)
	if err != nil {
		return result, fmt.Errorf("experiment %s: %w", e.cfg.Name, err)
	}
	return result, nil
}

// Simulation returns the underlying simulation, or nil before Setup.
func (e *Experiment) Simulation() *sim.Simulation {
	return e.simulator
}

func (e *Experiment) Close() {
	if e.simulator != nil {
		e.simulator.Close()
	}
}
