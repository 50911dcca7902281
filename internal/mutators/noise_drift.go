package mutators

import (
	"fmt"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/noise"
	"github.com/san-kum/partsim/internal/quadtree"
	"github.com/san-kum/partsim/internal/vec"
)

// Drift modes.
const (
	DriftAcceleration = "acceleration"
	DriftPosition     = "position"
)

// yChannel offsets the third noise coordinate so the two displacement
// components come from unrelated parts of the field.
const yChannel = 1024.5

type NoiseDriftOptions struct {
	Level     float64 `yaml:"level"`
	Scale     float64 `yaml:"scale"`
	Mode      string  `yaml:"mode"`
	Backend   string  `yaml:"backend"`
	TimeScale float64 `yaml:"time_scale"`
	// Seed zero means derive from the simulation seed.
	Seed uint32 `yaml:"seed"`
}

func DefaultNoiseDriftOptions() NoiseDriftOptions {
	return NoiseDriftOptions{
		Level:   0.4,
		Scale:   0.0014,
		Mode:    DriftAcceleration,
		Backend: noise.BackendValue,
	}
}

// NoiseDrift displaces each entity by a smooth field sampled at its current
// position, either as an acceleration or directly as a position offset.
type NoiseDrift struct {
	lifecycle
	field    noise.Field
	level    float64
	scale    float64
	position bool
	tscale   float64
	t        float64
}

func NewNoiseDrift(opts NoiseDriftOptions, env Env) (*NoiseDrift, error) {
	if err := positive("scale", opts.Scale); err != nil {
		return nil, err
	}
	if err := nonNegative("level", opts.Level); err != nil {
		return nil, err
	}
	if !finite(opts.TimeScale) {
		return nil, &OptionError{Option: "time_scale", Reason: fmt.Sprintf("must be finite, got %g", opts.TimeScale)}
	}

	var position bool
	switch opts.Mode {
	case "", DriftAcceleration:
	case DriftPosition:
		position = true
	default:
		return nil, &OptionError{Option: "mode", Reason: fmt.Sprintf("unknown mode %q", opts.Mode)}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint32(env.Seed)
	}
	field, ok := noise.ByName(opts.Backend, seed)
	if !ok {
		return nil, &OptionError{Option: "backend", Reason: fmt.Sprintf("unknown backend %q", opts.Backend)}
	}

	return &NoiseDrift{
		field:    field,
		level:    opts.Level,
		scale:    opts.Scale,
		position: position,
		tscale:   opts.TimeScale,
	}, nil
}

func (n *NoiseDrift) Kind() Kind { return KindNoiseDrift }

func (n *NoiseDrift) BeginStep(step int) {
	n.t = float64(step) * n.tscale
}

// Displacement returns the drift for a point, each component in
// [-level, level).
func (n *NoiseDrift) Displacement(p vec.Vec2) vec.Vec2 {
	x, y := p.X*n.scale, p.Y*n.scale
	sx := n.field.Sample3(x, y, n.t)
	sy := n.field.Sample3(x, y, n.t+yChannel)
	return vec.Vec2{
		X: vec.MapRange(sx, 0, 1, -n.level, n.level),
		Y: vec.MapRange(sy, 0, 1, -n.level, n.level),
	}
}

func (n *NoiseDrift) ApplyEntity(e *body.Entity, _ *quadtree.Tree) {
	if n.destroyed {
		return
	}
	d := n.Displacement(e.Position)
	if n.position {
		e.Position.Accumulate(d)
		return
	}
	e.Acceleration.Accumulate(d)
}
