package mutators

import (
	"fmt"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/quadtree"
	"github.com/san-kum/partsim/internal/vec"
)

type VelocityAlphaOptions struct {
	Multiplier float64 `yaml:"multiplier"`
	Range      Range   `yaml:"range"`
}

func DefaultVelocityAlphaOptions() VelocityAlphaOptions {
	return VelocityAlphaOptions{
		Multiplier: 0.1,
		Range:      Range{0, 1},
	}
}

// VelocityAlpha sets opacity from speed alone: clamp(speed*multiplier, min, max).
type VelocityAlpha struct {
	lifecycle
	multiplier float64
	band       Range
}

func NewVelocityAlpha(opts VelocityAlphaOptions) (*VelocityAlpha, error) {
	if err := opts.Range.validate("range", false); err != nil {
		return nil, err
	}
	if !(opts.Range.Min() >= 0 && opts.Range.Max() <= 1) {
		return nil, &OptionError{Option: "range", Reason: fmt.Sprintf("must lie within [0, 1], got %v", opts.Range)}
	}
	if !finite(opts.Multiplier) {
		return nil, &OptionError{Option: "multiplier", Reason: fmt.Sprintf("must be finite, got %g", opts.Multiplier)}
	}
	return &VelocityAlpha{multiplier: opts.Multiplier, band: opts.Range}, nil
}

func (a *VelocityAlpha) Kind() Kind { return KindVelocityAlpha }

func (a *VelocityAlpha) Opacity(speed float64) float64 {
	return vec.Clamp(speed*a.multiplier, a.band.Min(), a.band.Max())
}

func (a *VelocityAlpha) ApplyEntity(e *body.Entity, _ *quadtree.Tree) {
	if a.destroyed {
		return
	}
	e.Opacity = a.Opacity(e.Speed())
}
