package mutators

import (
	"math"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/quadtree"
)

type GravityOptions struct {
	Gravity       float64 `yaml:"gravity"`
	DistanceRange Range   `yaml:"distance_range"`
	// Radius is the half-extent of the neighbour window. Zero means
	// sqrt(distance_range max).
	Radius float64 `yaml:"radius"`
}

func DefaultGravityOptions() GravityOptions {
	return GravityOptions{
		Gravity:       0.1,
		DistanceRange: Range{1, 100},
	}
}

// Gravity pulls each entity toward its neighbours inside a square window.
type Gravity struct {
	lifecycle
	law    Law
	radius float64
}

func NewGravity(opts GravityOptions) (*Gravity, error) {
	law := Law{Gravity: opts.Gravity, DistanceRange: opts.DistanceRange}
	if err := law.validate(); err != nil {
		return nil, err
	}
	if err := nonNegative("radius", opts.Radius); err != nil {
		return nil, err
	}
	radius := opts.Radius
	if radius == 0 {
		radius = math.Sqrt(law.DistanceRange.Max())
	}
	return &Gravity{law: law, radius: radius}, nil
}

func (g *Gravity) Kind() Kind { return KindGravity }

func (g *Gravity) Radius() float64 { return g.radius }

func (g *Gravity) ApplyEntity(e *body.Entity, idx *quadtree.Tree) {
	if g.destroyed {
		return
	}
	for _, it := range idx.Query(quadtree.Around(e.Position, g.radius)) {
		if it.Entity == e {
			continue
		}
		g.law.Attract(it.Position, it.Mass, e)
	}
}
