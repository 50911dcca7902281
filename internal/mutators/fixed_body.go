package mutators

import (
	"fmt"
	"math"

	"github.com/san-kum/partsim/internal/quadtree"
	"github.com/san-kum/partsim/internal/vec"
)

type FixedBodyOptions struct {
	// Position is in normalised world coordinates: [-1, 1] on each axis
	// spans the world's half extents.
	Position      [2]float64 `yaml:"position"`
	Mass          float64    `yaml:"mass"`
	Gravity       float64    `yaml:"gravity"`
	DistanceRange Range      `yaml:"distance_range"`
	// Radius bounds the influence window. Zero means the whole world.
	Radius float64 `yaml:"radius"`
}

func DefaultFixedBodyOptions() FixedBodyOptions {
	return FixedBodyOptions{
		Mass:          1,
		Gravity:       0.1,
		DistanceRange: Range{1, 100},
	}
}

// FixedBody is an invisible massive body that attracts every entity within
// its influence window.
type FixedBody struct {
	lifecycle
	law      Law
	position vec.Vec2
	mass     float64
	radius   float64
}

func NewFixedBody(opts FixedBodyOptions, env Env) (*FixedBody, error) {
	law := Law{Gravity: opts.Gravity, DistanceRange: opts.DistanceRange}
	if err := law.validate(); err != nil {
		return nil, err
	}
	if err := positive("mass", opts.Mass); err != nil {
		return nil, err
	}
	if err := nonNegative("radius", opts.Radius); err != nil {
		return nil, err
	}
	if !finite(opts.Position[0], opts.Position[1]) {
		return nil, &OptionError{Option: "position", Reason: fmt.Sprintf("must be finite, got %v", opts.Position)}
	}
	pos := vec.Vec2{
		X: env.World.Center.X + opts.Position[0]*env.World.HalfWidth(),
		Y: env.World.Center.Y + opts.Position[1]*env.World.HalfHeight(),
	}
	return &FixedBody{law: law, position: pos, mass: opts.Mass, radius: opts.Radius}, nil
}

// NewFixedBodyAt places the body at an absolute world position.
func NewFixedBodyAt(pos vec.Vec2, mass float64, law Law) (*FixedBody, error) {
	if err := law.validate(); err != nil {
		return nil, err
	}
	if err := positive("mass", mass); err != nil {
		return nil, err
	}
	return &FixedBody{law: law, position: pos, mass: mass}, nil
}

func (f *FixedBody) Kind() Kind { return KindFixedBodyAttractor }

func (f *FixedBody) Position() vec.Vec2 { return f.position }

func (f *FixedBody) window(idx *quadtree.Tree) quadtree.Box {
	if f.radius == 0 {
		return idx.Boundary()
	}
	return quadtree.Around(f.position, f.radius)
}

func (f *FixedBody) ApplyCluster(idx *quadtree.Tree) {
	if f.destroyed {
		return
	}
	for _, it := range idx.Query(f.window(idx)) {
		it.Entity.ApplyForce(f.law.Force(f.position, f.mass, it.Position, it.Mass))
	}
}

func (f *FixedBody) Debug(sink DebugSink) {
	sink.Circle(f.position, math.Sqrt(f.mass), string(KindFixedBodyAttractor))
	if f.radius > 0 {
		sink.Rect(quadtree.Around(f.position, f.radius))
	}
}
