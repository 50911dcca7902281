package mutators

import (
	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/quadtree"
)

type EdgeWrapOptions struct {
	Active bool `yaml:"active"`
}

func DefaultEdgeWrapOptions() EdgeWrapOptions {
	return EdgeWrapOptions{Active: true}
}

// EdgeWrap teleports an entity that has fully left one side of the world to
// the opposite edge.
type EdgeWrap struct {
	lifecycle
	active bool
	world  quadtree.Box
}

func NewEdgeWrap(opts EdgeWrapOptions, env Env) *EdgeWrap {
	return &EdgeWrap{active: opts.Active, world: env.World}
}

func (w *EdgeWrap) Kind() Kind { return KindEdgeWrap }

func (w *EdgeWrap) ApplyEntity(e *body.Entity, _ *quadtree.Tree) {
	if !w.active || w.destroyed {
		return
	}
	r := e.Radius()
	lo, hi := w.world.Min(), w.world.Max()

	switch {
	case e.Position.X-r > hi.X:
		e.Position.X = lo.X
	case e.Position.X+r < lo.X:
		e.Position.X = hi.X
	}
	switch {
	case e.Position.Y-r > hi.Y:
		e.Position.Y = lo.Y
	case e.Position.Y+r < lo.Y:
		e.Position.Y = hi.Y
	}
}
