// Package mutators implements the force and state rules applied to entities
// each simulation step.
//
// Two contracts exist. A [ClusterMutator] runs once per step against the whole
// freshly built index and decides itself which entities to touch. An
// [EntityMutator] runs once per entity per step and may query the index for
// neighbours. Mutators only add to an entity's acceleration or rewrite that
// entity's own position, velocity or opacity; neighbour reads go through the
// index's frozen copies.
package mutators

import (
	"fmt"
	"math"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/quadtree"
	"github.com/san-kum/partsim/internal/vec"
)

type Kind string

const (
	KindGravity            Kind = "gravity"
	KindFixedBodyAttractor Kind = "fixed_body_attractor"
	KindEdgeWrap           Kind = "edge_wrap"
	KindVelocityAlpha      Kind = "velocity_alpha"
	KindNoiseDrift         Kind = "noise_drift"
	KindPointerPusher      Kind = "pointer_pusher"
)

type Mutator interface {
	Kind() Kind
	// Debug reports visual inspection data. It must not change any state.
	Debug(sink DebugSink)
	// Destroy releases held resources. Calling it more than once is safe.
	Destroy()
}

type ClusterMutator interface {
	Mutator
	ApplyCluster(idx *quadtree.Tree)
}

type EntityMutator interface {
	Mutator
	ApplyEntity(e *body.Entity, idx *quadtree.Tree)
}

// StepAware mutators are told the step number before any mutator runs.
type StepAware interface {
	BeginStep(step int)
}

// DebugSink receives debug markers in world coordinates.
type DebugSink interface {
	Circle(center vec.Vec2, radius float64, label string)
	Rect(b quadtree.Box)
}

// Env is the world a mutator is built for.
type Env struct {
	World quadtree.Box
	Seed  uint64
}

// OptionError reports an invalid mutator option.
type OptionError struct {
	Option string
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("option %s: %s", e.Option, e.Reason)
}

// lifecycle carries the destroyed flag and no-op Debug shared by mutators.
type lifecycle struct {
	destroyed bool
}

func (l *lifecycle) Destroy()            { l.destroyed = true }
func (l *lifecycle) Destroyed() bool     { return l.destroyed }
func (l *lifecycle) Debug(sink DebugSink) {}

// Range is a closed [min, max] interval, written as a two-element list.
type Range [2]float64

func (r Range) Min() float64 { return r[0] }
func (r Range) Max() float64 { return r[1] }

func (r Range) validate(name string, positiveMin bool) error {
	if !finite(r[0], r[1]) {
		return &OptionError{Option: name, Reason: fmt.Sprintf("must be finite, got %v", r)}
	}
	if !(r[0] <= r[1]) {
		return &OptionError{Option: name, Reason: fmt.Sprintf("min %g greater than max %g", r[0], r[1])}
	}
	if positiveMin && !(r[0] > 0) {
		return &OptionError{Option: name, Reason: fmt.Sprintf("min must be positive, got %g", r[0])}
	}
	return nil
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return &OptionError{Option: name, Reason: fmt.Sprintf("must be positive and finite, got %g", v)}
	}
	return nil
}

func nonNegative(name string, v float64) error {
	if !(v >= 0) || math.IsInf(v, 0) {
		return &OptionError{Option: name, Reason: fmt.Sprintf("must be non-negative and finite, got %g", v)}
	}
	return nil
}
