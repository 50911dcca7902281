package body

import (
	"math"

	"github.com/san-kum/partsim/internal/vec"
)

// Drag is a per-axis damping factor in [0, 1). Each step the velocity
// component is multiplied by (1 - factor).
type Drag struct {
	X, Y float64
}

func UniformDrag(d float64) Drag { return Drag{X: d, Y: d} }

func (d Drag) retain() vec.Vec2 { return vec.Vec2{X: 1 - d.X, Y: 1 - d.Y} }

// Entity is a simulated point mass. Acceleration is a per-step accumulator:
// mutators add to it and Integrate clears it.
type Entity struct {
	Position     vec.Vec2
	Velocity     vec.Vec2
	Acceleration vec.Vec2
	Mass         float64
	Drag         Drag

	// Tag and Opacity are visual attributes; the engine never interprets Tag.
	Tag         string
	Opacity     float64
	BaseOpacity float64
}

// Radius is the drawn radius, sqrt(mass).
func (e *Entity) Radius() float64 { return math.Sqrt(e.Mass) }

// Integrate advances the entity by one step:
// v += a, v *= (1 - drag), p += v, a = 0.
func (e *Entity) Integrate() {
	e.Velocity.Accumulate(e.Acceleration)
	e.Velocity.Damp(e.Drag.retain())
	e.Position.Accumulate(e.Velocity)
	e.Acceleration.Reset()
}

// ApplyForce adds f/mass to the acceleration accumulator.
func (e *Entity) ApplyForce(f vec.Vec2) {
	e.Acceleration.Accumulate(f.Div(e.Mass))
}

func (e *Entity) Speed() float64 { return e.Velocity.Magnitude() }

func (e *Entity) KineticEnergy() float64 {
	return 0.5 * e.Mass * e.Velocity.MagnitudeSquared()
}

// IsValid reports whether every kinematic quantity is finite.
func (e *Entity) IsValid() bool {
	return e.Position.IsFinite() && e.Velocity.IsFinite() && e.Acceleration.IsFinite()
}

// Particle is the read-only render view of an entity.
type Particle struct {
	Position vec.Vec2 `json:"position" msgpack:"p"`
	Radius   float64  `json:"radius" msgpack:"r"`
	Opacity  float64  `json:"opacity" msgpack:"o"`
	Tag      string   `json:"tag" msgpack:"t"`
}

func (e *Entity) Particle() Particle {
	return Particle{
		Position: e.Position,
		Radius:   e.Radius(),
		Opacity:  e.Opacity,
		Tag:      e.Tag,
	}
}
