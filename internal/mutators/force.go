package mutators

import (
	"fmt"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/vec"
)

// Law is the clamped inverse-square attraction shared by the gravity-family
// mutators. DistanceRange bounds the squared distance; its lower bound keeps
// the force finite as two bodies coincide.
type Law struct {
	Gravity       float64
	DistanceRange Range
}

// DistanceSquared clamps a true squared distance into DistanceRange.
func (l Law) DistanceSquared(d2 float64) float64 {
	return vec.Clamp(d2, l.DistanceRange.Min(), l.DistanceRange.Max())
}

// Force returns the force exerted on a subject at dst with mass dstMass by a
// source at src with mass srcMass. It points from dst toward src for positive
// Gravity. Coincident positions give no direction and no force.
func (l Law) Force(src vec.Vec2, srcMass float64, dst vec.Vec2, dstMass float64) vec.Vec2 {
	f := src.Sub(dst)
	d2 := l.DistanceSquared(f.MagnitudeSquared())
	strength := l.Gravity * srcMass * dstMass / d2
	return f.SetMagnitude(strength)
}

// Attract adds the pull of the source to e's acceleration.
func (l Law) Attract(src vec.Vec2, srcMass float64, e *body.Entity) {
	e.ApplyForce(l.Force(src, srcMass, e.Position, e.Mass))
}

func (l Law) validate() error {
	if !finite(l.Gravity) {
		return &OptionError{Option: "gravity", Reason: fmt.Sprintf("must be finite, got %g", l.Gravity)}
	}
	return l.DistanceRange.validate("distance_range", true)
}
