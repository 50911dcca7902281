// Package vec provides the 2-D vector type shared by every part of the engine.
//
// Vec2 is a gonum r2.Vec with the engine's error guards on top. Value methods
// ([Vec2.Add], [Vec2.Sub], [Vec2.Scale], ...) return new vectors. The pointer
// methods [Vec2.Accumulate], [Vec2.Damp] and [Vec2.Reset] update in place and
// are what the per-step hot loop uses.
package vec

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
)

type Vec2 r2.Vec

var Zero = Vec2{}

func New(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

// From converts a gonum vector.
func From(v r2.Vec) Vec2 { return Vec2(v) }

// R2 returns v as a gonum vector.
func (v Vec2) R2() r2.Vec { return r2.Vec(v) }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2(r2.Add(v.R2(), o.R2())) }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2(r2.Sub(v.R2(), o.R2())) }

func (v Vec2) Scale(s float64) Vec2 { return Vec2(r2.Scale(s, v.R2())) }

// Mul multiplies component-wise.
func (v Vec2) Mul(o Vec2) Vec2 { return Vec2{X: v.X * o.X, Y: v.Y * o.Y} }

// Div divides both components by s with IEEE-754 semantics: a zero divisor
// yields Inf or NaN components. Use SafeDiv where s is not known to be non-zero.
func (v Vec2) Div(s float64) Vec2 { return Vec2{X: v.X / s, Y: v.Y / s} }

func (v Vec2) SafeDiv(s float64) (Vec2, error) {
	if s == 0 {
		return Vec2{}, ErrDivideByZero
	}
	return v.Div(s), nil
}

func (v Vec2) Dot(o Vec2) float64 { return r2.Dot(v.R2(), o.R2()) }

func (v Vec2) MagnitudeSquared() float64 { return r2.Norm2(v.R2()) }

func (v Vec2) Magnitude() float64 { return r2.Norm(v.R2()) }

func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

func (v Vec2) Normalize() (Vec2, error) {
	if v.IsZero() {
		return Vec2{}, ErrZeroVector
	}
	return Vec2(r2.Unit(v.R2())), nil
}

// SetMagnitude returns v rescaled to length m. The zero vector has no
// direction and is returned unchanged.
func (v Vec2) SetMagnitude(m float64) Vec2 {
	l := v.Magnitude()
	if l == 0 {
		return v
	}
	return v.Scale(m / l)
}

// Rotate rotates v counter-clockwise about the origin by angle radians.
func (v Vec2) Rotate(angle float64) Vec2 {
	return Vec2(r2.Rotate(v.R2(), angle, r2.Vec{}))
}

func (v Vec2) Distance(o Vec2) float64 { return v.Sub(o).Magnitude() }

// Random returns a vector with both components uniform in [-1, 1).
// It is not a unit vector.
func Random(r *rand.Rand) Vec2 {
	return Vec2{X: r.Float64()*2 - 1, Y: r.Float64()*2 - 1}
}

// Accumulate adds o to v in place.
func (v *Vec2) Accumulate(o Vec2) {
	v.X += o.X
	v.Y += o.Y
}

// Damp multiplies v component-wise by f in place.
func (v *Vec2) Damp(f Vec2) {
	v.X *= f.X
	v.Y *= f.Y
}

func (v *Vec2) Reset() {
	v.X = 0
	v.Y = 0
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// MapRange linearly maps x from [inLo, inHi] onto [outLo, outHi].
func MapRange(x, inLo, inHi, outLo, outHi float64) float64 {
	return (x-inLo)/(inHi-inLo)*(outHi-outLo) + outLo
}
