package quadtree

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/vec"
)

// Box is an axis-aligned rectangle given by its center and full extents.
type Box struct {
	Center vec.Vec2
	Width  float64
	Height float64
}

func NewBox(center vec.Vec2, width, height float64) Box {
	return Box{Center: center, Width: width, Height: height}
}

// Around returns the square window of half-extent r centered on p.
func Around(p vec.Vec2, r float64) Box {
	return Box{Center: p, Width: 2 * r, Height: 2 * r}
}

// FromBounds converts corner bounds back to a center and extents.
func FromBounds(bb r2.Box) Box {
	return Box{
		Center: vec.From(mid(bb)),
		Width:  bb.Max.X - bb.Min.X,
		Height: bb.Max.Y - bb.Min.Y,
	}
}

func (b Box) HalfWidth() float64  { return b.Width / 2 }
func (b Box) HalfHeight() float64 { return b.Height / 2 }

func (b Box) Min() vec.Vec2 {
	return vec.Vec2{X: b.Center.X - b.HalfWidth(), Y: b.Center.Y - b.HalfHeight()}
}

func (b Box) Max() vec.Vec2 {
	return vec.Vec2{X: b.Center.X + b.HalfWidth(), Y: b.Center.Y + b.HalfHeight()}
}

// Bounds returns b as min and max corners.
func (b Box) Bounds() r2.Box {
	return r2.Box{Min: b.Min().R2(), Max: b.Max().R2()}
}

// Contains reports whether p lies inside b; edges are inclusive.
func (b Box) Contains(p vec.Vec2) bool {
	return b.Bounds().Contains(p.R2())
}

// Intersects reports whether b and o overlap; touching edges count.
func (b Box) Intersects(o Box) bool {
	return overlaps(b.Bounds(), o.Bounds())
}

func overlaps(a, b r2.Box) bool {
	return !(b.Min.X > a.Max.X || b.Max.X < a.Min.X || b.Min.Y > a.Max.Y || b.Max.Y < a.Min.Y)
}

func mid(bb r2.Box) r2.Vec {
	return r2.Scale(0.5, r2.Add(bb.Min, bb.Max))
}

// quadrants splits bb at c into NW, NE, SW, SE, with north being negative Y
// as on a screen. Siblings share their edges exactly.
func quadrants(bb r2.Box, c r2.Vec) [4]r2.Box {
	return [4]r2.Box{
		{Min: bb.Min, Max: c},
		{Min: r2.Vec{X: c.X, Y: bb.Min.Y}, Max: r2.Vec{X: bb.Max.X, Y: c.Y}},
		{Min: r2.Vec{X: bb.Min.X, Y: c.Y}, Max: r2.Vec{X: c.X, Y: bb.Max.Y}},
		{Min: c, Max: bb.Max},
	}
}

// quadrant returns the index into quadrants of the child holding p. Points on
// a split line go to the west or north side, whose max edge is c itself.
func quadrant(p, c r2.Vec) int {
	i := 0
	if p.X > c.X {
		i |= 1
	}
	if p.Y > c.Y {
		i |= 2
	}
	return i
}
