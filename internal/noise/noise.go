// Package noise provides seeded, deterministic smooth noise fields.
//
// [Value] is a lattice value-noise generator: a linear congruential generator
// fills a 4096-entry table once at construction, and sampling sums four
// octaves of cosine-eased interpolated lookups. [Gradient] wraps classic
// gradient Perlin noise from github.com/aquilax/go-perlin behind the same
// [Field] interface.
//
// Both are immutable after construction and safe for concurrent sampling.
package noise

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// Field is a smooth scalar field with outputs in [0, 1).
type Field interface {
	Sample2(x, y float64) float64
	Sample3(x, y, z float64) float64
}

const (
	yWrapBits = 4
	yWrap     = 1 << yWrapBits
	zWrapBits = 8
	zWrap     = 1 << zWrapBits
	tableMask = 4095

	octaves       = 4
	ampFalloff    = 0.5
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
)

// LCG is the Numerical Recipes linear congruential generator, modulus 2^32.
type LCG struct {
	z uint32
}

func NewLCG(seed uint32) *LCG { return &LCG{z: seed} }

// Float64 returns the next value in [0, 1).
func (g *LCG) Float64() float64 {
	g.z = lcgMultiplier*g.z + lcgIncrement
	return float64(g.z) / (1 << 32)
}

type Value struct {
	seed  uint32
	table [tableMask + 1]float64
}

func New(seed uint32) *Value {
	v := &Value{seed: seed}
	lcg := NewLCG(seed)
	for i := range v.table {
		v.table[i] = lcg.Float64()
	}
	return v
}

func (v *Value) Seed() uint32 { return v.seed }

func (v *Value) Sample2(x, y float64) float64 { return v.Sample3(x, y, 0) }

func (v *Value) Sample3(x, y, z float64) float64 {
	x, y, z = math.Abs(x), math.Abs(y), math.Abs(z)

	xi, yi, zi := int(math.Floor(x)), int(math.Floor(y)), int(math.Floor(z))
	xf, yf, zf := x-float64(xi), y-float64(yi), z-float64(zi)

	r := 0.0
	ampl := 0.5

	for o := 0; o < octaves; o++ {
		of := xi + (yi << yWrapBits) + (zi << zWrapBits)

		rxf := ease(xf)
		ryf := ease(yf)

		n1 := v.at(of)
		n1 += rxf * (v.at(of+1) - n1)
		n2 := v.at(of + yWrap)
		n2 += rxf * (v.at(of+yWrap+1) - n2)
		n1 += ryf * (n2 - n1)

		of += zWrap
		n2 = v.at(of)
		n2 += rxf * (v.at(of+1) - n2)
		n3 := v.at(of + yWrap)
		n3 += rxf * (v.at(of+yWrap+1) - n3)
		n2 += ryf * (n3 - n2)

		n1 += ease(zf) * (n2 - n1)

		r += n1 * ampl
		ampl *= ampFalloff

		xi <<= 1
		xf *= 2
		yi <<= 1
		yf *= 2
		zi <<= 1
		zf *= 2

		if xf >= 1 {
			xi++
			xf--
		}
		if yf >= 1 {
			yi++
			yf--
		}
		if zf >= 1 {
			zi++
			zf--
		}
	}
	return r
}

func (v *Value) at(i int) float64 { return v.table[i&tableMask] }

// ease is the scaled cosine used between lattice points.
func ease(t float64) float64 { return 0.5 * (1 - math.Cos(t*math.Pi)) }

// Gradient is Perlin gradient noise remapped from [-1, 1] into [0, 1).
type Gradient struct {
	p *perlin.Perlin
}

const (
	gradientAlpha = 2
	gradientBeta  = 2
	gradientN     = 3
)

func NewGradient(seed uint32) *Gradient {
	return &Gradient{p: perlin.NewPerlin(gradientAlpha, gradientBeta, gradientN, int64(seed))}
}

func (g *Gradient) Sample2(x, y float64) float64 { return remap(g.p.Noise2D(x, y)) }

func (g *Gradient) Sample3(x, y, z float64) float64 { return remap(g.p.Noise3D(x, y, z)) }

func remap(n float64) float64 {
	r := (n + 1) / 2
	if r < 0 {
		return 0
	}
	if r >= 1 {
		return math.Nextafter(1, 0)
	}
	return r
}

// Backend names accepted by ByName.
const (
	BackendValue    = "value"
	BackendGradient = "perlin"
)

// ByName builds the named field; an empty name selects the value backend.
func ByName(name string, seed uint32) (Field, bool) {
	switch name {
	case "", BackendValue:
		return New(seed), true
	case BackendGradient:
		return NewGradient(seed), true
	default:
		return nil, false
	}
}
