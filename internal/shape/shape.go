// Package shape generates target point sets for the particle cloud.
//
// Every generator returns exactly the requested number of points packed as
// x,y,z triples. Randomness comes from the Generator's own source; given the
// same seed and call order the output is reproducible.
package shape

import (
	"log"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// Kind identifies a shape generation rule.
type Kind int

const (
	Sphere Kind = iota
	Heart
	Text
	Starfield
	Planet
)

func (k Kind) String() string {
	switch k {
	case Sphere:
		return "sphere"
	case Heart:
		return "heart"
	case Text:
		return "text"
	case Starfield:
		return "starfield"
	case Planet:
		return "planet"
	}
	return "invalid"
}

// Params carries the per-kind generation parameters. Only the fields used by
// the requested kind are read.
type Params struct {
	Radius float64 // Sphere
	Scale  float64 // Heart, Text: world-space height
	Depth  float64 // Heart, Text: z jitter amplitude
	Extent float64 // Starfield: half side of the box
	Text   string  // Text
	Planet PlanetParams
}

// PlanetParams describes the planet+ring+stars composite.
type PlanetParams struct {
	BodyRadius float64
	RingInner  float64
	RingOuter  float64
	RingTilt   float64 // radians, about the X axis
	StarRadius float64
	BodyColor  colorful.Color
	RingColor  colorful.Color
	StarColor  colorful.Color
}

// Set is a target point population. Colors is nil unless the shape carries
// per-point colors, in which case it parallels Positions.
type Set struct {
	Positions []float32
	Colors    []float32
}

// Len returns the number of points in s.
func (s Set) Len() int { return len(s.Positions) / 3 }

// VertexColored reports whether s carries per-point colors.
func (s Set) VertexColored() bool { return s.Colors != nil }

// Point returns point i as a vector.
func (s Set) Point(i int) mgl32.Vec3 {
	return mgl32.Vec3{s.Positions[3*i], s.Positions[3*i+1], s.Positions[3*i+2]}
}

// Generator produces target sets. It is not safe for concurrent use.
type Generator struct {
	rng    *rand.Rand
	raster Rasterizer
	glyphs map[string][][2]int
}

// NewGenerator returns a Generator seeded with seed. raster may be nil, in
// which case text shapes collapse to the origin.
func NewGenerator(seed uint64, raster Rasterizer) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		raster: raster,
		glyphs: make(map[string][][2]int),
	}
}

// Generate builds count points of the given kind.
func (g *Generator) Generate(kind Kind, count int, p Params) Set {
	if count <= 0 {
		return Set{Positions: []float32{}}
	}
	out := Set{Positions: make([]float32, 0, 3*count)}

	switch kind {
	case Sphere:
		g.sphere(&out, count, p.Radius)
	case Heart:
		g.heart(&out, count, p.Scale, p.Depth)
	case Text:
		g.text(&out, count, p)
	case Starfield:
		g.box(&out, count, p.Extent)
	case Planet:
		g.planet(&out, count, p.Planet)
	default:
		log.Printf("shape: unknown kind %d, using origin", kind)
		out.Positions = out.Positions[:3*count]
	}
	return out
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func appendVec(dst []float32, v mgl32.Vec3) []float32 {
	return append(dst, v[0], v[1], v[2])
}

// direction draws a uniform unit vector: cosθ uniform in [-1,1] (inverse
// cosine latitude sampling) and φ uniform in [0,2π).
func (g *Generator) direction() mgl32.Vec3 {
	phi := g.uniform(0, 2*math.Pi)
	theta := math.Acos(g.uniform(-1, 1))
	st := math.Sin(theta)
	return mgl32.Vec3{
		float32(st * math.Cos(phi)),
		float32(st * math.Sin(phi)),
		float32(math.Cos(theta)),
	}
}

// sphere samples uniformly in volume: the cube root of a uniform variate
// keeps density constant from center to surface.
func (g *Generator) sphere(out *Set, count int, radius float64) {
	for i := 0; i < count; i++ {
		r := radius * math.Cbrt(g.rng.Float64())
		out.Positions = appendVec(out.Positions, g.direction().Mul(float32(r)))
	}
}

// heart fills the parametric heart curve; the sqrt radial factor samples the
// enclosed area uniformly instead of just the outline.
func (g *Generator) heart(out *Set, count int, scale, depth float64) {
	unit := scale / 16
	for i := 0; i < count; i++ {
		t := g.uniform(0, 2*math.Pi)
		s := math.Sin(t)
		x := 16 * s * s * s
		y := 13*math.Cos(t) - 5*math.Cos(2*t) - 2*math.Cos(3*t) - math.Cos(4*t)
		k := unit * math.Sqrt(g.rng.Float64())
		out.Positions = appendVec(out.Positions, mgl32.Vec3{
			float32(x * k),
			float32(y * k),
			float32(g.uniform(-depth, depth)),
		})
	}
}

func (g *Generator) box(out *Set, count int, extent float64) {
	for i := 0; i < count; i++ {
		out.Positions = appendVec(out.Positions, mgl32.Vec3{
			float32(g.uniform(-extent, extent)),
			float32(g.uniform(-extent, extent)),
			float32(g.uniform(-extent, extent)),
		})
	}
}

// Planet population split: body, ring, then stars take the remainder.
const (
	planetBodyShare = 40
	planetRingShare = 30
)

func (g *Generator) planet(out *Set, count int, p PlanetParams) {
	nBody := count * planetBodyShare / 100
	nRing := count * planetRingShare / 100
	nStars := count - nBody - nRing

	out.Colors = make([]float32, 0, 3*count)
	paint := func(c colorful.Color, n int) {
		for i := 0; i < n; i++ {
			out.Colors = append(out.Colors, float32(c.R), float32(c.G), float32(c.B))
		}
	}

	g.sphere(out, nBody, p.BodyRadius)
	paint(p.BodyColor, nBody)

	tilt := mgl32.Rotate3DX(float32(p.RingTilt))
	for i := 0; i < nRing; i++ {
		a := g.uniform(0, 2*math.Pi)
		r := g.uniform(p.RingInner, p.RingOuter)
		v := mgl32.Vec3{float32(r * math.Cos(a)), 0, float32(r * math.Sin(a))}
		out.Positions = appendVec(out.Positions, tilt.Mul3x1(v))
	}
	paint(p.RingColor, nRing)

	g.sphere(out, nStars, p.StarRadius)
	paint(p.StarColor, nStars)
}
