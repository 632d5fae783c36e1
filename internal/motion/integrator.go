// Package motion moves the live particle buffer toward its target set.
package motion

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/mudra/internal/shape"
)

// Config holds the integrator constants.
type Config struct {
	// Alpha is the fraction of the remaining distance covered per tick.
	Alpha float64
	// ColorFactor is the per-tick color blend fraction.
	ColorFactor float64
	// RotationSpeed is the Y rotation added per tick, in radians.
	RotationSpeed float64
	// InitialSpread is the side of the cube the particles start in.
	InitialSpread float64
	// Drift adds uniform noise of this amplitude each tick. Zero disables it.
	Drift float64

	Explosion ExplosionConfig
}

// ExplosionConfig describes the radial burst overlay.
type ExplosionConfig struct {
	MinSpeed float64
	MaxSpeed float64
	// Damping multiplies every velocity once per tick.
	Damping  float64
	Duration time.Duration
}

// DefaultConfig returns the constants used by the visualizer.
func DefaultConfig() Config {
	return Config{
		Alpha:         0.06,
		ColorFactor:   0.05,
		RotationSpeed: 0.002,
		InitialSpread: 50,
		Explosion: ExplosionConfig{
			MinSpeed: 1.5,
			MaxSpeed: 4,
			Damping:  0.94,
			Duration: 1200 * time.Millisecond,
		},
	}
}

// Integrator owns the live particle buffer. It is not safe for concurrent
// use; the render tick is its only writer.
type Integrator struct {
	cfg Config
	rng *rand.Rand

	positions []float32
	colors    []float32
	target    shape.Set
	scale     float32

	color       colorful.Color
	targetColor colorful.Color
	vertex      bool

	rotation float64
	rotating bool

	velocities   []float32
	explodeUntil time.Time
}

// New creates an integrator for n particles scattered in a cube of side
// cfg.InitialSpread, initially holding their own positions as target.
func New(n int, cfg Config, seed uint64) *Integrator {
	in := &Integrator{
		cfg:         cfg,
		rng:         rand.New(rand.NewPCG(seed, seed+1)),
		positions:   make([]float32, 3*n),
		colors:      make([]float32, 3*n),
		velocities:  make([]float32, 3*n),
		scale:       1,
		color:       colorful.Color{R: 1, G: 1, B: 1},
		targetColor: colorful.Color{R: 1, G: 1, B: 1},
		rotating:    true,
	}
	for i := range in.positions {
		in.positions[i] = float32((in.rng.Float64() - 0.5) * cfg.InitialSpread)
	}
	in.target = shape.Set{Positions: append([]float32(nil), in.positions...)}
	return in
}

// Len returns the particle count.
func (in *Integrator) Len() int { return len(in.positions) / 3 }

// SetTarget replaces the target set. Sets shorter than the particle count
// are reused by index modulo their length. A set with per-point colors
// switches the integrator to vertex coloring.
func (in *Integrator) SetTarget(set shape.Set) {
	in.target = set
	if set.VertexColored() && !in.vertex {
		// Start the per-particle blend from the current single color.
		for i := 0; i < len(in.colors); i += 3 {
			in.colors[i] = float32(in.color.R)
			in.colors[i+1] = float32(in.color.G)
			in.colors[i+2] = float32(in.color.B)
		}
	}
	in.vertex = set.VertexColored()
}

// SetColor sets the single target color.
func (in *Integrator) SetColor(c colorful.Color) { in.targetColor = c }

// DisableVertexColors falls back to the single color until the next
// vertex-colored target.
func (in *Integrator) DisableVertexColors() { in.vertex = false }

// SetTargetScale scales the target set uniformly about the origin.
func (in *Integrator) SetTargetScale(s float64) { in.scale = float32(s) }

// SetRotating enables or disables the slow Y rotation. Disabling it
// resets the angle so upright shapes face the viewer.
func (in *Integrator) SetRotating(on bool) {
	in.rotating = on
	if !on {
		in.rotation = 0
	}
}

// Explode starts the radial burst overlay at now. Each particle gets a
// velocity along its normalized position with a random magnitude.
func (in *Integrator) Explode(now time.Time) {
	ex := in.cfg.Explosion
	for i := 0; i < len(in.positions); i += 3 {
		dir := mgl32.Vec3{in.positions[i], in.positions[i+1], in.positions[i+2]}
		if dir.Len() < 1e-6 {
			dir = mgl32.Vec3{float32(in.rng.Float64() - 0.5), float32(in.rng.Float64() - 0.5), float32(in.rng.Float64() - 0.5)}
		}
		speed := ex.MinSpeed + in.rng.Float64()*(ex.MaxSpeed-ex.MinSpeed)
		v := dir.Normalize().Mul(float32(speed))
		in.velocities[i], in.velocities[i+1], in.velocities[i+2] = v[0], v[1], v[2]
	}
	in.explodeUntil = now.Add(ex.Duration)
}

// Exploding reports whether the burst overlay is active at now.
func (in *Integrator) Exploding(now time.Time) bool {
	return now.Before(in.explodeUntil)
}

// Step advances one tick.
func (in *Integrator) Step(now time.Time) {
	if in.Exploding(now) {
		in.ballistic()
	} else {
		in.approach()
	}

	in.color = in.color.BlendRgb(in.targetColor, in.cfg.ColorFactor)
	if in.vertex {
		in.blendVertexColors()
	}

	if in.rotating {
		in.rotation = math.Mod(in.rotation+in.cfg.RotationSpeed, 2*math.Pi)
	}
}

func (in *Integrator) ballistic() {
	damping := float32(in.cfg.Explosion.Damping)
	for i := range in.positions {
		in.positions[i] += in.velocities[i]
		in.velocities[i] *= damping
	}
}

// approach moves every particle a fixed fraction of the way to its target:
// the distance shrinks by (1-alpha) per tick and never overshoots.
func (in *Integrator) approach() {
	m := in.target.Len()
	if m == 0 {
		return
	}
	alpha := float32(in.cfg.Alpha)
	drift := in.cfg.Drift
	tp := in.target.Positions

	for i, n := 0, in.Len(); i < n; i++ {
		j := 3 * (i % m)
		for k := 0; k < 3; k++ {
			p := &in.positions[3*i+k]
			*p += (tp[j+k]*in.scale - *p) * alpha
			if drift > 0 {
				*p += float32((in.rng.Float64() - 0.5) * drift)
			}
		}
	}
}

func (in *Integrator) blendVertexColors() {
	m := in.target.Len()
	if m == 0 {
		return
	}
	f := float32(in.cfg.ColorFactor)
	tc := in.target.Colors
	for i, n := 0, in.Len(); i < n; i++ {
		j := 3 * (i % m)
		for k := 0; k < 3; k++ {
			c := &in.colors[3*i+k]
			*c += (tc[j+k] - *c) * f
		}
	}
}

// Positions returns the live buffer (N×3). Callers must not retain it
// across ticks.
func (in *Integrator) Positions() []float32 { return in.positions }

// Colors returns the live per-particle colors, or nil when a single color
// applies.
func (in *Integrator) Colors() []float32 {
	if !in.vertex {
		return nil
	}
	return in.colors
}

// Color returns the current single color.
func (in *Integrator) Color() colorful.Color { return in.color }

// TargetColor returns the color being blended toward.
func (in *Integrator) TargetColor() colorful.Color { return in.targetColor }

// VertexColored reports whether per-particle colors are active.
func (in *Integrator) VertexColored() bool { return in.vertex }

// Rotation returns the current Y rotation in radians.
func (in *Integrator) Rotation() float64 { return in.rotation }

// Rotating reports whether the slow rotation is enabled.
func (in *Integrator) Rotating() bool { return in.rotating }

// TicksToConverge returns the number of ticks after which a particle at
// distance d from a fixed target is closer than eps, for 0 < alpha < 1.
func TicksToConverge(d, eps, alpha float64) int {
	if d < eps {
		return 0
	}
	return int(math.Ceil(math.Log(eps/d) / math.Log(1-alpha)))
}
