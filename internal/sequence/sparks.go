package sequence

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// Spark is one burst particle.
type Spark struct {
	Pos     mgl32.Vec3
	Vel     mgl32.Vec3
	Life    float32
	MaxLife float32
	Color   colorful.Color
}

// Alpha is the linear life fade in [0,1].
func (s Spark) Alpha() float32 {
	if s.MaxLife <= 0 {
		return 0
	}
	return s.Life / s.MaxLife
}

// SparkPool is a fixed-capacity spark store. Expired slots go on a free
// list and are reused; Spawn never allocates.
type SparkPool struct {
	sparks []Spark
	alive  []bool
	free   []int
}

// NewSparkPool allocates a pool of the given capacity.
func NewSparkPool(capacity int) *SparkPool {
	capacity = max(capacity, 0)
	p := &SparkPool{
		sparks: make([]Spark, capacity),
		alive:  make([]bool, capacity),
		free:   make([]int, capacity),
	}
	for i := range p.free {
		p.free[i] = capacity - 1 - i
	}
	return p
}

// Spawn stores s in a free slot. It returns false when the pool is full.
func (p *SparkPool) Spawn(s Spark) bool {
	n := len(p.free)
	if n == 0 {
		return false
	}
	i := p.free[n-1]
	p.free = p.free[:n-1]
	p.sparks[i] = s
	p.alive[i] = true
	return true
}

// Update integrates every live spark over dt seconds. Drag is an
// exponential velocity decay per second.
func (p *SparkPool) Update(dt, gravity, drag float64) {
	decay := float32(math.Exp(-drag * dt))
	fdt := float32(dt)
	for i := range p.sparks {
		if !p.alive[i] {
			continue
		}
		s := &p.sparks[i]
		s.Life -= fdt
		if s.Life <= 0 {
			p.alive[i] = false
			p.free = append(p.free, i)
			continue
		}
		s.Vel[1] -= float32(gravity) * fdt
		s.Vel = s.Vel.Mul(decay)
		s.Pos = s.Pos.Add(s.Vel.Mul(fdt))
	}
}

// Each calls fn for every live spark.
func (p *SparkPool) Each(fn func(Spark)) {
	for i, ok := range p.alive {
		if ok {
			fn(p.sparks[i])
		}
	}
}

// Live returns the number of live sparks.
func (p *SparkPool) Live() int { return len(p.sparks) - len(p.free) }

// Cap returns the pool capacity.
func (p *SparkPool) Cap() int { return len(p.sparks) }

// Reset expires every spark.
func (p *SparkPool) Reset() {
	p.free = p.free[:0]
	for i := len(p.sparks) - 1; i >= 0; i-- {
		p.alive[i] = false
		p.free = append(p.free, i)
	}
}
