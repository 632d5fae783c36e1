// Package sequence implements the timed overlays that temporarily own the
// scene: the photo slideshow and the fireworks phrase cycle.
package sequence

import (
	"math"
	"math/rand/v2"
	"time"
)

// PhotoConfig holds the slideshow timeline constants. Z grows toward the
// viewer; the camera sits past ExitZ.
type PhotoConfig struct {
	HeroDuration time.Duration
	StayDuration time.Duration
	HeroStartZ   float64
	HeroRestZ    float64

	SpawnInterval time.Duration
	MaxActive     int

	StartZ         float64
	FadeInDistance float64
	NearZ          float64
	ExitZ          float64
	// MinSpeed and MaxSpeed are in world units per second.
	MinSpeed float64
	MaxSpeed float64
	// Spread bounds the random x/y offset of each memory photo.
	Spread float64
}

// DefaultPhotoConfig returns the slideshow timeline used by the visualizer.
func DefaultPhotoConfig() PhotoConfig {
	return PhotoConfig{
		HeroDuration:   1500 * time.Millisecond,
		StayDuration:   2 * time.Second,
		HeroStartZ:     -800,
		HeroRestZ:      0,
		SpawnInterval:  400 * time.Millisecond,
		MaxActive:      8,
		StartZ:         -900,
		FadeInDistance: 250,
		NearZ:          120,
		ExitZ:          260,
		MinSpeed:       260,
		MaxSpeed:       420,
		Spread:         90,
	}
}

// PhotoPhase is the position in the slideshow timeline.
type PhotoPhase int

const (
	HeroFlyIn PhotoPhase = iota
	HeroStay
	Spawning
	PhotoDone
)

func (p PhotoPhase) String() string {
	switch p {
	case HeroFlyIn:
		return "fly-in"
	case HeroStay:
		return "stay"
	case Spawning:
		return "spawning"
	case PhotoDone:
		return "done"
	}
	return "invalid"
}

// Flyer is one photo on screen.
type Flyer struct {
	// Index is the memory photo index, or -1 for the hero.
	Index   int
	X, Y, Z float64
	Speed   float64
	Opacity float64
}

// Photo is the progress of one slideshow run.
type Photo struct {
	cfg   PhotoConfig
	rng   *rand.Rand
	count int

	start     time.Time
	last      time.Time
	nextSpawn time.Time
	phase     PhotoPhase

	hero    Flyer
	spawned int
	active  []Flyer
}

// NewPhoto starts a slideshow at now over count memory photos.
func NewPhoto(cfg PhotoConfig, count int, now time.Time, seed uint64) *Photo {
	if cfg.MaxActive <= 0 {
		cfg.MaxActive = 1
	}
	p := &Photo{
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		count:  max(count, 0),
		start:  now,
		last:   now,
		hero:   Flyer{Index: -1, Z: cfg.HeroStartZ},
		active: make([]Flyer, 0, cfg.MaxActive),
	}
	return p
}

// EaseOutCubic maps t in [0,1] onto a decelerating curve.
func EaseOutCubic(t float64) float64 {
	t = clamp01(t)
	u := 1 - t
	return 1 - u*u*u
}

// Update advances the timeline to now.
func (p *Photo) Update(now time.Time) {
	dt := now.Sub(p.last).Seconds()
	if dt < 0 {
		dt = 0
	}
	p.last = now
	elapsed := now.Sub(p.start)

	switch {
	case elapsed < p.cfg.HeroDuration:
		p.phase = HeroFlyIn
		t := EaseOutCubic(float64(elapsed) / float64(p.cfg.HeroDuration))
		p.hero.Z = p.cfg.HeroStartZ + (p.cfg.HeroRestZ-p.cfg.HeroStartZ)*t
		p.hero.Opacity = t
		return
	case elapsed < p.cfg.HeroDuration+p.cfg.StayDuration:
		p.phase = HeroStay
		p.hero.Z = p.cfg.HeroRestZ
		p.hero.Opacity = 1
		return
	}

	if p.phase < Spawning {
		p.phase = Spawning
		p.nextSpawn = p.start.Add(p.cfg.HeroDuration + p.cfg.StayDuration)
		p.hero.Opacity = 0
	}
	if p.phase == PhotoDone {
		return
	}

	p.fly(dt)
	for p.spawned < p.count && len(p.active) < p.cfg.MaxActive && !now.Before(p.nextSpawn) {
		p.spawn()
		p.nextSpawn = p.nextSpawn.Add(p.cfg.SpawnInterval)
	}

	if p.spawned == p.count && len(p.active) == 0 {
		p.phase = PhotoDone
	}
}

func (p *Photo) spawn() {
	f := Flyer{
		Index: p.spawned,
		X:     (p.rng.Float64()*2 - 1) * p.cfg.Spread,
		Y:     (p.rng.Float64()*2 - 1) * p.cfg.Spread,
		Z:     p.cfg.StartZ,
		Speed: p.cfg.MinSpeed + p.rng.Float64()*(p.cfg.MaxSpeed-p.cfg.MinSpeed),
	}
	f.Opacity = p.opacity(f.Z)
	p.active = append(p.active, f)
	p.spawned++
}

// fly moves every active photo and drops those past the exit plane.
func (p *Photo) fly(dt float64) {
	kept := p.active[:0]
	for _, f := range p.active {
		f.Z += f.Speed * dt
		if f.Z > p.cfg.ExitZ {
			continue
		}
		f.Opacity = p.opacity(f.Z)
		kept = append(kept, f)
	}
	p.active = kept
}

func (p *Photo) opacity(z float64) float64 {
	if z > p.cfg.NearZ {
		return clamp01((p.cfg.ExitZ - z) / (p.cfg.ExitZ - p.cfg.NearZ))
	}
	if p.cfg.FadeInDistance <= 0 {
		return 1
	}
	return clamp01((z - p.cfg.StartZ) / p.cfg.FadeInDistance)
}

// Phase returns the current timeline phase.
func (p *Photo) Phase() PhotoPhase { return p.phase }

// Hero returns the hero photo and whether it is visible.
func (p *Photo) Hero() (Flyer, bool) {
	return p.hero, p.phase == HeroFlyIn || p.phase == HeroStay
}

// Active returns the memory photos currently in flight. The slice is
// reused across updates.
func (p *Photo) Active() []Flyer { return p.active }

// Spawned returns how many memory photos have entered the pool.
func (p *Photo) Spawned() int { return p.spawned }

// Done reports whether every photo has spawned and left the screen.
func (p *Photo) Done() bool { return p.phase == PhotoDone }

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
