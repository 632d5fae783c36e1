package sequence

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// FireworksConfig holds the phrase cycle and burst constants.
type FireworksConfig struct {
	PhraseDuration time.Duration

	BurstsPerSecond float64
	SparksPerBurst  int
	Capacity        int
	SparkLife       time.Duration
	MinSpeed        float64
	MaxSpeed        float64
	Gravity         float64
	Drag            float64
	// AreaX and AreaY bound the burst centers in world units.
	AreaX float64
	AreaY float64
}

// DefaultFireworksConfig returns the constants used by the visualizer.
func DefaultFireworksConfig() FireworksConfig {
	return FireworksConfig{
		PhraseDuration:  2500 * time.Millisecond,
		BurstsPerSecond: 1.6,
		SparksPerBurst:  80,
		Capacity:        1200,
		SparkLife:       1400 * time.Millisecond,
		MinSpeed:        20,
		MaxSpeed:        60,
		Gravity:         30,
		Drag:            1.2,
		AreaX:           90,
		AreaY:           60,
	}
}

// DefaultPhrases is the built-in phrase list.
var DefaultPhrases = []string{"HAPPY", "BIRTHDAY", "I LOVE YOU"}

// Events reports what one Update did.
type Events struct {
	// Advanced is set when the phrase index moved, including past the end.
	Advanced bool
	Bursts   int
}

// Fireworks is the progress of one phrase cycle.
type Fireworks struct {
	cfg     FireworksConfig
	rng     *rand.Rand
	phrases []string

	index       int
	phraseStart time.Time
	last        time.Time

	pool *SparkPool
}

// NewFireworks starts the cycle at phrase 0.
func NewFireworks(cfg FireworksConfig, phrases []string, now time.Time, seed uint64) *Fireworks {
	return &Fireworks{
		cfg:         cfg,
		rng:         rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d)),
		phrases:     append([]string(nil), phrases...),
		phraseStart: now,
		last:        now,
		pool:        NewSparkPool(cfg.Capacity),
	}
}

// Update advances the phrase timer and the burst effect to now.
func (f *Fireworks) Update(now time.Time) Events {
	var ev Events
	dt := now.Sub(f.last).Seconds()
	if dt < 0 {
		dt = 0
	}
	f.last = now

	if f.cfg.PhraseDuration > 0 {
		for !f.Done() && now.Sub(f.phraseStart) >= f.cfg.PhraseDuration {
			f.index++
			f.phraseStart = f.phraseStart.Add(f.cfg.PhraseDuration)
			ev.Advanced = true
		}
	}

	f.pool.Update(dt, f.cfg.Gravity, f.cfg.Drag)
	if !f.Done() && f.rng.Float64() < f.cfg.BurstsPerSecond*dt {
		f.burst()
		ev.Bursts++
	}
	return ev
}

// burst spawns one radial burst at a random center. Sparks beyond the pool
// capacity are dropped.
func (f *Fireworks) burst() {
	center := mgl32.Vec3{
		float32((f.rng.Float64()*2 - 1) * f.cfg.AreaX),
		float32((f.rng.Float64()*2 - 1) * f.cfg.AreaY),
		0,
	}
	color := colorful.Hsv(f.rng.Float64()*360, 0.7, 1)
	life := float32(f.cfg.SparkLife.Seconds())

	for i := 0; i < f.cfg.SparksPerBurst; i++ {
		theta := f.rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*f.rng.Float64() - 1)
		speed := f.cfg.MinSpeed + f.rng.Float64()*(f.cfg.MaxSpeed-f.cfg.MinSpeed)
		dir := mgl32.Vec3{
			float32(math.Sin(phi) * math.Cos(theta)),
			float32(math.Sin(phi) * math.Sin(theta)),
			float32(math.Cos(phi)),
		}
		if !f.pool.Spawn(Spark{
			Pos:     center,
			Vel:     dir.Mul(float32(speed)),
			Life:    life,
			MaxLife: life,
			Color:   color,
		}) {
			return
		}
	}
}

// Phrase returns the phrase on screen and false once the list is exhausted.
func (f *Fireworks) Phrase() (string, bool) {
	if f.Done() {
		return "", false
	}
	return f.phrases[f.index], true
}

// Index returns the current phrase index.
func (f *Fireworks) Index() int { return f.index }

// Len returns the number of phrases.
func (f *Fireworks) Len() int { return len(f.phrases) }

// Done reports whether every phrase has been shown.
func (f *Fireworks) Done() bool { return f.index >= len(f.phrases) }

// Sparks returns the burst pool.
func (f *Fireworks) Sparks() *SparkPool { return f.pool }
