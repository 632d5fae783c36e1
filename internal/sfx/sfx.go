// Package sfx plays the firework pops. Audio is optional: when the speaker
// cannot be opened the player stays silent.
package sfx

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

// SampleRate is the speaker rate.
const SampleRate = beep.SampleRate(44100)

// Pop shape.
const (
	PopDuration = 180 * time.Millisecond
	// MaxPops caps how many pops one burst report starts.
	MaxPops = 4
	// popStagger spaces the pops of one report.
	popStagger = 40 * time.Millisecond
)

// Player mixes short synthesized pops into the speaker.
type Player struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	rng    *rand.Rand
	volume float64
	ready  bool
}

// NewPlayer returns a silent player. Call Init to open the speaker.
func NewPlayer(seed uint64) *Player {
	return &Player{
		mixer:  &beep.Mixer{},
		rng:    rand.New(rand.NewPCG(seed, seed^0x5f3759df)),
		volume: -1.5,
	}
}

// Init opens the speaker.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ready {
		return nil
	}
	if err := speaker.Init(SampleRate, SampleRate.N(50*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.ready = true
	return nil
}

// Ready reports whether pops are audible.
func (p *Player) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// Pop starts up to MaxPops staggered pops for n bursts.
func (p *Player) Pop(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ready || n <= 0 {
		return
	}

	n = min(n, MaxPops)
	streams := make([]beep.Streamer, 0, n)
	for i := 0; i < n; i++ {
		freq := 180 + p.rng.Float64()*220
		s := beep.Seq(
			beep.Silence(SampleRate.N(time.Duration(i)*popStagger)),
			&effects.Volume{
				Streamer: NewPopStream(SampleRate, freq, PopDuration, p.rng.Uint64()),
				Base:     2,
				Volume:   p.volume,
			},
		)
		streams = append(streams, s)
	}

	speaker.Lock()
	p.mixer.Add(streams...)
	speaker.Unlock()
}

// Close silences the mixer.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ready {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	p.ready = false
}

// popStream is a noise burst over a falling sine with an exponential
// envelope.
type popStream struct {
	rate     beep.SampleRate
	freq     float64
	phase    float64
	position int
	total    int
	rng      *rand.Rand
}

// NewPopStream returns a mono pop duplicated on both channels.
func NewPopStream(rate beep.SampleRate, freq float64, d time.Duration, seed uint64) beep.Streamer {
	return &popStream{
		rate:  rate,
		freq:  freq,
		total: rate.N(d),
		rng:   rand.New(rand.NewPCG(seed, 1)),
	}
}

func (s *popStream) Stream(samples [][2]float64) (int, bool) {
	if s.position >= s.total {
		return 0, false
	}
	for i := range samples {
		if s.position >= s.total {
			return i, true
		}
		t := float64(s.position) / float64(s.total)
		env := math.Exp(-6 * t)
		noise := s.rng.Float64()*2 - 1
		tone := math.Sin(2 * math.Pi * s.phase)
		v := env * (0.6*noise*(1-t) + 0.4*tone)

		samples[i][0] = v
		samples[i][1] = v

		// Pitch falls to half over the pop.
		s.phase += s.freq * (1 - 0.5*t) / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.position++
	}
	return len(samples), true
}

func (s *popStream) Err() error { return nil }
