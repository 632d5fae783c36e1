package scene

import (
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/motion"
	"github.com/ayusman/mudra/internal/sequence"
	"github.com/ayusman/mudra/internal/shape"
)

// Hold thresholds in consecutive FIST frames.
const (
	DefaultShortHold = 5
	DefaultLongHold  = 40
)

// Generator produces target point sets.
type Generator interface {
	Generate(kind shape.Kind, count int, p shape.Params) shape.Set
}

// ShapeConfig holds the fixed per-state shape parameters.
type ShapeConfig struct {
	SphereRadius float64
	HeartScale   float64
	HeartDepth   float64
	DigitScale   float64
	TextScale    float64
	StarExtent   float64
	Planet       shape.PlanetParams
}

// Config holds the machine settings.
type Config struct {
	Particles int
	// Idle is the resting state entered by short FIST holds: Planet or Sphere.
	Idle      State
	ShortHold int
	LongHold  int
	PointSize float64
	Opacity   float64
	// SpreadMin and SpreadMax bound the pinch scale of the idle sphere.
	SpreadMin float64
	SpreadMax float64
	Seed      uint64

	Phrases   []string
	Shapes    ShapeConfig
	Motion    motion.Config
	Photo     sequence.PhotoConfig
	Fireworks sequence.FireworksConfig
}

// DefaultConfig returns the standard scene settings.
func DefaultConfig() Config {
	return Config{
		Particles: 20000,
		Idle:      Planet,
		ShortHold: DefaultShortHold,
		LongHold:  DefaultLongHold,
		PointSize: 1.5,
		Opacity:   0.8,
		SpreadMin: 0.2,
		SpreadMax: 3,
		Seed:      1,
		Phrases:   sequence.DefaultPhrases,
		Shapes: ShapeConfig{
			SphereRadius: 50,
			HeartScale:   60,
			HeartDepth:   8,
			DigitScale:   70,
			TextScale:    45,
			StarExtent:   200,
			Planet: shape.PlanetParams{
				BodyRadius: 22,
				RingInner:  32,
				RingOuter:  48,
				RingTilt:   0.45,
				StarRadius: 220,
				BodyColor:  mustHex("#ff8c1a"),
				RingColor:  mustHex("#9fd3ff"),
				StarColor:  mustHex("#ffffff"),
			},
		},
		Motion:    motion.DefaultConfig(),
		Photo:     sequence.DefaultPhotoConfig(),
		Fireworks: sequence.DefaultFireworksConfig(),
	}
}

// Trigger names what caused a transition.
type Trigger string

const (
	TriggerGesture Trigger = "gesture"
	TriggerManual  Trigger = "manual"
	TriggerTimer   Trigger = "timer"
)

// Transition records one state change.
type Transition struct {
	From    State
	To      State
	Trigger Trigger
	Label   gesture.Label
	At      time.Time
}

// Listener receives transitions after entry actions ran.
type Listener func(Transition)

// Machine is the visualization context. It owns the integrator and the
// active sequence. It is not safe for concurrent use: one goroutine (the
// render tick) calls every method.
type Machine struct {
	cfg    Config
	gen    Generator
	motion *motion.Integrator

	state    State
	hold     int
	label    gesture.Label
	gestures bool
	override *colorful.Color
	status   string

	photo      *sequence.Photo
	fireworks  *sequence.Fireworks
	photoCount func() int
	seq        uint64

	spring       harmonica.Spring
	spread       float64
	spreadVel    float64
	spreadTarget float64

	listeners []Listener
	bursts    []func(n int)
}

// New creates a machine resting in cfg.Idle.
func New(cfg Config, gen Generator) *Machine {
	if !cfg.Idle.Idle() {
		log.Printf("idle state %s is not a resting state, using planet", cfg.Idle)
		cfg.Idle = Planet
	}
	if cfg.ShortHold <= 0 {
		cfg.ShortHold = DefaultShortHold
	}
	if cfg.LongHold < cfg.ShortHold {
		cfg.LongHold = max(DefaultLongHold, cfg.ShortHold)
	}
	if len(cfg.Phrases) == 0 {
		cfg.Phrases = sequence.DefaultPhrases
	}

	m := &Machine{
		cfg:          cfg,
		gen:          gen,
		motion:       motion.New(cfg.Particles, cfg.Motion, cfg.Seed),
		gestures:     true,
		photoCount:   func() int { return 0 },
		seq:          cfg.Seed,
		spring:       harmonica.NewSpring(harmonica.FPS(60), 6, 0.8),
		spread:       1,
		spreadTarget: 1,
	}
	m.enter(cfg.Idle, time.Time{})
	return m
}

// OnTransition registers a listener.
func (m *Machine) OnTransition(l Listener) { m.listeners = append(m.listeners, l) }

// OnBurst registers a callback for firework bursts.
func (m *Machine) OnBurst(fn func(n int)) { m.bursts = append(m.bursts, fn) }

// SetPhotoCount sets how the number of memory photos is read at photo entry.
func (m *Machine) SetPhotoCount(fn func() int) {
	if fn != nil {
		m.photoCount = fn
	}
}

// SetGesturesEnabled turns gesture input on or off. Manual entry still works.
func (m *Machine) SetGesturesEnabled(on bool) {
	m.gestures = on
	if !on {
		m.hold = 0
	}
}

// GesturesEnabled reports whether gesture input is accepted.
func (m *Machine) GesturesEnabled() bool { return m.gestures }

// SetStatus sets a free-form status line shown in debug output.
func (m *Machine) SetStatus(s string) { m.status = s }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Hold returns the consecutive FIST frame count.
func (m *Machine) Hold() int { return m.hold }

// Config returns the effective configuration.
func (m *Machine) Config() Config { return m.cfg }

// Integrator exposes the particle buffer owner.
func (m *Machine) Integrator() *motion.Integrator { return m.motion }

// HandleGesture applies one classified frame. It reports whether the state
// changed.
func (m *Machine) HandleGesture(label gesture.Label, now time.Time) bool {
	m.label = label
	if !m.gestures {
		return false
	}
	if m.state.Locked() {
		m.hold = 0
		return false
	}

	if label == gesture.Fist {
		m.hold++
	} else {
		m.hold = 0
	}

	if to, ok := gestureTargets[label]; ok {
		return m.transition(to, now, TriggerGesture, label)
	}
	if label != gesture.Fist {
		return false
	}

	switch {
	case m.hold < m.cfg.ShortHold:
		return m.transition(m.cfg.Idle, now, TriggerGesture, label)
	case m.hold > m.cfg.LongHold:
		m.hold = 0
		return m.transition(PhotoSequence, now, TriggerGesture, label)
	}
	// Charging between the two thresholds.
	return false
}

// Enter switches to s from a manual control: keymap, tray or API. Locks do
// not apply and re-entering a sequence restarts it.
func (m *Machine) Enter(s State, now time.Time) error {
	if !s.Valid() {
		return fmt.Errorf("enter: %w: %d", ErrUnknownState, int(s))
	}
	m.hold = 0
	m.transition(s, now, TriggerManual, gesture.None)
	return nil
}

// SetColorOverride replaces the current state's color until the next
// transition.
func (m *Machine) SetColorOverride(c colorful.Color) {
	m.override = &c
	m.motion.SetColor(c)
	m.motion.DisableVertexColors()
}

// SetSpread sets the pinch scale target for the idle sphere. ok=false
// relaxes the spread back to 1.
func (m *Machine) SetSpread(scale float64, ok bool) {
	if !ok {
		m.spreadTarget = 1
		return
	}
	m.spreadTarget = min(max(scale, m.cfg.SpreadMin), m.cfg.SpreadMax)
}

// Tick advances the active sequence and the integrator to now, running
// timer exits.
func (m *Machine) Tick(now time.Time) {
	switch m.state {
	case PhotoSequence:
		m.photo.Update(now)
		if m.photo.Done() {
			m.transition(Heart, now, TriggerTimer, gesture.None)
		}

	case FireworksSequence:
		ev := m.fireworks.Update(now)
		if ev.Bursts > 0 {
			for _, fn := range m.bursts {
				fn(ev.Bursts)
			}
		}
		if m.fireworks.Done() {
			m.transition(Heart, now, TriggerTimer, gesture.None)
		} else if ev.Advanced {
			phrase, _ := m.fireworks.Phrase()
			m.retarget(stateTable[FireworksSequence], m.params(FireworksSequence, phrase))
		}
	}

	m.spread, m.spreadVel = m.spring.Update(m.spread, m.spreadVel, m.spreadTarget)
	if m.state == Sphere {
		m.motion.SetTargetScale(m.spread)
	} else {
		m.motion.SetTargetScale(1)
	}

	m.motion.Step(now)
}

func (m *Machine) transition(to State, now time.Time, trigger Trigger, label gesture.Label) bool {
	if to == m.state && !to.Locked() {
		return false
	}

	from := m.state
	m.enter(to, now)
	if from.Idle() && to == PhotoSequence {
		m.motion.Explode(now)
	}

	log.Printf("scene: %s -> %s (%s)", from, to, trigger)
	t := Transition{From: from, To: to, Trigger: trigger, Label: label, At: now}
	for _, l := range m.listeners {
		l(t)
	}
	return true
}

// enter runs the entry actions of s.
func (m *Machine) enter(s State, now time.Time) {
	e := stateTable[s]
	m.state = s
	m.override = nil
	m.photo = nil
	m.fireworks = nil

	text := e.text
	switch s {
	case PhotoSequence:
		m.photo = sequence.NewPhoto(m.cfg.Photo, m.photoCount(), now, m.nextSeed())
	case FireworksSequence:
		m.fireworks = sequence.NewFireworks(m.cfg.Fireworks, m.cfg.Phrases, now, m.nextSeed())
		text, _ = m.fireworks.Phrase()
	}

	m.retarget(e, m.params(s, text))
	m.motion.SetRotating(!e.upright)
}

func (m *Machine) retarget(e entry, p shape.Params) {
	m.motion.SetTarget(m.gen.Generate(e.kind, m.cfg.Particles, p))
	switch {
	case m.override != nil:
		m.motion.SetColor(*m.override)
		m.motion.DisableVertexColors()
	case !e.vertex:
		m.motion.SetColor(e.color)
	}
}

func (m *Machine) params(s State, text string) shape.Params {
	sc := m.cfg.Shapes
	p := shape.Params{Text: text, Planet: sc.Planet}
	switch s {
	case Sphere:
		p.Radius = sc.SphereRadius
	case Heart:
		p.Scale = sc.HeartScale
		p.Depth = sc.HeartDepth
	case Digit1, Digit2, Digit3:
		p.Scale = sc.DigitScale
	case FireworksSequence:
		p.Scale = sc.TextScale
	case PhotoSequence:
		p.Extent = sc.StarExtent
	}
	return p
}

func (m *Machine) nextSeed() uint64 {
	m.seq++
	return m.seq
}
