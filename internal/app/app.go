// Package app wires the gesture source to the scene. The capture loop runs
// in its own goroutine and only produces labels; the render tick owns the
// state machine and is the only goroutine that touches it.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/mudra/internal/assets"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/shape"
	"github.com/ayusman/mudra/internal/store"
)

// Queue sizes.
const (
	// InputQueueSize bounds labels waiting for the render tick. Labels
	// beyond it are dropped.
	InputQueueSize = 64
	// CommandQueueSize bounds manual commands from the tray and the server.
	CommandQueueSize = 32
	// JournalQueueSize bounds transitions waiting to be written.
	JournalQueueSize = 256
)

// ErrQueueFull is returned when a manual command cannot be queued.
var ErrQueueFull = errors.New("command queue full")

// Config holds the collaborators of an App. Nil fields get defaults.
type Config struct {
	Settings  config.Config
	Store     *store.Store
	Camera    capture.Camera
	Detector  detector.Detector
	Generator scene.Generator
	Assets    *assets.Library
}

// observation is one classified camera frame.
type observation struct {
	label     gesture.Label
	spread    float64
	hasSpread bool
}

// command runs on the render tick with exclusive access to the machine.
type command func(m *scene.Machine, now time.Time)

// App owns the machine and the goroutines that feed it.
type App struct {
	settings config.Config
	machine  *scene.Machine
	camera   capture.Camera
	detector detector.Detector
	assets   *assets.Library
	session  string

	inputs   chan observation
	commands chan command
	journal  chan store.Transition

	mu       sync.RWMutex
	manual   bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
	frame    scene.Snapshot
	shared   scene.Snapshot
	frames   int
	dropped  int
	listener []func(scene.Transition)

	journalDone chan struct{}
}

// New builds an App. Camera and detector problems are deferred to Start.
func New(cfg Config) (*App, error) {
	sc, err := cfg.Settings.Scene()
	if err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	gen := cfg.Generator
	if gen == nil {
		gen = shape.NewGenerator(sc.Seed, shape.NewCVRasterizer())
	}
	cam := cfg.Camera
	if cam == nil {
		cc := capture.DefaultConfig()
		cc.DeviceID = cfg.Settings.CameraID
		cam = capture.NewCamera(cc)
	}

	a := &App{
		settings: cfg.Settings,
		machine:  scene.New(sc, gen),
		camera:   cam,
		detector: cfg.Detector,
		assets:   cfg.Assets,
		session:  store.NewSessionID(),
		inputs:   make(chan observation, InputQueueSize),
		commands: make(chan command, CommandQueueSize),
	}

	a.machine.SetGesturesEnabled(cfg.Settings.Gestures)
	a.machine.SetPhotoCount(a.assets.MemoryCount)
	a.machine.OnTransition(a.onTransition)

	if cfg.Store != nil {
		a.journal = make(chan store.Transition, JournalQueueSize)
		a.journalDone = make(chan struct{})
		go a.writeJournal(cfg.Store, a.journal)
	}

	return a, nil
}

// Session returns the journal session ID of this run.
func (a *App) Session() string { return a.session }

// Machine returns the state machine. Only the render tick may call its
// methods once Start has been called.
func (a *App) Machine() *scene.Machine { return a.machine }

// Assets returns the asset library, possibly nil.
func (a *App) Assets() *assets.Library { return a.assets }

// OnTransition registers a callback run on the render tick after every
// transition.
func (a *App) OnTransition(fn func(scene.Transition)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = append(a.listener, fn)
}

// Start opens the camera and detector and starts the capture loop. If
// either is unavailable the app stays in manual mode; Start never fails
// for that reason.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.openSource(); err != nil {
		log.Printf("gesture source unavailable, manual keys only: %v", err)
		a.manual = true
		a.enqueue(func(m *scene.Machine, _ time.Time) {
			m.SetStatus("manual mode: " + err.Error())
		})
		return nil
	}

	sc := a.machine.Config()
	a.stopCh = make(chan struct{})
	a.wg.Add(1)
	go a.runCapture(a.stopCh, sc.SpreadMin, sc.SpreadMax)

	log.Println("capture loop started")
	return nil
}

func (a *App) openSource() error {
	if a.detector == nil {
		mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
		if err != nil {
			return fmt.Errorf("detector: %w", err)
		}
		a.detector = mp
	}
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	return nil
}

// Stop halts the capture loop, releases the camera and detector and
// flushes the journal.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}
	a.mu.Unlock()
	a.wg.Wait()

	if err := a.camera.Close(); err != nil {
		log.Printf("error closing camera: %v", err)
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("error closing detector: %v", err)
		}
	}

	a.mu.Lock()
	if a.journal != nil {
		close(a.journal)
		a.journal = nil
		a.mu.Unlock()
		<-a.journalDone
	} else {
		a.mu.Unlock()
	}

	log.Println("capture loop stopped")
}

// Manual reports whether the gesture source failed to start.
func (a *App) Manual() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.manual
}

// Dropped returns how many labels were dropped because the queue was full.
func (a *App) Dropped() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dropped
}

// push hands a label to the render tick without blocking.
func (a *App) push(o observation) {
	select {
	case a.inputs <- o:
	default:
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
	}
}

func (a *App) enqueue(c command) error {
	select {
	case a.commands <- c:
		return nil
	default:
		return ErrQueueFull
	}
}

// Enter queues a manual transition. Safe from any goroutine.
func (a *App) Enter(s scene.State) error {
	if !s.Valid() {
		return fmt.Errorf("enter: %w", scene.ErrUnknownState)
	}
	return a.enqueue(func(m *scene.Machine, now time.Time) {
		if err := m.Enter(s, now); err != nil {
			log.Printf("enter %s: %v", s, err)
		}
	})
}

// InjectGesture queues a label as if the camera had produced it.
func (a *App) InjectGesture(l gesture.Label) {
	a.push(observation{label: l})
}

// SetGesturesEnabled queues a gesture toggle.
func (a *App) SetGesturesEnabled(on bool) error {
	return a.enqueue(func(m *scene.Machine, _ time.Time) { m.SetGesturesEnabled(on) })
}

// ToggleGestures queues a flip of the gesture toggle.
func (a *App) ToggleGestures() error {
	return a.enqueue(func(m *scene.Machine, _ time.Time) { m.SetGesturesEnabled(!m.GesturesEnabled()) })
}

// SetColor queues a color override for the current state.
func (a *App) SetColor(c colorful.Color) error {
	return a.enqueue(func(m *scene.Machine, _ time.Time) { m.SetColorOverride(c) })
}

// Step runs one render tick: it drains queued labels and commands, advances
// the machine and publishes a snapshot. The returned snapshot belongs to
// the render goroutine and is reused by the next Step.
func (a *App) Step(now time.Time) *scene.Snapshot {
	// Bounded so a busy producer cannot starve the tick.
drain:
	for i := 0; i < InputQueueSize+CommandQueueSize; i++ {
		select {
		case o := <-a.inputs:
			a.machine.HandleGesture(o.label, now)
			a.machine.SetSpread(o.spread, o.hasSpread)
		case c := <-a.commands:
			c(a.machine, now)
		default:
			break drain
		}
	}

	a.machine.Tick(now)
	a.machine.SnapshotInto(&a.frame, now)

	a.mu.Lock()
	copySnapshot(&a.shared, &a.frame)
	a.frames++
	a.mu.Unlock()

	return &a.frame
}

// Latest copies the most recently published snapshot into dst. Safe from
// any goroutine.
func (a *App) Latest(dst *scene.Snapshot) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	copySnapshot(dst, &a.shared)
	return a.frames
}

func copySnapshot(dst, src *scene.Snapshot) {
	positions, colors := dst.Positions, dst.Colors
	photos, sparks, debug := dst.Photos, dst.Sparks, dst.Debug
	*dst = *src
	dst.Positions = append(positions[:0], src.Positions...)
	dst.Colors = append(colors[:0], src.Colors...)
	dst.Photos = append(photos[:0], src.Photos...)
	dst.Sparks = append(sparks[:0], src.Sparks...)
	dst.Debug = append(debug[:0], src.Debug...)
}

func (a *App) onTransition(t scene.Transition) {
	a.mu.RLock()
	listeners := a.listener
	if a.journal != nil {
		select {
		case a.journal <- store.Transition{
			SessionID: a.session,
			From:      t.From.String(),
			To:        t.To.String(),
			Trigger:   string(t.Trigger),
			At:        t.At,
		}:
		default:
			log.Printf("journal full, dropped %s -> %s", t.From, t.To)
		}
	}
	a.mu.RUnlock()

	for _, fn := range listeners {
		fn(t)
	}
}

// writeJournal appends transitions until in is closed.
func (a *App) writeJournal(st *store.Store, in <-chan store.Transition) {
	defer close(a.journalDone)
	repo := st.Transitions()
	for t := range in {
		if err := repo.Append(&t); err != nil {
			log.Printf("journal write failed: %v", err)
		}
	}
}
