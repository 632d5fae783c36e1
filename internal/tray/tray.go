// Package tray provides the system tray menu: gesture toggle, manual
// state selection and quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/scene"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onEnter  func(s scene.State)
	onOpen   func()
	onQuit   func()
	enabled  bool
	current  scene.State
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuCurrent *systray.MenuItem
}

// New creates a new Tray instance with gestures enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback called when gestures are toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnEnter sets the callback called when a state is picked from the menu.
func (t *Tray) OnEnter(fn func(s scene.State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnter = fn
}

// OnOpen sets the callback for the "Open in Browser" item. The item is
// only shown when set before Run.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Register sets up the tray without taking over the event loop, for use
// next to a window that owns the main thread.
func (t *Tray) Register() {
	systray.Register(t.onReady, t.onExit)
}

// Quit removes the tray icon.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("mudra")
	systray.SetTooltip("mudra gesture particles")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle camera gestures")
	systray.AddSeparator()

	t.menuCurrent = systray.AddMenuItem(currentTitle(t.current), "Current scene")
	t.menuCurrent.Disable()
	showOpen := t.onOpen != nil
	t.mu.Unlock()

	menuScene := systray.AddMenuItem("Show", "Switch scene")
	for _, s := range scene.States() {
		item := menuScene.AddSubMenuItem(s.String(), "Switch to "+s.String())
		go func(s scene.State, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.handleEnter(s)
			}
		}(s, item)
	}
	systray.AddSeparator()

	var openCh chan struct{}
	if showOpen {
		openCh = systray.AddMenuItem("Open in Browser", "Open the web view").ClickedCh
		systray.AddSeparator()
	}

	menuQuit := systray.AddMenuItem("Quit", "Quit mudra")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-openCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Gestures on"
	}
	return "○ Gestures off"
}

func currentTitle(s scene.State) string {
	return "Showing: " + s.String()
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleEnter(s scene.State) {
	t.mu.RLock()
	callback := t.onEnter
	t.mu.RUnlock()

	if callback != nil {
		callback(s)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetState updates the current scene line in the menu.
func (t *Tray) SetState(s scene.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = s
	if t.menuCurrent != nil {
		t.menuCurrent.SetTitle(currentTitle(s))
	}
}

// SetEnabled updates the gesture toggle without calling OnToggle.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// State returns the last state passed to SetState.
func (t *Tray) State() scene.State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}
