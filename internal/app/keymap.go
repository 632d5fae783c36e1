package app

import (
	"log"
	"unicode"

	"github.com/ayusman/mudra/internal/scene"
)

// Action is what a key does.
type Action int

const (
	ActionNone Action = iota
	ActionEnter
	ActionToggleGestures
	ActionPickColor
	ActionQuit
)

// Binding is one entry of the manual keymap.
type Binding struct {
	Key    rune
	Action Action
	// State is set for ActionEnter.
	State scene.State
	Help  string
}

// Keymap is shared by every renderer.
var Keymap = []Binding{
	{'1', ActionEnter, scene.Digit1, "digit 1"},
	{'2', ActionEnter, scene.Digit2, "digit 2"},
	{'3', ActionEnter, scene.Digit3, "digit 3"},
	{'h', ActionEnter, scene.Heart, "heart"},
	{'s', ActionEnter, scene.Sphere, "sphere"},
	{'l', ActionEnter, scene.Planet, "planet"},
	{'p', ActionEnter, scene.PhotoSequence, "photos"},
	{'f', ActionEnter, scene.FireworksSequence, "fireworks"},
	{'c', ActionPickColor, 0, "color"},
	{'g', ActionToggleGestures, 0, "gestures"},
	{'q', ActionQuit, 0, "quit"},
}

// Lookup finds the binding for r, ignoring case.
func Lookup(r rune) (Binding, bool) {
	r = unicode.ToLower(r)
	for _, b := range Keymap {
		if b.Key == r {
			return b, true
		}
	}
	return Binding{}, false
}

// HandleKey applies the app-level part of a key press and returns the
// action so the renderer can handle pick-color and quit itself.
func (a *App) HandleKey(r rune) Action {
	b, ok := Lookup(r)
	if !ok {
		return ActionNone
	}
	switch b.Action {
	case ActionEnter:
		if err := a.Enter(b.State); err != nil {
			log.Printf("key %q: %v", r, err)
		}
	case ActionToggleGestures:
		if err := a.ToggleGestures(); err != nil {
			log.Printf("key %q: %v", r, err)
		}
	}
	return b.Action
}

// HelpLine renders the keymap for overlays.
func HelpLine() string {
	line := ""
	for i, b := range Keymap {
		if i > 0 {
			line += "  "
		}
		line += string(b.Key) + " " + b.Help
	}
	return line + "  esc quit"
}
