// Package scene holds the visualization state machine: which shape and
// color the particles are pulled toward, and the sequences that own them.
package scene

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/shape"
)

// ErrUnknownState is returned for state names or values outside the enum.
var ErrUnknownState = errors.New("unknown state")

// State is a visualization state.
type State int

const (
	Planet State = iota
	Sphere
	Heart
	Digit1
	Digit2
	Digit3
	PhotoSequence
	FireworksSequence

	numStates
)

// entry describes what a state shows.
type entry struct {
	name   string
	kind   shape.Kind
	color  colorful.Color
	vertex bool
	// upright states stop the slow rotation so text stays legible.
	upright bool
	// locked states ignore gestures; only their own timer exits them.
	locked bool
	idle   bool
	text   string
}

// mustHex parses a #rrggbb literal.
func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// stateTable must carry an entry for every State.
var stateTable = map[State]entry{
	Planet: {
		name:   "planet",
		kind:   shape.Planet,
		vertex: true,
		idle:   true,
	},
	Sphere: {
		name:  "sphere",
		kind:  shape.Sphere,
		color: mustHex("#00ffff"),
		idle:  true,
	},
	Heart: {
		name:  "heart",
		kind:  shape.Heart,
		color: mustHex("#ff69b4"),
	},
	Digit1: {
		name:    "digit1",
		kind:    shape.Text,
		color:   mustHex("#ffd700"),
		upright: true,
		text:    "1",
	},
	Digit2: {
		name:    "digit2",
		kind:    shape.Text,
		color:   mustHex("#ffd700"),
		upright: true,
		text:    "2",
	},
	Digit3: {
		name:    "digit3",
		kind:    shape.Text,
		color:   mustHex("#ffd700"),
		upright: true,
		text:    "3",
	},
	PhotoSequence: {
		name:   "photo",
		kind:   shape.Starfield,
		color:  mustHex("#b0c4ff"),
		locked: true,
	},
	FireworksSequence: {
		name:    "fireworks",
		kind:    shape.Text,
		color:   mustHex("#fff4d6"),
		upright: true,
		locked:  true,
	},
}

// gestureTargets maps the labels that select a state directly. Fist is
// handled by the hold counter; None and Unknown select nothing.
var gestureTargets = map[gesture.Label]State{
	gesture.BothOpen: FireworksSequence,
	gesture.OpenPalm: Heart,
	gesture.One:      Digit1,
	gesture.Two:      Digit2,
	gesture.Three:    Digit3,
}

// States lists every state in declaration order.
func States() []State {
	out := make([]State, 0, numStates)
	for s := State(0); s < numStates; s++ {
		out = append(out, s)
	}
	return out
}

func (s State) String() string {
	if e, ok := stateTable[s]; ok {
		return e.name
	}
	return "invalid"
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	_, ok := stateTable[s]
	return ok
}

// Locked reports whether gestures are ignored in s.
func (s State) Locked() bool { return stateTable[s].locked }

// Idle reports whether s is one of the default resting states.
func (s State) Idle() bool { return stateTable[s].idle }

// Upright reports whether s suppresses rotation.
func (s State) Upright() bool { return stateTable[s].upright }

// ParseState looks a state up by name.
func ParseState(name string) (State, error) {
	for s, e := range stateTable {
		if e.name == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownState, name)
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownState, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
