// Package gesture classifies hand landmark sets into discrete gesture labels.
package gesture

// Label is the discrete classification of a hand pose for one frame.
type Label int

const (
	// None means no usable hand was detected in the frame.
	None Label = iota
	// Unknown is a detected hand whose pose matches no rule.
	Unknown
	Fist
	OpenPalm
	One
	Two
	Three
	// BothOpen is two hands that each classify as OpenPalm.
	BothOpen
)

var labelNames = [...]string{
	None:     "none",
	Unknown:  "unknown",
	Fist:     "fist",
	OpenPalm: "open_palm",
	One:      "one",
	Two:      "two",
	Three:    "three",
	BothOpen: "both_open",
}

// Labels lists every label in declaration order.
func Labels() []Label {
	return []Label{None, Unknown, Fist, OpenPalm, One, Two, Three, BothOpen}
}

func (l Label) String() string {
	if l < 0 || int(l) >= len(labelNames) {
		return "invalid"
	}
	return labelNames[l]
}

// ParseLabel looks a label up by name.
func ParseLabel(name string) (Label, bool) {
	for i, n := range labelNames {
		if n == name {
			return Label(i), true
		}
	}
	return None, false
}

// MarshalText encodes the label by name.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}
