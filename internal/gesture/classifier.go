package gesture

import "github.com/ayusman/mudra/internal/detector"

// FingerState records which fingers are extended.
type FingerState struct {
	Thumb, Index, Middle, Ring, Pinky bool
}

// Fingers reports the open/closed state of each finger of hand.
//
// A non-thumb finger is open when its tip is above its PIP joint (smaller Y,
// top-origin image coordinates). The thumb extends sideways, so it is open
// when its tip lies further out than its MCP joint along the direction from
// the index knuckle to the thumb base; this works for either hand.
func Fingers(hand *detector.HandLandmarks) FingerState {
	p := &hand.Points
	open := func(f detector.Finger) bool {
		return p[f.Tip].Y < p[f.PIP].Y
	}

	outward := p[detector.ThumbMCP].X - p[detector.IndexMCP].X
	thumb := (p[detector.ThumbTip].X-p[detector.ThumbMCP].X)*outward > 0

	return FingerState{
		Thumb:  thumb,
		Index:  open(detector.Index),
		Middle: open(detector.Middle),
		Ring:   open(detector.Ring),
		Pinky:  open(detector.Pinky),
	}
}

// Classify maps a single hand to a label. It depends only on the current
// frame; temporal smoothing belongs to the state machine.
func Classify(hand *detector.HandLandmarks) Label {
	if !hand.Valid() {
		return None
	}
	return FromFingers(Fingers(hand))
}

// FromFingers is the decision table over the four non-thumb fingers. The
// thumb only matters for index+middle, where an open thumb is an alias for
// Three.
func FromFingers(f FingerState) Label {
	switch {
	case !f.Index && !f.Middle && !f.Ring && !f.Pinky:
		return Fist
	case f.Index && f.Middle && f.Ring && f.Pinky:
		return OpenPalm
	case f.Index && !f.Middle && !f.Ring && !f.Pinky:
		return One
	case f.Index && f.Middle && !f.Ring && !f.Pinky:
		if f.Thumb {
			return Three
		}
		return Two
	case f.Index && f.Middle && f.Ring && !f.Pinky:
		return Three
	default:
		return Unknown
	}
}

// ClassifyHands classifies every hand delivered for one frame. Two open
// palms produce BothOpen; otherwise the first (highest scoring) valid hand
// decides.
func ClassifyHands(hands []detector.HandLandmarks) Label {
	var labels []Label
	for i := range hands {
		if l := Classify(&hands[i]); l != None {
			labels = append(labels, l)
		}
	}

	switch {
	case len(labels) == 0:
		return None
	case len(labels) >= 2 && labels[0] == OpenPalm && labels[1] == OpenPalm:
		return BothOpen
	default:
		return labels[0]
	}
}
