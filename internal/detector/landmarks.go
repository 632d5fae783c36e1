// Package detector provides hand detection interfaces and landmark types fed to the gesture classifier.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark position. X and Y are normalized image coordinates
// with the origin at the top-left corner; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected for one hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Valid reports whether h carries a usable landmark set.
// A nil hand or one whose points are all at the origin (the shape a partial
// detector response decodes into) is not valid.
func (h *HandLandmarks) Valid() bool {
	if h == nil {
		return false
	}
	for _, p := range h.Points {
		if p != (Point3D{}) {
			return true
		}
	}
	return false
}

// Finger groups the joint indices of one finger, base to tip.
type Finger struct {
	MCP, PIP, DIP, Tip int
}

// The four non-thumb fingers in index-to-pinky order.
var (
	Index  = Finger{IndexMCP, IndexPIP, IndexDIP, IndexTip}
	Middle = Finger{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip}
	Ring   = Finger{RingMCP, RingPIP, RingDIP, RingTip}
	Pinky  = Finger{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip}
)
