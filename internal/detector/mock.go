package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns either a fixed hand set or replays a scripted sequence,
// one entry per Detect call.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	next     int
	err      error
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
}

// SetSequence scripts the per-call results. Once the sequence is
// exhausted Detect reports no hands.
func (m *MockDetector) SetSequence(frames [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = frames
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if m.sequence != nil {
		if m.next >= len(m.sequence) {
			return nil, nil
		}
		hands := m.sequence[m.next]
		m.next++
		return hands, nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PoseLandmarks builds a synthetic right hand, palm towards the camera,
// with each finger either extended or curled.
func PoseLandmarks(thumb, index, middle, ring, pinky bool) HandLandmarks {
	lm := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	lm.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	lm.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.76, Z: 0.01}
	lm.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.72, Z: 0.02}
	if thumb {
		lm.Points[ThumbIP] = Point3D{X: 0.66, Y: 0.66, Z: 0.03}
		lm.Points[ThumbTip] = Point3D{X: 0.72, Y: 0.62, Z: 0.03}
	} else {
		// Folded across the palm.
		lm.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.68, Z: -0.02}
		lm.Points[ThumbTip] = Point3D{X: 0.54, Y: 0.70, Z: -0.03}
	}

	placeFinger(&lm, Index, 0.55, 0.68, index)
	placeFinger(&lm, Middle, 0.50, 0.66, middle)
	placeFinger(&lm, Ring, 0.45, 0.68, ring)
	placeFinger(&lm, Pinky, 0.40, 0.70, pinky)

	return lm
}

func placeFinger(lm *HandLandmarks, f Finger, x, mcpY float64, open bool) {
	lm.Points[f.MCP] = Point3D{X: x, Y: mcpY}
	if open {
		lm.Points[f.PIP] = Point3D{X: x, Y: mcpY - 0.12}
		lm.Points[f.DIP] = Point3D{X: x, Y: mcpY - 0.22}
		lm.Points[f.Tip] = Point3D{X: x, Y: mcpY - 0.32}
		return
	}
	lm.Points[f.PIP] = Point3D{X: x, Y: mcpY - 0.04, Z: -0.05}
	lm.Points[f.DIP] = Point3D{X: x - 0.01, Y: mcpY, Z: -0.04}
	lm.Points[f.Tip] = Point3D{X: x - 0.02, Y: mcpY + 0.02, Z: -0.02}
}

// FistLandmarks returns a closed fist.
func FistLandmarks() HandLandmarks { return PoseLandmarks(false, false, false, false, false) }

// OpenPalmLandmarks returns an open palm with the thumb out to the side.
func OpenPalmLandmarks() HandLandmarks { return PoseLandmarks(true, true, true, true, true) }

// OneLandmarks returns an extended index finger.
func OneLandmarks() HandLandmarks { return PoseLandmarks(false, true, false, false, false) }

// TwoLandmarks returns extended index and middle fingers.
func TwoLandmarks() HandLandmarks { return PoseLandmarks(false, true, true, false, false) }

// ThreeLandmarks returns extended index, middle and ring fingers.
func ThreeLandmarks() HandLandmarks { return PoseLandmarks(false, true, true, true, false) }

// Mirror flips a hand horizontally, turning the right-hand fixtures into
// left hands.
func Mirror(h HandLandmarks) HandLandmarks {
	out := h
	for i := range out.Points {
		out.Points[i].X = 1 - out.Points[i].X
	}
	if h.Handedness == "Right" {
		out.Handedness = "Left"
	} else {
		out.Handedness = "Right"
	}
	return out
}
