// Package capture provides webcam capture using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings. Gesture hold counting is frame based, so the
// capture rate is kept steady rather than adaptive.
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes the returned Mat.
	ReadFrame() (*gocv.Mat, error)
	FPS() int
	IsOpen() bool
}

// Config describes a capture device.
type Config struct {
	DeviceID int
	FPS      int
	Width    int
	Height   int
	// Mirror flips frames horizontally so the on-screen view behaves like a mirror.
	Mirror bool
}

// DefaultConfig returns the settings used for device 0.
func DefaultConfig() Config {
	return Config{
		FPS:    DefaultFPS,
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Mirror: true,
	}
}

type cameraImpl struct {
	config  Config
	mu      sync.Mutex
	capture *gocv.VideoCapture
}

// NewCamera creates a Camera for the given configuration.
// Zero fields fall back to the defaults.
func NewCamera(config Config) Camera {
	def := DefaultConfig()
	if config.FPS <= 0 {
		config.FPS = def.FPS
	}
	if config.Width <= 0 {
		config.Width = def.Width
	}
	if config.Height <= 0 {
		config.Height = def.Height
	}
	return &cameraImpl{config: config}
}

// Open opens the capture device.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.config.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.config.DeviceID, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("open camera %d: device unavailable", c.config.DeviceID)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.config.FPS))

	c.capture = vc
	return nil
}

// Close releases the capture device.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

// ReadFrame reads a single frame from the camera.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if c.config.Mirror {
		gocv.Flip(mat, &mat, 1)
	}
	return &mat, nil
}

// FPS returns the configured capture rate.
func (c *cameraImpl) FPS() int {
	return c.config.FPS
}

// IsOpen returns true if the camera is currently open.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}
