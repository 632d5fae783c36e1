package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// CVLoader decodes images through OpenCV.
type CVLoader struct{}

// LoadImage reads path and shrinks it so the longest side is at most
// maxSide. maxSide <= 0 keeps the original size.
func (CVLoader) LoadImage(path string, maxSide int) (image.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("decode %s: empty image", path)
	}
	defer mat.Close()

	size := fitWithin(mat.Cols(), mat.Rows(), maxSide)
	if size.X != mat.Cols() || size.Y != mat.Rows() {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(mat, &resized, size, 0, 0, gocv.InterpolationArea)
		return resized.ToImage()
	}
	return mat.ToImage()
}

// fitWithin scales w×h down so neither side exceeds maxSide.
func fitWithin(w, h, maxSide int) image.Point {
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return image.Pt(w, h)
	}
	if w >= h {
		return image.Pt(maxSide, max(1, h*maxSide/w))
	}
	return image.Pt(max(1, w*maxSide/h), maxSide)
}

// VideoLoop decodes a video file in the background, looping at the end,
// and keeps the most recent frame.
type VideoLoop struct {
	path    string
	maxSide int

	mu     sync.RWMutex
	latest image.Image
	err    error
}

// NewVideoLoop prepares a loop over path. Nothing is opened until Run.
func NewVideoLoop(path string, maxSide int) *VideoLoop {
	return &VideoLoop{path: path, maxSide: maxSide}
}

// Run decodes frames at the file's own rate until ctx is done.
func (v *VideoLoop) Run(ctx context.Context) error {
	if v.path == "" {
		return v.fail(errors.New("no video file"))
	}
	vc, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return v.fail(fmt.Errorf("open video: %w", err))
	}
	defer vc.Close()

	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 || fps > 120 {
		fps = 30
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	frame := gocv.NewMat()
	defer frame.Close()
	small := gocv.NewMat()
	defer small.Close()

	misses := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if ok := vc.Read(&frame); !ok || frame.Empty() {
			misses++
			if misses > 2 {
				return v.fail(errors.New("video produced no frames"))
			}
			// End of file: rewind.
			vc.Set(gocv.VideoCapturePosFrames, 0)
			continue
		}
		misses = 0

		src := frame
		size := fitWithin(frame.Cols(), frame.Rows(), v.maxSide)
		if size.X != frame.Cols() {
			gocv.Resize(frame, &small, size, 0, 0, gocv.InterpolationLinear)
			src = small
		}
		img, err := src.ToImage()
		if err != nil {
			continue
		}
		v.mu.Lock()
		v.latest = img
		v.mu.Unlock()
	}
}

func (v *VideoLoop) fail(err error) error {
	log.Printf("background video disabled: %v", err)
	v.mu.Lock()
	v.err = err
	v.mu.Unlock()
	return err
}

// Frame returns the latest decoded frame, if any.
func (v *VideoLoop) Frame() (image.Image, bool) {
	if v == nil {
		return nil, false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.latest, v.latest != nil
}

// Err returns the error that stopped the loop, if any.
func (v *VideoLoop) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}
