package app

import (
	"log"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// errorLogEvery limits repeated capture errors to one log line per this
// many occurrences.
const errorLogEvery = 100

// runCapture reads frames at the camera cadence, classifies them and
// queues the labels for the render tick.
//
// Pipeline:
// 1. Read a frame (already mirrored by the camera)
// 2. Detect up to two hands
// 3. Classify into a single label, BothOpen for two open palms
// 4. Measure the pinch spread of the first hand
// 5. Queue without blocking; a full queue drops the label
func (a *App) runCapture(stop <-chan struct{}, spreadMin, spreadMax float64) {
	defer a.wg.Done()

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = 15
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	readErrors, detectErrors := 0, 0

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if readErrors%errorLogEvery == 0 {
				log.Printf("error reading frame: %v", err)
			}
			readErrors++
			continue
		}

		hands, err := a.detector.Detect(frame)
		frame.Close()
		if err != nil {
			if detectErrors%errorLogEvery == 0 {
				log.Printf("error detecting hands: %v", err)
			}
			detectErrors++
			a.push(observation{label: gesture.None})
			continue
		}

		o := observation{label: gesture.ClassifyHands(hands)}
		if len(hands) > 0 {
			o.spread, o.hasSpread = gesture.Spread(&hands[0], spreadMin, spreadMax)
		}
		a.push(o)
	}
}
