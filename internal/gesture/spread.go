package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Pinch distance range mapped onto the spread factor.
const (
	MinPinch = 0.05
	MaxPinch = 0.4
)

// Spread measures the thumb-tip to pinky-tip distance in image space and
// maps it linearly from [MinPinch, MaxPinch] onto [minScale, maxScale].
// The result is clamped; ok is false when hand is unusable.
func Spread(hand *detector.HandLandmarks, minScale, maxScale float64) (scale float64, ok bool) {
	if !hand.Valid() {
		return 0, false
	}

	thumb := hand.Points[detector.ThumbTip]
	pinky := hand.Points[detector.PinkyTip]
	d := math.Hypot(thumb.X-pinky.X, thumb.Y-pinky.Y)

	t := (d - MinPinch) / (MaxPinch - MinPinch)
	t = math.Max(0, math.Min(1, t))
	return minScale + t*(maxScale-minScale), true
}
