package scene

import (
	"fmt"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/sequence"
)

// PhotoView is one photo quad for renderers.
type PhotoView struct {
	// Index is the memory photo index, or -1 for the hero.
	Index   int     `json:"index"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Opacity float64 `json:"opacity"`
}

// SparkView is one firework spark for renderers.
type SparkView struct {
	X     float32        `json:"x"`
	Y     float32        `json:"y"`
	Z     float32        `json:"z"`
	Alpha float32        `json:"alpha"`
	Color colorful.Color `json:"-"`
}

// Snapshot is the renderer view of the scene. Renderers only read it.
type Snapshot struct {
	State        State          `json:"state"`
	Label        gesture.Label  `json:"gesture"`
	Hold         int            `json:"hold"`
	HoldProgress float64        `json:"hold_progress"`
	Gestures     bool           `json:"gestures"`
	Positions    []float32      `json:"positions"`
	Colors       []float32      `json:"colors,omitempty"`
	Color        colorful.Color `json:"-"`
	PointSize    float64        `json:"point_size"`
	Opacity      float64        `json:"opacity"`
	Rotation     float64        `json:"rotation"`
	Exploding    bool           `json:"exploding"`
	Phrase       string         `json:"phrase,omitempty"`
	Photos       []PhotoView    `json:"photos,omitempty"`
	Sparks       []SparkView    `json:"sparks,omitempty"`
	Debug        []string       `json:"debug"`
}

// Snapshot returns a fresh copy of the renderer view.
func (m *Machine) Snapshot(now time.Time) Snapshot {
	var s Snapshot
	m.SnapshotInto(&s, now)
	return s
}

// SnapshotInto fills dst, reusing its slices.
func (m *Machine) SnapshotInto(dst *Snapshot, now time.Time) {
	in := m.motion

	dst.State = m.state
	dst.Label = m.label
	dst.Hold = m.hold
	dst.HoldProgress = min(float64(m.hold)/float64(m.cfg.LongHold), 1)
	dst.Gestures = m.gestures
	dst.Positions = append(dst.Positions[:0], in.Positions()...)
	if c := in.Colors(); c != nil {
		dst.Colors = append(dst.Colors[:0], c...)
	} else {
		dst.Colors = dst.Colors[:0]
	}
	dst.Color = in.Color()
	dst.PointSize = m.cfg.PointSize
	dst.Opacity = m.cfg.Opacity
	dst.Rotation = in.Rotation()
	dst.Exploding = in.Exploding(now)

	dst.Phrase = ""
	dst.Photos = dst.Photos[:0]
	dst.Sparks = dst.Sparks[:0]
	switch {
	case m.photo != nil:
		if hero, ok := m.photo.Hero(); ok {
			dst.Photos = append(dst.Photos, photoView(hero))
		}
		for _, f := range m.photo.Active() {
			dst.Photos = append(dst.Photos, photoView(f))
		}
	case m.fireworks != nil:
		dst.Phrase, _ = m.fireworks.Phrase()
		m.fireworks.Sparks().Each(func(sp sequence.Spark) {
			dst.Sparks = append(dst.Sparks, SparkView{
				X:     sp.Pos.X(),
				Y:     sp.Pos.Y(),
				Z:     sp.Pos.Z(),
				Alpha: sp.Alpha(),
				Color: sp.Color,
			})
		})
	}

	dst.Debug = append(dst.Debug[:0],
		fmt.Sprintf("state: %s", m.state),
		fmt.Sprintf("gesture: %s", m.label),
		fmt.Sprintf("hold: %d/%d", m.hold, m.cfg.LongHold),
		fmt.Sprintf("particles: %d", in.Len()),
	)
	if m.state == Sphere {
		dst.Debug = append(dst.Debug, fmt.Sprintf("spread: %.2f", m.spread))
	}
	if !m.gestures {
		dst.Debug = append(dst.Debug, "gestures: off")
	}
	if m.status != "" {
		dst.Debug = append(dst.Debug, m.status)
	}
}

func photoView(f sequence.Flyer) PhotoView {
	return PhotoView{Index: f.Index, X: f.X, Y: f.Y, Z: f.Z, Opacity: f.Opacity}
}
