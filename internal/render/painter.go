package render

import (
	"cmp"
	"image"
	"image/color"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/ayusman/mudra/internal/scene"
)

// PhotoSource returns decoded photos by index; -1 is the hero.
type PhotoSource interface {
	Hero() (image.Image, bool)
	Memory(i int) (image.Image, bool)
}

// Background returns the current background frame, if any.
type Background interface {
	Frame() (image.Image, bool)
}

// PhotoSize is the world-space width of a photo quad.
const PhotoSize = 120

// Painter rasterizes snapshots into an RGBA buffer it owns.
type Painter struct {
	proj   *Projector
	img    *image.RGBA
	photos PhotoSource
	bg     Background
}

// NewPainter creates a painter for a width×height buffer.
func NewPainter(cam Camera, width, height int) *Painter {
	return &Painter{
		proj: NewProjector(cam, width, height),
		img:  image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1))),
	}
}

// SetPhotos sets where photo pixels come from.
func (p *Painter) SetPhotos(src PhotoSource) { p.photos = src }

// SetBackground sets the fireworks background source.
func (p *Painter) SetBackground(bg Background) { p.bg = bg }

// Resize reallocates the buffer when the size changed.
func (p *Painter) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if b := p.img.Bounds(); b.Dx() == width && b.Dy() == height {
		return
	}
	p.img = image.NewRGBA(image.Rect(0, 0, width, height))
	p.proj.Resize(width, height)
}

// Projector exposes the projection used for the last frame.
func (p *Painter) Projector() *Projector { return p.proj }

// Paint draws s and returns the buffer. The buffer is reused by the next
// call.
func (p *Painter) Paint(s *scene.Snapshot) *image.RGBA {
	p.clear(s)
	p.proj.SetRotation(s.Rotation)
	p.points(s)
	p.drawPhotos(s)
	p.sparks(s)
	return p.img
}

func (p *Painter) clear(s *scene.Snapshot) {
	draw.Draw(p.img, p.img.Bounds(), image.Black, image.Point{}, draw.Src)
	if s.State != scene.FireworksSequence || p.bg == nil {
		return
	}
	if frame, ok := p.bg.Frame(); ok {
		draw.ApproxBiLinear.Scale(p.img, p.img.Bounds(), frame, frame.Bounds(), draw.Src, nil)
	}
}

func (p *Painter) points(s *scene.Snapshot) {
	alpha := float32(s.Opacity)
	single := s.Color
	vertex := len(s.Colors) == len(s.Positions)

	for i := 0; i+2 < len(s.Positions); i += 3 {
		x, y, depth, ok := p.proj.Project(mgl32.Vec3{s.Positions[i], s.Positions[i+1], s.Positions[i+2]})
		if !ok {
			continue
		}
		c := single
		if vertex {
			c = colorful.Color{R: float64(s.Colors[i]), G: float64(s.Colors[i+1]), B: float64(s.Colors[i+2])}
		}
		size := max(1, int(float32(s.PointSize)*p.proj.Scale(depth)+0.5))
		p.splat(int(x), int(y), size, c, alpha)
	}
}

func (p *Painter) sparks(s *scene.Snapshot) {
	for _, sp := range s.Sparks {
		x, y, depth, ok := p.proj.Project(mgl32.Vec3{sp.X, sp.Y, sp.Z})
		if !ok {
			continue
		}
		size := max(1, int(2*p.proj.Scale(depth)+0.5))
		p.splat(int(x), int(y), size, sp.Color, sp.Alpha)
	}
}

// splat adds c×alpha to a size×size square centered on (x, y).
func (p *Painter) splat(x, y, size int, c colorful.Color, alpha float32) {
	r := uint32(clamp01(c.R) * float64(alpha) * 255)
	g := uint32(clamp01(c.G) * float64(alpha) * 255)
	b := uint32(clamp01(c.B) * float64(alpha) * 255)

	half := size / 2
	bounds := p.img.Bounds()
	for py := y - half; py < y-half+size; py++ {
		if py < bounds.Min.Y || py >= bounds.Max.Y {
			continue
		}
		for px := x - half; px < x-half+size; px++ {
			if px < bounds.Min.X || px >= bounds.Max.X {
				continue
			}
			o := p.img.PixOffset(px, py)
			pix := p.img.Pix[o : o+4 : o+4]
			pix[0] = addSat(pix[0], r)
			pix[1] = addSat(pix[1], g)
			pix[2] = addSat(pix[2], b)
			pix[3] = 255
		}
	}
}

func (p *Painter) drawPhotos(s *scene.Snapshot) {
	if p.photos == nil {
		return
	}
	// Farthest first so near photos cover far ones.
	order := slices.Clone(s.Photos)
	slices.SortStableFunc(order, func(a, b scene.PhotoView) int { return cmp.Compare(a.Z, b.Z) })

	for _, ph := range order {
		var src image.Image
		var ok bool
		if ph.Index < 0 {
			src, ok = p.photos.Hero()
		} else {
			src, ok = p.photos.Memory(ph.Index)
		}
		if !ok || ph.Opacity <= 0 {
			continue
		}

		// Photos do not rotate with the particle cloud.
		p.proj.SetRotation(0)
		x, y, depth, visible := p.proj.Project(mgl32.Vec3{float32(ph.X), float32(ph.Y), float32(ph.Z)})
		p.proj.SetRotation(s.Rotation)
		if !visible {
			continue
		}

		sb := src.Bounds()
		w := PhotoSize * p.proj.Scale(depth)
		h := w * float32(sb.Dy()) / float32(max(sb.Dx(), 1))
		dst := image.Rect(int(x-w/2), int(y-h/2), int(x+w/2), int(y+h/2))
		if dst.Empty() || !dst.Overlaps(p.img.Bounds()) {
			continue
		}

		mask := image.NewUniform(color.Alpha{A: uint8(clamp01(ph.Opacity) * 255)})
		draw.ApproxBiLinear.Scale(p.img, dst, src, sb, draw.Over, &draw.Options{
			SrcMask:  mask,
			SrcMaskP: sb.Min,
		})
	}
}

func addSat(a uint8, b uint32) uint8 {
	v := uint32(a) + b
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
