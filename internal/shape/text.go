package shape

import (
	"image"
	"image/color"
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"gocv.io/x/gocv"
)

// Bitmap is an 8-bit grayscale raster, row-major.
type Bitmap struct {
	Width, Height int
	Pix           []uint8
}

// At returns the brightness at column x, row y.
func (b Bitmap) At(x, y int) uint8 { return b.Pix[y*b.Width+x] }

// Rasterizer renders text into an off-screen bitmap.
type Rasterizer interface {
	Rasterize(text string) (Bitmap, error)
}

// Threshold is the brightness above which a pixel belongs to the glyph.
const Threshold = 128

// glyphPixels returns the foreground pixel coordinates of text, caching
// the result per string. Rasterization failures yield no pixels.
func (g *Generator) glyphPixels(text string) [][2]int {
	if px, ok := g.glyphs[text]; ok {
		return px
	}

	var px [][2]int
	if g.raster != nil {
		bm, err := g.raster.Rasterize(text)
		if err != nil {
			log.Printf("shape: rasterize %q: %v", text, err)
		} else {
			px = foreground(bm)
		}
	}
	g.glyphs[text] = px
	return px
}

func foreground(bm Bitmap) [][2]int {
	var px [][2]int
	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			if bm.At(x, y) > Threshold {
				px = append(px, [2]int{x, y})
			}
		}
	}
	return px
}

// text assigns each particle to a uniformly random foreground pixel plus
// sub-pixel jitter, centered on the glyph bounding box and scaled so the
// box height is p.Scale world units. With no foreground pixels every
// particle sits at the origin.
func (g *Generator) text(out *Set, count int, p Params) {
	px := g.glyphPixels(p.Text)
	if len(px) == 0 {
		out.Positions = out.Positions[:3*count]
		return
	}

	minX, minY, maxX, maxY := px[0][0], px[0][1], px[0][0], px[0][1]
	for _, q := range px[1:] {
		minX, maxX = min(minX, q[0]), max(maxX, q[0])
		minY, maxY = min(minY, q[1]), max(maxY, q[1])
	}
	cx := float64(minX+maxX) / 2
	cy := float64(minY+maxY) / 2
	unit := p.Scale / float64(maxY-minY+1)

	for i := 0; i < count; i++ {
		q := px[g.rng.IntN(len(px))]
		x := (float64(q[0]) - cx + g.uniform(-0.5, 0.5)) * unit
		y := (cy - float64(q[1]) + g.uniform(-0.5, 0.5)) * unit
		out.Positions = appendVec(out.Positions, mgl32.Vec3{
			float32(x),
			float32(y),
			float32(g.uniform(-p.Depth, p.Depth)),
		})
	}
}

// CVRasterizer draws text with OpenCV's Hershey fonts.
type CVRasterizer struct {
	Font      gocv.HersheyFont
	FontScale float64
	Thickness int
}

// NewCVRasterizer returns a rasterizer with a bold duplex face large enough
// to give a few thousand foreground pixels per glyph.
func NewCVRasterizer() *CVRasterizer {
	return &CVRasterizer{
		Font:      gocv.FontHersheyDuplex,
		FontScale: 4,
		Thickness: 8,
	}
}

// Rasterize renders text onto a canvas sized from the rune count.
func (r *CVRasterizer) Rasterize(text string) (Bitmap, error) {
	n := len([]rune(text))
	if n == 0 {
		return Bitmap{}, nil
	}

	cell := int(30 * r.FontScale)
	margin := cell / 2
	width := n*cell + 2*margin
	height := int(40*r.FontScale) + 2*margin

	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC1)
	defer mat.Close()

	origin := image.Pt(margin, height-margin-int(8*r.FontScale))
	gocv.PutText(&mat, text, origin, r.Font, r.FontScale, color.RGBA{R: 255, G: 255, B: 255, A: 255}, r.Thickness)

	return Bitmap{
		Width:  mat.Cols(),
		Height: mat.Rows(),
		Pix:    mat.ToBytes(),
	}, nil
}
