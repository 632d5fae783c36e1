package term

import "github.com/lucasb-eyer/go-colorful"

// Each terminal cell holds a 2×4 braille dot matrix.
const (
	DotsX = 2
	DotsY = 4

	brailleBase = 0x2800
)

// dotBits maps [y][x] inside a cell to its braille bit.
var dotBits = [DotsY][DotsX]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Grid accumulates dots and their colors for a cols×rows cell area.
type Grid struct {
	cols, rows int
	bits       []uint8
	r, g, b    []float32
	weight     []float32
}

// NewGrid creates an empty grid.
func NewGrid(cols, rows int) *Grid {
	g := &Grid{}
	g.Resize(cols, rows)
	return g
}

// Resize reallocates the grid and clears it.
func (g *Grid) Resize(cols, rows int) {
	g.cols, g.rows = max(cols, 0), max(rows, 0)
	n := g.cols * g.rows
	g.bits = make([]uint8, n)
	g.r = make([]float32, n)
	g.g = make([]float32, n)
	g.b = make([]float32, n)
	g.weight = make([]float32, n)
}

// Size returns the grid size in cells.
func (g *Grid) Size() (cols, rows int) { return g.cols, g.rows }

// Pixels returns the dot resolution.
func (g *Grid) Pixels() (w, h int) { return g.cols * DotsX, g.rows * DotsY }

// Clear removes every dot.
func (g *Grid) Clear() {
	clear(g.bits)
	clear(g.r)
	clear(g.g)
	clear(g.b)
	clear(g.weight)
}

// Plot sets the dot at pixel (x, y). Colors of a cell average weighted by
// alpha. Out of range dots are ignored.
func (g *Grid) Plot(x, y int, c colorful.Color, alpha float32) {
	if x < 0 || y < 0 || alpha <= 0 {
		return
	}
	col, row := x/DotsX, y/DotsY
	if col >= g.cols || row >= g.rows {
		return
	}
	i := row*g.cols + col
	g.bits[i] |= dotBits[y%DotsY][x%DotsX]
	g.r[i] += float32(c.R) * alpha
	g.g[i] += float32(c.G) * alpha
	g.b[i] += float32(c.B) * alpha
	g.weight[i] += alpha
}

// Cell returns the braille rune and mean color of a cell. ok is false for
// empty cells.
func (g *Grid) Cell(col, row int) (r rune, c colorful.Color, ok bool) {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return 0, colorful.Color{}, false
	}
	i := row*g.cols + col
	if g.bits[i] == 0 {
		return 0, colorful.Color{}, false
	}
	w := g.weight[i]
	c = colorful.Color{
		R: float64(g.r[i] / w),
		G: float64(g.g[i] / w),
		B: float64(g.b[i] / w),
	}.Clamped()
	return rune(brailleBase + int(g.bits[i])), c, true
}
