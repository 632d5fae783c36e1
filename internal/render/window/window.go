// Package window shows the scene in a desktop window.
package window

import (
	"errors"
	"image/color"
	"log"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/ncruces/zenity"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/scene"
)

// Window defaults.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
	lineHeight    = 16
)

// Options configures Run.
type Options struct {
	Width, Height int
	Title         string
	Photos        render.PhotoSource
	Background    render.Background
	// Debug shows the overlay lines on start. 'd' toggles it.
	Debug bool
	// Done ends the game loop when closed.
	Done <-chan struct{}
}

// Game implements ebiten.Game on top of an App.
type Game struct {
	app     *app.App
	painter *render.Painter
	canvas  *ebiten.Image
	snap    *scene.Snapshot
	chars   []rune
	debug   bool
	picking atomic.Bool
	done    <-chan struct{}
	width   int
	height  int
}

// NewGame creates a game that draws a's snapshots.
func NewGame(a *app.App, opts Options) *Game {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	p := render.NewPainter(render.DefaultCamera(), opts.Width, opts.Height)
	if opts.Photos != nil {
		p.SetPhotos(opts.Photos)
	}
	if opts.Background != nil {
		p.SetBackground(opts.Background)
	}
	return &Game{
		app:     a,
		painter: p,
		debug:   opts.Debug,
		done:    opts.Done,
		width:   opts.Width,
		height:  opts.Height,
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	select {
	case <-g.done:
		return ebiten.Termination
	default:
	}

	g.chars = ebiten.AppendInputChars(g.chars[:0])
	for _, r := range g.chars {
		if r == 'd' || r == 'D' {
			g.debug = !g.debug
			continue
		}
		switch g.app.HandleKey(r) {
		case app.ActionQuit:
			return ebiten.Termination
		case app.ActionPickColor:
			g.pickColor()
		}
	}

	g.snap = g.app.Step(time.Now())
	return nil
}

// pickColor opens the native color dialog without blocking the frame loop.
func (g *Game) pickColor() {
	if !g.picking.CompareAndSwap(false, true) {
		return
	}
	current := colorful.Color{R: 1, G: 1, B: 1}
	if g.snap != nil {
		current = g.snap.Color
	}

	go func() {
		defer g.picking.Store(false)
		c, err := zenity.SelectColor(
			zenity.Title("Particle color"),
			zenity.Color(current),
		)
		if err != nil {
			if !errors.Is(err, zenity.ErrCanceled) {
				log.Printf("color dialog: %v", err)
			}
			return
		}
		cc, ok := colorful.MakeColor(c)
		if !ok {
			return
		}
		if err := g.app.SetColor(cc); err != nil {
			log.Printf("set color: %v", err)
		}
	}()
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.snap == nil {
		screen.Fill(color.Black)
		return
	}

	b := screen.Bounds()
	g.painter.Resize(b.Dx(), b.Dy())
	if g.canvas == nil || g.canvas.Bounds() != b {
		if g.canvas != nil {
			g.canvas.Deallocate()
		}
		g.canvas = ebiten.NewImage(b.Dx(), b.Dy())
	}

	img := g.painter.Paint(g.snap)
	g.canvas.WritePixels(img.Pix)
	screen.DrawImage(g.canvas, nil)

	if g.debug {
		for i, line := range g.snap.Debug {
			ebitenutil.DebugPrintAt(screen, line, 12, 12+i*lineHeight)
		}
	}
	ebitenutil.DebugPrintAt(screen, app.HelpLine()+"  d debug", 12, b.Dy()-lineHeight-8)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = max(outsideWidth, 1), max(outsideHeight, 1)
	return g.width, g.height
}

// Run opens the window and blocks until it is closed.
func Run(a *app.App, opts Options) error {
	g := NewGame(a, opts)
	title := opts.Title
	if title == "" {
		title = "mudra"
	}

	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
