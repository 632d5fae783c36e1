// Package term draws the scene in a terminal with braille dots.
package term

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/scene"
)

// DefaultFPS is the terminal redraw rate.
const DefaultFPS = 30

// palette is what 'c' cycles through; there is no color dialog in a
// terminal.
var palette = []string{"#00ffff", "#ff69b4", "#ffd700", "#7cfc00", "#ff4500", "#ffffff"}

// Options configures Run.
type Options struct {
	FPS int
	// LogFile receives log output while the screen is active. Empty
	// discards it.
	LogFile string
	Debug   bool
}

// Renderer owns the tcell screen.
type Renderer struct {
	app     *app.App
	screen  tcell.Screen
	grid    *Grid
	proj    *render.Projector
	debug   bool
	palette int
}

// New initializes the terminal screen.
func New(a *app.App, opts Options) (*Renderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}
	screen.HideCursor()

	r := &Renderer{app: a, screen: screen, debug: opts.Debug}
	cols, rows := screen.Size()
	r.grid = NewGrid(cols, rows)
	w, h := r.grid.Pixels()
	r.proj = render.NewProjector(render.DefaultCamera(), w, h)
	return r, nil
}

// Run draws until ctx is done or the user quits.
func Run(ctx context.Context, a *app.App, opts Options) error {
	var out io.Writer = io.Discard
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	prev := log.Writer()
	log.SetOutput(out)
	defer log.SetOutput(prev)

	r, err := New(a, opts)
	if err != nil {
		return err
	}
	defer r.screen.Fini()

	return r.loop(ctx, opts.FPS)
}

func (r *Renderer) loop(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := r.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !r.handleEvent(ev) {
				return nil
			}
		case now := <-ticker.C:
			r.draw(r.app.Step(now))
		}
	}
}

// handleEvent returns false when the user quits.
func (r *Renderer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			if ev.Rune() == 'd' {
				r.debug = !r.debug
				return true
			}
			switch r.app.HandleKey(ev.Rune()) {
			case app.ActionQuit:
				return false
			case app.ActionPickColor:
				r.nextColor()
			}
		}
	case *tcell.EventResize:
		cols, rows := r.screen.Size()
		r.grid.Resize(cols, rows)
		w, h := r.grid.Pixels()
		r.proj.Resize(w, h)
		r.screen.Sync()
	}
	return true
}

func (r *Renderer) nextColor() {
	c, err := colorful.Hex(palette[r.palette%len(palette)])
	r.palette++
	if err != nil {
		return
	}
	if err := r.app.SetColor(c); err != nil {
		log.Printf("set color: %v", err)
	}
}

func (r *Renderer) draw(s *scene.Snapshot) {
	Rasterize(r.grid, r.proj, s)

	r.screen.Clear()
	cols, rows := r.grid.Size()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			ch, c, ok := r.grid.Cell(col, row)
			if !ok {
				continue
			}
			cr, cg, cb := c.RGB255()
			style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(cr), int32(cg), int32(cb)))
			r.screen.SetContent(col, row, ch, nil, style)
		}
	}

	text := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	if r.debug {
		for i, line := range s.Debug {
			drawText(r.screen, 1, i, line, text)
		}
	}
	if s.Phrase != "" {
		drawText(r.screen, max(0, (cols-len(s.Phrase))/2), 1, s.Phrase, text.Bold(true))
	}
	drawText(r.screen, 1, rows-1, app.HelpLine()+"  d debug", tcell.StyleDefault.Foreground(tcell.ColorGray))
	r.screen.Show()
}

// Rasterize projects particles, photos and sparks of s into g.
func Rasterize(g *Grid, p *render.Projector, s *scene.Snapshot) {
	g.Clear()

	p.SetRotation(s.Rotation)
	alpha := float32(s.Opacity)
	vertex := len(s.Colors) == len(s.Positions)
	for i := 0; i+2 < len(s.Positions); i += 3 {
		x, y, _, ok := p.Project(mgl32.Vec3{s.Positions[i], s.Positions[i+1], s.Positions[i+2]})
		if !ok {
			continue
		}
		c := s.Color
		if vertex {
			c = colorful.Color{R: float64(s.Colors[i]), G: float64(s.Colors[i+1]), B: float64(s.Colors[i+2])}
		}
		g.Plot(int(x), int(y), c, alpha)
	}

	for _, sp := range s.Sparks {
		if x, y, _, ok := p.Project(mgl32.Vec3{sp.X, sp.Y, sp.Z}); ok {
			g.Plot(int(x), int(y), sp.Color, sp.Alpha)
		}
	}

	// Photos have no pixels here; draw their frames.
	p.SetRotation(0)
	frame := colorful.Color{R: 0.9, G: 0.9, B: 1}
	for _, ph := range s.Photos {
		x, y, depth, ok := p.Project(mgl32.Vec3{float32(ph.X), float32(ph.Y), float32(ph.Z)})
		if !ok || ph.Opacity <= 0 {
			continue
		}
		half := int(render.PhotoSize * p.Scale(depth) / 2)
		outline(g, int(x)-half, int(y)-half, int(x)+half, int(y)+half, frame, float32(ph.Opacity))
	}
}

func outline(g *Grid, x0, y0, x1, y1 int, c colorful.Color, alpha float32) {
	for x := x0; x <= x1; x++ {
		g.Plot(x, y0, c, alpha)
		g.Plot(x, y1, c, alpha)
	}
	for y := y0; y <= y1; y++ {
		g.Plot(x0, y, c, alpha)
		g.Plot(x1, y, c, alpha)
	}
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, ch := range []rune(text) {
		s.SetContent(x+i, y, ch, nil, style)
	}
}
