package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/assets"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/sfx"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

// Photos are decoded at most this large on their longest side.
const maxPhotoSide = 512

// pluginTimeout bounds one plugin run.
const pluginTimeout = 5 * time.Second

// runner holds everything one run owns.
type runner struct {
	cfg        config.Config
	store      *store.Store
	app        *app.App
	player     *sfx.Player
	dispatcher *plugin.Dispatcher
	tray       *tray.Tray
	video      *assets.VideoLoop

	stopVideo context.CancelFunc
	done      chan struct{}
	quitOnce  sync.Once
}

func setup(cmd *cobra.Command, f flags) (*runner, error) {
	boot, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}

	st, err := store.New(boot.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	cfg, err := loadConfig(cmd, st)
	if err != nil {
		st.Close()
		return nil, err
	}
	// The database cannot move itself.
	cfg.DataDir = boot.DataDir

	r := &runner{cfg: cfg, store: st, done: make(chan struct{})}

	m, err := assets.Discover(cfg.AssetsDir)
	if err != nil {
		log.Printf("assets: %v", err)
	}
	lib := assets.Load(m, assets.CVLoader{}, maxPhotoSide)
	if m.Video != "" {
		ctx, cancel := context.WithCancel(context.Background())
		r.video = assets.NewVideoLoop(m.Video, maxPhotoSide)
		r.stopVideo = cancel
		go func() {
			if err := r.video.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("background video: %v", err)
			}
		}()
	}

	a, err := app.New(app.Config{Settings: cfg, Store: st, Assets: lib})
	if err != nil {
		r.Close()
		return nil, err
	}
	r.app = a

	if cfg.Audio {
		p := sfx.NewPlayer(uint64(time.Now().UnixNano()))
		if err := p.Init(); err != nil {
			log.Printf("audio disabled: %v", err)
		} else {
			r.player = p
			a.Machine().OnBurst(p.Pop)
		}
	}

	pm := plugin.NewManager(filepath.Join(cfg.DataDir, "plugins"))
	if err := pm.Discover(); err != nil {
		log.Printf("plugins: %v", err)
	}
	if n := len(pm.List()); n > 0 {
		log.Printf("loaded %d plugins from %s", n, pm.PluginDir())
		r.dispatcher = plugin.NewDispatcher(pm, plugin.NewExecutor(pluginTimeout), plugin.DefaultQueueSize)
		session := a.Session()
		a.OnTransition(func(t scene.Transition) {
			req := plugin.Request{
				Event:   plugin.EventTransition,
				Session: session,
				From:    t.From.String(),
				To:      t.To.String(),
				Trigger: string(t.Trigger),
				At:      t.At.UTC().Format(time.RFC3339),
			}
			if !r.dispatcher.Notify(req) {
				log.Printf("plugin queue full, dropped transition to %s", req.To)
			}
		})
	}

	if f.tray {
		r.tray = newTray(r)
	}

	if err := a.Start(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func newTray(r *runner) *tray.Tray {
	t := tray.New()
	t.SetEnabled(r.cfg.Gestures)
	t.OnToggle(func(enabled bool) {
		if err := r.app.SetGesturesEnabled(enabled); err != nil {
			log.Printf("tray: %v", err)
		}
	})
	t.OnEnter(func(s scene.State) {
		if err := r.app.Enter(s); err != nil {
			log.Printf("tray: %v", err)
		}
	})
	t.OnOpen(func() { openBrowser("http://" + r.cfg.ServerAddr) })
	t.OnQuit(r.quit)
	r.app.OnTransition(func(tr scene.Transition) { t.SetState(tr.To) })
	return t
}

// quit asks the running mode to stop.
func (r *runner) quit() {
	r.quitOnce.Do(func() { close(r.done) })
}

// runWithTray runs mode while the tray owns the main thread. Without a
// tray mode runs directly.
func (r *runner) runWithTray(mode func() error) error {
	if r.tray == nil {
		return mode()
	}
	errCh := make(chan error, 1)
	go func() {
		err := mode()
		r.tray.Quit()
		errCh <- err
	}()
	r.tray.Run()
	r.quit()
	return <-errCh
}

// serve runs the HTTP server until ctx is done. With tick set it also
// drives the render tick, for runs without a local renderer.
func (r *runner) serve(ctx context.Context, webDir string, tick bool) error {
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		log.Printf("serving static files from %s", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     r.store,
		App:       r.app,
	})

	if tick {
		go r.tick(ctx)
	}

	log.Printf("starting server on %s", r.cfg.ServerAddr)
	if err := srv.Serve(ctx, r.cfg.ServerAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (r *runner) tick(ctx context.Context) {
	ticker := time.NewTicker(time.Second / server.DefaultFrameRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.app.Step(now)
		}
	}
}

// Close stops everything setup started.
func (r *runner) Close() {
	if r.app != nil {
		r.app.Stop()
	}
	if r.dispatcher != nil {
		r.dispatcher.Close()
	}
	if r.player != nil {
		r.player.Close()
	}
	if r.stopVideo != nil {
		r.stopVideo()
	}
	if err := r.store.Close(); err != nil {
		log.Printf("error closing store: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("failed to open browser: %v", err)
	}
}

// serveBackground runs the server next to a local renderer. Failures only
// disable the browser view.
func (r *runner) serveBackground(ctx context.Context, webDir string) {
	if err := r.serve(ctx, webDir, false); err != nil {
		log.Printf("browser view disabled: %v", err)
	}
}
