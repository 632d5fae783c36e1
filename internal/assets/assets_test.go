package assets

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFuture(t *testing.T) {
	t.Run("pending then resolved", func(t *testing.T) {
		release := make(chan struct{})
		f := Go(func() (int, error) {
			<-release
			return 7, nil
		})

		if f.Ready() {
			t.Fatal("future resolved before release")
		}
		if _, err := f.Get(); !errors.Is(err, ErrNotReady) {
			t.Errorf("Get() error = %v, want ErrNotReady", err)
		}
		if got := f.Or(-1); got != -1 {
			t.Errorf("Or() = %d while pending, want default", got)
		}

		close(release)
		v, err := f.Wait(context.Background())
		if err != nil || v != 7 {
			t.Fatalf("Wait() = %d, %v", v, err)
		}
		if !f.Ready() || f.Or(-1) != 7 {
			t.Error("resolved future should report its value")
		}
	})

	t.Run("failure yields default", func(t *testing.T) {
		f := Resolved(0, errors.New("boom"))
		if got := f.Or(5); got != 5 {
			t.Errorf("Or() = %d, want 5", got)
		}
		if _, err := f.Get(); err == nil || errors.Is(err, ErrNotReady) {
			t.Errorf("Get() error = %v, want load error", err)
		}
	})

	t.Run("wait honors context", func(t *testing.T) {
		block := make(chan struct{})
		t.Cleanup(func() { close(block) })
		f := Go(func() (int, error) {
			<-block
			return 0, nil
		})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Wait() error = %v, want deadline", err)
		}
	})
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	hero := touch(t, dir, "hero.jpg")
	video := touch(t, dir, "fireworks.mp4")
	m10 := touch(t, dir, "memory_10.jpg")
	m2 := touch(t, dir, "memory_02.png")
	m1 := touch(t, dir, "memory_1.jpeg")
	touch(t, dir, "memory_x.jpg")
	touch(t, dir, "notes.txt")
	if err := os.Mkdir(filepath.Join(dir, "memory_3.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	m, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if m.Hero != hero || m.Video != video {
		t.Errorf("hero=%q video=%q", m.Hero, m.Video)
	}
	want := []string{m1, m2, m10}
	if len(m.Memories) != len(want) {
		t.Fatalf("memories = %v, want %v", m.Memories, want)
	}
	for i := range want {
		if m.Memories[i] != want[i] {
			t.Errorf("memory %d = %s, want %s", i, m.Memories[i], want[i])
		}
	}
}

func TestDiscover_MissingDir(t *testing.T) {
	m, err := Discover(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if m.Hero != "" || len(m.Memories) != 0 || m.Video != "" {
		t.Errorf("expected empty manifest, got %+v", m)
	}
}

// fakeLoader returns a tiny image for every path except those in fail.
type fakeLoader struct {
	mu    sync.Mutex
	fail  map[string]bool
	paths []string
}

func (l *fakeLoader) LoadImage(path string, maxSide int) (image.Image, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, path)
	if l.fail[path] {
		return nil, errors.New("corrupt")
	}
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func waitLoaded(t *testing.T, lib *Library, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for lib.Loaded() < n {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of %d assets loaded", lib.Loaded(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLibrary(t *testing.T) {
	m := Manifest{
		Hero:     "hero.jpg",
		Memories: []string{"memory_1.jpg", "memory_2.jpg", "memory_3.jpg"},
	}
	loader := &fakeLoader{fail: map[string]bool{"memory_2.jpg": true}}
	lib := Load(m, loader, 256)

	if lib.MemoryCount() != 3 {
		t.Errorf("MemoryCount() = %d, want 3", lib.MemoryCount())
	}
	waitLoaded(t, lib, 3)

	if _, ok := lib.Hero(); !ok {
		t.Error("hero should be loaded")
	}
	for i, want := range []bool{true, false, true} {
		if _, ok := lib.Memory(i); ok != want {
			t.Errorf("Memory(%d) ok = %v, want %v", i, ok, want)
		}
	}
	if _, ok := lib.Memory(9); ok {
		t.Error("out of range memory should not load")
	}
}

func TestLibrary_NoHero(t *testing.T) {
	lib := Load(Manifest{}, &fakeLoader{}, 0)
	if _, ok := lib.Hero(); ok {
		t.Error("missing hero should never load")
	}

	var nilLib *Library
	if nilLib.MemoryCount() != 0 || nilLib.Loaded() != 0 {
		t.Error("nil library should be empty")
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, max int
		want      image.Point
	}{
		{640, 480, 0, image.Pt(640, 480)},
		{640, 480, 1000, image.Pt(640, 480)},
		{1000, 500, 500, image.Pt(500, 250)},
		{500, 1000, 500, image.Pt(250, 500)},
		{4000, 1, 100, image.Pt(100, 1)},
	}
	for _, tt := range tests {
		if got := fitWithin(tt.w, tt.h, tt.max); got != tt.want {
			t.Errorf("fitWithin(%d,%d,%d) = %v, want %v", tt.w, tt.h, tt.max, got, tt.want)
		}
	}
}

func TestCVLoader_Missing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}
	if _, err := (CVLoader{}).LoadImage(filepath.Join(t.TempDir(), "none.jpg"), 0); err == nil {
		t.Error("expected error for a missing image")
	}
}

func TestVideoLoop_NoFile(t *testing.T) {
	v := NewVideoLoop("", 0)
	if err := v.Run(context.Background()); err == nil {
		t.Error("expected error without a video file")
	}
	if _, ok := v.Frame(); ok {
		t.Error("no frame expected")
	}
	if v.Err() == nil {
		t.Error("Err() should report the failure")
	}
}
