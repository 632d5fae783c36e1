package sequence

import (
	"math"
	"testing"
	"time"
)

func TestEaseOutCubic(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.5, 0.875},
		{1, 1},
		{2, 1},
	}
	for _, c := range cases {
		if got := EaseOutCubic(c.in); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("EaseOutCubic(%f) = %f, want %f", c.in, got, c.want)
		}
	}
}

func TestPhoto_HeroTimeline(t *testing.T) {
	cfg := DefaultPhotoConfig()
	start := time.Unix(0, 0)
	p := NewPhoto(cfg, 3, start, 1)

	p.Update(start.Add(cfg.HeroDuration / 2))
	hero, visible := p.Hero()
	if p.Phase() != HeroFlyIn || !visible {
		t.Fatalf("phase = %s visible=%v, want fly-in", p.Phase(), visible)
	}
	// Ease-out covers more than half the distance by the midpoint.
	half := (cfg.HeroStartZ + cfg.HeroRestZ) / 2
	if hero.Z <= half {
		t.Errorf("hero z = %f, want past midpoint %f", hero.Z, half)
	}

	p.Update(start.Add(cfg.HeroDuration + cfg.StayDuration/2))
	hero, visible = p.Hero()
	if p.Phase() != HeroStay || !visible || hero.Opacity != 1 || hero.Z != cfg.HeroRestZ {
		t.Errorf("stay: phase=%s hero=%+v visible=%v", p.Phase(), hero, visible)
	}

	p.Update(start.Add(cfg.HeroDuration + cfg.StayDuration))
	if p.Phase() != Spawning {
		t.Errorf("phase = %s, want spawning", p.Phase())
	}
	if _, visible := p.Hero(); visible {
		t.Error("hero should be hidden once memory photos start")
	}
	if p.Spawned() != 1 {
		t.Errorf("Spawned() = %d, want 1 at the first spawn tick", p.Spawned())
	}
}

func TestPhoto_SpawnIntervalAndPoolBound(t *testing.T) {
	cfg := DefaultPhotoConfig()
	cfg.MinSpeed, cfg.MaxSpeed = 1, 1 // photos never leave during the test
	start := time.Unix(0, 0)
	p := NewPhoto(cfg, 20, start, 2)

	spawnStart := start.Add(cfg.HeroDuration + cfg.StayDuration)
	for i := 0; i < 40; i++ {
		now := spawnStart.Add(time.Duration(i) * cfg.SpawnInterval / 2)
		p.Update(now)
		if len(p.Active()) > cfg.MaxActive {
			t.Fatalf("tick %d: %d active photos, max %d", i, len(p.Active()), cfg.MaxActive)
		}
	}
	if p.Spawned() != cfg.MaxActive {
		t.Errorf("Spawned() = %d, want pool capped at %d", p.Spawned(), cfg.MaxActive)
	}
}

func TestPhoto_OneSpawnPerInterval(t *testing.T) {
	cfg := DefaultPhotoConfig()
	start := time.Unix(0, 0)
	p := NewPhoto(cfg, 5, start, 3)

	spawnStart := start.Add(cfg.HeroDuration + cfg.StayDuration)
	p.Update(spawnStart)
	p.Update(spawnStart.Add(cfg.SpawnInterval - time.Millisecond))
	if p.Spawned() != 1 {
		t.Errorf("Spawned() = %d before the interval elapsed, want 1", p.Spawned())
	}
	p.Update(spawnStart.Add(cfg.SpawnInterval))
	if p.Spawned() != 2 {
		t.Errorf("Spawned() = %d after one interval, want 2", p.Spawned())
	}
}

func TestPhoto_Opacity(t *testing.T) {
	cfg := DefaultPhotoConfig()
	p := NewPhoto(cfg, 1, time.Unix(0, 0), 1)

	cases := []struct {
		name string
		z    float64
		want float64
	}{
		{"at start", cfg.StartZ, 0},
		{"halfway through fade in", cfg.StartZ + cfg.FadeInDistance/2, 0.5},
		{"mid flight", 0, 1},
		{"at near plane", cfg.NearZ, 1},
		{"halfway to exit", (cfg.NearZ + cfg.ExitZ) / 2, 0.5},
		{"at exit", cfg.ExitZ, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := p.opacity(c.z); math.Abs(got-c.want) > 1e-9 {
				t.Errorf("opacity(%f) = %f, want %f", c.z, got, c.want)
			}
		})
	}
}

func TestPhoto_Completes(t *testing.T) {
	cfg := DefaultPhotoConfig()
	start := time.Unix(0, 0)
	p := NewPhoto(cfg, 4, start, 4)

	step := 50 * time.Millisecond
	now := start
	for i := 0; i < 2000 && !p.Done(); i++ {
		now = now.Add(step)
		p.Update(now)
		for _, f := range p.Active() {
			if f.Z > cfg.ExitZ {
				t.Fatalf("photo %d past exit plane at z=%f", f.Index, f.Z)
			}
		}
	}
	if !p.Done() {
		t.Fatal("slideshow never completed")
	}
	if p.Spawned() != 4 || len(p.Active()) != 0 {
		t.Errorf("spawned=%d active=%d at completion", p.Spawned(), len(p.Active()))
	}
}

func TestPhoto_NoMemoryPhotos(t *testing.T) {
	cfg := DefaultPhotoConfig()
	start := time.Unix(0, 0)
	p := NewPhoto(cfg, 0, start, 1)

	p.Update(start.Add(cfg.HeroDuration + cfg.StayDuration))
	if !p.Done() {
		t.Errorf("phase = %s, want done right after the hero stay", p.Phase())
	}
}
