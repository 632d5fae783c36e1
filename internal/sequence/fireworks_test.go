package sequence

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSparkPool_Capacity(t *testing.T) {
	p := NewSparkPool(3)
	for i := 0; i < 5; i++ {
		ok := p.Spawn(Spark{Life: 1, MaxLife: 1})
		if want := i < 3; ok != want {
			t.Errorf("spawn %d: ok=%v, want %v", i, ok, want)
		}
	}
	if p.Live() != 3 || p.Cap() != 3 {
		t.Errorf("Live()=%d Cap()=%d, want 3/3", p.Live(), p.Cap())
	}
}

func TestSparkPool_RecyclesExpired(t *testing.T) {
	p := NewSparkPool(2)
	p.Spawn(Spark{Life: 0.1, MaxLife: 0.1})
	p.Spawn(Spark{Life: 1, MaxLife: 1})

	p.Update(0.2, 0, 0)
	if p.Live() != 1 {
		t.Fatalf("Live() = %d, want 1 after expiry", p.Live())
	}
	if !p.Spawn(Spark{Life: 1, MaxLife: 1}) {
		t.Error("expired slot was not reused")
	}
	if p.Spawn(Spark{Life: 1, MaxLife: 1}) {
		t.Error("pool grew beyond capacity")
	}
}

func TestSparkPool_Physics(t *testing.T) {
	p := NewSparkPool(1)
	p.Spawn(Spark{Vel: mgl32.Vec3{10, 0, 0}, Life: 2, MaxLife: 2})
	p.Update(0.5, 9.8, 1)

	var got Spark
	p.Each(func(s Spark) { got = s })

	if got.Vel.Y() >= 0 {
		t.Errorf("gravity did not pull the spark down: vel=%v", got.Vel)
	}
	if got.Vel.X() >= 10 {
		t.Errorf("drag did not slow the spark: vel=%v", got.Vel)
	}
	if a := got.Alpha(); a < 0.74 || a > 0.76 {
		t.Errorf("Alpha() = %f, want 0.75 after a quarter of its life", a)
	}
}

func TestSparkPool_Reset(t *testing.T) {
	p := NewSparkPool(4)
	for i := 0; i < 4; i++ {
		p.Spawn(Spark{Life: 1, MaxLife: 1})
	}
	p.Reset()
	if p.Live() != 0 {
		t.Errorf("Live() = %d after Reset", p.Live())
	}
	n := 0
	p.Each(func(Spark) { n++ })
	if n != 0 {
		t.Errorf("Each visited %d sparks after Reset", n)
	}
}

func TestFireworks_PhraseCycle(t *testing.T) {
	cfg := DefaultFireworksConfig()
	phrases := []string{"A", "B", "C"}
	start := time.Unix(0, 0)
	f := NewFireworks(cfg, phrases, start, 1)

	if s, ok := f.Phrase(); !ok || s != "A" {
		t.Fatalf("Phrase() = %q,%v, want A", s, ok)
	}

	advances := 0
	step := 100 * time.Millisecond
	now := start
	for i := 0; i < 200; i++ {
		now = now.Add(step)
		if f.Update(now).Advanced {
			advances++
		}
	}
	if !f.Done() {
		t.Fatal("phrase list not exhausted")
	}
	if advances != len(phrases) {
		t.Errorf("advanced %d times, want %d", advances, len(phrases))
	}
	if _, ok := f.Phrase(); ok {
		t.Error("Phrase() should report exhaustion")
	}
}

func TestFireworks_LargeJumpAdvancesOnce(t *testing.T) {
	cfg := DefaultFireworksConfig()
	start := time.Unix(0, 0)
	f := NewFireworks(cfg, []string{"A", "B", "C", "D"}, start, 1)

	ev := f.Update(start.Add(2*cfg.PhraseDuration + time.Millisecond))
	if !ev.Advanced || f.Index() != 2 {
		t.Errorf("index = %d advanced=%v, want 2/true", f.Index(), ev.Advanced)
	}
}

func TestFireworks_EmptyPhrases(t *testing.T) {
	f := NewFireworks(DefaultFireworksConfig(), nil, time.Unix(0, 0), 1)
	if !f.Done() {
		t.Error("empty phrase list should be done immediately")
	}
}

func TestFireworks_BurstsStayWithinCapacity(t *testing.T) {
	cfg := DefaultFireworksConfig()
	cfg.PhraseDuration = time.Hour
	cfg.BurstsPerSecond = 1000 // burst every tick
	cfg.Capacity = 100
	cfg.SparksPerBurst = 30
	start := time.Unix(0, 0)
	f := NewFireworks(cfg, []string{"A"}, start, 9)

	bursts := 0
	now := start
	for i := 0; i < 100; i++ {
		now = now.Add(16 * time.Millisecond)
		bursts += f.Update(now).Bursts
		if f.Sparks().Live() > cfg.Capacity {
			t.Fatalf("tick %d: %d live sparks, capacity %d", i, f.Sparks().Live(), cfg.Capacity)
		}
	}
	if bursts != 100 {
		t.Errorf("bursts = %d, want one per tick", bursts)
	}
}

func TestFireworks_BurstRate(t *testing.T) {
	cfg := DefaultFireworksConfig()
	cfg.PhraseDuration = time.Hour
	start := time.Unix(0, 0)
	f := NewFireworks(cfg, []string{"A"}, start, 5)

	const ticks = 60 * 600 // ten simulated minutes at 60 Hz
	bursts := 0
	now := start
	for i := 0; i < ticks; i++ {
		now = now.Add(time.Second / 60)
		bursts += f.Update(now).Bursts
	}

	want := cfg.BurstsPerSecond * 600
	if float64(bursts) < want*0.9 || float64(bursts) > want*1.1 {
		t.Errorf("bursts = %d, want about %.0f", bursts, want)
	}
}
