package scene

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/shape"
)

// blockRasterizer renders every text as the same filled rectangle.
type blockRasterizer struct{}

func (blockRasterizer) Rasterize(text string) (shape.Bitmap, error) {
	bm := shape.Bitmap{Width: 16, Height: 16, Pix: make([]uint8, 256)}
	if text == "" {
		return bm, nil
	}
	for y := 4; y < 12; y++ {
		for x := 4; x < 12; x++ {
			bm.Pix[y*bm.Width+x] = 255
		}
	}
	return bm, nil
}

// countingGenerator records every Generate call.
type countingGenerator struct {
	inner *shape.Generator
	calls []shape.Params
	kinds []shape.Kind
}

func newCountingGenerator() *countingGenerator {
	return &countingGenerator{inner: shape.NewGenerator(1, blockRasterizer{})}
}

func (g *countingGenerator) Generate(kind shape.Kind, count int, p shape.Params) shape.Set {
	g.calls = append(g.calls, p)
	g.kinds = append(g.kinds, kind)
	return g.inner.Generate(kind, count, p)
}

// textCalls counts generations of any of the given texts.
func (g *countingGenerator) textCalls(texts []string) int {
	n := 0
	for i, p := range g.calls {
		if g.kinds[i] != shape.Text {
			continue
		}
		for _, s := range texts {
			if p.Text == s {
				n++
			}
		}
	}
	return n
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Particles = 200
	return cfg
}

func newTestMachine(t *testing.T) (*Machine, *countingGenerator, *[]Transition) {
	t.Helper()
	gen := newCountingGenerator()
	m := New(testConfig(), gen)
	var log []Transition
	m.OnTransition(func(tr Transition) { log = append(log, tr) })
	return m, gen, &log
}

func feed(m *Machine, label gesture.Label, n int, now time.Time) {
	for i := 0; i < n; i++ {
		m.HandleGesture(label, now)
	}
}

func TestStateTable_Exhaustive(t *testing.T) {
	if len(stateTable) != int(numStates) {
		t.Fatalf("stateTable has %d entries, want %d", len(stateTable), numStates)
	}
	names := map[string]bool{}
	for _, s := range States() {
		e, ok := stateTable[s]
		if !ok {
			t.Fatalf("state %d missing from stateTable", s)
		}
		if e.name == "" || names[e.name] {
			t.Errorf("state %d has empty or duplicate name %q", s, e.name)
		}
		names[e.name] = true

		got, err := ParseState(e.name)
		if err != nil || got != s {
			t.Errorf("ParseState(%q) = %v, %v", e.name, got, err)
		}
	}

	for _, l := range gesture.Labels() {
		_, mapped := gestureTargets[l]
		handled := l == gesture.Fist || l == gesture.None || l == gesture.Unknown
		if mapped == handled {
			t.Errorf("label %s: mapped=%v handled=%v, want exactly one", l, mapped, handled)
		}
	}
}

func TestMustHex(t *testing.T) {
	c := mustHex("#ff00ff")
	if !c.AlmostEqualRgb(colorful.Color{R: 1, G: 0, B: 1}) {
		t.Errorf("mustHex(#ff00ff) = %+v", c)
	}

	for _, s := range States() {
		if !stateTable[s].color.IsValid() {
			t.Errorf("state %s color %+v out of range", s, stateTable[s].color)
		}
	}

	defer func() {
		if recover() == nil {
			t.Error("mustHex(bad) did not panic")
		}
	}()
	mustHex("not-a-color")
}

func TestState_TextEncoding(t *testing.T) {
	b, err := json.Marshal(map[string]State{"s": Digit2})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `{"s":"digit2"}` {
		t.Errorf("Marshal() = %s", b)
	}

	var out struct{ S State }
	if err := json.Unmarshal([]byte(`{"S":"fireworks"}`), &out); err != nil || out.S != FireworksSequence {
		t.Errorf("Unmarshal() = %v, %v", out.S, err)
	}
	if err := json.Unmarshal([]byte(`{"S":"cube"}`), &out); !errors.Is(err, ErrUnknownState) {
		t.Errorf("Unmarshal(cube) error = %v, want ErrUnknownState", err)
	}
	if _, err := State(99).MarshalText(); !errors.Is(err, ErrUnknownState) {
		t.Errorf("MarshalText(99) error = %v", err)
	}
}

func TestNew_IdleState(t *testing.T) {
	tests := []struct {
		name string
		idle State
		want State
	}{
		{"planet default", Planet, Planet},
		{"sphere variant", Sphere, Sphere},
		{"non-idle falls back", Heart, Planet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Idle = tt.idle
			m := New(cfg, newCountingGenerator())
			if m.State() != tt.want {
				t.Errorf("State() = %s, want %s", m.State(), tt.want)
			}
		})
	}
}

func TestHandleGesture_OpenPalmLandsInHeart(t *testing.T) {
	now := time.Unix(100, 0)
	pink := mustHex("#ff69b4")

	for _, s := range States() {
		if s.Locked() {
			continue
		}
		t.Run(s.String(), func(t *testing.T) {
			m, _, _ := newTestMachine(t)
			if err := m.Enter(s, now); err != nil {
				t.Fatalf("Enter() error = %v", err)
			}
			m.HandleGesture(gesture.OpenPalm, now)

			if m.State() != Heart {
				t.Fatalf("State() = %s, want heart", m.State())
			}
			in := m.Integrator()
			if !in.TargetColor().AlmostEqualRgb(pink) {
				t.Errorf("target color = %s, want %s", in.TargetColor().Hex(), pink.Hex())
			}
			if in.VertexColored() {
				t.Error("heart must not use vertex colors")
			}
		})
	}
}

func TestHandleGesture_Digits(t *testing.T) {
	now := time.Unix(100, 0)
	tests := []struct {
		label gesture.Label
		want  State
	}{
		{gesture.One, Digit1},
		{gesture.Two, Digit2},
		{gesture.Three, Digit3},
	}
	for _, tt := range tests {
		t.Run(tt.label.String(), func(t *testing.T) {
			m, gen, _ := newTestMachine(t)
			m.Integrator().Step(now)
			m.HandleGesture(tt.label, now)

			if m.State() != tt.want {
				t.Fatalf("State() = %s, want %s", m.State(), tt.want)
			}
			if m.Integrator().Rotating() || m.Integrator().Rotation() != 0 {
				t.Error("digit states must stay upright")
			}
			last := gen.calls[len(gen.calls)-1]
			if last.Text != stateTable[tt.want].text {
				t.Errorf("generated text %q, want %q", last.Text, stateTable[tt.want].text)
			}
		})
	}
}

func TestHandleGesture_NoOpLabels(t *testing.T) {
	now := time.Unix(100, 0)
	m, _, log := newTestMachine(t)
	m.HandleGesture(gesture.OpenPalm, now)
	before := len(*log)

	for _, l := range []gesture.Label{gesture.None, gesture.Unknown} {
		if m.HandleGesture(l, now) {
			t.Errorf("%s changed the state", l)
		}
	}
	if m.State() != Heart || len(*log) != before {
		t.Errorf("state = %s, %d new transitions", m.State(), len(*log)-before)
	}
}

func TestFist_ShortHoldLandsInIdle(t *testing.T) {
	now := time.Unix(100, 0)
	m, _, _ := newTestMachine(t)
	m.HandleGesture(gesture.OpenPalm, now)

	feed(m, gesture.Fist, 3, now)
	if m.State() != Planet {
		t.Errorf("State() = %s, want planet", m.State())
	}
	if m.Hold() != 3 {
		t.Errorf("Hold() = %d, want 3", m.Hold())
	}
}

func TestFist_ChargingBand(t *testing.T) {
	now := time.Unix(100, 0)
	m, _, log := newTestMachine(t)
	m.HandleGesture(gesture.OpenPalm, now)

	cfg := m.Config()
	feed(m, gesture.Fist, cfg.LongHold, now)
	if m.State() != Planet {
		t.Fatalf("State() = %s after %d fists, want planet", m.State(), cfg.LongHold)
	}
	for _, tr := range *log {
		if tr.To == PhotoSequence {
			t.Fatal("photo sequence entered before the long threshold")
		}
	}
	snap := m.Snapshot(now)
	if snap.HoldProgress != 1 {
		t.Errorf("HoldProgress = %f, want 1 at the threshold", snap.HoldProgress)
	}
}

func TestFist_InterruptedHoldResets(t *testing.T) {
	now := time.Unix(100, 0)
	m, _, _ := newTestMachine(t)

	feed(m, gesture.Fist, 30, now)
	m.HandleGesture(gesture.None, now)
	if m.Hold() != 0 {
		t.Fatalf("Hold() = %d after a gap, want 0", m.Hold())
	}
	feed(m, gesture.Fist, 30, now)
	if m.State() == PhotoSequence {
		t.Error("interrupted holds must not add up")
	}
}

func TestFist_LongHoldEntersPhotoWithExplosion(t *testing.T) {
	now := time.Unix(100, 0)
	m, _, log := newTestMachine(t)
	m.HandleGesture(gesture.OpenPalm, now)

	feed(m, gesture.Fist, 45, now)
	if m.State() != PhotoSequence {
		t.Fatalf("State() = %s, want photo", m.State())
	}
	if m.Hold() != 0 {
		t.Errorf("Hold() = %d, want 0 after entering the photo sequence", m.Hold())
	}

	last := (*log)[len(*log)-1]
	if last.From != Planet || last.To != PhotoSequence || last.Trigger != TriggerGesture {
		t.Errorf("last transition = %+v", last)
	}

	in := m.Integrator()
	dur := m.Config().Motion.Explosion.Duration
	if !in.Exploding(now) || !in.Exploding(now.Add(dur-time.Millisecond)) {
		t.Error("explosion should be active for its full duration")
	}
	if in.Exploding(now.Add(dur)) {
		t.Error("explosion should end after its duration")
	}
}

func TestPhoto_NoExplosionFromNonIdle(t *testing.T) {
	now := time.Unix(100, 0)
	m, _, _ := newTestMachine(t)
	m.HandleGesture(gesture.OpenPalm, now)

	if err := m.Enter(PhotoSequence, now); err != nil {
		t.Fatal(err)
	}
	if m.Integrator().Exploding(now) {
		t.Error("explosion should only follow the idle state")
	}
}

func TestLockedStates_IgnoreGestures(t *testing.T) {
	now := time.Unix(100, 0)
	for _, locked := range []State{PhotoSequence, FireworksSequence} {
		t.Run(locked.String(), func(t *testing.T) {
			m, _, log := newTestMachine(t)
			if err := m.Enter(locked, now); err != nil {
				t.Fatal(err)
			}
			before := len(*log)

			for _, l := range gesture.Labels() {
				for i := 0; i < 50; i++ {
					if m.HandleGesture(l, now) {
						t.Fatalf("%s changed locked state %s", l, locked)
					}
				}
				if m.Hold() != 0 {
					t.Errorf("hold counter grew to %d while locked", m.Hold())
				}
			}
			if m.State() != locked || len(*log) != before {
				t.Errorf("state = %s with %d new transitions", m.State(), len(*log)-before)
			}
		})
	}
}

func TestPhoto_TimerExitsToHeart(t *testing.T) {
	start := time.Unix(100, 0)
	m, _, log := newTestMachine(t)
	m.SetPhotoCount(func() int { return 2 })
	if err := m.Enter(PhotoSequence, start); err != nil {
		t.Fatal(err)
	}

	now := start
	for i := 0; i < 600 && m.State() == PhotoSequence; i++ {
		now = now.Add(50 * time.Millisecond)
		m.Tick(now)
	}
	if m.State() != Heart {
		t.Fatalf("State() = %s, want heart after the slideshow", m.State())
	}
	last := (*log)[len(*log)-1]
	if last.From != PhotoSequence || last.Trigger != TriggerTimer {
		t.Errorf("last transition = %+v", last)
	}
}

func TestHandleGesture_BothOpenFromAnyUnlockedState(t *testing.T) {
	now := time.Unix(100, 0)

	for _, s := range States() {
		if s.Locked() {
			continue
		}
		t.Run(s.String(), func(t *testing.T) {
			m, _, log := newTestMachine(t)
			if err := m.Enter(s, now); err != nil {
				t.Fatalf("Enter() error = %v", err)
			}
			m.HandleGesture(gesture.BothOpen, now)

			if m.State() != FireworksSequence {
				t.Fatalf("State() = %s, want fireworks", m.State())
			}
			last := (*log)[len(*log)-1]
			if last.From != s || last.Trigger != TriggerGesture {
				t.Errorf("last transition = %+v", last)
			}
		})
	}
}

func TestFireworks_RegeneratesPerPhrase(t *testing.T) {
	start := time.Unix(100, 0)
	m, gen, log := newTestMachine(t)
	phrases := m.Config().Phrases

	m.HandleGesture(gesture.OpenPalm, start)
	m.HandleGesture(gesture.BothOpen, start)
	if m.State() != FireworksSequence {
		t.Fatalf("State() = %s, want fireworks", m.State())
	}

	dur := m.Config().Fireworks.PhraseDuration
	now := start
	end := start.Add(time.Duration(len(phrases)) * dur)
	for now.Before(end) {
		now = now.Add(100 * time.Millisecond)
		m.Tick(now)
	}

	if got := gen.textCalls(phrases); got != len(phrases) {
		t.Errorf("phrase regenerations = %d, want %d", got, len(phrases))
	}
	if m.State() != Heart {
		t.Fatalf("State() = %s, want heart once phrases are exhausted", m.State())
	}
	last := (*log)[len(*log)-1]
	if last.From != FireworksSequence || last.Trigger != TriggerTimer {
		t.Errorf("last transition = %+v", last)
	}

	for i := 0; i < 100; i++ {
		now = now.Add(100 * time.Millisecond)
		m.Tick(now)
	}
	if got := gen.textCalls(phrases); got != len(phrases) {
		t.Errorf("phrase regenerated after exit: %d calls", got)
	}
}

func TestFireworks_Bursts(t *testing.T) {
	cfg := testConfig()
	cfg.Fireworks.BurstsPerSecond = 1000
	m := New(cfg, newCountingGenerator())

	bursts := 0
	m.OnBurst(func(n int) { bursts += n })

	start := time.Unix(100, 0)
	if err := m.Enter(FireworksSequence, start); err != nil {
		t.Fatal(err)
	}
	m.Tick(start.Add(16 * time.Millisecond))

	if bursts != 1 {
		t.Errorf("bursts = %d, want 1", bursts)
	}
	snap := m.Snapshot(start)
	if len(snap.Sparks) == 0 || snap.Phrase != cfg.Phrases[0] {
		t.Errorf("snapshot sparks=%d phrase=%q", len(snap.Sparks), snap.Phrase)
	}
}

func TestTransitions_SelfAndRestart(t *testing.T) {
	now := time.Unix(100, 0)
	m, _, log := newTestMachine(t)

	m.HandleGesture(gesture.OpenPalm, now)
	m.HandleGesture(gesture.OpenPalm, now)
	if err := m.Enter(Heart, now); err != nil {
		t.Fatal(err)
	}
	if len(*log) != 1 {
		t.Errorf("self transitions recorded: %d, want 1", len(*log))
	}

	m.Enter(PhotoSequence, now)
	m.Tick(now.Add(time.Second))
	first := m.photo

	m.Enter(PhotoSequence, now.Add(time.Second))
	if m.photo == first {
		t.Error("re-entering the photo sequence should restart it")
	}
	last := (*log)[len(*log)-1]
	if last.From != PhotoSequence || last.To != PhotoSequence || last.Trigger != TriggerManual {
		t.Errorf("restart transition = %+v", last)
	}
}

func TestEnter_UnknownState(t *testing.T) {
	m, _, _ := newTestMachine(t)
	if err := m.Enter(State(42), time.Now()); !errors.Is(err, ErrUnknownState) {
		t.Errorf("Enter(42) error = %v, want ErrUnknownState", err)
	}
	if _, err := ParseState("cube"); !errors.Is(err, ErrUnknownState) {
		t.Errorf("ParseState(cube) error = %v", err)
	}
}

func TestSetColorOverride(t *testing.T) {
	now := time.Unix(100, 0)
	m, _, _ := newTestMachine(t)
	red := colorful.Color{R: 1}

	m.SetColorOverride(red)
	in := m.Integrator()
	if in.VertexColored() {
		t.Error("override should replace the planet vertex colors")
	}
	if !in.TargetColor().AlmostEqualRgb(red) {
		t.Errorf("target color = %s", in.TargetColor().Hex())
	}

	m.HandleGesture(gesture.OpenPalm, now)
	if !in.TargetColor().AlmostEqualRgb(mustHex("#ff69b4")) {
		t.Errorf("override should end at the next transition, got %s", in.TargetColor().Hex())
	}
}

func TestSetGesturesEnabled(t *testing.T) {
	now := time.Unix(100, 0)
	m, _, _ := newTestMachine(t)
	m.SetGesturesEnabled(false)

	m.HandleGesture(gesture.OpenPalm, now)
	if m.State() != Planet {
		t.Errorf("gesture applied while disabled: %s", m.State())
	}
	if err := m.Enter(Heart, now); err != nil || m.State() != Heart {
		t.Errorf("manual entry should still work: %s, %v", m.State(), err)
	}
	if snap := m.Snapshot(now); snap.Gestures {
		t.Error("snapshot should report gestures off")
	}
}

func TestSpread_Spring(t *testing.T) {
	cfg := testConfig()
	cfg.Idle = Sphere
	m := New(cfg, newCountingGenerator())
	now := time.Unix(100, 0)

	m.SetSpread(2, true)
	for i := 0; i < 240; i++ {
		now = now.Add(time.Second / 60)
		m.Tick(now)
	}
	if math.Abs(m.spread-2) > 0.05 {
		t.Errorf("spread = %f, want ~2", m.spread)
	}

	m.SetSpread(100, true)
	if m.spreadTarget != cfg.SpreadMax {
		t.Errorf("spread target = %f, want clamped to %f", m.spreadTarget, cfg.SpreadMax)
	}

	m.SetSpread(0, false)
	for i := 0; i < 240; i++ {
		now = now.Add(time.Second / 60)
		m.Tick(now)
	}
	if math.Abs(m.spread-1) > 0.05 {
		t.Errorf("spread = %f, want ~1 after release", m.spread)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	m, _, _ := newTestMachine(t)
	now := time.Unix(100, 0)
	snap := m.Snapshot(now)

	if len(snap.Positions) != 3*m.Config().Particles {
		t.Fatalf("positions = %d floats", len(snap.Positions))
	}
	if len(snap.Colors) != len(snap.Positions) {
		t.Errorf("planet snapshot should carry vertex colors")
	}

	snap.Positions[0] = 12345
	if m.Integrator().Positions()[0] == 12345 {
		t.Error("snapshot shares the live buffer")
	}
	if snap.Debug[0] != "state: planet" {
		t.Errorf("debug[0] = %q", snap.Debug[0])
	}

	m.HandleGesture(gesture.OpenPalm, now)
	m.SnapshotInto(&snap, now)
	if len(snap.Colors) != 0 {
		t.Error("single-color snapshot should clear vertex colors")
	}
}
