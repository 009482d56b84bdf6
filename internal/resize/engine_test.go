package resize

import (
	"testing"

	"github.com/heimdex/heimdex-timeline/internal/coords"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

type countingRecorder struct {
	descriptions []string
}

func (r *countingRecorder) PushSnapshot(description string) {
	r.descriptions = append(r.descriptions, description)
}

type fixture struct {
	store    *timeline.Store
	track    *timeline.Track
	engine   *Engine
	recorder *countingRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := timeline.NewStore(nil)
	rec := &countingRecorder{}
	mapper := coords.NewMapper(coords.DefaultConfig(), nil, nil)
	return &fixture{
		store:    s,
		track:    s.AddTrack(timeline.TrackVideo, ""),
		engine:   NewEngine(s, mapper, rec, nil),
		recorder: rec,
	}
}

func (f *fixture) add(t *testing.T, start, trimStart, trimEnd, rate, original float64) *timeline.Clip {
	t.Helper()
	c, ok := f.store.AddClip(f.track.ID, timeline.Clip{
		Type:      timeline.ClipVideo,
		StartTime: start,
		Media: &timeline.MediaProps{
			OriginalDuration: original,
			TrimStart:        trimStart,
			TrimEnd:          trimEnd,
			PlaybackRate:     rate,
		},
	})
	if !ok {
		t.Fatalf("AddClip() rejected clip at %v", start)
	}
	return c
}

func assertMediaInvariant(t *testing.T, c *timeline.Clip) {
	t.Helper()
	m := c.Media
	want := timeline.Round((m.TrimEnd - m.TrimStart) / m.Rate())
	if got := c.Duration(); got != want {
		t.Fatalf("duration %v does not match trim range %v..%v at %vx", got, m.TrimStart, m.TrimEnd, m.Rate())
	}
	if m.TrimStart < 0 || m.TrimStart >= m.TrimEnd || (m.OriginalDuration > 0 && m.TrimEnd > m.OriginalDuration) {
		t.Fatalf("invalid trim %v..%v of %v", m.TrimStart, m.TrimEnd, m.OriginalDuration)
	}
}

func TestResize_RightEdge(t *testing.T) {
	tests := []struct {
		name        string
		trimEnd     float64
		rate        float64
		original    float64
		pointerX    float64
		wantEnd     float64
		wantTrimEnd float64
	}{
		{name: "stops at source end", trimEnd: 10, rate: 1, original: 10, pointerX: 500, wantEnd: 10, wantTrimEnd: 10},
		{name: "grows into unused source", trimEnd: 10, rate: 1, original: 20, pointerX: 500, wantEnd: 15, wantTrimEnd: 15},
		{name: "shrinks", trimEnd: 10, rate: 1, original: 10, pointerX: -300, wantEnd: 7, wantTrimEnd: 7},
		{name: "minimum duration", trimEnd: 10, rate: 1, original: 10, pointerX: -5000, wantEnd: 0.1, wantTrimEnd: 0.1},
		{name: "double speed stops at source end", trimEnd: 20, rate: 2, original: 20, pointerX: 200, wantEnd: 10, wantTrimEnd: 20},
		{name: "double speed shrinks trim twice as fast", trimEnd: 20, rate: 2, original: 20, pointerX: -200, wantEnd: 8, wantTrimEnd: 16},
		{name: "unknown source length", trimEnd: 10, rate: 1, original: 0, pointerX: 500, wantEnd: 15, wantTrimEnd: 15},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			c := f.add(t, 0, 0, tc.trimEnd, tc.rate, tc.original)

			if !f.engine.Start(c.ID, EdgeRight, Pointer{X: 0}) {
				t.Fatal("Start() = false")
			}
			f.engine.Move(Pointer{X: tc.pointerX})

			if c.EndTime != tc.wantEnd || c.Media.TrimEnd != tc.wantTrimEnd {
				t.Fatalf("end=%v trimEnd=%v, want %v and %v", c.EndTime, c.Media.TrimEnd, tc.wantEnd, tc.wantTrimEnd)
			}
			if c.StartTime != 0 {
				t.Fatalf("right-edge resize moved the start to %v", c.StartTime)
			}
			assertMediaInvariant(t, c)
		})
	}
}

func TestResize_LeftEdge(t *testing.T) {
	tests := []struct {
		name          string
		pointerX      float64
		wantStart     float64
		wantTrimStart float64
	}{
		{name: "extends into unused source", pointerX: -100, wantStart: 4, wantTrimStart: 1},
		{name: "stops at source start", pointerX: -300, wantStart: 3, wantTrimStart: 0},
		{name: "shrinks", pointerX: 200, wantStart: 7, wantTrimStart: 4},
		{name: "minimum duration", pointerX: 5000, wantStart: 9.9, wantTrimStart: 6.9},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			c := f.add(t, 5, 2, 7, 1, 10)

			f.engine.Start(c.ID, EdgeLeft, Pointer{X: 0})
			f.engine.Move(Pointer{X: tc.pointerX})

			if c.StartTime != tc.wantStart || c.Media.TrimStart != tc.wantTrimStart {
				t.Fatalf("start=%v trimStart=%v, want %v and %v", c.StartTime, c.Media.TrimStart, tc.wantStart, tc.wantTrimStart)
			}
			if c.EndTime != 10 {
				t.Fatalf("left-edge resize moved the end to %v", c.EndTime)
			}
			assertMediaInvariant(t, c)
		})
	}
}

func TestResize_NeighborHardStop(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, 0, 0, 5, 1, 60)
	b := f.add(t, 7, 5, 8, 1, 60)

	f.engine.Start(a.ID, EdgeRight, Pointer{})
	f.engine.Move(Pointer{X: 500})
	if a.EndTime != 7 {
		t.Fatalf("a.EndTime = %v, want 7 (stopped at b)", a.EndTime)
	}
	f.engine.End()

	f.engine.Start(b.ID, EdgeLeft, Pointer{})
	f.engine.Move(Pointer{X: -500})
	if b.StartTime != 7 {
		t.Fatalf("b.StartTime = %v, want 7 (a now touches b)", b.StartTime)
	}
	f.engine.End()
}

func TestResize_LeftHardStopAtNeighborEnd(t *testing.T) {
	f := newFixture(t)
	f.add(t, 0, 0, 5, 1, 60)
	b := f.add(t, 7, 5, 8, 1, 60)

	f.engine.Start(b.ID, EdgeLeft, Pointer{})
	f.engine.Move(Pointer{X: -500, Shift: true})
	if b.StartTime != 5 || b.Media.TrimStart != 3 {
		t.Fatalf("b start=%v trimStart=%v, want 5 and 3", b.StartTime, b.Media.TrimStart)
	}
	assertMediaInvariant(t, b)
}

func TestResize_Snap(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, 0, 0, 5, 1, 60)
	f.add(t, 10, 0, 5, 1, 60)
	f.add(t, 20, 0, 5, 1, 60)

	f.engine.Start(a.ID, EdgeRight, Pointer{})
	f.engine.Move(Pointer{X: 496})
	if a.EndTime != 10 {
		t.Fatalf("snapped end = %v, want 10", a.EndTime)
	}
	f.engine.Move(Pointer{X: 496, Shift: true})
	if a.EndTime != 9.96 {
		t.Fatalf("unsnapped end = %v, want 9.96", a.EndTime)
	}
}

func TestResize_TransitionChain(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, 0, 0, 5, 1, 60)
	b := f.add(t, 5, 0, 5, 1, 60)
	c := f.add(t, 12, 0, 3, 1, 60)
	tr, err := f.store.AddTransition(a.ID, "fade", 1)
	if err != nil {
		t.Fatalf("AddTransition() error = %v", err)
	}

	f.engine.Start(a.ID, EdgeRight, Pointer{})
	f.engine.Move(Pointer{X: 150})

	if a.EndTime != 6.5 {
		t.Fatalf("a.EndTime = %v, want 6.5", a.EndTime)
	}
	if b.StartTime != 6.5 || b.EndTime != 11.5 {
		t.Fatalf("b = [%v,%v], want [6.5,11.5]", b.StartTime, b.EndTime)
	}
	if tr.StartTime != 6 || tr.EndTime != 7 {
		t.Fatalf("transition = [%v,%v], want [6,7]", tr.StartTime, tr.EndTime)
	}

	f.engine.Move(Pointer{X: 500, Shift: true})
	if b.EndTime != 12 || a.EndTime != 7 {
		t.Fatalf("chain did not stop at c: a.end=%v b.end=%v", a.EndTime, b.EndTime)
	}
	if c.StartTime != 12 {
		t.Fatalf("c moved to %v", c.StartTime)
	}

	if !f.engine.End() {
		t.Fatal("End() = false")
	}
	if f.store.Clip(tr.ID) == nil {
		t.Fatal("transition removed although its neighbors still touch")
	}
	if len(f.recorder.descriptions) != 1 || f.recorder.descriptions[0] != "resize clip" {
		t.Fatalf("snapshots = %v", f.recorder.descriptions)
	}
}

func TestResize_ChainShrinksTransition(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, 0, 0, 5, 1, 60)
	b := f.add(t, 5, 0, 5, 1, 60)
	tr, err := f.store.AddTransition(a.ID, "fade", 2)
	if err != nil {
		t.Fatalf("AddTransition() error = %v", err)
	}

	f.engine.Start(a.ID, EdgeRight, Pointer{})
	f.engine.Move(Pointer{X: -450})

	if a.Duration() != 0.5 {
		t.Fatalf("a duration = %v, want 0.5", a.Duration())
	}
	if tr.Transition.Duration != 1 || tr.StartTime != 0 || tr.EndTime != 1 {
		t.Fatalf("transition = [%v,%v] d=%v, want [0,1] d=1", tr.StartTime, tr.EndTime, tr.Transition.Duration)
	}
	if b.StartTime != 0.5 || b.Duration() != 5 {
		t.Fatalf("b = [%v,%v], want to keep its duration at 0.5", b.StartTime, b.EndTime)
	}

	f.engine.Move(Pointer{X: 0})
	if tr.Transition.Duration != 2 || tr.StartTime != 4 || b.StartTime != 5 {
		t.Fatalf("moving back did not restore the chain: tr=[%v,%v] b.start=%v", tr.StartTime, tr.EndTime, b.StartTime)
	}
	f.engine.End()
	if len(f.recorder.descriptions) != 0 {
		t.Fatal("resize that ended where it started pushed a snapshot")
	}
}

func TestResize_TransitionHandle(t *testing.T) {
	tests := []struct {
		name      string
		pointerX  float64
		wantDur   float64
		wantStart float64
	}{
		{name: "grow", pointerX: 50, wantDur: 2, wantStart: 4},
		{name: "clamped to max", pointerX: 1000, wantDur: 5, wantStart: 2.5},
		{name: "clamped to min", pointerX: -1000, wantDur: 0.1, wantStart: 4.95},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.add(t, 0, 0, 5, 1, 60)
			b := f.add(t, 5, 0, 5, 1, 60)
			tr, _ := f.store.AddTransition(a.ID, "fade", 1)

			if !f.engine.StartTransition(tr.ID, Pointer{}) {
				t.Fatal("StartTransition() = false")
			}
			f.engine.Move(Pointer{X: tc.pointerX})

			if tr.Transition.Duration != tc.wantDur || tr.StartTime != tc.wantStart {
				t.Fatalf("transition start=%v d=%v, want %v and %v", tr.StartTime, tr.Transition.Duration, tc.wantStart, tc.wantDur)
			}
			if timeline.Round(tr.Center()) != 5 || a.EndTime != 5 || b.StartTime != 5 {
				t.Fatalf("boundary moved: center=%v a.end=%v b.start=%v", tr.Center(), a.EndTime, b.StartTime)
			}

			f.engine.End()
			if len(f.recorder.descriptions) != 1 || f.recorder.descriptions[0] != "resize transition" {
				t.Fatalf("snapshots = %v", f.recorder.descriptions)
			}
		})
	}
}

func TestResize_TransitionHandlePinsNeighbors(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, 0, 0, 5, 1, 60)
	b := f.add(t, 5.06, 1, 6, 1, 60)
	tr, err := f.store.AddTransition(a.ID, "fade", 1)
	if err != nil {
		t.Fatalf("AddTransition() error = %v", err)
	}

	f.engine.StartTransition(tr.ID, Pointer{})
	f.engine.Move(Pointer{X: 10})

	if a.EndTime != b.StartTime {
		t.Fatalf("neighbors not pinned: a.end=%v b.start=%v", a.EndTime, b.StartTime)
	}
	assertMediaInvariant(t, a)
	assertMediaInvariant(t, b)
}

func TestResize_StartRejections(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, 0, 0, 5, 1, 60)
	f.add(t, 5, 0, 5, 1, 60)
	tr, _ := f.store.AddTransition(a.ID, "fade", 1)

	if f.engine.Start("missing", EdgeRight, Pointer{}) {
		t.Error("Start() on a missing clip should fail")
	}
	if f.engine.Start(tr.ID, EdgeRight, Pointer{}) {
		t.Error("Start() on a transition should fail")
	}
	if f.engine.Start(a.ID, "top", Pointer{}) {
		t.Error("Start() with an unknown edge should fail")
	}
	if f.engine.StartTransition(a.ID, Pointer{}) {
		t.Error("StartTransition() on a content clip should fail")
	}
	if !f.engine.Start(a.ID, EdgeLeft, Pointer{}) {
		t.Fatal("Start() = false")
	}
	if f.engine.Start(a.ID, EdgeRight, Pointer{}) || f.engine.StartTransition(tr.ID, Pointer{}) {
		t.Error("second start while active should fail")
	}
	if !f.engine.End() {
		t.Fatal("End() = false")
	}
	if f.engine.End() || f.engine.Move(Pointer{}) {
		t.Error("End()/Move() while idle should return false")
	}
	if len(f.recorder.descriptions) != 0 {
		t.Error("resize without movement pushed a snapshot")
	}

	locked := true
	f.store.UpdateTrack(f.track.ID, timeline.TrackPatch{Locked: &locked})
	if f.engine.Start(a.ID, EdgeRight, Pointer{}) {
		t.Error("Start() on a locked track should fail")
	}
}

func TestResize_MainTrackClosesGap(t *testing.T) {
	f := newFixture(t)
	yes := true
	f.store.UpdateTrack(f.track.ID, timeline.TrackPatch{IsMain: &yes})
	a := f.add(t, 0, 0, 5, 1, 0)
	b := f.add(t, 5, 0, 5, 1, 0)

	f.engine.Start(a.ID, EdgeRight, Pointer{X: 0})
	f.engine.Move(Pointer{X: -200})
	if !f.engine.End() {
		t.Fatal("End() = false")
	}

	if a.EndTime != 3 || b.StartTime != 3 || b.EndTime != 8 {
		t.Fatalf("main track = a[%v,%v] b[%v,%v], want a[0,3] b[3,8]", a.StartTime, a.EndTime, b.StartTime, b.EndTime)
	}
	assertMediaInvariant(t, a)
}
