package drag

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

func TestEdgeScroller_Step(t *testing.T) {
	tests := []struct {
		name       string
		pointerX   float64
		scroll     float64
		wantScroll float64
	}{
		{name: "inside view", pointerX: 500, scroll: 100, wantScroll: 100},
		{name: "near right edge", pointerX: 990, scroll: 100, wantScroll: 112},
		{name: "past right edge capped", pointerX: 1200, scroll: 100, wantScroll: 115},
		{name: "clamped to max", pointerX: 990, scroll: 495, wantScroll: 500},
		{name: "left edge", pointerX: 0, scroll: 100, wantScroll: 85},
		{name: "clamped to zero", pointerX: 0, scroll: 10, wantScroll: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.add(t, f.track.ID, timeline.ClipVideo, 10, 5)
			view := &Viewport{Left: 0, Right: 1000, Scroll: tc.scroll, MaxScroll: 500}
			scroller := NewEdgeScroller(f.engine, view, &sync.Mutex{})

			f.engine.Start(a.ID, Pointer{X: 500})
			f.engine.Move(Pointer{X: tc.pointerX})

			if !scroller.Step() {
				t.Fatal("Step() = false during a drag")
			}
			if view.Scroll != tc.wantScroll {
				t.Fatalf("Scroll = %v, want %v", view.Scroll, tc.wantScroll)
			}
			if got := f.engine.AutoScrollOffset(); got != tc.wantScroll-tc.scroll {
				t.Fatalf("AutoScrollOffset() = %v, want %v", got, tc.wantScroll-tc.scroll)
			}
		})
	}
}

func TestEdgeScroller_StepStops(t *testing.T) {
	f := newFixture(t)
	view := &Viewport{Right: 1000, MaxScroll: 500}
	scroller := NewEdgeScroller(f.engine, view, &sync.Mutex{})

	if scroller.Step() {
		t.Fatal("Step() without a drag should stop the task")
	}

	cfg := DefaultConfig()
	cfg.AutoScroll = false
	e := NewEngine(f.store, f.engine.mapper, nil, nil, cfg, nil)
	a := f.add(t, f.track.ID, timeline.ClipVideo, 0, 5)
	e.Start(a.ID, Pointer{X: 990})
	if NewEdgeScroller(e, view, &sync.Mutex{}).Step() {
		t.Fatal("Step() with auto-scroll disabled should stop the task")
	}
}

func TestEdgeScroller_TickerFollowsDrag(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()
	cfg.FrameInterval = time.Millisecond
	f.engine = NewEngine(f.store, f.engine.mapper, f.recorder, nil, cfg, nil)
	a := f.add(t, f.track.ID, timeline.ClipVideo, 0, 5)

	var mu sync.Mutex
	view := &Viewport{Right: 1000, MaxScroll: 10000}
	scroller := NewEdgeScroller(f.engine, view, &mu)

	mu.Lock()
	f.engine.Start(a.ID, Pointer{X: 500})
	f.engine.Move(Pointer{X: 1000})
	mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	scroller.Start(ctx)
	scroller.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		scrolled := f.engine.AutoScrollOffset()
		mu.Unlock()
		if scrolled > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("auto-scroll never advanced")
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	res := f.engine.End()
	mu.Unlock()
	if !res.Moved || a.StartTime <= 5 {
		t.Fatalf("drag with auto-scroll committed %+v", res)
	}

	select {
	case <-scroller.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("auto-scroll task did not stop after the drag ended")
	}
}

func TestEdgeScroller_Stop(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()
	cfg.FrameInterval = time.Millisecond
	f.engine = NewEngine(f.store, f.engine.mapper, nil, nil, cfg, nil)
	a := f.add(t, f.track.ID, timeline.ClipVideo, 0, 5)

	var mu sync.Mutex
	scroller := NewEdgeScroller(f.engine, &Viewport{Right: 1000, MaxScroll: 100}, &mu)
	mu.Lock()
	f.engine.Start(a.ID, Pointer{X: 500})
	mu.Unlock()

	scroller.Start(context.Background())
	done := scroller.Done()
	scroller.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not end the task")
	}
}
