package drag

import (
	"context"
	"math"
	"sync"
	"time"
)

// Scroller is the horizontally scrolling view a drag runs in. Bounds are
// the view's left and right edges in the same coordinates as Pointer.X.
type Scroller interface {
	ScrollLeft() float64
	SetScrollLeft(px float64)
	MaxScrollLeft() float64
	Bounds() (left, right float64)
}

// Viewport is a Scroller backed by plain fields, for views that report
// their geometry to the engine rather than being driven directly.
type Viewport struct {
	Left      float64 `json:"left"`
	Right     float64 `json:"right"`
	Scroll    float64 `json:"scrollLeft"`
	MaxScroll float64 `json:"maxScrollLeft"`
}

func (v *Viewport) ScrollLeft() float64        { return v.Scroll }
func (v *Viewport) SetScrollLeft(px float64)   { v.Scroll = px }
func (v *Viewport) MaxScrollLeft() float64     { return v.MaxScroll }
func (v *Viewport) Bounds() (float64, float64) { return v.Left, v.Right }

// EdgeScroller scrolls the view while a dragged pointer sits near its left
// or right edge. It runs as a periodic task; each tick takes lock, the same
// lock that guards the engine and store.
type EdgeScroller struct {
	engine   *Engine
	scroller Scroller
	lock     sync.Locker

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewEdgeScroller(engine *Engine, scroller Scroller, lock sync.Locker) *EdgeScroller {
	return &EdgeScroller{engine: engine, scroller: scroller, lock: lock}
}

// Start launches the ticker if it is not already running. The task ends on
// Stop, when ctx is done, or on the first tick that finds the drag over or
// auto-scroll disabled.
func (a *EdgeScroller) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done
	go a.run(ctx, done)
}

// Stop cancels the task without waiting for it, so it is safe to call while
// holding the engine lock.
func (a *EdgeScroller) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// Done is closed when the most recently started task has exited.
func (a *EdgeScroller) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.done
}

func (a *EdgeScroller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer a.finish(done)

	ticker := time.NewTicker(a.engine.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.lock.Lock()
			if ctx.Err() != nil {
				a.lock.Unlock()
				return
			}
			keep := a.Step()
			a.lock.Unlock()
			if !keep {
				return
			}
		}
	}
}

// finish clears the running state if it still belongs to this task.
func (a *EdgeScroller) finish(done chan struct{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done == done && a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// Step performs one frame. The caller holds the engine lock. It returns
// false when the task should stop.
func (a *EdgeScroller) Step() bool {
	e := a.engine
	if !e.Dragging() || !e.cfg.AutoScroll {
		return false
	}

	speed := a.speed(e.last.X)
	if speed == 0 {
		return true
	}
	current := a.scroller.ScrollLeft()
	next := math.Min(math.Max(current+speed, 0), a.scroller.MaxScrollLeft())
	if delta := next - current; delta != 0 {
		a.scroller.SetScrollLeft(next)
		e.applyScroll(delta)
	}
	return true
}

// speed is proportional to how far inside the edge zone x is, capped at
// MaxScrollSpeed. Negative scrolls left.
func (a *EdgeScroller) speed(x float64) float64 {
	cfg := a.engine.cfg
	left, right := a.scroller.Bounds()
	switch {
	case x < left+cfg.EdgeThreshold:
		depth := left + cfg.EdgeThreshold - x
		return -math.Min(cfg.MaxScrollSpeed, depth/cfg.EdgeThreshold*cfg.MaxScrollSpeed)
	case x > right-cfg.EdgeThreshold:
		depth := x - (right - cfg.EdgeThreshold)
		return math.Min(cfg.MaxScrollSpeed, depth/cfg.EdgeThreshold*cfg.MaxScrollSpeed)
	default:
		return 0
	}
}
