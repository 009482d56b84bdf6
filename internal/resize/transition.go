package resize

import (
	"math"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// StartTransition begins resizing a transition by its handle. The
// transition must sit between two contiguous clips.
func (e *Engine) StartTransition(transitionID string, p Pointer) bool {
	if e.Active() {
		return false
	}
	tr := e.store.Clip(transitionID)
	if tr == nil || !tr.IsTransition() {
		return false
	}
	t := e.store.TrackOf(transitionID)
	if t.Locked {
		return false
	}
	left, right, ok := timeline.TransitionNeighbors(t, tr)
	if !ok {
		return false
	}

	e.mode = modeTransition
	e.startX = p.X
	e.target = capture(tr)
	e.target.orig.transition = tr.TransitionDuration()
	e.left = capture(left)
	e.right = capture(right)
	e.changed = false
	return true
}

// moveTransition changes the duration symmetrically by twice the pointer
// delta and pins both neighbors' touching edges to the transition center.
func (e *Engine) moveTransition(p Pointer) {
	tr, o := e.target.clip, e.target.orig
	d := e.mapper.PixelsToTime(p.X - e.startX)
	dur := timeline.Round(math.Min(math.Max(o.transition+2*d, timeline.MinTransitionDuration), timeline.MaxTransitionDuration))
	center := (o.start + o.end) / 2

	if tr.Transition == nil {
		tr.Transition = &timeline.TransitionProps{TransitionType: "fade"}
	}
	tr.Transition.Duration = dur
	tr.StartTime = timeline.Round(center - dur/2)
	tr.EndTime = timeline.Round(center + dur/2)

	setEnd(e.left, center)
	setStart(e.right, center)
	e.changed = dur != o.transition
}

// setEnd moves a clip's end to t, carrying a media clip's trim along at
// its playback rate.
func setEnd(el element, t float64) {
	c, o := el.clip, el.orig
	c.EndTime = timeline.Round(t)
	if m := c.Media; m != nil {
		m.TrimEnd = timeline.Round(o.trimEnd + (c.EndTime-o.end)*m.Rate())
	}
}

func setStart(el element, t float64) {
	c, o := el.clip, el.orig
	c.StartTime = timeline.Round(t)
	if m := c.Media; m != nil {
		m.TrimStart = timeline.Round(math.Max(o.trimStart+(c.StartTime-o.start)*m.Rate(), 0))
	}
}
