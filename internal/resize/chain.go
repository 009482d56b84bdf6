package resize

import (
	"math"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// captureChain walks outward from the edited edge: a transition centered
// within its own duration of the boundary, then the clip beyond it, then
// the transition at that clip's far edge, and so on.
func captureChain(t *timeline.Track, c *timeline.Clip, edge Edge) []element {
	seen := map[string]bool{c.ID: true}
	boundary := c.EndTime
	if edge == EdgeLeft {
		boundary = c.StartTime
	}

	var chain []element
	for {
		tr := transitionNear(t, boundary, seen)
		if tr == nil {
			return chain
		}
		seen[tr.ID] = true
		chain = append(chain, capture(tr))

		next := clipBeyond(t, tr.Center(), edge, seen)
		if next == nil {
			return chain
		}
		seen[next.ID] = true
		chain = append(chain, capture(next))

		if edge == EdgeRight {
			boundary = next.EndTime
		} else {
			boundary = next.StartTime
		}
	}
}

func transitionNear(t *timeline.Track, boundary float64, seen map[string]bool) *timeline.Clip {
	for _, tr := range timeline.Transitions(t) {
		if !seen[tr.ID] && math.Abs(tr.Center()-boundary) < tr.TransitionDuration() {
			return tr
		}
	}
	return nil
}

// clipBeyond finds the content clip on the far side of a transition
// centered at center.
func clipBeyond(t *timeline.Track, center float64, edge Edge, seen map[string]bool) *timeline.Clip {
	for _, c := range timeline.ContentClips(t) {
		if seen[c.ID] {
			continue
		}
		near := c.StartTime
		if edge == EdgeLeft {
			near = c.EndTime
		}
		if math.Abs(near-center) < timeline.AdjacencyTolerance {
			return c
		}
	}
	return nil
}

// shiftLimit is how far the edited edge may travel outward before the
// outermost moving clip would hit a clip that does not move, or time 0.
func shiftLimit(t *timeline.Track, c *timeline.Clip, chain []element, edge Edge) float64 {
	outer := c
	moving := map[string]bool{c.ID: true}
	for _, el := range chain {
		moving[el.clip.ID] = true
		if !el.clip.IsTransition() {
			outer = el.clip
		}
	}

	clips := timeline.ContentClips(t)
	if edge == EdgeRight {
		for _, other := range clips {
			if !moving[other.ID] && other.StartTime >= outer.EndTime-timeline.AdjacencyTolerance/2 {
				return math.Max(other.StartTime-outer.EndTime, 0)
			}
		}
		return math.Inf(1)
	}

	limit := outer.StartTime
	for i := len(clips) - 1; i >= 0; i-- {
		other := clips[i]
		if !moving[other.ID] && other.EndTime <= outer.StartTime+timeline.AdjacencyTolerance/2 {
			limit = math.Max(outer.StartTime-other.EndTime, 0)
			break
		}
	}
	return limit
}

// shiftChain slides every chain element by delta. Clips keep their
// duration; a transition shrinks while either neighbor is shorter than half
// of it, and grows back toward its original duration when they recover.
func (e *Engine) shiftChain(delta float64) {
	for i, el := range e.chain {
		c, o := el.clip, el.orig
		c.StartTime = timeline.Round(o.start + delta)
		c.EndTime = timeline.Round(o.end + delta)
		if !c.IsTransition() || c.Transition == nil {
			continue
		}

		before := e.target.clip
		if i > 0 {
			before = e.chain[i-1].clip
		}
		shortest := before.Duration()
		if i+1 < len(e.chain) {
			shortest = math.Min(shortest, e.chain[i+1].clip.Duration())
		}

		d := o.transition
		if shortest < d/2 {
			d = math.Max(timeline.MinTransitionDuration, 2*shortest)
		}
		center := (o.start+o.end)/2 + delta
		c.Transition.Duration = timeline.Round(d)
		c.StartTime = timeline.Round(center - d/2)
		c.EndTime = timeline.Round(center + d/2)
	}
}
