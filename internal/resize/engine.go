// Package resize drags clip edges and transition handles. Unlike drag,
// resize edits the store live on every pointer move, always recomputing
// from the spans captured at Start so repeated moves never accumulate
// error.
package resize

import (
	"log/slog"
	"math"

	"github.com/heimdex/heimdex-timeline/internal/coords"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

type Edge string

const (
	EdgeLeft  Edge = "left"
	EdgeRight Edge = "right"
)

// Pointer is the horizontal pointer position in view pixels. Shift
// disables snapping.
type Pointer struct {
	X     float64 `json:"x"`
	Shift bool    `json:"shift,omitempty"`
}

// Recorder receives one snapshot per finished resize.
type Recorder interface {
	PushSnapshot(description string)
}

type mode int

const (
	modeNone mode = iota
	modeEdge
	modeTransition
)

// span is an element's geometry when the resize started.
type span struct {
	start, end         float64
	trimStart, trimEnd float64
	transition         float64
}

type element struct {
	clip *timeline.Clip
	orig span
}

func capture(c *timeline.Clip) element {
	e := element{clip: c, orig: span{start: c.StartTime, end: c.EndTime}}
	if c.Media != nil {
		e.orig.trimStart = c.Media.TrimStart
		e.orig.trimEnd = c.Media.TrimEnd
	}
	if c.Transition != nil {
		e.orig.transition = c.Transition.Duration
	}
	return e
}

type Engine struct {
	store   *timeline.Store
	mapper  *coords.Mapper
	history Recorder
	logger  *slog.Logger

	mode    mode
	edge    Edge
	startX  float64
	target  element
	chain   []element
	limit   float64
	snaps   []float64
	left    element
	right   element
	changed bool
}

func NewEngine(store *timeline.Store, mapper *coords.Mapper, history Recorder, logger *slog.Logger) *Engine {
	return &Engine{store: store, mapper: mapper, history: history, logger: logger}
}

func (e *Engine) Active() bool {
	return e.mode != modeNone
}

// ClipID is the clip or transition being resized, "" when idle.
func (e *Engine) ClipID() string {
	if e.target.clip == nil {
		return ""
	}
	return e.target.clip.ID
}

func (e *Engine) Edge() Edge {
	return e.edge
}

// Start begins dragging one edge of a content clip.
func (e *Engine) Start(clipID string, edge Edge, p Pointer) bool {
	if e.Active() || (edge != EdgeLeft && edge != EdgeRight) {
		return false
	}
	c := e.store.Clip(clipID)
	if c == nil || c.IsTransition() {
		return false
	}
	t := e.store.TrackOf(clipID)
	if t.Locked {
		return false
	}

	e.mode = modeEdge
	e.edge = edge
	e.startX = p.X
	e.target = capture(c)
	e.chain = captureChain(t, c, edge)
	e.limit = shiftLimit(t, c, e.chain, edge)
	e.snaps = snapCandidates(t, c, e.chain)
	e.changed = false

	if e.logger != nil {
		e.logger.Debug("resize started", "clip_id", clipID, "edge", string(edge), "chain", len(e.chain))
	}
	return true
}

// Move applies the pointer position. It returns false when no resize is
// active.
func (e *Engine) Move(p Pointer) bool {
	switch e.mode {
	case modeEdge:
		e.moveEdge(p)
	case modeTransition:
		e.moveTransition(p)
	default:
		return false
	}
	return true
}

func (e *Engine) moveEdge(p Pointer) {
	c, o := e.target.clip, e.target.orig
	d := e.mapper.PixelsToTime(p.X - e.startX)
	snap := !p.Shift && e.mapper.SnapEnabled()

	var delta float64
	if e.edge == EdgeRight {
		end := o.end + d
		if snap {
			end = e.mapper.SnapTime(end, e.snaps)
		}
		end = math.Max(end, o.start+timeline.MinClipDuration)
		end = math.Min(end, o.end+e.limit)
		if m := c.Media; m != nil {
			r := m.Rate()
			trimEnd := o.trimEnd + (end-o.end)*r
			clamped := math.Max(trimEnd, o.trimStart+timeline.MinClipDuration)
			if m.OriginalDuration > 0 {
				clamped = math.Min(clamped, m.OriginalDuration)
			}
			if clamped != trimEnd {
				end = o.end + (clamped-o.trimEnd)/r
			}
			m.TrimEnd = timeline.Round(clamped)
		}
		c.EndTime = timeline.Round(end)
		delta = c.EndTime - o.end
	} else {
		start := o.start + d
		if snap {
			start = e.mapper.SnapTime(start, e.snaps)
		}
		start = math.Min(start, o.end-timeline.MinClipDuration)
		start = math.Max(start, o.start-e.limit)
		if m := c.Media; m != nil {
			r := m.Rate()
			trimStart := o.trimStart + (start-o.start)*r
			clamped := math.Min(math.Max(trimStart, 0), o.trimEnd-timeline.MinClipDuration)
			if clamped != trimStart {
				start = o.start + (clamped-o.trimStart)/r
			}
			m.TrimStart = timeline.Round(clamped)
		}
		c.StartTime = timeline.Round(start)
		delta = c.StartTime - o.start
	}

	e.shiftChain(delta)
	e.changed = delta != 0 || c.StartTime != o.start || c.EndTime != o.end
}

// End finishes the resize: overlaps are resolved, orphaned transitions
// removed and one snapshot recorded if anything changed.
func (e *Engine) End() bool {
	if !e.Active() {
		return false
	}
	defer e.reset()

	if !e.changed {
		return true
	}
	if t := e.store.TrackOf(e.target.clip.ID); t != nil {
		e.store.ResolveTrackOverlaps(t.ID)
		e.store.RemoveOrphanedTransitions(t.ID)
		e.store.NormalizeIfMain(t.ID)
	}

	desc := "resize clip"
	if e.mode == modeTransition {
		desc = "resize transition"
	}
	if e.history != nil {
		e.history.PushSnapshot(desc)
	}
	if e.logger != nil {
		c := e.target.clip
		e.logger.Info("resize committed", "clip_id", c.ID, "start", c.StartTime, "end", c.EndTime, "kind", desc)
	}
	return true
}

func (e *Engine) reset() {
	e.mode = modeNone
	e.edge = ""
	e.startX = 0
	e.target = element{}
	e.chain = nil
	e.limit = 0
	e.snaps = nil
	e.left = element{}
	e.right = element{}
	e.changed = false
}

// snapCandidates are the edges of every content clip that does not move
// with the resize.
func snapCandidates(t *timeline.Track, c *timeline.Clip, chain []element) []float64 {
	moving := map[string]bool{c.ID: true}
	for _, el := range chain {
		moving[el.clip.ID] = true
	}
	var out []float64
	for _, other := range timeline.ContentClips(t) {
		if !moving[other.ID] {
			out = append(out, other.StartTime, other.EndTime)
		}
	}
	return out
}
