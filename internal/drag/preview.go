package drag

import (
	"math"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// Preview is where the dragged clip would land if the drag ended now.
type Preview struct {
	ClipID    string  `json:"clipId"`
	TrackID   string  `json:"trackId"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	// CrossTrack is set when the target differs from the source track.
	CrossTrack bool `json:"crossTrack"`
	// NeedNewTrack is set when the target cannot host the clip and a fresh
	// track will be created on commit.
	NeedNewTrack bool `json:"needNewTrack"`
}

func (e *Engine) computePreview() *Preview {
	clip := e.store.Clip(e.clipID)
	if clip == nil {
		return nil
	}
	duration := e.origin.end - e.origin.start

	dx := e.last.X - e.startPointer.X + e.scrollOffset
	desired := e.origin.start + e.mapper.PixelsToTime(dx)

	target, cross := e.targetTrack()

	if !e.last.Shift && e.mapper.SnapEnabled() {
		desired = e.snap(target, desired, duration)
	}
	desired = timeline.Round(math.Max(desired, 0))

	p := &Preview{ClipID: clip.ID, TrackID: target, CrossTrack: cross}
	if cross {
		p.StartTime = desired
		p.NeedNewTrack = !e.canDrop(target, clip, desired, desired+duration)
	} else {
		p.StartTime = e.placeOnTrack(target, desired, duration)
	}
	p.EndTime = timeline.Round(p.StartTime + duration)
	return p
}

// targetTrack resolves the hovered track once the pointer has left the
// source row by more than the switch threshold.
func (e *Engine) targetTrack() (string, bool) {
	source := e.origin.trackID
	if e.locator == nil || math.Abs(e.offset.Y) <= e.cfg.TrackSwitchThreshold {
		return source, false
	}
	id, ok := e.locator.TrackAt(e.last.Y)
	if !ok || id == source {
		return source, false
	}
	return id, true
}

// snap aligns the start edge, or failing that the end edge, to the nearest
// edge of another clip on the track.
func (e *Engine) snap(trackID string, start, duration float64) float64 {
	var edges []float64
	for _, c := range timeline.ContentClips(e.store.Track(trackID)) {
		if c.ID == e.clipID {
			continue
		}
		edges = append(edges, c.StartTime, c.EndTime)
	}
	if len(edges) == 0 {
		return start
	}
	if s := e.mapper.SnapTime(start, edges); s != start {
		return s
	}
	if end := e.mapper.SnapTime(start+duration, edges); end != start+duration {
		return end - duration
	}
	return start
}

// placeOnTrack returns a start time at which [start, start+duration) does
// not overlap any other content clip. On collision the clip goes to the
// side of the obstacle nearer its center; when there is no room before the
// obstacle it goes after it instead.
func (e *Engine) placeOnTrack(trackID string, start, duration float64) float64 {
	others := e.obstacles(trackID)
	hit := firstOverlap(others, start, start+duration)
	if hit == nil {
		return start
	}

	if start+duration/2 < hit.Center() {
		before := timeline.Round(hit.StartTime - duration)
		if before >= 0 && firstOverlap(others, before, before+duration) == nil {
			return before
		}
	}

	after := hit.EndTime
	for {
		next := firstOverlap(others, after, after+duration)
		if next == nil {
			return after
		}
		after = next.EndTime
	}
}

func (e *Engine) canDrop(trackID string, clip *timeline.Clip, start, end float64) bool {
	t := e.store.Track(trackID)
	if t == nil || t.Locked || !t.Accepts(clip.Type) {
		return false
	}
	return firstOverlap(timeline.ContentClips(t), start, end) == nil
}

func (e *Engine) obstacles(trackID string) []*timeline.Clip {
	var out []*timeline.Clip
	for _, c := range timeline.ContentClips(e.store.Track(trackID)) {
		if c.ID != e.clipID {
			out = append(out, c)
		}
	}
	return out
}

// firstOverlap returns the earliest clip in sorted that intersects
// [start, end).
func firstOverlap(sorted []*timeline.Clip, start, end float64) *timeline.Clip {
	for _, c := range sorted {
		if c.Overlaps(start, end) {
			return c
		}
	}
	return nil
}
