package timeline

import (
	"fmt"
	"slices"
	"sort"
)

// EnsureMainTrackContinuity repacks the track's content clips back to back
// from 0 in start order, preserving each clip's duration. Transitions are
// re-centered on the boundary they were attached to.
func EnsureMainTrackContinuity(t *Track) {
	if t == nil {
		return
	}
	clips := sortedContent(t)
	links := linkTransitions(t)
	var cursor float64
	for _, c := range clips {
		d := c.Duration()
		c.StartTime = Round(cursor)
		c.EndTime = Round(cursor + d)
		cursor = c.EndTime
	}
	relink(t, links)
}

// InsertMainTrackClip inserts c at the clip boundary nearest to at and
// shifts every later clip right by c's duration.
func InsertMainTrackClip(t *Track, c *Clip, at float64) {
	if t == nil || c == nil {
		return
	}
	EnsureMainTrackContinuity(t)
	clips := sortedContent(t)
	links := linkTransitions(t)
	idx := sort.Search(len(clips), func(i int) bool { return clips[i].Center() >= at })

	var start float64
	if idx > 0 {
		start = clips[idx-1].EndTime
	}
	d := c.Duration()
	c.TrackID = t.ID
	c.StartTime = Round(start)
	c.EndTime = Round(start + d)
	for _, later := range clips[idx:] {
		later.StartTime = Round(later.StartTime + d)
		later.EndTime = Round(later.EndTime + d)
	}
	t.Clips = append(t.Clips, c)
	relink(t, links)
}

// RemoveMainTrackClip removes the clip and closes the gap it leaves. The
// transitions anchored at the clip's edges go with it.
func RemoveMainTrackClip(t *Track, id string) *Clip {
	if t == nil {
		return nil
	}
	idx := slices.IndexFunc(t.Clips, func(c *Clip) bool { return c.ID == id })
	if idx < 0 {
		return nil
	}
	removed := t.Clips[idx]
	t.Clips = slices.Delete(t.Clips, idx, idx+1)
	if removed.IsTransition() {
		return removed
	}
	dropEdgeTransitions(t, removed)
	links := linkTransitions(t)
	d := removed.Duration()
	for _, c := range sortedContent(t) {
		if c.StartTime >= removed.EndTime-AdjacencyTolerance/2 {
			c.StartTime = Round(c.StartTime - d)
			c.EndTime = Round(c.EndTime - d)
		}
	}
	relink(t, links)
	EnsureMainTrackContinuity(t)
	return removed
}

// ResizeMainTrackClip sets the clip's duration and shifts every later clip
// by the difference.
func ResizeMainTrackClip(t *Track, id string, duration float64) bool {
	if t == nil || duration < MinClipDuration {
		return false
	}
	clips := sortedContent(t)
	idx := slices.IndexFunc(clips, func(c *Clip) bool { return c.ID == id })
	if idx < 0 {
		return false
	}
	links := linkTransitions(t)
	c := clips[idx]
	delta := Round(duration - c.Duration())
	c.EndTime = Round(c.StartTime + duration)
	for _, later := range clips[idx+1:] {
		later.StartTime = Round(later.StartTime + delta)
		later.EndTime = Round(later.EndTime + delta)
	}
	relink(t, links)
	return true
}

// MoveMainTrackClip moves the clip to position index among the track's
// content clips and repacks the track.
func MoveMainTrackClip(t *Track, id string, index int) bool {
	if t == nil {
		return false
	}
	clips := sortedContent(t)
	from := slices.IndexFunc(clips, func(c *Clip) bool { return c.ID == id })
	if from < 0 {
		return false
	}
	index = max(0, min(index, len(clips)-1))
	c := clips[from]
	clips = slices.Delete(clips, from, from+1)
	clips = slices.Insert(clips, index, c)

	var cursor float64
	for _, x := range clips {
		d := x.Duration()
		x.StartTime = Round(cursor)
		x.EndTime = Round(cursor + d)
		cursor = x.EndTime
	}
	dropMisplacedTransitions(t)
	return true
}

type link struct {
	tr    *Clip
	right *Clip
}

func linkTransitions(t *Track) []link {
	var out []link
	for _, tr := range Transitions(t) {
		if _, right, ok := TransitionNeighbors(t, tr); ok {
			out = append(out, link{tr: tr, right: right})
		}
	}
	return out
}

func relink(t *Track, links []link) {
	for _, l := range links {
		centerTransition(l.tr, l.right.StartTime)
	}
	dropMisplacedTransitions(t)
}

// dropMisplacedTransitions removes transitions that no longer sit between
// two contiguous clips.
func dropMisplacedTransitions(t *Track) {
	t.Clips = slices.DeleteFunc(t.Clips, func(c *Clip) bool {
		if !c.IsTransition() {
			return false
		}
		_, _, ok := TransitionNeighbors(t, c)
		return !ok
	})
}

// NormalizeMainTrack repacks the main track, if there is one.
func (s *Store) NormalizeMainTrack() bool {
	t := s.MainTrack()
	if t == nil {
		return false
	}
	EnsureMainTrackContinuity(t)
	s.pruneSelection()
	s.emit(Change{Kind: ChangeClips, TrackID: t.ID})
	return true
}

// InsertIntoMainTrack normalizes c like AddClip and ripple-inserts it into
// the main track.
func (s *Store) InsertIntoMainTrack(c Clip, at float64) (*Clip, bool) {
	t := s.MainTrack()
	if t == nil {
		return nil, false
	}
	clip := c.Clone()
	if clip.ID == "" {
		clip.ID = NewID()
	}
	clip.Selected = false
	if !normalize(clip) || clip.IsTransition() {
		return nil, false
	}
	InsertMainTrackClip(t, clip, at)
	s.pruneSelection()
	s.emit(Change{Kind: ChangeClips, TrackID: t.ID, ClipIDs: []string{clip.ID}})
	return clip, true
}

// NormalizeIfMain repacks the main track when it is one of trackIDs.
func (s *Store) NormalizeIfMain(trackIDs ...string) bool {
	t := s.MainTrack()
	if t == nil || !slices.Contains(trackIDs, t.ID) {
		return false
	}
	return s.normalizeIfMain(t)
}

func (s *Store) normalizeIfMain(t *Track) bool {
	if t == nil || !t.IsMain {
		return false
	}
	EnsureMainTrackContinuity(t)
	s.pruneSelection()
	s.emit(Change{Kind: ChangeClips, TrackID: t.ID})
	return true
}

// ResizeInMainTrack sets a main-track clip's duration and ripples the
// clips after it. Media clips keep their trim start; the trim end follows
// the new duration and may not run past the source.
func (s *Store) ResizeInMainTrack(id string, duration float64) error {
	t := s.MainTrack()
	if t == nil {
		return fmt.Errorf("main track: %w", ErrTrackNotFound)
	}
	c, _, owner := s.locate(id)
	if owner != t || c.IsTransition() {
		return ErrClipNotFound
	}
	duration = Round(duration)
	if duration < MinClipDuration {
		return fmt.Errorf("%w: duration %.3f is below %.1f", ErrInvalidClip, duration, MinClipDuration)
	}
	if m := c.Media; m != nil {
		trimEnd := Round(m.TrimStart + duration*m.Rate())
		if m.OriginalDuration > 0 && trimEnd > m.OriginalDuration+timeEpsilon {
			return fmt.Errorf("%w: trim end %.3f is past the source length %.3f", ErrInvalidClip, trimEnd, m.OriginalDuration)
		}
		m.TrimEnd = trimEnd
	}
	ResizeMainTrackClip(t, id, duration)
	s.pruneSelection()
	s.emit(Change{Kind: ChangeClips, TrackID: t.ID, ClipIDs: []string{id}})
	return nil
}

// MoveInMainTrack moves a main-track clip to position index and repacks.
func (s *Store) MoveInMainTrack(id string, index int) error {
	t := s.MainTrack()
	if t == nil {
		return fmt.Errorf("main track: %w", ErrTrackNotFound)
	}
	if s.TrackOf(id) != t || !MoveMainTrackClip(t, id, index) {
		return ErrClipNotFound
	}
	s.pruneSelection()
	s.emit(Change{Kind: ChangeClips, TrackID: t.ID, ClipIDs: []string{id}})
	return nil
}

// RemoveFromMainTrack ripple-deletes a clip from the main track.
func (s *Store) RemoveFromMainTrack(id string) bool {
	t := s.MainTrack()
	if t == nil {
		return false
	}
	if RemoveMainTrackClip(t, id) == nil {
		return false
	}
	s.pruneSelection()
	s.emit(Change{Kind: ChangeClips, TrackID: t.ID, ClipIDs: []string{id}})
	return true
}

// pruneSelection drops selected ids whose clips no longer exist.
func (s *Store) pruneSelection() {
	s.selected = slices.DeleteFunc(s.selected, func(id string) bool { return s.Clip(id) == nil })
}
