// Package timeline holds the track/clip store: the single source of truth
// for a multi-track editing session, together with the mutation algorithms
// that keep it consistent (split, clipboard, playback rate, transitions and
// main-track continuity).
//
// The store is not safe for concurrent use. Callers serialize access.
package timeline

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
)

var (
	ErrClipNotFound    = errors.New("clip not found")
	ErrTrackNotFound   = errors.New("track not found")
	ErrSplitOutOfRange = errors.New("split time outside clip")
	ErrSplitTransition = errors.New("transitions cannot be split")
	ErrClipboardEmpty  = errors.New("clipboard is empty")
	ErrRateOutOfRange  = fmt.Errorf("playback rate must be between %.2f and %.0f", MinPlaybackRate, MaxPlaybackRate)
	ErrDurationLocked  = errors.New("playback rate change would alter a locked clip duration")
	ErrNoNeighbor      = errors.New("clip has no contiguous neighbor")
)

type Store struct {
	tracks    []*Track
	selected  []string
	clipboard *Clipboard
	logger    *slog.Logger

	observers    map[uint64]Observer
	nextObserver uint64
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

// TrackPatch is a partial track update.
type TrackPatch struct {
	Name    *string `json:"name,omitempty"`
	Visible *bool   `json:"visible,omitempty"`
	Locked  *bool   `json:"locked,omitempty"`
	IsMain  *bool   `json:"isMain,omitempty"`
}

// Tracks returns the tracks in display order.
func (s *Store) Tracks() []*Track {
	return s.tracks
}

func (s *Store) Track(id string) *Track {
	for _, t := range s.tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *Store) MainTrack() *Track {
	for _, t := range s.tracks {
		if t.IsMain {
			return t
		}
	}
	return nil
}

func (s *Store) Clip(id string) *Clip {
	_, i, t := s.locate(id)
	if t == nil {
		return nil
	}
	return t.Clips[i]
}

// TrackOf returns the track owning the clip.
func (s *Store) TrackOf(clipID string) *Track {
	_, _, t := s.locate(clipID)
	return t
}

// Duration is the end of the last clip on any track.
func (s *Store) Duration() float64 {
	var end float64
	for _, t := range s.tracks {
		for _, c := range t.Clips {
			end = max(end, c.EndTime)
		}
	}
	return end
}

func (s *Store) ClipCount() int {
	n := 0
	for _, t := range s.tracks {
		n += len(t.Clips)
	}
	return n
}

// AddTrack appends a track. An empty name is derived from the type and the
// number of existing tracks of that type.
func (s *Store) AddTrack(typ TrackType, name string) *Track {
	t := s.newTrack(typ, name)
	s.tracks = append(s.tracks, t)
	s.renumber()
	s.emit(Change{Kind: ChangeTracks, TrackID: t.ID})
	return t
}

// AddTrackAbove inserts a track directly before refID.
func (s *Store) AddTrackAbove(refID string, typ TrackType, name string) (*Track, bool) {
	return s.insertTrack(refID, 0, typ, name)
}

// AddTrackBelow inserts a track directly after refID.
func (s *Store) AddTrackBelow(refID string, typ TrackType, name string) (*Track, bool) {
	return s.insertTrack(refID, 1, typ, name)
}

func (s *Store) insertTrack(refID string, offset int, typ TrackType, name string) (*Track, bool) {
	idx := slices.IndexFunc(s.tracks, func(t *Track) bool { return t.ID == refID })
	if idx < 0 {
		return nil, false
	}
	t := s.newTrack(typ, name)
	s.tracks = slices.Insert(s.tracks, idx+offset, t)
	s.renumber()
	s.emit(Change{Kind: ChangeTracks, TrackID: t.ID})
	return t, true
}

func (s *Store) newTrack(typ TrackType, name string) *Track {
	if typ == "" {
		typ = TrackCustom
	}
	if name == "" {
		name = s.DefaultTrackName(typ)
	}
	return &Track{
		ID:      NewID(),
		Type:    typ,
		Name:    name,
		Visible: true,
		Clips:   []*Clip{},
	}
}

// DefaultTrackName names a new track by type and existing count, e.g.
// "Video 2".
func (s *Store) DefaultTrackName(typ TrackType) string {
	n := 0
	for _, t := range s.tracks {
		if t.Type == typ {
			n++
		}
	}
	label := string(typ)
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	return fmt.Sprintf("%s %d", label, n+1)
}

func (s *Store) renumber() {
	for i, t := range s.tracks {
		t.Order = i
	}
}

func (s *Store) UpdateTrack(id string, p TrackPatch) bool {
	t := s.Track(id)
	if t == nil {
		return false
	}
	setString(&t.Name, p.Name)
	if p.Visible != nil {
		t.Visible = *p.Visible
	}
	if p.Locked != nil {
		t.Locked = *p.Locked
	}
	if p.IsMain != nil {
		if *p.IsMain {
			for _, other := range s.tracks {
				other.IsMain = false
			}
		}
		t.IsMain = *p.IsMain
	}
	s.emit(Change{Kind: ChangeTracks, TrackID: id})
	return true
}

func (s *Store) RemoveTrack(id string) bool {
	idx := slices.IndexFunc(s.tracks, func(t *Track) bool { return t.ID == id })
	if idx < 0 {
		return false
	}
	t := s.tracks[idx]
	for _, c := range t.Clips {
		s.unselect(c.ID)
	}
	s.tracks = slices.Delete(s.tracks, idx, idx+1)
	s.renumber()
	s.emit(Change{Kind: ChangeTracks, TrackID: id})
	return true
}

// CleanupEmptyTracks removes non-main tracks that hold nothing but
// transitions. It returns the removed track ids.
func (s *Store) CleanupEmptyTracks() []string {
	var removed []string
	kept := make([]*Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		if !t.IsMain && !hasContent(t) {
			for _, c := range t.Clips {
				s.unselect(c.ID)
			}
			removed = append(removed, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	s.tracks = kept
	if len(removed) > 0 {
		s.renumber()
		s.emit(Change{Kind: ChangeTracks})
		if s.logger != nil {
			s.logger.Debug("removed empty tracks", "count", len(removed))
		}
	}
	return removed
}

func hasContent(t *Track) bool {
	for _, c := range t.Clips {
		if !c.IsTransition() {
			return true
		}
	}
	return false
}

// AddClip appends c to the track after normalizing its duration. Media
// clips derive EndTime from the trim range and playback rate.
func (s *Store) AddClip(trackID string, c Clip) (*Clip, bool) {
	t := s.Track(trackID)
	if t == nil {
		return nil, false
	}
	clip, ok := NormalizeClip(c)
	if !ok {
		if s.logger != nil {
			s.logger.Debug("rejected invalid clip", "clip_id", clip.ID, "start", clip.StartTime, "end", clip.EndTime)
		}
		return nil, false
	}
	clip.TrackID = t.ID
	t.Clips = append(t.Clips, clip)
	if clip.Selected {
		s.selected = append(s.selected, clip.ID)
	}
	s.emit(Change{Kind: ChangeClips, TrackID: t.ID, ClipIDs: []string{clip.ID}})
	return clip, true
}

// NormalizeClip returns a copy of c with an id assigned and its timing
// normalized the way AddClip stores it. ok is false when the clip would
// have no duration.
func NormalizeClip(c Clip) (*Clip, bool) {
	clip := c.Clone()
	if clip.ID == "" {
		clip.ID = NewID()
	}
	return clip, normalize(clip)
}

func normalize(c *Clip) bool {
	c.StartTime = Round(max(c.StartTime, 0))
	switch {
	case c.Type == ClipTransition:
		if c.Transition == nil {
			c.Transition = &TransitionProps{TransitionType: "fade", Duration: c.EndTime - c.StartTime}
		}
		c.Transition.Duration = clampTransitionDuration(c.Transition.Duration)
		c.EndTime = Round(c.StartTime + c.Transition.Duration)
	case c.Media != nil:
		m := c.Media
		if m.PlaybackRate <= 0 {
			m.PlaybackRate = 1
		}
		m.TrimStart = max(m.TrimStart, 0)
		if m.OriginalDuration > 0 && m.TrimEnd > m.OriginalDuration {
			m.TrimEnd = m.OriginalDuration
		}
		if m.TrimEnd <= m.TrimStart {
			return false
		}
		c.EndTime = Round(c.StartTime + m.TrackDuration())
	default:
		c.EndTime = Round(c.EndTime)
	}
	return c.EndTime > c.StartTime
}

func (s *Store) UpdateClip(id string, p ClipPatch) bool {
	c := s.Clip(id)
	if c == nil {
		return false
	}
	wasSelected := c.Selected
	p.Apply(c)
	if c.Selected != wasSelected {
		if c.Selected {
			s.selected = append(s.selected, id)
		} else {
			s.selected = slices.DeleteFunc(s.selected, func(x string) bool { return x == id })
		}
	}
	s.emit(Change{Kind: ChangeClips, TrackID: c.TrackID, ClipIDs: []string{id}})
	return true
}

// RemoveClip deletes a clip. Removing a video clip also removes the
// transitions anchored at either of its edges. A clip removed from the main
// track leaves no gap.
func (s *Store) RemoveClip(id string) bool {
	return s.removeClip(id)
}

func (s *Store) removeClip(id string) bool {
	_, idx, t := s.locate(id)
	if t == nil {
		return false
	}
	c := t.Clips[idx]
	removed := []string{id}
	if c.Type == ClipVideo {
		removed = append(removed, dropEdgeTransitions(t, c)...)
	}
	t.Clips = slices.DeleteFunc(t.Clips, func(x *Clip) bool { return x.ID == id })
	for _, rid := range removed {
		s.unselect(rid)
	}
	s.emit(Change{Kind: ChangeClips, TrackID: t.ID, ClipIDs: removed})
	if !c.IsTransition() {
		s.normalizeIfMain(t)
	}
	return true
}

// dropEdgeTransitions removes the transitions anchored at either edge of c.
func dropEdgeTransitions(t *Track, c *Clip) []string {
	var removed []string
	t.Clips = slices.DeleteFunc(t.Clips, func(x *Clip) bool {
		if !x.IsTransition() {
			return false
		}
		center, d := x.Center(), x.TransitionDuration()
		if abs(center-c.StartTime) < d || abs(center-c.EndTime) < d {
			removed = append(removed, x.ID)
			return true
		}
		return false
	})
	return removed
}

// RemoveClips removes every listed clip and returns how many existed.
func (s *Store) RemoveClips(ids []string) int {
	n := 0
	for _, id := range ids {
		if s.removeClip(id) {
			n++
		}
	}
	return n
}

// MoveClipToTrack detaches the clip from its track and appends it to
// trackID.
func (s *Store) MoveClipToTrack(clipID, trackID string) bool {
	_, idx, from := s.locate(clipID)
	to := s.Track(trackID)
	if from == nil || to == nil {
		return false
	}
	if from == to {
		return true
	}
	c := from.Clips[idx]
	from.Clips = slices.Delete(from.Clips, idx, idx+1)
	c.TrackID = to.ID
	to.Clips = append(to.Clips, c)
	s.emit(Change{Kind: ChangeClips, TrackID: to.ID, ClipIDs: []string{clipID}})
	return true
}

func (s *Store) SelectClip(id string, additive bool) bool {
	c := s.Clip(id)
	if c == nil {
		return false
	}
	if !additive {
		s.clearSelection()
	}
	if !c.Selected {
		c.Selected = true
		s.selected = append(s.selected, id)
	}
	s.emit(Change{Kind: ChangeSelection, ClipIDs: []string{id}})
	return true
}

func (s *Store) DeselectClip(id string) bool {
	if !slices.Contains(s.selected, id) {
		return false
	}
	s.unselect(id)
	s.emit(Change{Kind: ChangeSelection, ClipIDs: []string{id}})
	return true
}

func (s *Store) ClearSelection() {
	s.clearSelection()
	s.emit(Change{Kind: ChangeSelection})
}

func (s *Store) clearSelection() {
	for _, id := range s.selected {
		if c := s.Clip(id); c != nil {
			c.Selected = false
		}
	}
	s.selected = nil
}

func (s *Store) unselect(id string) {
	s.selected = slices.DeleteFunc(s.selected, func(x string) bool { return x == id })
	if c := s.Clip(id); c != nil {
		c.Selected = false
	}
}

func (s *Store) SelectedClipIDs() []string {
	return slices.Clone(s.selected)
}

func (s *Store) SelectedClips() []*Clip {
	out := make([]*Clip, 0, len(s.selected))
	for _, id := range s.selected {
		if c := s.Clip(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Snapshot deep-copies tracks and selection.
func (s *Store) Snapshot() State {
	st := State{
		Tracks:          make([]*Track, len(s.tracks)),
		SelectedClipIDs: slices.Clone(s.selected),
	}
	for i, t := range s.tracks {
		st.Tracks[i] = t.Clone()
	}
	if st.SelectedClipIDs == nil {
		st.SelectedClipIDs = []string{}
	}
	return st
}

// Restore replaces tracks and selection wholesale.
func (s *Store) Restore(st State) {
	s.tracks = make([]*Track, len(st.Tracks))
	for i, t := range st.Tracks {
		s.tracks[i] = t.Clone()
		if s.tracks[i].Clips == nil {
			s.tracks[i].Clips = []*Clip{}
		}
	}
	s.selected = nil
	for _, id := range st.SelectedClipIDs {
		if c := s.Clip(id); c != nil {
			c.Selected = true
			s.selected = append(s.selected, id)
		}
	}
	s.emit(Change{Kind: ChangeRestore})
}

func (s *Store) locate(clipID string) (*Clip, int, *Track) {
	for _, t := range s.tracks {
		for i, c := range t.Clips {
			if c.ID == clipID {
				return c, i, t
			}
		}
	}
	return nil, -1, nil
}

// sortedContent returns the non-transition clips of t ordered by start.
func sortedContent(t *Track) []*Clip {
	out := make([]*Clip, 0, len(t.Clips))
	for _, c := range t.Clips {
		if !c.IsTransition() {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// ContentClips returns the non-transition clips of the track ordered by
// start time.
func ContentClips(t *Track) []*Clip {
	if t == nil {
		return nil
	}
	return sortedContent(t)
}

// Transitions returns the transition clips of the track.
func Transitions(t *Track) []*Clip {
	if t == nil {
		return nil
	}
	var out []*Clip
	for _, c := range t.Clips {
		if c.IsTransition() {
			out = append(out, c)
		}
	}
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
