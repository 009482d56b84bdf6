package timeline

import (
	"math"
	"sort"
)

// CopyClips copies the given clips, or the current selection when no ids
// are passed, into the clipboard.
func (s *Store) CopyClips(ids ...string) bool {
	return s.fillClipboard(OpCopy, ids)
}

// CutClips is CopyClips with the originals removed on the next paste.
func (s *Store) CutClips(ids ...string) bool {
	return s.fillClipboard(OpCut, ids)
}

func (s *Store) fillClipboard(op string, ids []string) bool {
	if len(ids) == 0 {
		ids = s.selected
	}
	if len(ids) == 0 {
		return false
	}
	var copies []*Clip
	for _, id := range ids {
		if c := s.Clip(id); c != nil {
			copies = append(copies, c.Clone())
		}
	}
	if len(copies) == 0 {
		return false
	}
	s.clipboard = &Clipboard{Clips: copies, Operation: op}
	s.emit(Change{Kind: ChangeClipboard})
	return true
}

func (s *Store) Clipboard() *Clipboard {
	return s.clipboard
}

// PasteClips places the clipboard on the track at or after at, keeping the
// relative spacing of the copied clips and skipping past any clip the
// block would overlap. Pasting into the main track repacks it.
func (s *Store) PasteClips(trackID string, at float64) ([]*Clip, error) {
	if s.clipboard == nil || len(s.clipboard.Clips) == 0 {
		return nil, ErrClipboardEmpty
	}
	t := s.Track(trackID)
	if t == nil {
		return nil, ErrTrackNotFound
	}

	minStart, maxEnd := math.Inf(1), math.Inf(-1)
	for _, c := range s.clipboard.Clips {
		minStart = math.Min(minStart, c.StartTime)
		maxEnd = math.Max(maxEnd, c.EndTime)
	}
	span := maxEnd - minStart

	existing := make([]*Clip, len(t.Clips))
	copy(existing, t.Clips)
	sort.SliceStable(existing, func(i, j int) bool { return existing[i].StartTime < existing[j].StartTime })

	start := Round(math.Max(at, 0))
	for moved := true; moved; {
		moved = false
		for _, c := range existing {
			if c.Overlaps(start, start+span) {
				start = c.EndTime
				moved = true
			}
		}
	}

	pasted := make([]*Clip, 0, len(s.clipboard.Clips))
	ids := make([]string, 0, len(s.clipboard.Clips))
	for _, src := range s.clipboard.Clips {
		c := src.Clone()
		c.ID = NewID()
		c.TrackID = t.ID
		c.Selected = false
		offset := start - minStart
		c.StartTime = Round(src.StartTime + offset)
		c.EndTime = Round(src.EndTime + offset)
		t.Clips = append(t.Clips, c)
		pasted = append(pasted, c)
		ids = append(ids, c.ID)
	}

	if s.clipboard.Operation == OpCut {
		for _, src := range s.clipboard.Clips {
			s.removeClip(src.ID)
		}
		s.clipboard = nil
	}
	s.normalizeIfMain(t)

	s.emit(Change{Kind: ChangeClips, TrackID: t.ID, ClipIDs: ids})
	if s.logger != nil {
		s.logger.Debug("pasted clips", "track_id", t.ID, "count", len(pasted), "start", start)
	}
	return pasted, nil
}
