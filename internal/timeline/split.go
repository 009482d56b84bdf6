package timeline

import "slices"

type SplitResult struct {
	Left  *Clip
	Right *Clip
}

// SplitClip cuts the clip at t. The left half keeps the id; the right half
// gets a new id and is never selected. Transitions cannot be split. Media trims are interpolated
// linearly across the split point.
func (s *Store) SplitClip(id string, t float64) (*SplitResult, error) {
	c, idx, track := s.locate(id)
	if track == nil {
		return nil, ErrClipNotFound
	}
	if c.IsTransition() {
		return nil, ErrSplitTransition
	}
	t = Round(t)
	if t <= c.StartTime || t >= c.EndTime {
		return nil, ErrSplitOutOfRange
	}

	right := c.Clone()
	right.ID = NewID()
	right.StartTime = t
	right.Selected = false

	if c.Media != nil {
		ratio := (c.Media.TrimEnd - c.Media.TrimStart) / (c.EndTime - c.StartTime)
		splitTrim := Round(c.Media.TrimStart + (t-c.StartTime)*ratio)
		c.Media.TrimEnd = splitTrim
		right.Media.TrimStart = splitTrim
	}
	c.EndTime = t

	track.Clips = slices.Insert(track.Clips, idx+1, right)
	s.emit(Change{Kind: ChangeClips, TrackID: track.ID, ClipIDs: []string{c.ID, right.ID}})
	return &SplitResult{Left: c, Right: right}, nil
}
