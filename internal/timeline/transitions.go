package timeline

import "math"

// HasOverlap reports whether any clip on the track other than excludeID
// intersects [start, end).
func (s *Store) HasOverlap(trackID string, start, end float64, excludeID string) bool {
	t := s.Track(trackID)
	if t == nil {
		return false
	}
	for _, c := range t.Clips {
		if c.ID == excludeID {
			continue
		}
		if c.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// TransitionNeighbors finds the two contiguous content clips whose shared
// boundary sits at the transition's center. Adjacency is derived on demand
// from times; transitions hold no references to their neighbors.
func TransitionNeighbors(t *Track, tr *Clip) (left, right *Clip, ok bool) {
	center := tr.Center()
	for _, c := range sortedContent(t) {
		if left == nil && math.Abs(c.EndTime-center) < AdjacencyTolerance {
			left = c
			continue
		}
		if right == nil && math.Abs(c.StartTime-center) < AdjacencyTolerance {
			right = c
		}
	}
	if left == nil || right == nil {
		return nil, nil, false
	}
	if math.Abs(right.StartTime-left.EndTime) >= AdjacencyTolerance {
		return nil, nil, false
	}
	return left, right, true
}

// TransitionAt returns the transition whose center lies within its own
// duration of boundary, if any.
func TransitionAt(t *Track, boundary float64, excludeID string) *Clip {
	for _, c := range t.Clips {
		if !c.IsTransition() || c.ID == excludeID {
			continue
		}
		if math.Abs(c.Center()-boundary) < c.TransitionDuration() {
			return c
		}
	}
	return nil
}

// RemoveOrphanedTransitions deletes transitions on the track that no longer
// sit between two contiguous clips.
func (s *Store) RemoveOrphanedTransitions(trackID string) []string {
	t := s.Track(trackID)
	if t == nil {
		return nil
	}
	var orphans []string
	for _, c := range t.Clips {
		if !c.IsTransition() {
			continue
		}
		if _, _, ok := TransitionNeighbors(t, c); !ok {
			orphans = append(orphans, c.ID)
		}
	}
	for _, id := range orphans {
		s.removeClip(id)
	}
	if len(orphans) > 0 && s.logger != nil {
		s.logger.Debug("removed orphaned transitions", "track_id", trackID, "count", len(orphans))
	}
	return orphans
}

// ResolveTrackOverlaps walks the track's content clips in start order and
// pushes each clip that starts before the previous clip's end forward by
// exactly the overlap. It returns the ids of the clips it moved.
func (s *Store) ResolveTrackOverlaps(trackID string) []string {
	t := s.Track(trackID)
	if t == nil {
		return nil
	}
	clips := sortedContent(t)
	var shifted []string
	for i := 1; i < len(clips); i++ {
		prev, cur := clips[i-1], clips[i]
		if cur.StartTime >= prev.EndTime {
			continue
		}
		overlap := prev.EndTime - cur.StartTime
		cur.StartTime = Round(cur.StartTime + overlap)
		cur.EndTime = Round(cur.EndTime + overlap)
		shifted = append(shifted, cur.ID)
	}
	if len(shifted) > 0 {
		s.emit(Change{Kind: ChangeClips, TrackID: trackID, ClipIDs: shifted})
	}
	return shifted
}

// AddTransition places a transition centered on the boundary between the
// clip and its contiguous right-hand neighbor, replacing any transition
// already there. The duration is limited so the transition never extends
// past either neighbor.
func (s *Store) AddTransition(leftClipID, transitionType string, duration float64) (*Clip, error) {
	left, _, t := s.locate(leftClipID)
	if t == nil || left.IsTransition() {
		return nil, ErrClipNotFound
	}
	var right *Clip
	for _, c := range sortedContent(t) {
		if c.ID != left.ID && math.Abs(c.StartTime-left.EndTime) < AdjacencyTolerance {
			right = c
			break
		}
	}
	if right == nil {
		return nil, ErrNoNeighbor
	}

	boundary := left.EndTime
	if existing := TransitionAt(t, boundary, ""); existing != nil {
		s.removeClip(existing.ID)
	}

	limit := 2 * math.Min(left.Duration(), right.Duration())
	d := clampTransitionDuration(math.Min(duration, limit))
	if transitionType == "" {
		transitionType = "fade"
	}
	tr := &Clip{
		ID:        NewID(),
		TrackID:   t.ID,
		Type:      ClipTransition,
		StartTime: Round(boundary - d/2),
		EndTime:   Round(boundary + d/2),
		Transition: &TransitionProps{
			TransitionType: transitionType,
			Duration:       d,
		},
	}
	t.Clips = append(t.Clips, tr)
	s.emit(Change{Kind: ChangeClips, TrackID: t.ID, ClipIDs: []string{tr.ID}})
	return tr, nil
}

// centerTransition re-anchors tr symmetrically around boundary.
func centerTransition(tr *Clip, boundary float64) {
	d := tr.TransitionDuration()
	tr.StartTime = Round(boundary - d/2)
	tr.EndTime = Round(boundary + d/2)
}
