package timeline

import (
	"fmt"
	"math"
	"slices"
)

// RateOptions restricts how a playback-rate change may alter the clip's
// on-track duration. The zero value allows both directions.
type RateOptions struct {
	PreventExpand bool `json:"preventExpand,omitempty"`
	PreventShrink bool `json:"preventShrink,omitempty"`
}

type RateChange struct {
	ClipID             string   `json:"clipId"`
	OldRate            float64  `json:"oldRate"`
	NewRate            float64  `json:"newRate"`
	OldDuration        float64  `json:"oldDuration"`
	NewDuration        float64  `json:"newDuration"`
	RemovedTransitions []string `json:"removedTransitions"`
	ShiftedClips       []string `json:"shiftedClips"`
	Message            string   `json:"message"`
}

type transitionLink struct {
	tr, left, right *Clip
}

// SetClipPlaybackRate changes a media clip's speed. The clip keeps its
// start; clips pushed into by a longer clip move right by exactly the
// overlap, and transitions at the affected boundaries are re-centered or
// removed when their neighbors stop touching.
func (s *Store) SetClipPlaybackRate(id string, rate float64, opts RateOptions) (*RateChange, error) {
	c, _, t := s.locate(id)
	if t == nil || c.Media == nil {
		return nil, ErrClipNotFound
	}
	if !validRate(rate) {
		return nil, ErrRateOutOfRange
	}

	oldStart, oldEnd := c.StartTime, c.EndTime
	oldDur := Round(oldEnd - oldStart)
	newDur := Round((c.Media.TrimEnd - c.Media.TrimStart) / rate)
	if newDur > oldDur && opts.PreventExpand {
		return nil, fmt.Errorf("%w: would grow from %.3fs to %.3fs", ErrDurationLocked, oldDur, newDur)
	}
	if newDur < oldDur && opts.PreventShrink {
		return nil, fmt.Errorf("%w: would shrink from %.3fs to %.3fs", ErrDurationLocked, oldDur, newDur)
	}

	links := s.boundaryLinks(t, c, oldStart, oldEnd)

	change := &RateChange{
		ClipID:             id,
		OldRate:            c.Media.Rate(),
		NewRate:            rate,
		OldDuration:        oldDur,
		NewDuration:        newDur,
		RemovedTransitions: []string{},
		ShiftedClips:       []string{},
	}

	c.Media.PlaybackRate = rate
	c.EndTime = Round(oldStart + newDur)
	change.ShiftedClips = append(change.ShiftedClips, handleCollision(t, c, oldStart)...)

	moved := append([]string{c.ID}, change.ShiftedClips...)
	for _, l := range links {
		if !slices.Contains(moved, l.left.ID) && !slices.Contains(moved, l.right.ID) {
			continue
		}
		if math.Abs(l.right.StartTime-l.left.EndTime) >= AdjacencyTolerance {
			change.RemovedTransitions = append(change.RemovedTransitions, l.tr.ID)
			continue
		}
		centerTransition(l.tr, l.left.EndTime)
	}
	for _, trID := range change.RemovedTransitions {
		s.removeClip(trID)
	}
	s.normalizeIfMain(t)

	change.Message = fmt.Sprintf("playback rate set to %gx", rate)
	if n := len(change.ShiftedClips); n > 0 {
		change.Message += fmt.Sprintf(", %d clip(s) shifted", n)
	}
	if n := len(change.RemovedTransitions); n > 0 {
		change.Message += fmt.Sprintf(", %d transition(s) removed", n)
	}

	s.emit(Change{Kind: ChangeClips, TrackID: t.ID, ClipIDs: moved})
	if s.logger != nil {
		s.logger.Debug("playback rate changed", "clip_id", id, "rate", rate, "duration", newDur)
	}
	return change, nil
}

// boundaryLinks records, before any mutation, the neighbor pair of every
// transition on the track. Pairs touching c's old edges and pairs that
// collision handling may move are re-validated afterwards.
func (s *Store) boundaryLinks(t *Track, c *Clip, oldStart, oldEnd float64) []transitionLink {
	var links []transitionLink
	for _, tr := range Transitions(t) {
		left, right, ok := TransitionNeighbors(t, tr)
		if !ok {
			continue
		}
		d := tr.TransitionDuration()
		touchesClip := math.Abs(tr.Center()-oldStart) < d || math.Abs(tr.Center()-oldEnd) < d
		if touchesClip || left.StartTime >= oldEnd-AdjacencyTolerance {
			links = append(links, transitionLink{tr: tr, left: left, right: right})
		}
	}
	return links
}

// handleCollision pushes the clips right of c forward by exactly the
// overlap each one ends up with, cascading along the track.
func handleCollision(t *Track, c *Clip, origin float64) []string {
	var shifted []string
	prevEnd := c.EndTime
	for _, other := range sortedContent(t) {
		if other.ID == c.ID || other.StartTime < origin {
			continue
		}
		if other.StartTime >= prevEnd {
			prevEnd = other.EndTime
			continue
		}
		overlap := prevEnd - other.StartTime
		other.StartTime = Round(other.StartTime + overlap)
		other.EndTime = Round(other.EndTime + overlap)
		shifted = append(shifted, other.ID)
		prevEnd = other.EndTime
	}
	return shifted
}
