package timeline

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidClip = errors.New("invalid clip timing")
	ErrOverlap     = errors.New("clip overlaps an existing clip")
)

// timeEpsilon absorbs millisecond rounding when comparing clip edges.
const timeEpsilon = 0.0015

// EditClip applies p like UpdateClip, but only when the clip stays well
// formed afterwards. A media clip's end follows from its start, trim range
// and playback rate, so an explicit end that disagrees is rejected. A
// transition must stay centered on a clip boundary, and content may not
// overlap other content on its track. Transitions left without a boundary
// by the edit are removed.
func (s *Store) EditClip(id string, p ClipPatch) (*Clip, error) {
	c, _, t := s.locate(id)
	if t == nil {
		return nil, ErrClipNotFound
	}
	next := c.Clone()
	p.Apply(next)
	if err := settleTiming(t, c, next, p); err != nil {
		return nil, err
	}
	if !next.IsTransition() {
		for _, other := range ContentClips(t) {
			if other.ID != id && other.Overlaps(next.StartTime, next.EndTime) {
				return nil, fmt.Errorf("%w: %s", ErrOverlap, other.ID)
			}
		}
	}

	start, end := next.StartTime, next.EndTime
	p.StartTime, p.EndTime = &start, &end
	s.UpdateClip(id, p)
	if !c.IsTransition() {
		s.normalizeIfMain(t)
		s.RemoveOrphanedTransitions(t.ID)
	}
	return c, nil
}

// settleTiming derives the edges the patched clip must have and reports
// why the result is unacceptable, if it is.
func settleTiming(t *Track, old, next *Clip, p ClipPatch) error {
	next.StartTime = Round(next.StartTime)
	next.EndTime = Round(next.EndTime)
	if next.StartTime < 0 {
		return fmt.Errorf("%w: start %.3f is negative", ErrInvalidClip, next.StartTime)
	}

	switch {
	case next.IsTransition():
		if p.StartTime == nil && p.EndTime == nil {
			centerTransition(next, old.Center())
		} else {
			want := Round(next.StartTime + next.TransitionDuration())
			if p.EndTime != nil && math.Abs(next.EndTime-want) > timeEpsilon {
				return fmt.Errorf("%w: end %.3f does not match the transition duration", ErrInvalidClip, next.EndTime)
			}
			next.EndTime = want
		}
		if _, _, ok := TransitionNeighbors(t, next); !ok {
			return fmt.Errorf("%w: transition is not on a clip boundary", ErrInvalidClip)
		}
	case next.Media != nil:
		m := next.Media
		if p.Media != nil && p.Media.PlaybackRate != nil && !validRate(*p.Media.PlaybackRate) {
			return ErrRateOutOfRange
		}
		if m.TrimStart < 0 || m.TrimEnd <= m.TrimStart {
			return fmt.Errorf("%w: trim range [%.3f, %.3f] is empty", ErrInvalidClip, m.TrimStart, m.TrimEnd)
		}
		if m.OriginalDuration > 0 && m.TrimEnd > m.OriginalDuration+timeEpsilon {
			return fmt.Errorf("%w: trim end %.3f is past the source length %.3f", ErrInvalidClip, m.TrimEnd, m.OriginalDuration)
		}
		want := Round(next.StartTime + m.TrackDuration())
		if p.EndTime != nil && math.Abs(next.EndTime-want) > timeEpsilon {
			return fmt.Errorf("%w: end %.3f does not match the trim range (want %.3f)", ErrInvalidClip, next.EndTime, want)
		}
		next.EndTime = want
	}

	if next.EndTime <= next.StartTime {
		return fmt.Errorf("%w: end %.3f is not after start %.3f", ErrInvalidClip, next.EndTime, next.StartTime)
	}
	return nil
}

func validRate(rate float64) bool {
	return rate >= MinPlaybackRate && rate <= MaxPlaybackRate
}
