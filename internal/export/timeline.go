package export

import (
	"fmt"
	"math"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// FromTrack turns a track's media clips into EDL events in start order.
// Record times are the clips' timeline positions, so gaps survive. Clips
// without a media payload are returned as skipped ids.
func FromTrack(t *timeline.Track) ([]ResolvedClip, []string) {
	if t == nil {
		return nil, nil
	}
	var events []ResolvedClip
	skipped := []string{}
	for _, c := range timeline.ContentClips(t) {
		if !c.IsMedia() {
			skipped = append(skipped, c.ID)
			continue
		}
		name := SanitizeName(c.Name, 160)
		if name == "" {
			name = c.ID
		}
		ev := ResolvedClip{
			ClipID:      c.ID,
			ClipName:    name,
			MediaPath:   MediaPath(c.Media.SourceURL),
			SourceInMs:  toMs(c.Media.TrimStart),
			SourceOutMs: toMs(c.Media.TrimEnd),
			RecordInMs:  toMs(c.StartTime),
			RecordOutMs: toMs(c.EndTime),
			Speed:       c.Media.Rate(),
		}
		if tr := timeline.TransitionAt(t, c.StartTime, ""); tr != nil && tr.Transition != nil {
			ev.Transition = fmt.Sprintf("%s %.3fs", tr.Transition.TransitionType, tr.Transition.Duration)
		}
		events = append(events, ev)
	}
	return events, skipped
}

// SelectTrack picks the export track: the given id, else the main track,
// else the first video track.
func SelectTrack(s *timeline.Store, trackID string) *timeline.Track {
	if trackID != "" {
		return s.Track(trackID)
	}
	if t := s.MainTrack(); t != nil {
		return t
	}
	for _, t := range s.Tracks() {
		if t.Type == timeline.TrackVideo {
			return t
		}
	}
	return nil
}

func toMs(seconds float64) int {
	return int(math.Round(seconds * 1000))
}
