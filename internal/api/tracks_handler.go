package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddTrackRequest
		if !decode(w, r, &req) {
			return
		}
		if req.RelativeTo != "" && req.Position != "above" && req.Position != "below" {
			WriteError(w, http.StatusBadRequest, "position must be above or below", "BAD_REQUEST")
			return
		}

		var track *timeline.Track
		err := cfg.Session.Mutate("add track", func(st *timeline.Store) error {
			var ok bool
			switch {
			case req.RelativeTo == "":
				track = st.AddTrack(req.Type, req.Name)
				return nil
			case req.Position == "above":
				track, ok = st.AddTrackAbove(req.RelativeTo, req.Type, req.Name)
			default:
				track, ok = st.AddTrackBelow(req.RelativeTo, req.Type, req.Name)
			}
			if !ok {
				return timeline.ErrTrackNotFound
			}
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, track)
	}
}

func updateTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch timeline.TrackPatch
		if !decode(w, r, &patch) {
			return
		}

		var track *timeline.Track
		err := cfg.Session.Mutate("update track", func(st *timeline.Store) error {
			if !st.UpdateTrack(id, patch) {
				return timeline.ErrTrackNotFound
			}
			track = st.Track(id).Clone()
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, track)
	}
}

func removeTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := cfg.Session.Mutate("remove track", func(st *timeline.Store) error {
			if !st.RemoveTrack(id) {
				return timeline.ErrTrackNotFound
			}
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, RemovedResponse{Removed: []string{id}})
	}
}

func cleanupTracksHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed := []string{}
		err := cfg.Session.Mutate("remove empty tracks", func(st *timeline.Store) error {
			removed = append(removed, st.CleanupEmptyTracks()...)
			if len(removed) == 0 {
				return errNoChange
			}
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, RemovedResponse{Removed: removed})
	}
}

func resolveOverlapsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var shifted []string
		err := cfg.Session.Mutate("resolve overlaps", func(st *timeline.Store) error {
			if st.Track(id) == nil {
				return timeline.ErrTrackNotFound
			}
			shifted = st.ResolveTrackOverlaps(id)
			if len(shifted) == 0 {
				return errNoChange
			}
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		if shifted == nil {
			shifted = []string{}
		}
		WriteJSON(w, http.StatusOK, ShiftedResponse{Shifted: shifted})
	}
}

func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trackID := chi.URLParam(r, "id")
		var req timeline.Clip
		if !decode(w, r, &req) {
			return
		}
		if req.Type == "" {
			WriteError(w, http.StatusBadRequest, "type is required", "BAD_REQUEST")
			return
		}

		var clip *timeline.Clip
		err := cfg.Session.Mutate("add clip", func(st *timeline.Store) error {
			t := st.Track(trackID)
			if t == nil {
				return timeline.ErrTrackNotFound
			}
			if !t.Accepts(req.Type) {
				return fmt.Errorf("%w: %s track does not accept %s clips", ErrRejected, t.Type, req.Type)
			}
			norm, ok := timeline.NormalizeClip(req)
			if !ok {
				return fmt.Errorf("%w: invalid clip timing", ErrRejected)
			}
			if !norm.IsTransition() && overlapsContent(t, norm.StartTime, norm.EndTime, norm.ID) {
				return timeline.ErrOverlap
			}
			added, _ := st.AddClip(trackID, *norm)
			st.NormalizeIfMain(trackID)
			clip = added.Clone()
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, ClipResponse{Clip: clip})
	}
}

// overlapsContent reports whether [start, end) intersects a content clip
// on t other than excludeID. Transitions straddle boundaries and are
// ignored.
func overlapsContent(t *timeline.Track, start, end float64, excludeID string) bool {
	for _, c := range timeline.ContentClips(t) {
		if c.ID != excludeID && c.Overlaps(start, end) {
			return true
		}
	}
	return false
}
