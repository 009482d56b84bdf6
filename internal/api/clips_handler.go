package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/heimdex/heimdex-timeline/internal/logging"
	"github.com/heimdex/heimdex-timeline/internal/media"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// updateClipHandler merges a partial update into a clip. Updates that
// would leave the clip malformed or overlapping are refused.
func updateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch timeline.ClipPatch
		if !decode(w, r, &patch) {
			return
		}

		var clip *timeline.Clip
		err := cfg.Session.Mutate("update clip", func(st *timeline.Store) error {
			if t := st.TrackOf(id); t != nil && t.Locked {
				return fmt.Errorf("%w: track is locked", ErrRejected)
			}
			updated, err := st.EditClip(id, patch)
			if err != nil {
				return err
			}
			clip = updated.Clone()
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ClipResponse{Clip: clip})
	}
}

func removeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := cfg.Session.Mutate("delete clip", func(st *timeline.Store) error {
			if !st.RemoveClip(id) {
				return timeline.ErrClipNotFound
			}
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, RemoveClipsResponse{Removed: 1})
	}
}

func removeClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RemoveClipsRequest
		if !decode(w, r, &req) {
			return
		}

		var n int
		err := cfg.Session.Mutate(fmt.Sprintf("delete %d clip(s)", len(req.IDs)), func(st *timeline.Store) error {
			ids := req.IDs
			if len(ids) == 0 {
				ids = st.SelectedClipIDs()
			}
			n = st.RemoveClips(append([]string(nil), ids...))
			if n == 0 {
				return errNoChange
			}
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, RemoveClipsResponse{Removed: n})
	}
}

func splitClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req SplitRequest
		if !decode(w, r, &req) {
			return
		}

		var clips []*timeline.Clip
		err := cfg.Session.Mutate("split clip", func(st *timeline.Store) error {
			res, err := st.SplitClip(id, req.Time)
			if err != nil {
				return err
			}
			clips = []*timeline.Clip{res.Left.Clone(), res.Right.Clone()}
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ClipsResponse{Clips: clips})
	}
}

// moveClipHandler relocates a clip to another track and/or start time.
// The move is refused when it would overlap a clip on the destination.
func moveClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req MoveClipRequest
		if !decode(w, r, &req) {
			return
		}

		var clip *timeline.Clip
		err := cfg.Session.Mutate("move clip", func(st *timeline.Store) error {
			c := st.Clip(id)
			if c == nil {
				return timeline.ErrClipNotFound
			}
			from := st.TrackOf(id)
			to := from
			if req.TrackID != "" {
				if to = st.Track(req.TrackID); to == nil {
					return timeline.ErrTrackNotFound
				}
			}
			if to.Locked || from.Locked {
				return fmt.Errorf("%w: track is locked", ErrRejected)
			}
			if !to.Accepts(c.Type) {
				return fmt.Errorf("%w: %s track does not accept %s clips", ErrRejected, to.Type, c.Type)
			}

			start := c.StartTime
			if req.StartTime != nil {
				start = timeline.Round(max(*req.StartTime, 0))
			}
			end := timeline.Round(start + c.Duration())
			if overlapsContent(to, start, end, id) {
				return timeline.ErrOverlap
			}

			st.MoveClipToTrack(id, to.ID)
			st.UpdateClip(id, timeline.Times(start, end))
			st.RemoveOrphanedTransitions(from.ID)
			st.NormalizeIfMain(from.ID, to.ID)
			clip = st.Clip(id).Clone()
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ClipResponse{Clip: clip})
	}
}

func playbackRateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req PlaybackRateRequest
		if !decode(w, r, &req) {
			return
		}

		var change *timeline.RateChange
		err := cfg.Session.Mutate(fmt.Sprintf("set playback rate %gx", req.Rate), func(st *timeline.Store) error {
			var err error
			change, err = st.SetClipPlaybackRate(id, req.Rate, req.RateOptions)
			return err
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, change)
	}
}

func addTransitionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req TransitionRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Duration <= 0 {
			req.Duration = 1
		}

		var clip *timeline.Clip
		err := cfg.Session.Mutate("add transition", func(st *timeline.Store) error {
			tr, err := st.AddTransition(id, req.Type, req.Duration)
			if err != nil {
				return err
			}
			clip = tr.Clone()
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, ClipResponse{Clip: clip})
	}
}

// metadataHandler probes the clip's source and records its length. The
// probe runs without the session lock held.
func metadataHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Metadata == nil {
			WriteError(w, http.StatusServiceUnavailable, "media probing is not configured", "UNAVAILABLE")
			return
		}
		id := chi.URLParam(r, "id")
		logger := logging.WithClipID(cfg.Logger, id)

		var source string
		cfg.Session.Read(func(st *timeline.Store) {
			if c := st.Clip(id); c != nil && c.Media != nil {
				source = c.Media.SourceURL
			}
		})
		if source == "" {
			writeSessionError(w, timeline.ErrClipNotFound)
			return
		}

		meta, err := cfg.Metadata.Get(r.Context(), source)
		if err != nil {
			logger.Warn("metadata probe failed", "source", logging.SanitizePath(source), "error", err)
			WriteError(w, http.StatusBadGateway, "failed to probe media", "PROBE_FAILED")
			return
		}

		var clip *timeline.Clip
		err = cfg.Session.Mutate("update media metadata", func(st *timeline.Store) error {
			c := st.Clip(id)
			if c == nil {
				return timeline.ErrClipNotFound
			}
			patch, ok := media.PatchFor(c, meta)
			if !ok {
				return fmt.Errorf("%w: source is shorter than the clip's trim start", ErrRejected)
			}
			st.UpdateClip(id, patch)
			clip = st.Clip(id).Clone()
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ClipResponse{Clip: clip})
	}
}
