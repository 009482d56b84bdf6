package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

func normalizeMainTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var track *timeline.Track
		err := cfg.Session.Mutate("normalize main track", func(st *timeline.Store) error {
			if !st.NormalizeMainTrack() {
				return fmt.Errorf("main track: %w", timeline.ErrTrackNotFound)
			}
			track = st.MainTrack().Clone()
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, track)
	}
}

func insertMainTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MainTrackInsertRequest
		if !decode(w, r, &req) {
			return
		}

		var clip *timeline.Clip
		err := cfg.Session.Mutate("insert clip into main track", func(st *timeline.Store) error {
			main := st.MainTrack()
			if main == nil {
				return fmt.Errorf("main track: %w", timeline.ErrTrackNotFound)
			}
			if !main.Accepts(req.Clip.Type) {
				return fmt.Errorf("%w: main track does not accept %s clips", ErrRejected, req.Clip.Type)
			}
			added, ok := st.InsertIntoMainTrack(req.Clip, req.At)
			if !ok {
				return fmt.Errorf("%w: invalid clip", ErrRejected)
			}
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

func removeMainTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := cfg.Session.Mutate("ripple delete clip", func(st *timeline.Store) error {
			if st.MainTrack() == nil {
				return fmt.Errorf("main track: %w", timeline.ErrTrackNotFound)
			}
			if !st.RemoveFromMainTrack(id) {
				return timeline.ErrClipNotFound
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

func resizeMainTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req MainTrackResizeRequest
		if !decode(w, r, &req) {
			return
		}

		var track *timeline.Track
		err := cfg.Session.Mutate("ripple resize clip", func(st *timeline.Store) error {
			if err := st.ResizeInMainTrack(id, req.Duration); err != nil {
				return err
			}
			track = st.MainTrack().Clone()
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, track)
	}
}

func moveMainTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req MainTrackMoveRequest
		if !decode(w, r, &req) {
			return
		}

		var track *timeline.Track
		err := cfg.Session.Mutate("reorder main track", func(st *timeline.Store) error {
			if err := st.MoveInMainTrack(id, req.Index); err != nil {
				return err
			}
			track = st.MainTrack().Clone()
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, track)
	}
}
