package api

import (
	"fmt"
	"net/http"

	"github.com/heimdex/heimdex-timeline/internal/drag"
	"github.com/heimdex/heimdex-timeline/internal/resize"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

func clipboardHandler(cfg ServerConfig, op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClipboardRequest
		if !decode(w, r, &req) {
			return
		}

		var count int
		err := cfg.Session.Mutate("", func(st *timeline.Store) error {
			var ok bool
			if op == timeline.OpCut {
				ok = st.CutClips(req.IDs...)
			} else {
				ok = st.CopyClips(req.IDs...)
			}
			if !ok {
				return timeline.ErrClipNotFound
			}
			count = len(st.Clipboard().Clips)
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ClipboardResponse{Operation: op, Count: count})
	}
}

func pasteHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PasteRequest
		if !decode(w, r, &req) {
			return
		}

		var clips []*timeline.Clip
		err := cfg.Session.Mutate("paste clips", func(st *timeline.Store) error {
			pasted, err := st.PasteClips(req.TrackID, req.Time)
			if err != nil {
				return err
			}
			for _, c := range pasted {
				clips = append(clips, c.Clone())
			}
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ClipsResponse{Clips: clips})
	}
}

// selectionHandler changes the selection without recording history.
func selectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectionRequest
		if !decode(w, r, &req) {
			return
		}
		switch req.Mode {
		case "", "replace", "add", "remove":
		default:
			WriteError(w, http.StatusBadRequest, "mode must be replace, add or remove", "BAD_REQUEST")
			return
		}

		var selected []string
		err := cfg.Session.Mutate("", func(st *timeline.Store) error {
			for _, id := range req.IDs {
				if st.Clip(id) == nil {
					return fmt.Errorf("%w: %s", timeline.ErrClipNotFound, id)
				}
			}
			if req.Mode == "" || req.Mode == "replace" {
				st.ClearSelection()
			}
			for _, id := range req.IDs {
				if req.Mode == "remove" {
					st.DeselectClip(id)
				} else {
					st.SelectClip(id, true)
				}
			}
			selected = append([]string{}, st.SelectedClipIDs()...)
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SelectionResponse{SelectedClipIDs: selected})
	}
}

func clearSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.Session.Mutate("", func(st *timeline.Store) error {
			st.ClearSelection()
			return nil
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SelectionResponse{SelectedClipIDs: []string{}})
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, state := cfg.Session.HistoryEntries()
		WriteJSON(w, http.StatusOK, HistoryResponse{HistoryState: state, Entries: entries})
	}
}

func undoHandler(cfg ServerConfig, redo bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var applied bool
		var err error
		if redo {
			applied, err = cfg.Session.Redo()
		} else {
			applied, err = cfg.Session.Undo()
		}
		if err != nil {
			writeSessionError(w, err)
			return
		}
		_, state := cfg.Session.HistoryEntries()
		WriteJSON(w, http.StatusOK, UndoResponse{Applied: applied, HistoryState: state})
	}
}

func clearHistoryHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Session.ClearHistory(); err != nil {
			writeSessionError(w, err)
			return
		}
		_, state := cfg.Session.HistoryEntries()
		WriteJSON(w, http.StatusOK, UndoResponse{HistoryState: state})
	}
}

func layoutHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LayoutRequest
		if !decode(w, r, &req) {
			return
		}
		for _, row := range req.Rows {
			if row.Bottom <= row.Top {
				WriteError(w, http.StatusBadRequest, "row bottom must be below its top", "BAD_REQUEST")
				return
			}
		}
		cfg.Session.SetLayout(req.Rows)
		w.WriteHeader(http.StatusNoContent)
	}
}

func viewportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v drag.Viewport
		if !decode(w, r, &v) {
			return
		}
		if v.Right < v.Left || v.MaxScroll < 0 {
			WriteError(w, http.StatusBadRequest, "invalid viewport geometry", "BAD_REQUEST")
			return
		}
		cfg.Session.SetViewport(v)
		w.WriteHeader(http.StatusNoContent)
	}
}

func dragStartHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragStartRequest
		if !decode(w, r, &req) {
			return
		}
		if err := cfg.Session.StartDrag(req.ClipID, req.Pointer); err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot().Drag)
	}
}

func dragMoveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p drag.Pointer
		if !decode(w, r, &p) {
			return
		}
		preview, err := cfg.Session.MoveDrag(p)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, DragMoveResponse{Preview: preview})
	}
}

func dragEndHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := cfg.Session.EndDrag()
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

func resizeStartHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResizeStartRequest
		if !decode(w, r, &req) {
			return
		}

		var err error
		switch {
		case req.TransitionID != "":
			err = cfg.Session.StartTransitionResize(req.TransitionID, req.Pointer)
		case req.Edge != resize.EdgeLeft && req.Edge != resize.EdgeRight:
			WriteError(w, http.StatusBadRequest, "edge must be left or right", "BAD_REQUEST")
			return
		default:
			err = cfg.Session.StartResize(req.ClipID, req.Edge, req.Pointer)
		}
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot().Resize)
	}
}

func resizeMoveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p resize.Pointer
		if !decode(w, r, &p) {
			return
		}
		clip, err := cfg.Session.MoveResize(p)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ClipResponse{Clip: clip})
	}
}

func resizeEndHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clip, err := cfg.Session.EndResize()
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ClipResponse{Clip: clip})
	}
}
