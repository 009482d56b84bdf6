package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/heimdex/heimdex-timeline/internal/logging"
	"github.com/heimdex/heimdex-timeline/internal/playback"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

const defaultVersion = "0.1.0"

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())
	r.Use(LoopbackGuard())

	r.Get("/health", healthHandler(cfg))

	sources := cfg.Sources
	if sources == nil {
		sources = playback.NewServer(logging.WithComponent(cfg.Logger, "playback"))
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Settings, cfg.Logger))

		r.Get("/timeline", timelineHandler(cfg))

		r.Post("/tracks", addTrackHandler(cfg))
		r.Post("/tracks/cleanup", cleanupTracksHandler(cfg))
		r.Patch("/tracks/{id}", updateTrackHandler(cfg))
		r.Delete("/tracks/{id}", removeTrackHandler(cfg))
		r.Post("/tracks/{id}/clips", addClipHandler(cfg))
		r.Post("/tracks/{id}/resolve-overlaps", resolveOverlapsHandler(cfg))

		r.Post("/clips/delete", removeClipsHandler(cfg))
		r.Patch("/clips/{id}", updateClipHandler(cfg))
		r.Delete("/clips/{id}", removeClipHandler(cfg))
		r.Post("/clips/{id}/split", splitClipHandler(cfg))
		r.Post("/clips/{id}/move", moveClipHandler(cfg))
		r.Post("/clips/{id}/playback-rate", playbackRateHandler(cfg))
		r.Post("/clips/{id}/transition", addTransitionHandler(cfg))
		r.Post("/clips/{id}/metadata", metadataHandler(cfg))
		r.Get("/clips/{id}/source", sourceHandler(cfg, sources))
		r.Head("/clips/{id}/source", sourceHandler(cfg, sources))

		r.Post("/clipboard/copy", clipboardHandler(cfg, timeline.OpCopy))
		r.Post("/clipboard/cut", clipboardHandler(cfg, timeline.OpCut))
		r.Post("/clipboard/paste", pasteHandler(cfg))

		r.Put("/selection", selectionHandler(cfg))
		r.Delete("/selection", clearSelectionHandler(cfg))

		r.Get("/history", historyHandler(cfg))
		r.Post("/history/undo", undoHandler(cfg, false))
		r.Post("/history/redo", undoHandler(cfg, true))
		r.Delete("/history", clearHistoryHandler(cfg))

		r.Put("/layout", layoutHandler(cfg))
		r.Put("/viewport", viewportHandler(cfg))
		r.Post("/drag/start", dragStartHandler(cfg))
		r.Post("/drag/move", dragMoveHandler(cfg))
		r.Post("/drag/end", dragEndHandler(cfg))
		r.Post("/resize/start", resizeStartHandler(cfg))
		r.Post("/resize/move", resizeMoveHandler(cfg))
		r.Post("/resize/end", resizeEndHandler(cfg))

		r.Get("/settings", getSettingsHandler(cfg))
		r.Patch("/settings", patchSettingsHandler(cfg))
		r.Post("/settings/zoom", zoomHandler(cfg))
		r.Post("/settings/reset", resetSettingsHandler(cfg))

		r.Post("/main-track/normalize", normalizeMainTrackHandler(cfg))
		r.Post("/main-track/clips", insertMainTrackHandler(cfg))
		r.Delete("/main-track/clips/{id}", removeMainTrackHandler(cfg))
		r.Post("/main-track/clips/{id}/resize", resizeMainTrackHandler(cfg))
		r.Post("/main-track/clips/{id}/move", moveMainTrackHandler(cfg))

		r.Post("/export/edl", exportEDLHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := cfg.Version
		if version == "" {
			version = defaultVersion
		}
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot())
	}
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}

// writeSessionError maps session and store errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBusy), errors.Is(err, timeline.ErrOverlap):
		WriteError(w, http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, ErrIdle):
		WriteError(w, http.StatusConflict, err.Error(), "NOT_ACTIVE")
	case errors.Is(err, ErrRejected):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "REJECTED")
	case errors.Is(err, timeline.ErrClipNotFound),
		errors.Is(err, timeline.ErrTrackNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, timeline.ErrSplitOutOfRange),
		errors.Is(err, timeline.ErrSplitTransition),
		errors.Is(err, timeline.ErrInvalidClip),
		errors.Is(err, timeline.ErrRateOutOfRange),
		errors.Is(err, timeline.ErrDurationLocked),
		errors.Is(err, timeline.ErrClipboardEmpty),
		errors.Is(err, timeline.ErrNoNeighbor):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "INVALID_OPERATION")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
