package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/heimdex/heimdex-timeline/internal/logging"
	"github.com/heimdex/heimdex-timeline/internal/playback"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// sourceHandler streams the media file behind a clip. The timeline lock is
// only held while the source URL is read.
func sourceHandler(cfg ServerConfig, sources *playback.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var source string
		found := false
		cfg.Session.Read(func(st *timeline.Store) {
			if c := st.Clip(id); c != nil && c.Media != nil {
				source = c.Media.SourceURL
				found = true
			}
		})
		if !found {
			writeSessionError(w, timeline.ErrClipNotFound)
			return
		}

		err := sources.ServeSource(w, r, source)
		switch {
		case err == nil:
		case errors.Is(err, playback.ErrSourceGone):
			WriteError(w, http.StatusNotFound, "source file not found", "SOURCE_NOT_FOUND")
		case errors.Is(err, playback.ErrNoSource), errors.Is(err, playback.ErrNotLocal), errors.Is(err, playback.ErrIsDir):
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "NOT_LOCAL")
		default:
			logging.WithClipID(cfg.Logger, id).Error("failed to stream source",
				"source", logging.SanitizePath(source), "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to stream source", "INTERNAL_ERROR")
		}
	}
}
