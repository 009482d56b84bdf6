package api

import (
	"errors"
	"net/http"

	"github.com/heimdex/heimdex-timeline/internal/export"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.ExportRequest
		if !decode(w, r, &req) {
			return
		}

		var resp *export.ExportResponse
		var err error
		cfg.Session.Read(func(st *timeline.Store) {
			resp, err = export.Run(st, req)
		})
		switch {
		case err == nil:
			WriteJSON(w, http.StatusOK, resp)
		case errors.Is(err, export.ErrUnsupportedFormat), errors.Is(err, export.ErrInvalidOutputDir):
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		case errors.Is(err, export.ErrNoTrack):
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
		case errors.Is(err, export.ErrNoClips):
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "UNRESOLVABLE_CLIPS")
		default:
			cfg.Logger.Error("export failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
		}
	}
}
