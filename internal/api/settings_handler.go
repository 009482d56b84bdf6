package api

import (
	"net/http"

	"github.com/heimdex/heimdex-timeline/internal/coords"
)

func getSettingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp SettingsResponse
		cfg.Session.View(func(m *coords.Mapper) {
			resp = settingsResponse(m)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}

func patchSettingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch SettingsPatch
		if !decode(w, r, &patch) {
			return
		}
		if patch.Scale != nil && *patch.Scale <= 0 {
			WriteError(w, http.StatusBadRequest, "scale must be positive", "BAD_REQUEST")
			return
		}

		var resp SettingsResponse
		cfg.Session.View(func(m *coords.Mapper) {
			if patch.Scale != nil {
				m.SetScale(*patch.Scale)
			}
			if patch.SnapEnabled != nil {
				m.SetSnapEnabled(*patch.SnapEnabled)
			}
			resp = settingsResponse(m)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}

func zoomHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ZoomRequest
		if !decode(w, r, &req) {
			return
		}

		var zoom func(m *coords.Mapper) float64
		switch req.Action {
		case "in":
			zoom = (*coords.Mapper).ZoomIn
		case "out":
			zoom = (*coords.Mapper).ZoomOut
		case "reset":
			zoom = (*coords.Mapper).ResetZoom
		default:
			WriteError(w, http.StatusBadRequest, "action must be in, out or reset", "BAD_REQUEST")
			return
		}

		var resp SettingsResponse
		cfg.Session.View(func(m *coords.Mapper) {
			zoom(m)
			resp = settingsResponse(m)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}

func resetSettingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp SettingsResponse
		cfg.Session.View(func(m *coords.Mapper) {
			m.ResetSettings()
			resp = settingsResponse(m)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}
