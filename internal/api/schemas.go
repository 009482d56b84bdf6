package api

import (
	"github.com/heimdex/heimdex-timeline/internal/coords"
	"github.com/heimdex/heimdex-timeline/internal/drag"
	"github.com/heimdex/heimdex-timeline/internal/history"
	"github.com/heimdex/heimdex-timeline/internal/resize"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// AddTrackRequest creates a track. With RelativeTo set, Position "above"
// or "below" inserts next to that track; otherwise the track is appended.
type AddTrackRequest struct {
	Type       timeline.TrackType `json:"type"`
	Name       string             `json:"name,omitempty"`
	RelativeTo string             `json:"relativeTo,omitempty"`
	Position   string             `json:"position,omitempty"`
}

type RemovedResponse struct {
	Removed []string `json:"removed"`
}

type ShiftedResponse struct {
	Shifted []string `json:"shifted"`
}

type RemoveClipsRequest struct {
	IDs []string `json:"ids"`
}

type RemoveClipsResponse struct {
	Removed int `json:"removed"`
}

type SplitRequest struct {
	Time float64 `json:"time"`
}

type MoveClipRequest struct {
	TrackID   string   `json:"trackId"`
	StartTime *float64 `json:"startTime,omitempty"`
}

type PlaybackRateRequest struct {
	Rate float64 `json:"rate"`
	timeline.RateOptions
}

type TransitionRequest struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration"`
}

type ClipboardRequest struct {
	IDs []string `json:"ids,omitempty"`
}

type ClipboardResponse struct {
	Operation string `json:"operation"`
	Count     int    `json:"count"`
}

type PasteRequest struct {
	TrackID string  `json:"trackId"`
	Time    float64 `json:"time"`
}

type ClipsResponse struct {
	Clips []*timeline.Clip `json:"clips"`
}

// SelectionRequest changes the selection. Mode is "replace" (default),
// "add" or "remove".
type SelectionRequest struct {
	IDs  []string `json:"ids"`
	Mode string   `json:"mode,omitempty"`
}

type SelectionResponse struct {
	SelectedClipIDs []string `json:"selectedClipIds"`
}

type HistoryResponse struct {
	HistoryState
	Entries []history.EntryInfo `json:"entries"`
}

type UndoResponse struct {
	Applied bool `json:"applied"`
	HistoryState
}

type DragStartRequest struct {
	ClipID string `json:"clipId"`
	drag.Pointer
}

type DragMoveResponse struct {
	Preview *drag.Preview `json:"preview"`
}

type LayoutRequest struct {
	Rows drag.RowLayout `json:"rows"`
}

// ResizeStartRequest starts an edge resize of ClipID, or a handle resize
// of TransitionID when that is set instead.
type ResizeStartRequest struct {
	ClipID       string      `json:"clipId,omitempty"`
	TransitionID string      `json:"transitionId,omitempty"`
	Edge         resize.Edge `json:"edge,omitempty"`
	resize.Pointer
}

type ClipResponse struct {
	Clip *timeline.Clip `json:"clip"`
}

type SettingsPatch struct {
	Scale       *float64 `json:"scale,omitempty"`
	SnapEnabled *bool    `json:"snapEnabled,omitempty"`
}

type ZoomRequest struct {
	Action string `json:"action"` // in, out, reset
}

type SettingsResponse struct {
	coords.Settings
	PixelsPerSecond       float64 `json:"pixelsPerSecond"`
	ActualPixelsPerSecond float64 `json:"actualPixelsPerSecond"`
	MinScale              float64 `json:"minScale"`
	MaxScale              float64 `json:"maxScale"`
	SnapThreshold         float64 `json:"snapThreshold"`
}

type MainTrackInsertRequest struct {
	Clip timeline.Clip `json:"clip"`
	At   float64       `json:"at"`
}

type MainTrackResizeRequest struct {
	Duration float64 `json:"duration"`
}

// MainTrackMoveRequest moves a clip to a position among the main track's
// content clips, counted from 0.
type MainTrackMoveRequest struct {
	Index int `json:"index"`
}

func settingsResponse(m *coords.Mapper) SettingsResponse {
	cfg := m.Config()
	return SettingsResponse{
		Settings:              m.Settings(),
		PixelsPerSecond:       m.PixelsPerSecond(),
		ActualPixelsPerSecond: m.ActualPixelsPerSecond(),
		MinScale:              cfg.MinScale,
		MaxScale:              cfg.MaxScale,
		SnapThreshold:         m.SnapThreshold(),
	}
}
