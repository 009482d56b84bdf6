package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

const (
	DefaultProjectName = "heimdex_export"
	DefaultFrameRate   = 30.0
)

var (
	ErrUnsupportedFormat = errors.New("format must be edl")
	ErrNoTrack           = errors.New("no exportable track")
	ErrNoClips           = errors.New("track has no media clips")
)

// Run renders the selected track as an EDL. With OutputDir set the result
// is written to <OutputDir>/<project>.edl; otherwise the EDL text is
// returned in the response.
func Run(s *timeline.Store, req ExportRequest) (*ExportResponse, error) {
	if req.Format != "" && strings.ToLower(req.Format) != "edl" {
		return nil, ErrUnsupportedFormat
	}
	if req.OutputDir != "" {
		if err := ValidateOutputDir(req.OutputDir); err != nil {
			return nil, err
		}
	}

	projectName := SanitizeName(req.ProjectName, 120)
	if projectName == "" {
		projectName = DefaultProjectName
	}
	frameRate := req.FrameRate
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}

	track := SelectTrack(s, req.TrackID)
	if track == nil {
		return nil, ErrNoTrack
	}
	events, skipped := FromTrack(track)
	if len(events) == 0 {
		return nil, ErrNoClips
	}

	edl := GenerateEDL(events, projectName, frameRate)
	resp := &ExportResponse{
		Status:       "ok",
		Format:       "edl",
		TrackID:      track.ID,
		ClipCount:    len(events),
		SkippedClips: skipped,
	}
	if req.OutputDir == "" {
		resp.EDL = edl
		return resp, nil
	}

	outputPath := filepath.Join(req.OutputDir, projectName+".edl")
	if err := os.WriteFile(outputPath, []byte(edl), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}
	resp.OutputPath = outputPath
	return resp, nil
}
