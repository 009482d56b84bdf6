package export

// ExportRequest asks for an EDL of one timeline track. An empty TrackID
// selects the main track, or the first video track when there is none.
type ExportRequest struct {
	ProjectName string  `json:"project_name"`
	Format      string  `json:"format"`
	FrameRate   float64 `json:"frame_rate"`
	OutputDir   string  `json:"output_dir"`
	TrackID     string  `json:"track_id,omitempty"`
}

// ResolvedClip is one EDL event: a source range and where it lands on the
// record timeline.
type ResolvedClip struct {
	ClipID      string
	ClipName    string
	MediaPath   string
	SourceInMs  int
	SourceOutMs int
	RecordInMs  int
	RecordOutMs int
	Speed       float64
	Transition  string
}

type ExportResponse struct {
	Status       string   `json:"status"`
	Format       string   `json:"format"`
	OutputPath   string   `json:"output_path,omitempty"`
	TrackID      string   `json:"track_id"`
	ClipCount    int      `json:"clip_count"`
	SkippedClips []string `json:"skipped_clips"`
	EDL          string   `json:"edl,omitempty"`
}
