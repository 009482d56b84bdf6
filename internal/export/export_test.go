package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

func storeWithClip(t *testing.T) *timeline.Store {
	t.Helper()
	s := timeline.NewStore(nil)
	track := s.AddTrack(timeline.TrackVideo, "")
	if _, ok := s.AddClip(track.ID, timeline.Clip{
		Type:  timeline.ClipVideo,
		Name:  "Intro",
		Media: &timeline.MediaProps{SourceURL: "/m/intro.mp4", TrimEnd: 2},
	}); !ok {
		t.Fatal("AddClip() rejected the clip")
	}
	return s
}

func TestRun_Inline(t *testing.T) {
	s := storeWithClip(t)

	resp, err := Run(s, ExportRequest{ProjectName: "Demo"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if resp.ClipCount != 1 || resp.OutputPath != "" {
		t.Fatalf("Run() = %+v", resp)
	}
	if !strings.Contains(resp.EDL, "TITLE: Demo") {
		t.Fatalf("EDL missing title: %q", resp.EDL)
	}
}

func TestRun_WritesFile(t *testing.T) {
	s := storeWithClip(t)
	dir := t.TempDir()

	resp, err := Run(s, ExportRequest{Format: "EDL", OutputDir: dir})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := filepath.Join(dir, DefaultProjectName+".edl")
	if resp.OutputPath != want {
		t.Fatalf("OutputPath = %q, want %q", resp.OutputPath, want)
	}
	if resp.EDL != "" {
		t.Fatal("EDL body should be omitted when written to disk")
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "* MEDIA PATH:  /m/intro.mp4") {
		t.Fatalf("unexpected file content: %q", data)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		store func(t *testing.T) *timeline.Store
		req   ExportRequest
		want  error
	}{
		{
			name:  "unsupported format",
			store: storeWithClip,
			req:   ExportRequest{Format: "xml"},
			want:  ErrUnsupportedFormat,
		},
		{
			name:  "no tracks",
			store: func(*testing.T) *timeline.Store { return timeline.NewStore(nil) },
			want:  ErrNoTrack,
		},
		{
			name: "no media clips",
			store: func(*testing.T) *timeline.Store {
				s := timeline.NewStore(nil)
				s.AddTrack(timeline.TrackVideo, "")
				return s
			},
			want: ErrNoClips,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Run(tc.store(t), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Run() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRun_RejectsTraversal(t *testing.T) {
	s := storeWithClip(t)
	if _, err := Run(s, ExportRequest{OutputDir: "../out"}); !errors.Is(err, ErrInvalidOutputDir) {
		t.Fatalf("Run() error = %v, want ErrInvalidOutputDir", err)
	}
}
