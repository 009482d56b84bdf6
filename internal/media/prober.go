// Package media looks up source metadata for media clips. The timeline core
// never calls it; the API probes a clip's source outside the session lock
// and applies the resulting patch inside it.
package media

import (
	"context"
	"log/slog"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

type Prober interface {
	Probe(ctx context.Context, source string) (*Metadata, error)
}

// Metadata describes a media source. Values the prober could not determine
// stay zero.
type Metadata struct {
	Source     string    `json:"source"`
	Duration   float64   `json:"duration"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Codec      string    `json:"codec,omitempty"`
	Bitrate    int64     `json:"bitrate,omitempty"`
	FrameRate  float64   `json:"frameRate,omitempty"`
	AudioCodec string    `json:"audioCodec,omitempty"`
	SampleRate int       `json:"sampleRate,omitempty"`
	ProbedAt   time.Time `json:"probedAt"`
}

func (m *Metadata) HasVideo() bool { return m.Codec != "" }
func (m *Metadata) HasAudio() bool { return m.AudioCodec != "" }

// StubProber answers every probe with empty metadata. It is used when no
// ffprobe binary is available.
type StubProber struct {
	logger *slog.Logger
}

func NewStubProber(logger *slog.Logger) *StubProber {
	return &StubProber{logger: logger}
}

func (p *StubProber) Probe(ctx context.Context, source string) (*Metadata, error) {
	if p.logger != nil {
		p.logger.Info("media stub: probe requested (no ffprobe available)", "source", source)
	}
	return &Metadata{Source: source, ProbedAt: time.Now()}, nil
}

// PatchFor builds the clip patch that records m on c. The source length is
// stored and a trim running past the new length is pulled back, shortening
// the clip at its playback rate. It returns false when m carries no
// duration or when the clip's trim starts beyond the source.
func PatchFor(c *timeline.Clip, m *Metadata) (timeline.ClipPatch, bool) {
	if c == nil || c.Media == nil || m == nil || m.Duration <= 0 {
		return timeline.ClipPatch{}, false
	}
	duration := timeline.Round(m.Duration)
	if c.Media.TrimStart+timeline.MinClipDuration > duration {
		return timeline.ClipPatch{}, false
	}

	patch := timeline.ClipPatch{Media: &timeline.MediaPatch{OriginalDuration: &duration}}
	if c.Media.TrimEnd > duration {
		end := timeline.Round(c.StartTime + (duration-c.Media.TrimStart)/c.Media.Rate())
		patch.Media.TrimEnd = &duration
		patch.EndTime = &end
	}
	return patch, true
}
