package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

const sampleProbe = `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "avg_frame_rate": "30000/1001", "duration": "12.000"},
    {"codec_type": "audio", "codec_name": "aac", "sample_rate": "48000", "duration": "12.010"},
    {"codec_type": "data", "codec_name": "bin_data"}
  ],
  "format": {"duration": "12.012000", "bit_rate": "4500000"}
}`

func TestParseProbeOutput(t *testing.T) {
	m, err := parseProbeOutput([]byte(sampleProbe))
	if err != nil {
		t.Fatalf("parseProbeOutput() error = %v", err)
	}
	if m.Duration != 12.012 {
		t.Errorf("Duration = %v, want 12.012", m.Duration)
	}
	if m.Codec != "h264" || m.Width != 1920 || m.Height != 1080 {
		t.Errorf("video = %s %dx%d", m.Codec, m.Width, m.Height)
	}
	if m.FrameRate < 29.97 || m.FrameRate > 29.98 {
		t.Errorf("FrameRate = %v, want ~29.97", m.FrameRate)
	}
	if m.AudioCodec != "aac" || m.SampleRate != 48000 {
		t.Errorf("audio = %s %d", m.AudioCodec, m.SampleRate)
	}
	if m.Bitrate != 4500000 {
		t.Errorf("Bitrate = %d", m.Bitrate)
	}
	if !m.HasVideo() || !m.HasAudio() {
		t.Error("expected both video and audio")
	}
}

func TestParseProbeOutput_StreamDurationFallback(t *testing.T) {
	m, err := parseProbeOutput([]byte(`{"streams":[{"codec_type":"audio","codec_name":"mp3","duration":"3.5"}],"format":{}}`))
	if err != nil {
		t.Fatalf("parseProbeOutput() error = %v", err)
	}
	if m.Duration != 3.5 || m.HasVideo() {
		t.Fatalf("got duration %v video %v", m.Duration, m.HasVideo())
	}
}

func TestParseProbeOutput_Invalid(t *testing.T) {
	if _, err := parseProbeOutput([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed output")
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"25/1", 25},
		{"24", 24},
		{"0/0", 0},
		{"", 0},
	}
	for _, tc := range tests {
		if got := parseRate(tc.in); got != tc.want {
			t.Errorf("parseRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

type countingProber struct {
	calls int
	err   error
}

func (p *countingProber) Probe(ctx context.Context, source string) (*Metadata, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &Metadata{Source: source, Duration: float64(p.calls)}, nil
}

func TestCache(t *testing.T) {
	prober := &countingProber{}
	cache := NewCache(prober, time.Minute, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	m, err := cache.Get(ctx, "a.mp4")
	if err != nil || m.Duration != 1 {
		t.Fatalf("first Get() = %v, %v", m, err)
	}
	m, _ = cache.Get(ctx, "a.mp4")
	if prober.calls != 1 || m.Duration != 1 {
		t.Fatalf("fresh entry re-probed: calls=%d", prober.calls)
	}

	now = now.Add(2 * time.Minute)
	m, _ = cache.Get(ctx, "a.mp4")
	if prober.calls != 2 || m.Duration != 2 {
		t.Fatalf("stale entry not re-probed: calls=%d", prober.calls)
	}

	prober.err = errors.New("boom")
	now = now.Add(2 * time.Minute)
	m, err = cache.Get(ctx, "a.mp4")
	if err != nil || m.Duration != 2 {
		t.Fatalf("failed re-probe should return stale entry, got %v, %v", m, err)
	}
	if _, err := cache.Get(ctx, "b.mp4"); err == nil {
		t.Fatal("failed probe without a cached entry should return the error")
	}

	cache.Invalidate("a.mp4")
	if cache.Peek("a.mp4") != nil || cache.Len() != 0 {
		t.Fatal("Invalidate() left the entry behind")
	}
}

func TestStubProber(t *testing.T) {
	m, err := NewStubProber(nil).Probe(context.Background(), "x.mov")
	if err != nil || m.Source != "x.mov" || m.Duration != 0 {
		t.Fatalf("Probe() = %+v, %v", m, err)
	}
}

func TestPatchFor(t *testing.T) {
	clip := func(trimStart, trimEnd, rate float64) *timeline.Clip {
		return &timeline.Clip{
			Type:      timeline.ClipVideo,
			StartTime: 2,
			EndTime:   2 + (trimEnd-trimStart)/rate,
			Media:     &timeline.MediaProps{TrimStart: trimStart, TrimEnd: trimEnd, PlaybackRate: rate},
		}
	}

	tests := []struct {
		name     string
		clip     *timeline.Clip
		duration float64
		ok       bool
		wantEnd  float64
		wantTrim float64
	}{
		{name: "records length", clip: clip(0, 5, 1), duration: 10, ok: true, wantEnd: 7, wantTrim: 5},
		{name: "pulls back trim", clip: clip(1, 9, 1), duration: 6, ok: true, wantEnd: 7, wantTrim: 6},
		{name: "pulls back trim at rate", clip: clip(0, 8, 2), duration: 6, ok: true, wantEnd: 5, wantTrim: 6},
		{name: "no duration", clip: clip(0, 5, 1), duration: 0},
		{name: "trim beyond source", clip: clip(7, 9, 1), duration: 6},
		{name: "not media", clip: &timeline.Clip{Type: timeline.ClipText}, duration: 6},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			patch, ok := PatchFor(tc.clip, &Metadata{Duration: tc.duration})
			if ok != tc.ok {
				t.Fatalf("PatchFor() ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			patch.Apply(tc.clip)
			if tc.clip.Media.OriginalDuration != tc.duration {
				t.Errorf("OriginalDuration = %v", tc.clip.Media.OriginalDuration)
			}
			if tc.clip.EndTime != tc.wantEnd || tc.clip.Media.TrimEnd != tc.wantTrim {
				t.Errorf("end=%v trimEnd=%v, want %v and %v", tc.clip.EndTime, tc.clip.Media.TrimEnd, tc.wantEnd, tc.wantTrim)
			}
		})
	}
}
