package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const maxStderrBytes = 8 * 1024

var ErrProbeFailed = errors.New("ffprobe failed")

type FFprobeConfig struct {
	Binary  string // path to ffprobe; empty = look up on PATH
	Timeout time.Duration
	Logger  *slog.Logger
}

func DefaultFFprobeConfig(logger *slog.Logger) FFprobeConfig {
	return FFprobeConfig{Timeout: 30 * time.Second, Logger: logger}
}

// FFprobe runs the ffprobe binary as a subprocess and parses its JSON
// report.
type FFprobe struct {
	cfg    FFprobeConfig
	binary string
}

// NewFFprobe resolves the binary. Callers fall back to StubProber when it
// returns an error.
func NewFFprobe(cfg FFprobeConfig) (*FFprobe, error) {
	name := cfg.Binary
	if name == "" {
		name = "ffprobe"
	}
	binary, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("cannot locate ffprobe: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.Logger.Info("ffprobe prober initialised", "binary", binary)
	return &FFprobe{cfg: cfg, binary: binary}, nil
}

func (f *FFprobe) Probe(ctx context.Context, source string) (*Metadata, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		source,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &limitedWriter{w: &stderr, limit: maxStderrBytes}

	start := time.Now()
	if err := cmd.Run(); err != nil {
		f.cfg.Logger.Warn("ffprobe failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
			"stderr_tail", truncate(stderr.String(), 512),
		)
		return nil, fmt.Errorf("%w: %s: %v", ErrProbeFailed, source, err)
	}

	m, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	m.Source = source
	m.ProbedAt = time.Now()
	f.cfg.Logger.Debug("ffprobe complete", "duration", m.Duration, "codec", m.Codec, "audio_codec", m.AudioCodec)
	return m, nil
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	SampleRate   string `json:"sample_rate"`
	Duration     string `json:"duration"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

// parseProbeOutput reads ffprobe's -print_format json report. The container
// duration wins over stream durations; fields ffprobe omits stay zero.
func parseProbeOutput(data []byte) (*Metadata, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe JSON: %w", err)
	}

	m := &Metadata{
		Duration: parseFloat(out.Format.Duration),
		Bitrate:  int64(parseFloat(out.Format.BitRate)),
	}
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if m.Codec != "" {
				continue
			}
			m.Codec = s.CodecName
			m.Width = s.Width
			m.Height = s.Height
			m.FrameRate = parseRate(s.AvgFrameRate)
		case "audio":
			if m.AudioCodec != "" {
				continue
			}
			m.AudioCodec = s.CodecName
			m.SampleRate = int(parseFloat(s.SampleRate))
		default:
			continue
		}
		if m.Duration == 0 {
			m.Duration = parseFloat(s.Duration)
		}
	}
	return m, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseRate reads ffprobe's "num/den" frame rates.
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return parseFloat(s)
	}
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return parseFloat(num) / d
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter keeps only the last limit bytes written to it.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		tail := make([]byte, lw.limit)
		copy(tail, b[len(b)-lw.limit:])
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}
