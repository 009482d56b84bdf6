// Package coords converts between timeline seconds and pixels at the
// current zoom and snaps dragged positions to nearby candidates.
package coords

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/settings"
)

// SettingsKey is the key under which scale and snapping persist.
const SettingsKey = "timeline.settings"

const persistTimeout = 2 * time.Second

type Config struct {
	PixelsPerSecond float64
	MinScale        float64
	MaxScale        float64
	ZoomStep        float64
	SnapThreshold   float64 // pixels
}

func DefaultConfig() Config {
	return Config{
		PixelsPerSecond: 100,
		MinScale:        0.1,
		MaxScale:        10,
		ZoomStep:        1.25,
		SnapThreshold:   10,
	}
}

// Settings is the persisted part of the mapper.
type Settings struct {
	Scale       float64 `json:"scale"`
	SnapEnabled bool    `json:"snapEnabled"`
}

func DefaultSettings() Settings {
	return Settings{Scale: 1, SnapEnabled: true}
}

type Mapper struct {
	cfg      Config
	settings Settings
	repo     settings.Repository
	logger   *slog.Logger
}

// NewMapper builds a mapper with default settings. repo may be nil, in which
// case nothing is persisted. Call Load to pick up stored settings.
func NewMapper(cfg Config, repo settings.Repository, logger *slog.Logger) *Mapper {
	def := DefaultConfig()
	if cfg.PixelsPerSecond <= 0 {
		cfg.PixelsPerSecond = def.PixelsPerSecond
	}
	if cfg.MinScale <= 0 {
		cfg.MinScale = def.MinScale
	}
	if cfg.MaxScale < cfg.MinScale {
		cfg.MaxScale = max(def.MaxScale, cfg.MinScale)
	}
	if cfg.ZoomStep <= 1 {
		cfg.ZoomStep = def.ZoomStep
	}
	if cfg.SnapThreshold < 0 {
		cfg.SnapThreshold = def.SnapThreshold
	}
	m := &Mapper{cfg: cfg, repo: repo, logger: logger}
	m.settings = DefaultSettings()
	m.settings.Scale = m.clampScale(m.settings.Scale)
	return m
}

// Load reads persisted settings. Missing, unreadable or malformed data
// leaves the defaults in place and logs a warning.
func (m *Mapper) Load(ctx context.Context) Settings {
	if m.repo == nil {
		return m.settings
	}
	raw, err := m.repo.Get(ctx, SettingsKey)
	if err != nil {
		m.warn("failed to read timeline settings", err)
		return m.settings
	}
	if raw == "" {
		return m.settings
	}

	st := DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		m.warn("ignoring malformed timeline settings", err)
		return m.settings
	}
	if st.Scale <= 0 || math.IsNaN(st.Scale) {
		st.Scale = DefaultSettings().Scale
	}
	st.Scale = m.clampScale(st.Scale)
	m.settings = st
	return m.settings
}

func (m *Mapper) Settings() Settings {
	return m.settings
}

func (m *Mapper) Config() Config {
	return m.cfg
}

func (m *Mapper) Scale() float64 {
	return m.settings.Scale
}

// SetScale clamps scale to the configured range, persists it and returns
// the value applied.
func (m *Mapper) SetScale(scale float64) float64 {
	if scale <= 0 || math.IsNaN(scale) {
		return m.settings.Scale
	}
	m.settings.Scale = m.clampScale(scale)
	m.persist()
	return m.settings.Scale
}

func (m *Mapper) ZoomIn() float64 {
	return m.SetScale(m.settings.Scale * m.cfg.ZoomStep)
}

func (m *Mapper) ZoomOut() float64 {
	return m.SetScale(m.settings.Scale / m.cfg.ZoomStep)
}

func (m *Mapper) ResetZoom() float64 {
	return m.SetScale(DefaultSettings().Scale)
}

func (m *Mapper) clampScale(s float64) float64 {
	return math.Min(math.Max(s, m.cfg.MinScale), m.cfg.MaxScale)
}

func (m *Mapper) PixelsPerSecond() float64 {
	return m.cfg.PixelsPerSecond
}

// ActualPixelsPerSecond is the base density multiplied by the zoom scale.
func (m *Mapper) ActualPixelsPerSecond() float64 {
	return m.cfg.PixelsPerSecond * m.settings.Scale
}

func (m *Mapper) TimeToPixels(seconds float64) float64 {
	return seconds * m.ActualPixelsPerSecond()
}

func (m *Mapper) PixelsToTime(px float64) float64 {
	return px / m.ActualPixelsPerSecond()
}

func (m *Mapper) SnapEnabled() bool {
	return m.settings.SnapEnabled
}

func (m *Mapper) SetSnapEnabled(enabled bool) {
	m.settings.SnapEnabled = enabled
	m.persist()
}

func (m *Mapper) ToggleSnap() bool {
	m.SetSnapEnabled(!m.settings.SnapEnabled)
	return m.settings.SnapEnabled
}

func (m *Mapper) SnapThreshold() float64 {
	return m.cfg.SnapThreshold
}

// SnapToPosition returns the candidate nearest to pos when it lies within
// the snap threshold, otherwise pos itself. Positions are in pixels.
func (m *Mapper) SnapToPosition(pos float64, candidates []float64) float64 {
	if !m.settings.SnapEnabled || len(candidates) == 0 {
		return pos
	}
	best, bestDist := pos, math.Inf(1)
	for _, c := range candidates {
		if d := math.Abs(c - pos); d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist <= m.cfg.SnapThreshold {
		return best
	}
	return pos
}

// SnapTime snaps a time in seconds against candidate times, using the
// pixel threshold at the current zoom.
func (m *Mapper) SnapTime(t float64, candidates []float64) float64 {
	if !m.settings.SnapEnabled || len(candidates) == 0 {
		return t
	}
	px := make([]float64, len(candidates))
	for i, c := range candidates {
		px[i] = m.TimeToPixels(c)
	}
	pos := m.TimeToPixels(t)
	snapped := m.SnapToPosition(pos, px)
	if snapped == pos {
		return t
	}
	for i, p := range px {
		if p == snapped {
			return candidates[i]
		}
	}
	return t
}

// ResetSettings restores defaults and removes the persisted entry.
func (m *Mapper) ResetSettings() {
	m.settings = DefaultSettings()
	m.settings.Scale = m.clampScale(m.settings.Scale)
	if m.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.repo.Delete(ctx, SettingsKey); err != nil {
		m.warn("failed to remove timeline settings", err)
	}
}

func (m *Mapper) persist() {
	if m.repo == nil {
		return
	}
	data, err := json.Marshal(m.settings)
	if err != nil {
		m.warn("failed to encode timeline settings", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.repo.Set(ctx, SettingsKey, string(data)); err != nil {
		m.warn("failed to save timeline settings", err)
	}
}

func (m *Mapper) warn(msg string, err error) {
	if m.logger != nil {
		m.logger.Warn(msg, "key", SettingsKey, "error", err)
	}
}
