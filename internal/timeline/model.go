package timeline

import (
	"math"

	"github.com/google/uuid"
)

type TrackType string

const (
	TrackVideo    TrackType = "video"
	TrackAudio    TrackType = "audio"
	TrackSubtitle TrackType = "subtitle"
	TrackSticker  TrackType = "sticker"
	TrackFilter   TrackType = "filter"
	TrackEffect   TrackType = "effect"
	TrackCustom   TrackType = "custom"
)

type ClipType string

const (
	ClipVideo      ClipType = "video"
	ClipAudio      ClipType = "audio"
	ClipSubtitle   ClipType = "subtitle"
	ClipText       ClipType = "text"
	ClipSticker    ClipType = "sticker"
	ClipFilter     ClipType = "filter"
	ClipEffect     ClipType = "effect"
	ClipTransition ClipType = "transition"
)

const (
	MinPlaybackRate = 0.25
	MaxPlaybackRate = 4.0

	MinTransitionDuration = 0.1
	MaxTransitionDuration = 5.0

	// MinClipDuration is the shortest clip a resize may produce.
	MinClipDuration = 0.1

	// AdjacencyTolerance is the largest gap, in seconds, still treated as
	// two clips touching.
	AdjacencyTolerance = 0.1
)

type Track struct {
	ID      string    `json:"id"`
	Type    TrackType `json:"type"`
	Name    string    `json:"name"`
	IsMain  bool      `json:"isMain,omitempty"`
	Visible bool      `json:"visible"`
	Locked  bool      `json:"locked"`
	Clips   []*Clip   `json:"clips"`
	Order   int       `json:"order"`
}

// Clip is a tagged union on Type. Exactly one of the payload pointers is
// expected to be set, matching Type.
type Clip struct {
	ID        string   `json:"id"`
	TrackID   string   `json:"trackId"`
	Type      ClipType `json:"type"`
	Name      string   `json:"name,omitempty"`
	StartTime float64  `json:"startTime"`
	EndTime   float64  `json:"endTime"`
	Selected  bool     `json:"selected"`

	Media      *MediaProps      `json:"media,omitempty"`
	Text       *TextProps       `json:"text,omitempty"`
	Sticker    *StickerProps    `json:"sticker,omitempty"`
	Filter     *FilterProps     `json:"filter,omitempty"`
	Effect     *EffectProps     `json:"effect,omitempty"`
	Transition *TransitionProps `json:"transition,omitempty"`
}

type MediaProps struct {
	SourceURL        string    `json:"sourceUrl"`
	OriginalDuration float64   `json:"originalDuration"`
	TrimStart        float64   `json:"trimStart"`
	TrimEnd          float64   `json:"trimEnd"`
	PlaybackRate     float64   `json:"playbackRate"`
	Volume           *float64  `json:"volume,omitempty"`
	Thumbnails       []string  `json:"thumbnails,omitempty"`
	WaveformData     []float64 `json:"waveformData,omitempty"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type TextStyle struct {
	FontFamily      string   `json:"fontFamily,omitempty"`
	FontSize        float64  `json:"fontSize,omitempty"`
	Color           string   `json:"color,omitempty"`
	BackgroundColor string   `json:"backgroundColor,omitempty"`
	Bold            bool     `json:"bold,omitempty"`
	Italic          bool     `json:"italic,omitempty"`
	Align           string   `json:"align,omitempty"`
	Position        Position `json:"position"`
}

type TextProps struct {
	Text  string    `json:"text"`
	Style TextStyle `json:"style"`
}

type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}

type StickerProps struct {
	StickerID string    `json:"stickerId"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Transform Transform `json:"transform"`
}

type FilterProps struct {
	FilterType string             `json:"filterType"`
	Intensity  float64            `json:"intensity"`
	Params     map[string]float64 `json:"params,omitempty"`
}

type EffectProps struct {
	EffectType string             `json:"effectType"`
	Params     map[string]float64 `json:"params,omitempty"`
}

type TransitionProps struct {
	TransitionType string  `json:"transitionType"`
	Duration       float64 `json:"transitionDuration"`
}

// Clipboard operations.
const (
	OpCopy = "copy"
	OpCut  = "cut"
)

type Clipboard struct {
	Clips     []*Clip `json:"clips"`
	Operation string  `json:"operation"`
}

// State is the serializable part of a Store used for snapshots.
type State struct {
	Tracks          []*Track `json:"tracks"`
	SelectedClipIDs []string `json:"selectedClipIds"`
}

func NewID() string {
	return uuid.NewString()
}

// Round rounds t to millisecond precision.
func Round(t float64) float64 {
	return math.Round(t*1000) / 1000
}

func (c *Clip) Duration() float64 {
	return Round(c.EndTime - c.StartTime)
}

func (c *Clip) IsTransition() bool {
	return c.Type == ClipTransition
}

func (c *Clip) IsMedia() bool {
	return (c.Type == ClipVideo || c.Type == ClipAudio) && c.Media != nil
}

// Center is the midpoint of the clip, used to anchor transitions.
func (c *Clip) Center() float64 {
	return (c.StartTime + c.EndTime) / 2
}

// TransitionDuration returns the transition length, falling back to the
// clip span when the payload is missing.
func (c *Clip) TransitionDuration() float64 {
	if c.Transition != nil && c.Transition.Duration > 0 {
		return c.Transition.Duration
	}
	return c.EndTime - c.StartTime
}

// Overlaps reports whether the clip intersects [start, end).
func (c *Clip) Overlaps(start, end float64) bool {
	return start < c.EndTime && end > c.StartTime
}

func (m *MediaProps) Rate() float64 {
	if m == nil || m.PlaybackRate <= 0 {
		return 1
	}
	return m.PlaybackRate
}

// TrackDuration is the on-track length implied by the trim range and rate.
func (m *MediaProps) TrackDuration() float64 {
	return Round((m.TrimEnd - m.TrimStart) / m.Rate())
}

// Clone returns a deep copy of the clip.
func (c *Clip) Clone() *Clip {
	if c == nil {
		return nil
	}
	out := *c
	if c.Media != nil {
		m := *c.Media
		if c.Media.Volume != nil {
			v := *c.Media.Volume
			m.Volume = &v
		}
		m.Thumbnails = append([]string(nil), c.Media.Thumbnails...)
		m.WaveformData = append([]float64(nil), c.Media.WaveformData...)
		out.Media = &m
	}
	if c.Text != nil {
		t := *c.Text
		out.Text = &t
	}
	if c.Sticker != nil {
		s := *c.Sticker
		out.Sticker = &s
	}
	if c.Filter != nil {
		f := *c.Filter
		f.Params = cloneParams(c.Filter.Params)
		out.Filter = &f
	}
	if c.Effect != nil {
		e := *c.Effect
		e.Params = cloneParams(c.Effect.Params)
		out.Effect = &e
	}
	if c.Transition != nil {
		tr := *c.Transition
		out.Transition = &tr
	}
	return &out
}

func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	out := *t
	out.Clips = make([]*Clip, len(t.Clips))
	for i, c := range t.Clips {
		out.Clips[i] = c.Clone()
	}
	return &out
}

func cloneParams(p map[string]float64) map[string]float64 {
	if p == nil {
		return nil
	}
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// TrackTypeFor maps a clip type onto the track type that hosts it.
func TrackTypeFor(ct ClipType) TrackType {
	switch ct {
	case ClipVideo:
		return TrackVideo
	case ClipAudio:
		return TrackAudio
	case ClipSubtitle, ClipText:
		return TrackSubtitle
	case ClipSticker:
		return TrackSticker
	case ClipFilter:
		return TrackFilter
	case ClipEffect:
		return TrackEffect
	case ClipTransition:
		return TrackVideo
	default:
		return TrackCustom
	}
}

// Accepts reports whether clips of type ct may live on the track.
func (t *Track) Accepts(ct ClipType) bool {
	if t.Type == TrackCustom {
		return true
	}
	return t.Type == TrackTypeFor(ct)
}

func clampTransitionDuration(d float64) float64 {
	return Round(math.Min(math.Max(d, MinTransitionDuration), MaxTransitionDuration))
}
