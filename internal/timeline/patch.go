package timeline

// ClipPatch is a partial update of a clip. Nil fields are left untouched;
// nested patches merge field by field; maps merge key by key; slices and
// scalars replace.
type ClipPatch struct {
	Name      *string  `json:"name,omitempty"`
	StartTime *float64 `json:"startTime,omitempty"`
	EndTime   *float64 `json:"endTime,omitempty"`
	Selected  *bool    `json:"selected,omitempty"`

	Media      *MediaPatch      `json:"media,omitempty"`
	Text       *TextPatch       `json:"text,omitempty"`
	Sticker    *StickerPatch    `json:"sticker,omitempty"`
	Filter     *FilterPatch     `json:"filter,omitempty"`
	Effect     *EffectPatch     `json:"effect,omitempty"`
	Transition *TransitionPatch `json:"transition,omitempty"`
}

type MediaPatch struct {
	SourceURL        *string   `json:"sourceUrl,omitempty"`
	OriginalDuration *float64  `json:"originalDuration,omitempty"`
	TrimStart        *float64  `json:"trimStart,omitempty"`
	TrimEnd          *float64  `json:"trimEnd,omitempty"`
	PlaybackRate     *float64  `json:"playbackRate,omitempty"`
	Volume           *float64  `json:"volume,omitempty"`
	Thumbnails       []string  `json:"thumbnails,omitempty"`
	WaveformData     []float64 `json:"waveformData,omitempty"`
}

type PositionPatch struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

type TextStylePatch struct {
	FontFamily      *string        `json:"fontFamily,omitempty"`
	FontSize        *float64       `json:"fontSize,omitempty"`
	Color           *string        `json:"color,omitempty"`
	BackgroundColor *string        `json:"backgroundColor,omitempty"`
	Bold            *bool          `json:"bold,omitempty"`
	Italic          *bool          `json:"italic,omitempty"`
	Align           *string        `json:"align,omitempty"`
	Position        *PositionPatch `json:"position,omitempty"`
}

type TextPatch struct {
	Text  *string         `json:"text,omitempty"`
	Style *TextStylePatch `json:"style,omitempty"`
}

type TransformPatch struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

type StickerPatch struct {
	StickerID *string         `json:"stickerId,omitempty"`
	ImageURL  *string         `json:"imageUrl,omitempty"`
	Transform *TransformPatch `json:"transform,omitempty"`
}

type FilterPatch struct {
	FilterType *string            `json:"filterType,omitempty"`
	Intensity  *float64           `json:"intensity,omitempty"`
	Params     map[string]float64 `json:"params,omitempty"`
}

type EffectPatch struct {
	EffectType *string            `json:"effectType,omitempty"`
	Params     map[string]float64 `json:"params,omitempty"`
}

type TransitionPatch struct {
	TransitionType *string  `json:"transitionType,omitempty"`
	Duration       *float64 `json:"transitionDuration,omitempty"`
}

// Times is a shorthand patch that moves a clip to [start, end].
func Times(start, end float64) ClipPatch {
	s, e := Round(start), Round(end)
	return ClipPatch{StartTime: &s, EndTime: &e}
}

// Apply merges p into c.
func (p ClipPatch) Apply(c *Clip) {
	setString(&c.Name, p.Name)
	setFloat(&c.StartTime, p.StartTime)
	setFloat(&c.EndTime, p.EndTime)
	if p.Selected != nil {
		c.Selected = *p.Selected
	}

	if p.Media != nil {
		if c.Media == nil {
			c.Media = &MediaProps{}
		}
		p.Media.apply(c.Media)
	}
	if p.Text != nil {
		if c.Text == nil {
			c.Text = &TextProps{}
		}
		p.Text.apply(c.Text)
	}
	if p.Sticker != nil {
		if c.Sticker == nil {
			c.Sticker = &StickerProps{}
		}
		p.Sticker.apply(c.Sticker)
	}
	if p.Filter != nil {
		if c.Filter == nil {
			c.Filter = &FilterProps{}
		}
		setString(&c.Filter.FilterType, p.Filter.FilterType)
		setFloat(&c.Filter.Intensity, p.Filter.Intensity)
		c.Filter.Params = mergeParams(c.Filter.Params, p.Filter.Params)
	}
	if p.Effect != nil {
		if c.Effect == nil {
			c.Effect = &EffectProps{}
		}
		setString(&c.Effect.EffectType, p.Effect.EffectType)
		c.Effect.Params = mergeParams(c.Effect.Params, p.Effect.Params)
	}
	if p.Transition != nil {
		if c.Transition == nil {
			c.Transition = &TransitionProps{}
		}
		setString(&c.Transition.TransitionType, p.Transition.TransitionType)
		if p.Transition.Duration != nil {
			c.Transition.Duration = clampTransitionDuration(*p.Transition.Duration)
		}
	}
}

func (p *MediaPatch) apply(m *MediaProps) {
	setString(&m.SourceURL, p.SourceURL)
	setFloat(&m.OriginalDuration, p.OriginalDuration)
	setFloat(&m.TrimStart, p.TrimStart)
	setFloat(&m.TrimEnd, p.TrimEnd)
	setFloat(&m.PlaybackRate, p.PlaybackRate)
	if p.Volume != nil {
		v := *p.Volume
		m.Volume = &v
	}
	if p.Thumbnails != nil {
		m.Thumbnails = append([]string(nil), p.Thumbnails...)
	}
	if p.WaveformData != nil {
		m.WaveformData = append([]float64(nil), p.WaveformData...)
	}
}

func (p *TextPatch) apply(t *TextProps) {
	setString(&t.Text, p.Text)
	if p.Style == nil {
		return
	}
	s := p.Style
	setString(&t.Style.FontFamily, s.FontFamily)
	setFloat(&t.Style.FontSize, s.FontSize)
	setString(&t.Style.Color, s.Color)
	setString(&t.Style.BackgroundColor, s.BackgroundColor)
	if s.Bold != nil {
		t.Style.Bold = *s.Bold
	}
	if s.Italic != nil {
		t.Style.Italic = *s.Italic
	}
	setString(&t.Style.Align, s.Align)
	if s.Position != nil {
		setFloat(&t.Style.Position.X, s.Position.X)
		setFloat(&t.Style.Position.Y, s.Position.Y)
	}
}

func (p *StickerPatch) apply(s *StickerProps) {
	setString(&s.StickerID, p.StickerID)
	setString(&s.ImageURL, p.ImageURL)
	if tp := p.Transform; tp != nil {
		setFloat(&s.Transform.X, tp.X)
		setFloat(&s.Transform.Y, tp.Y)
		setFloat(&s.Transform.Scale, tp.Scale)
		setFloat(&s.Transform.Rotation, tp.Rotation)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func mergeParams(dst, src map[string]float64) map[string]float64 {
	if src == nil {
		return dst
	}
	if dst == nil {
		dst = make(map[string]float64, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
