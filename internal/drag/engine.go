// Package drag moves clips along and across tracks. Pointer moves only
// compute a preview; the store changes once, when the drag ends.
package drag

import (
	"log/slog"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/coords"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

type State int

const (
	Idle State = iota
	Dragging
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	default:
		return "unknown"
	}
}

// Pointer is a pointer position in view pixels. Shift disables snapping.
type Pointer struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Shift bool    `json:"shift,omitempty"`
}

// Offset is the visual displacement of the dragged clip from where the
// drag started. It excludes auto-scroll.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Recorder receives one snapshot per committed drag.
type Recorder interface {
	PushSnapshot(description string)
}

type Config struct {
	// TrackSwitchThreshold is the vertical distance, in pixels, beyond
	// which the pointer targets other tracks.
	TrackSwitchThreshold float64
	EdgeThreshold        float64
	MaxScrollSpeed       float64 // pixels per frame
	FrameInterval        time.Duration
	AutoScroll           bool
}

func DefaultConfig() Config {
	return Config{
		TrackSwitchThreshold: 40,
		EdgeThreshold:        50,
		MaxScrollSpeed:       15,
		FrameInterval:        16 * time.Millisecond,
		AutoScroll:           true,
	}
}

type origin struct {
	trackID    string
	start, end float64
}

// CommitResult reports what a finished drag changed.
type CommitResult struct {
	ClipID             string   `json:"clipId"`
	FromTrackID        string   `json:"fromTrackId"`
	ToTrackID          string   `json:"toTrackId"`
	StartTime          float64  `json:"startTime"`
	EndTime            float64  `json:"endTime"`
	CreatedTrackID     string   `json:"createdTrackId,omitempty"`
	ShiftedClips       []string `json:"shiftedClips"`
	RemovedTransitions []string `json:"removedTransitions"`
	RemovedTracks      []string `json:"removedTracks"`
	Moved              bool     `json:"moved"`
}

type Engine struct {
	store   *timeline.Store
	mapper  *coords.Mapper
	history Recorder
	locator TrackLocator
	cfg     Config
	logger  *slog.Logger

	state        State
	clipID       string
	origin       origin
	startPointer Pointer
	last         Pointer
	offset       Offset
	scrollOffset float64
	preview      *Preview
}

// NewEngine builds a drag engine. history and locator may be nil.
func NewEngine(store *timeline.Store, mapper *coords.Mapper, history Recorder, locator TrackLocator, cfg Config, logger *slog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.TrackSwitchThreshold <= 0 {
		cfg.TrackSwitchThreshold = def.TrackSwitchThreshold
	}
	if cfg.EdgeThreshold <= 0 {
		cfg.EdgeThreshold = def.EdgeThreshold
	}
	if cfg.MaxScrollSpeed <= 0 {
		cfg.MaxScrollSpeed = def.MaxScrollSpeed
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = def.FrameInterval
	}
	return &Engine{
		store:   store,
		mapper:  mapper,
		history: history,
		locator: locator,
		cfg:     cfg,
		logger:  logger,
	}
}

func (e *Engine) SetLocator(l TrackLocator) {
	e.locator = l
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) State() State {
	return e.state
}

func (e *Engine) Dragging() bool {
	return e.state == Dragging
}

// ClipID is the clip being dragged, "" when idle.
func (e *Engine) ClipID() string {
	return e.clipID
}

// Preview is the placement End would commit, nil before the first move.
func (e *Engine) Preview() *Preview {
	return e.preview
}

func (e *Engine) Offset() Offset {
	return e.offset
}

// AutoScrollOffset is the horizontal distance, in pixels, scrolled by edge
// auto-scroll since the drag started.
func (e *Engine) AutoScrollOffset() float64 {
	return e.scrollOffset
}

// Pointer is the last pointer position seen by the drag.
func (e *Engine) Pointer() Pointer {
	return e.last
}

// Start begins dragging clipID. Transitions cannot be dragged, and only one
// drag runs at a time.
func (e *Engine) Start(clipID string, p Pointer) bool {
	if e.state != Idle {
		return false
	}
	c := e.store.Clip(clipID)
	if c == nil || c.IsTransition() {
		return false
	}
	if t := e.store.TrackOf(clipID); t != nil && t.Locked {
		return false
	}
	if !c.Selected {
		e.store.SelectClip(clipID, false)
	}

	e.state = Dragging
	e.clipID = clipID
	e.origin = origin{trackID: c.TrackID, start: c.StartTime, end: c.EndTime}
	e.startPointer = p
	e.last = p
	e.offset = Offset{}
	e.scrollOffset = 0
	e.preview = nil

	if e.logger != nil {
		e.logger.Debug("drag started", "clip_id", clipID, "track_id", c.TrackID)
	}
	return true
}

// Move updates the pointer and recomputes the preview. The store is not
// touched.
func (e *Engine) Move(p Pointer) *Preview {
	if e.state != Dragging {
		return nil
	}
	e.last = p
	e.offset = Offset{X: p.X - e.startPointer.X, Y: p.Y - e.startPointer.Y}
	e.preview = e.computePreview()
	return e.preview
}

// applyScroll accounts for view scrolling during the drag: the logical
// target moves, the visual offset does not.
func (e *Engine) applyScroll(deltaPx float64) {
	if e.state != Dragging || deltaPx == 0 {
		return
	}
	e.scrollOffset += deltaPx
	e.preview = e.computePreview()
}

// End commits the last preview and returns to Idle. It returns nil when no
// drag is active.
func (e *Engine) End() *CommitResult {
	if e.state != Dragging {
		return nil
	}
	e.state = Committing
	defer e.reset()

	res := &CommitResult{
		ClipID:             e.clipID,
		FromTrackID:        e.origin.trackID,
		ToTrackID:          e.origin.trackID,
		StartTime:          e.origin.start,
		EndTime:            e.origin.end,
		ShiftedClips:       []string{},
		RemovedTransitions: []string{},
		RemovedTracks:      []string{},
	}

	p := e.preview
	clip := e.store.Clip(e.clipID)
	if p == nil || clip == nil {
		return res
	}
	if !p.CrossTrack && p.StartTime == e.origin.start {
		return res
	}

	to := e.origin.trackID
	if p.CrossTrack {
		to = p.TrackID
		if p.NeedNewTrack {
			ref := p.TrackID
			if e.store.Track(ref) == nil {
				ref = e.origin.trackID
			}
			t, ok := e.store.AddTrackBelow(ref, timeline.TrackTypeFor(clip.Type), "")
			if !ok {
				return res
			}
			to = t.ID
			res.CreatedTrackID = t.ID
		}
		e.store.MoveClipToTrack(clip.ID, to)
	}

	duration := e.origin.end - e.origin.start
	e.store.UpdateClip(clip.ID, timeline.Times(p.StartTime, p.StartTime+duration))

	res.ShiftedClips = append(res.ShiftedClips, e.store.ResolveTrackOverlaps(to)...)
	res.RemovedTransitions = append(res.RemovedTransitions, e.store.RemoveOrphanedTransitions(to)...)
	if to != e.origin.trackID {
		res.RemovedTransitions = append(res.RemovedTransitions, e.store.RemoveOrphanedTransitions(e.origin.trackID)...)
	}
	e.store.NormalizeIfMain(to, e.origin.trackID)
	res.RemovedTracks = append(res.RemovedTracks, e.store.CleanupEmptyTracks()...)

	res.ToTrackID = to
	res.StartTime = clip.StartTime
	res.EndTime = clip.EndTime
	res.Moved = true

	if e.history != nil {
		e.history.PushSnapshot("move clip")
	}
	if e.logger != nil {
		e.logger.Info("drag committed",
			"clip_id", clip.ID,
			"from_track", res.FromTrackID,
			"to_track", to,
			"start", res.StartTime,
			"new_track", res.CreatedTrackID != "",
		)
	}
	return res
}

func (e *Engine) reset() {
	e.state = Idle
	e.clipID = ""
	e.origin = origin{}
	e.startPointer = Pointer{}
	e.last = Pointer{}
	e.offset = Offset{}
	e.scrollOffset = 0
	e.preview = nil
}
