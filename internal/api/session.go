package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/heimdex/heimdex-timeline/internal/coords"
	"github.com/heimdex/heimdex-timeline/internal/drag"
	"github.com/heimdex/heimdex-timeline/internal/history"
	"github.com/heimdex/heimdex-timeline/internal/resize"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

var (
	// ErrBusy is returned when an interaction is already in progress.
	ErrBusy = errors.New("another drag or resize is in progress")
	// ErrRejected is returned when an engine refuses to start.
	ErrRejected = errors.New("operation rejected")
	// ErrIdle is returned when no interaction is in progress.
	ErrIdle = errors.New("no interaction in progress")

	// errNoChange lets a Mutate callback succeed without recording history.
	errNoChange = errors.New("no change")
)

type SessionConfig struct {
	HistorySize int
	Mapper      *coords.Mapper
	Drag        drag.Config
	Logger      *slog.Logger
}

// Session owns one timeline and everything that edits it. The core
// packages are not safe for concurrent use, so every call goes through mu;
// the edge auto-scroll task takes the same lock for each frame.
type Session struct {
	mu sync.Mutex

	store    *timeline.Store
	history  *history.History
	mapper   *coords.Mapper
	drag     *drag.Engine
	resize   *resize.Engine
	scroller *drag.EdgeScroller
	viewport *drag.Viewport
	layout   drag.RowLayout
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mapper := cfg.Mapper
	if mapper == nil {
		mapper = coords.NewMapper(coords.DefaultConfig(), nil, logger)
	}

	store := timeline.NewStore(logger.With("component", "timeline"))
	hist := history.New(store, cfg.HistorySize, logger.With("component", "history"))
	hist.Initialize()

	s := &Session{
		store:    store,
		history:  hist,
		mapper:   mapper,
		viewport: &drag.Viewport{},
		logger:   logger,
	}
	s.drag = drag.NewEngine(store, mapper, hist, nil, cfg.Drag, logger.With("component", "drag"))
	s.resize = resize.NewEngine(store, mapper, hist, logger.With("component", "resize"))
	s.scroller = drag.NewEdgeScroller(s.drag, s.viewport, &s.mu)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Close stops the auto-scroll task.
func (s *Session) Close() {
	s.cancel()
	<-s.scroller.Done()
}

// Read runs fn under the session lock.
func (s *Session) Read(fn func(st *timeline.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.store)
}

// Mutate runs fn under the session lock and records one history snapshot
// when it succeeds. Mutations are refused while a drag or resize is open.
func (s *Session) Mutate(description string, fn func(st *timeline.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return ErrBusy
	}
	if err := fn(s.store); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	if description != "" {
		s.history.PushSnapshot(description)
	}
	return nil
}

// View runs fn with the mapper under the session lock.
func (s *Session) View(fn func(m *coords.Mapper)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.mapper)
}

func (s *Session) busy() bool {
	return s.drag.State() != drag.Idle || s.resize.Active()
}

// State is everything the front-end needs to render one frame.
type State struct {
	timeline.State
	Duration  float64         `json:"duration"`
	Clipboard int             `json:"clipboardCount"`
	Drag      DragState       `json:"drag"`
	Resize    ResizeState     `json:"resize"`
	History   HistoryState    `json:"history"`
	Settings  coords.Settings `json:"settings"`
	Viewport  drag.Viewport   `json:"viewport"`
	Layout    drag.RowLayout  `json:"layout,omitempty"`
}

type DragState struct {
	State            string        `json:"state"`
	ClipID           string        `json:"clipId,omitempty"`
	Preview          *drag.Preview `json:"preview,omitempty"`
	Offset           drag.Offset   `json:"offset"`
	AutoScrollOffset float64       `json:"autoScrollOffset"`
}

type ResizeState struct {
	Active bool        `json:"active"`
	ClipID string      `json:"clipId,omitempty"`
	Edge   resize.Edge `json:"edge,omitempty"`
}

type HistoryState struct {
	CanUndo      bool `json:"canUndo"`
	CanRedo      bool `json:"canRedo"`
	CurrentIndex int  `json:"currentIndex"`
	Len          int  `json:"len"`
}

// Snapshot copies the session state for rendering.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		State:    s.store.Snapshot(),
		Duration: s.store.Duration(),
		Drag: DragState{
			State:            s.drag.State().String(),
			ClipID:           s.drag.ClipID(),
			Offset:           s.drag.Offset(),
			AutoScrollOffset: s.drag.AutoScrollOffset(),
		},
		Resize: ResizeState{
			Active: s.resize.Active(),
			ClipID: s.resize.ClipID(),
			Edge:   s.resize.Edge(),
		},
		History:  s.historyState(),
		Settings: s.mapper.Settings(),
		Viewport: *s.viewport,
		Layout:   append(drag.RowLayout(nil), s.layout...),
	}
	if p := s.drag.Preview(); p != nil {
		cp := *p
		st.Drag.Preview = &cp
	}
	if cb := s.store.Clipboard(); cb != nil {
		st.Clipboard = len(cb.Clips)
	}
	return st
}

func (s *Session) historyState() HistoryState {
	return HistoryState{
		CanUndo:      s.history.CanUndo(),
		CanRedo:      s.history.CanRedo(),
		CurrentIndex: s.history.CurrentIndex(),
		Len:          s.history.Len(),
	}
}

func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return false, ErrBusy
	}
	return s.history.Undo(), nil
}

func (s *Session) Redo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return false, ErrBusy
	}
	return s.history.Redo(), nil
}

func (s *Session) HistoryEntries() ([]history.EntryInfo, HistoryState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries(), s.historyState()
}

// ClearHistory drops every snapshot and records the current timeline as
// the new baseline.
func (s *Session) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return ErrBusy
	}
	s.history.Initialize()
	return nil
}

// Subscribe registers fn for every store change. fn runs with the session
// lock held and must not call back into the session.
func (s *Session) Subscribe(fn func(timeline.Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Subscribe(fn)
}

// SetLayout replaces the track rows used for cross-track hit testing. An
// empty layout keeps drags on their source track.
func (s *Session) SetLayout(rows drag.RowLayout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout = rows
	if len(rows) == 0 {
		s.drag.SetLocator(nil)
		return
	}
	s.drag.SetLocator(rows)
}

func (s *Session) SetViewport(v drag.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.viewport = v
}

func (s *Session) StartDrag(clipID string, p drag.Pointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return ErrBusy
	}
	if !s.drag.Start(clipID, p) {
		return ErrRejected
	}
	if s.drag.Config().AutoScroll {
		s.scroller.Start(s.ctx)
	}
	return nil
}

func (s *Session) MoveDrag(p drag.Pointer) (*drag.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drag.Dragging() {
		return nil, ErrIdle
	}
	preview := s.drag.Move(p)
	if preview == nil {
		return nil, nil
	}
	cp := *preview
	return &cp, nil
}

func (s *Session) EndDrag() (*drag.CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scroller.Stop()
	res := s.drag.End()
	if res == nil {
		return nil, ErrIdle
	}
	return res, nil
}

func (s *Session) StartResize(clipID string, edge resize.Edge, p resize.Pointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return ErrBusy
	}
	if !s.resize.Start(clipID, edge, p) {
		return ErrRejected
	}
	return nil
}

func (s *Session) StartTransitionResize(transitionID string, p resize.Pointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy() {
		return ErrBusy
	}
	if !s.resize.StartTransition(transitionID, p) {
		return ErrRejected
	}
	return nil
}

// MoveResize applies the pointer and returns a copy of the edited clip.
func (s *Session) MoveResize(p resize.Pointer) (*timeline.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.resize.Move(p) {
		return nil, ErrIdle
	}
	if c := s.store.Clip(s.resize.ClipID()); c != nil {
		return c.Clone(), nil
	}
	return nil, nil
}

func (s *Session) EndResize() (*timeline.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.resize.ClipID()
	if !s.resize.End() {
		return nil, ErrIdle
	}
	if c := s.store.Clip(id); c != nil {
		return c.Clone(), nil
	}
	return nil, nil
}

// Status is a one-line summary for the tray.
type Status struct {
	Tracks  int  `json:"tracks"`
	Clips   int  `json:"clips"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
	Busy    bool `json:"busy"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Tracks:  len(s.store.Tracks()),
		Clips:   s.store.ClipCount(),
		CanUndo: s.history.CanUndo(),
		CanRedo: s.history.CanRedo(),
		Busy:    s.busy(),
	}
}
