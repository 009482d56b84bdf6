// Package history implements snapshot-based undo/redo for a timeline
// store. Each entry is a JSON copy of the store's tracks and selection;
// undo and redo restore a whole snapshot rather than replaying operations.
package history

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// DefaultMaxSize is the number of snapshots kept when New is given a
// non-positive size.
const DefaultMaxSize = 50

// Snapshotter is the part of the store history needs.
type Snapshotter interface {
	Snapshot() timeline.State
	Restore(timeline.State)
}

type entry struct {
	description string
	createdAt   time.Time
	data        []byte
}

// EntryInfo describes one snapshot without its payload.
type EntryInfo struct {
	Index       int       `json:"index"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	Current     bool      `json:"current"`
	Size        int       `json:"size"`
}

// History is a bounded stack of snapshots with a cursor. It is not safe
// for concurrent use; callers serialize access together with the store.
type History struct {
	store   Snapshotter
	entries []entry
	current int
	maxSize int
	logger  *slog.Logger
}

func New(store Snapshotter, maxSize int, logger *slog.Logger) *History {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &History{
		store:   store,
		current: -1,
		maxSize: maxSize,
		logger:  logger,
	}
}

// Initialize clears the stack and records the store's current state as the
// baseline.
func (h *History) Initialize() {
	h.Clear()
	h.PushSnapshot("baseline")
}

// PushSnapshot records the store's current state. Entries after the cursor
// are discarded. When the stack is full the oldest entry is dropped and the
// cursor stays on the newest entry.
func (h *History) PushSnapshot(description string) {
	data, err := json.Marshal(h.store.Snapshot())
	if err != nil {
		h.logError("failed to encode snapshot", err)
		return
	}

	if h.current < len(h.entries)-1 {
		h.entries = h.entries[:h.current+1]
	}
	h.entries = append(h.entries, entry{
		description: description,
		createdAt:   time.Now(),
		data:        data,
	})

	if len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	} else {
		h.current++
	}

	if h.logger != nil {
		h.logger.Debug("snapshot pushed", "description", description, "index", h.current, "size", len(data))
	}
}

// Undo moves the cursor back one entry and restores that snapshot. It
// returns false at the bottom of the stack.
func (h *History) Undo() bool {
	if !h.CanUndo() {
		return false
	}
	if !h.restore(h.current - 1) {
		return false
	}
	h.current--
	return true
}

// Redo moves the cursor forward one entry and restores that snapshot. It
// returns false at the top of the stack.
func (h *History) Redo() bool {
	if !h.CanRedo() {
		return false
	}
	if !h.restore(h.current + 1) {
		return false
	}
	h.current++
	return true
}

func (h *History) restore(idx int) bool {
	var st timeline.State
	if err := json.Unmarshal(h.entries[idx].data, &st); err != nil {
		h.logError("failed to decode snapshot", err)
		return false
	}
	h.store.Restore(st)
	return true
}

func (h *History) CanUndo() bool {
	return h.current > 0
}

func (h *History) CanRedo() bool {
	return h.current >= 0 && h.current < len(h.entries)-1
}

// Len is the number of snapshots on the stack.
func (h *History) Len() int {
	return len(h.entries)
}

// CurrentIndex is the cursor position, -1 when the stack is empty.
func (h *History) CurrentIndex() int {
	return h.current
}

func (h *History) MaxSize() int {
	return h.maxSize
}

func (h *History) Entries() []EntryInfo {
	out := make([]EntryInfo, len(h.entries))
	for i, e := range h.entries {
		out[i] = EntryInfo{
			Index:       i,
			Description: e.description,
			CreatedAt:   e.createdAt,
			Current:     i == h.current,
			Size:        len(e.data),
		}
	}
	return out
}

func (h *History) Clear() {
	h.entries = nil
	h.current = -1
}

func (h *History) logError(msg string, err error) {
	if h.logger != nil {
		h.logger.Error(msg, "error", err)
	}
}
