package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"
	"github.com/heimdex/heimdex-timeline/internal/api"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// Controller is the part of the editing session the tray drives.
type Controller interface {
	Undo() (bool, error)
	Redo() (bool, error)
	Status() api.Status
	Subscribe(fn func(timeline.Change)) func()
}

type Tray struct {
	session Controller
	logger  *slog.Logger

	statusItem *systray.MenuItem
	undoItem   *systray.MenuItem
	redoItem   *systray.MenuItem

	mu          sync.Mutex
	changed     chan struct{}
	unsubscribe func()

	onQuit func()
}

type TrayConfig struct {
	Session Controller
	Logger  *slog.Logger
	OnQuit  func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		session: cfg.Session,
		logger:  cfg.Logger,
		changed: make(chan struct{}, 1),
		onQuit:  cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Heimdex")
	systray.SetTooltip("Heimdex Timeline")

	t.statusItem = systray.AddMenuItem(statusTitle(api.Status{}), "Current timeline")
	t.statusItem.Disable()

	systray.AddSeparator()

	t.undoItem = systray.AddMenuItem("Undo", "Undo the last edit")
	t.redoItem = systray.AddMenuItem("Redo", "Redo the last undone edit")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Heimdex Timeline")

	// Observers run under the session lock, so they only signal; the
	// refresh happens on this goroutine.
	t.unsubscribe = t.session.Subscribe(func(timeline.Change) {
		select {
		case t.changed <- struct{}{}:
		default:
		}
	})
	t.refresh()

	go func() {
		for {
			select {
			case <-t.changed:
				t.refresh()
			case <-t.undoItem.ClickedCh:
				t.step(t.session.Undo, "undo")
			case <-t.redoItem.ClickedCh:
				t.step(t.session.Redo, "redo")
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
	t.logger.Info("system tray exiting")
}

func (t *Tray) step(fn func() (bool, error), action string) {
	applied, err := fn()
	if err != nil {
		t.logger.Warn("tray "+action+" refused", "error", err)
	} else if !applied {
		t.logger.Debug("nothing to " + action)
	}
	t.refresh()
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.session.Status()
	t.statusItem.SetTitle(statusTitle(st))
	setEnabled(t.undoItem, st.CanUndo && !st.Busy)
	setEnabled(t.redoItem, st.CanRedo && !st.Busy)
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

func statusTitle(st api.Status) string {
	if st.Busy {
		return fmt.Sprintf("Editing: %d tracks, %d clips", st.Tracks, st.Clips)
	}
	return fmt.Sprintf("Timeline: %d tracks, %d clips", st.Tracks, st.Clips)
}

func (t *Tray) Quit() {
	systray.Quit()
}
