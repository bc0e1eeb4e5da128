// Package tray is the resident status surface: a system tray icon whose
// tooltip and menu mirror the processing lifecycle. Terminal statuses
// revert to idle after a short display interval; that timer lives here,
// not in the coordinator.
package tray

import (
	"log"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"vista-ocr/status"
)

const (
	appTitle      = "Vista OCR"
	revertDelay   = 3 * time.Second
	idleTooltip   = "Vista OCR - ready"
	cancelVisible = "Cancel processing"
)

// Tray displays processing status and exposes capture/cancel/quit
// actions. It implements status.Sink.
type Tray struct {
	mu          sync.Mutex
	cancel      func()
	revertTimer *time.Timer

	ready     chan struct{}
	mCapture  *systray.MenuItem
	mCancel   *systray.MenuItem
	mQuit     *systray.MenuItem
	onCapture func()
	onQuit    func()
}

// New creates an unstarted tray. Run must be called from the main
// goroutine.
func New() *Tray {
	return &Tray{ready: make(chan struct{})}
}

// Run blocks, owning the main goroutine for the life of the process.
// onCapture fires on the Capture menu item; onQuit runs after the tray
// has torn down.
func (t *Tray) Run(onCapture, onQuit func()) {
	t.onCapture = onCapture
	t.onQuit = onQuit
	systray.Run(t.onReady, t.onExit)
}

// Quit tears the tray down and unblocks Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetIcon(iconPNG())
	systray.SetTitle(appTitle)
	systray.SetTooltip(idleTooltip)

	t.mCapture = systray.AddMenuItem("Capture", "Select a screen region and extract its text")
	t.mCancel = systray.AddMenuItem(cancelVisible, "Abort the request in flight")
	t.mCancel.Hide()
	systray.AddSeparator()
	t.mQuit = systray.AddMenuItem("Quit", "Exit")
	close(t.ready)

	go t.menuLoop()
}

func (t *Tray) menuLoop() {
	for {
		select {
		case <-t.mCapture.ClickedCh:
			if t.onCapture != nil {
				// Capture blocks on the selection utility; keep the
				// menu loop responsive.
				go t.onCapture()
			}
		case <-t.mCancel.ClickedCh:
			t.mu.Lock()
			cancel := t.cancel
			t.mu.Unlock()
			if cancel != nil {
				cancel()
			}
		case <-t.mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (t *Tray) onExit() {
	if t.onQuit != nil {
		t.onQuit()
	}
}

// Publish implements status.Sink. The cancel callback is retained while
// processing so the Cancel menu item can abort the request.
func (t *Tray) Publish(s status.Status, cancel func()) {
	<-t.ready

	t.mu.Lock()
	t.cancel = cancel
	if t.revertTimer != nil {
		t.revertTimer.Stop()
		t.revertTimer = nil
	}
	processing := s.Kind == status.KindProcessing
	terminal := s.Kind == status.KindSuccess || s.Kind == status.KindCancelled || s.Kind == status.KindFailed
	if terminal {
		t.revertTimer = time.AfterFunc(revertDelay, func() { t.Publish(status.Idle(), nil) })
	}
	t.mu.Unlock()

	if s.Kind == status.KindFailed {
		log.Printf("tray: %s (%s: %s)", s.Label(), s.ErrKind, s.Detail)
	}

	if processing {
		t.mCancel.Show()
		t.mCapture.Disable()
	} else {
		t.mCancel.Hide()
		t.mCapture.Enable()
	}

	if label := s.Label(); label != "" {
		systray.SetTooltip(appTitle + " - " + label)
	} else {
		systray.SetTooltip(idleTooltip)
	}
}
