// Package tray provides a system tray menu for the Nebula visualizer.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/nebula/internal/render"
)

// Tray represents the system tray application. It also renders frames,
// keeping the menu's status line on the current mode and shape.
type Tray struct {
	onPause func()
	onNext  func()
	onOpen  func()
	onQuit  func()
	status  string
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuShape  *systray.MenuItem
	shape      string
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{}
}

// OnPause sets the callback for the play/pause menu item.
func (t *Tray) OnPause(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnNext sets the callback for the next shape menu item.
func (t *Tray) OnNext(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onNext = fn
}

// OnOpen sets the callback for the open in browser menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Nebula")
	systray.SetTooltip("Nebula particle visualizer")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(statusTitle(t.status), "Current mode")
	t.menuStatus.Disable()
	t.menuShape = systray.AddMenuItem(shapeTitle(t.shape), "Current shape")
	t.menuShape.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuNext := systray.AddMenuItem("Next Shape", "Morph to the next shape")
	menuPause := systray.AddMenuItem("Play / Pause", "Pause or resume the audio file")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the visualizer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Nebula")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-menuNext.ClickedCh:
				t.call(func() func() { return t.onNext })
			case <-menuPause.ClickedCh:
				t.call(func() func() { return t.onPause })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// call runs the callback get returns, outside the lock.
func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.call(func() func() { return t.onQuit })
	systray.Quit()
}

// Render implements render.Renderer. Menu items are only touched when the
// status or shape changes.
func (t *Tray) Render(f *render.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if f.Status != t.status {
		t.status = f.Status
		if t.menuStatus != nil {
			t.menuStatus.SetTitle(statusTitle(f.Status))
		}
	}
	if f.Shape != t.shape {
		t.shape = f.Shape
		if t.menuShape != nil {
			t.menuShape.SetTitle(shapeTitle(f.Shape))
		}
	}
	return nil
}

// Status returns the last status label rendered.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func statusTitle(s string) string {
	if s == "" {
		return "Mode: starting"
	}
	return "Mode: " + s
}

func shapeTitle(s string) string {
	if s == "" {
		return "Shape: none"
	}
	return "Shape: " + s
}
