// Package tray provides the system tray menu: tracker status, detection
// toggle, reset and a link to the dashboard.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/orion/internal/tracking"
)

// Tray is the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onReset     func()
	onDashboard func()
	onQuit      func()
	enabled     bool
	status      string
	mu          sync.RWMutex

	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a Tray showing the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
		status:  StatusTitle(tracking.Output{State: tracking.Idle}),
	}
}

// OnToggle sets the callback run when detection is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnReset sets the callback run when "Reset Tracking" is clicked.
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnDashboard sets the callback run when "Open Dashboard" is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback run when "Quit" is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray, unblocking Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Orion")
	systray.SetTooltip("Orion gesture aiming")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(t.status, "Tracker state")
	t.menuStatus.Disable()
	systray.AddSeparator()

	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle detection")
	t.mu.Unlock()

	menuReset := systray.AddMenuItem("Reset Tracking", "Return the tracker to idle")
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Orion")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuReset.ClickedCh:
				t.call(func() func() { return t.onReset })
			case <-menuDashboard.ClickedCh:
				t.call(func() func() { return t.onDashboard })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Outside the lock; the callback may call back into SetStatus.
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetStatus shows out's state in the menu. It is cheap to call per frame;
// the menu only changes when the title does.
func (t *Tray) SetStatus(out tracking.Output) {
	title := StatusTitle(out)

	t.mu.Lock()
	defer t.mu.Unlock()

	if title == t.status {
		return
	}
	t.status = title
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(title)
	}
}

// Status returns the current status title.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// StatusTitle is the menu text for out.
func StatusTitle(out tracking.Output) string {
	if out.State == tracking.Tracking {
		return "Tracking (" + string(out.Side) + ")"
	}
	if out.HoldProgress > 0 {
		return "State: Idle, holding"
	}
	return "State: Idle"
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}
