// Package tray provides a system tray interface for the FormCoach exercise evaluation system.
package tray

import (
	"strings"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onExercise  func(name string)
	onDashboard func()
	onQuit      func()
	enabled     bool
	exercises   []string
	current     string
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuExercises map[string]*systray.MenuItem
}

// New creates a new Tray instance offering the given exercises, with
// current checked and coaching enabled by default.
func New(exercises []string, current string) *Tray {
	return &Tray{
		enabled:   true,
		exercises: exercises,
		current:   current,
	}
}

// OnToggle registers fn to run when coaching is toggled on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnExercise registers fn to run when the user picks an exercise.
func (t *Tray) OnExercise(fn func(name string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExercise = fn
}

// OnDashboard registers fn to run when the dashboard item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit registers fn to run before the tray shuts down.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run hands the main thread to systray and blocks until Quit.
// Register callbacks before calling it.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray and unblocks Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady builds the menu once systray has the main thread.
func (t *Tray) onReady() {
	systray.SetTitle("FormCoach")
	systray.SetTooltip("FormCoach Exercise Coaching")

	t.menuToggle = systray.AddMenuItem("● Enabled", "Toggle form coaching")
	systray.AddSeparator()

	t.mu.Lock()
	t.menuExercises = make(map[string]*systray.MenuItem, len(t.exercises))
	for _, name := range t.exercises {
		item := systray.AddMenuItemCheckbox(displayName(name), "Coach "+name, name == t.current)
		t.menuExercises[name] = item
	}
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit FormCoach")

	// Fixed items share one click loop
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				if fn := t.dashboardFn(); fn != nil {
					fn()
				}
			case <-menuQuit.ClickedCh:
				if fn := t.quitFn(); fn != nil {
					fn()
				}
				systray.Quit()
				return
			}
		}
	}()

	// One goroutine per exercise item; the set is only known at runtime
	for _, name := range t.exercises {
		item := t.menuExercises[name]
		go func(name string, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.handleExercise(name)
			}
		}(name, item)
	}
}

// handleToggle flips the coaching state and relabels the item.
// The callback runs outside the lock.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if enabled {
		t.menuToggle.SetTitle("● Enabled")
	} else {
		t.menuToggle.SetTitle("○ Disabled")
	}

	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

// handleExercise handles a click on an exercise radio item.
func (t *Tray) handleExercise(name string) {
	t.mu.Lock()
	t.current = name
	for n, item := range t.menuExercises {
		if n == name {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
	callback := t.onExercise
	t.mu.Unlock()

	if callback != nil {
		callback(name)
	}
}

func (t *Tray) dashboardFn() func() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onDashboard
}

func (t *Tray) quitFn() func() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onQuit
}

// Exercise returns the currently selected exercise.
func (t *Tray) Exercise() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// displayName renders an exercise registry name as a menu label.
func displayName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
