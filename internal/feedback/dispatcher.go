package feedback

import (
	"log"
	"sync"
	"time"
)

// DefaultCooldown is the minimum interval between cues for the same issue.
// A user holding a bad position produces the same issue on every frame;
// repeating the cue more often than this is noise, not coaching.
const DefaultCooldown = 5 * time.Second

// DefaultTimeoutMs is the default plugin execution timeout in milliseconds.
const DefaultTimeoutMs = 5000

// Dispatcher fans evaluation issues out to discovered feedback plugins,
// debouncing per issue so a held bad position does not spam cues.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	cooldown time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewDispatcher creates a Dispatcher that sends cues through the given
// manager's plugins. A non-positive cooldown disables debouncing.
func NewDispatcher(manager *Manager, executor *Executor, cooldown time.Duration) *Dispatcher {
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		cooldown: cooldown,
		lastSent: make(map[string]time.Time),
	}
}

// Dispatch sends the issues observed on the current frame to every plugin
// that accepts cues for the exercise. Issues still inside their cooldown
// window are dropped; if none remain, no plugin runs. Plugin failures are
// logged and do not interrupt delivery to the remaining plugins.
//
// Execution blocks until every plugin has responded or timed out, so
// callers on a frame-rate path should run Dispatch off that path.
func (d *Dispatcher) Dispatch(exercise, phase string, issues []string) {
	fresh := d.filterCooledDown(exercise, issues)
	if len(fresh) == 0 {
		return
	}

	plugins := d.manager.ForExercise(exercise)
	if len(plugins) == 0 {
		return
	}

	req := &Request{
		Exercise: exercise,
		Phase:    phase,
		Issues:   fresh,
	}

	for _, plugin := range plugins {
		resp, err := d.executor.Execute(plugin, req)
		if err != nil {
			log.Printf("feedback: plugin %s failed: %v", plugin.Manifest.Name, err)
			continue
		}
		if !resp.Success {
			log.Printf("feedback: plugin %s rejected cue: %s", plugin.Manifest.Name, resp.Error)
		}
	}
}

// Reset clears the cooldown state so the next occurrence of any issue is
// delivered immediately. Called when the active exercise changes.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastSent = make(map[string]time.Time)
}

// filterCooledDown returns the issues whose cooldown window has elapsed
// and marks them as sent. Marking happens before execution so concurrent
// Dispatch calls for the same held position coalesce into one cue.
func (d *Dispatcher) filterCooledDown(exercise string, issues []string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	var fresh []string
	for _, issue := range issues {
		key := exercise + ":" + issue
		if last, ok := d.lastSent[key]; ok && now.Sub(last) < d.cooldown {
			continue
		}
		d.lastSent[key] = now
		fresh = append(fresh, issue)
	}

	return fresh
}
