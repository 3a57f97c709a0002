// Package feedback provides discovery and execution of external feedback
// plugins for the FormCoach exercise evaluation system. Plugins deliver
// form cues to the user (spoken audio, notifications) and run as separate
// executables so a broken cue channel can never take down the pipeline.
package feedback

// Manifest describes a feedback plugin's metadata and capabilities.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Exercises   []string `json:"exercises,omitempty"`
}

// Request represents a cue request sent to a plugin for delivery.
type Request struct {
	Exercise string   `json:"exercise"`
	Phase    string   `json:"phase"`
	Issues   []string `json:"issues"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the plugin wants cues for the given exercise.
// A plugin that lists no exercises receives cues for all of them.
func (p *Plugin) Supports(exercise string) bool {
	if len(p.Manifest.Exercises) == 0 {
		return true
	}
	for _, e := range p.Manifest.Exercises {
		if e == exercise {
			return true
		}
	}
	return false
}
