// Package testdata provides recorded landmark sequences for tests and
// demos. The shipped recordings are synthesized from the pose fixture
// postures: squat_rep.json is one clean squat repetition with a missed
// detection on the first frame, squat_shallow.json is a squat that
// never reaches depth, and pushup_rep.json is one clean push-up.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/ayusman/formcoach/internal/pose"
)

//go:embed recordings/*.json
var recordingsFS embed.FS

// LoadRecording returns the landmark frames of a recording by file
// name, e.g. "squat_rep.json". Each element is one captured frame: a
// full landmark set, or empty where no person was detected.
func LoadRecording(name string) ([]pose.Frame, error) {
	data, err := recordingsFS.ReadFile("recordings/" + name)
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}

	var frames []pose.Frame
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("decode recording %s: %w", name, err)
	}

	for i, f := range frames {
		if !f.Empty() && !f.Valid() {
			return nil, fmt.Errorf("recording %s: frame %d has %d landmarks", name, i, len(f))
		}
	}

	return frames, nil
}

// Recordings lists the file names of all embedded recordings in
// lexical order.
func Recordings() ([]string, error) {
	entries, err := recordingsFS.ReadDir("recordings")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}
