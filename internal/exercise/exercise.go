// Package exercise implements phase classification and form
// evaluation for supported exercises.
//
// A classifier is a small state machine: the caller owns a State and
// threads it through successive Classify calls, one per landmark
// frame. Evaluation is stateless; the same joints and phase always
// produce the same result.
package exercise

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/formcoach/internal/pose"
)

// Phase identifies where in a repetition the subject currently is.
type Phase string

// Squat cycles standing -> descending -> bottom -> ascending.
// Push-ups cycle top -> descending -> bottom -> ascending.
const (
	PhaseStanding   Phase = "standing"
	PhaseDescending Phase = "descending"
	PhaseBottom     Phase = "bottom"
	PhaseAscending  Phase = "ascending"
	PhaseTop        Phase = "top"
)

// IssueLandmarksNotVisible is the only issue reported when an
// evaluator cannot see the landmarks it needs.
const IssueLandmarksNotVisible = "Some key landmarks not visible"

// State is the between-frame memory of a phase classifier: the
// current phase and the last accepted motion metric (hip height for
// squats, elbow angle for push-ups). The caller owns it; start from
// the exercise's InitialState.
type State struct {
	Phase     Phase
	Metric    float64
	HasMetric bool
}

// Evaluation is the outcome of a form check on a single frame.
// Correct is true exactly when Issues is empty. Angles holds the
// measured joint angles in degrees keyed by name; it is nil when the
// required landmarks were not visible.
type Evaluation struct {
	Correct bool               `json:"correct"`
	Issues  []string           `json:"issues"`
	Angles  map[string]float64 `json:"angles,omitempty"`
}

// Exercise is a pluggable phase classifier and form rule set.
type Exercise interface {
	// Name returns the registry name, e.g. "squat".
	Name() string

	// Phases lists the phases this exercise cycles through.
	Phases() []Phase

	// InitialState returns the state a fresh session starts in.
	InitialState() State

	// Classify advances the phase state machine by one frame. A frame
	// whose required landmarks are not visible is skipped: the
	// previous state comes back unchanged.
	Classify(j pose.Joints, prev State) State

	// Evaluate checks form at the given phase.
	Evaluate(j pose.Joints, phase Phase) Evaluation
}

// Get returns a ready-to-use exercise with canonical thresholds, or
// an error for an unknown name.
func Get(name string) (Exercise, error) {
	switch name {
	case "squat":
		return DefaultSquat(), nil
	case "pushup":
		return DefaultPushUp(), nil
	default:
		return nil, fmt.Errorf("unknown exercise %q", name)
	}
}

// WithParams builds an exercise whose thresholds start from the
// canonical defaults with the given JSON overrides applied. Keys
// match the threshold struct's JSON names; absent keys keep their
// defaults. Empty params give the canonical exercise.
func WithParams(name string, params []byte) (Exercise, error) {
	switch name {
	case "squat":
		t := DefaultSquatThresholds()
		if err := applyParams(params, &t); err != nil {
			return nil, fmt.Errorf("squat thresholds: %w", err)
		}
		return NewSquat(t), nil
	case "pushup":
		t := DefaultPushUpThresholds()
		if err := applyParams(params, &t); err != nil {
			return nil, fmt.Errorf("pushup thresholds: %w", err)
		}
		return NewPushUp(t), nil
	default:
		return nil, fmt.Errorf("unknown exercise %q", name)
	}
}

func applyParams(params []byte, thresholds any) error {
	if len(params) == 0 {
		return nil
	}
	return json.Unmarshal(params, thresholds)
}

// DefaultThresholds returns the canonical threshold set for the named
// exercise, for catalog listings and as the base for profile overrides.
func DefaultThresholds(name string) (any, error) {
	switch name {
	case "squat":
		return DefaultSquatThresholds(), nil
	case "pushup":
		return DefaultPushUpThresholds(), nil
	default:
		return nil, fmt.Errorf("unknown exercise %q", name)
	}
}

// Names lists the supported exercise names in stable order.
func Names() []string {
	return []string{"pushup", "squat"}
}

// allVisible reports whether every point clears the confidence cutoff.
func allVisible(minConfidence float64, pts ...pose.Point3D) bool {
	for _, p := range pts {
		if !pose.IsVisible(p, minConfidence) {
			return false
		}
	}
	return true
}

// notVisibleEvaluation is the fixed result returned whenever a frame
// is missing key landmarks. No angles are measured.
func notVisibleEvaluation() Evaluation {
	return Evaluation{
		Correct: false,
		Issues:  []string{IssueLandmarksNotVisible},
	}
}

// backLean measures how far the torso midline tilts away from
// vertical in the image plane, in degrees. The reference is a
// synthetic point directly above the hip midpoint.
func backLean(j pose.Joints) float64 {
	shoulderMid := pose.Midpoint(j.LeftShoulder, j.RightShoulder)
	hipMid := pose.Midpoint(j.LeftHip, j.RightHip)
	ref := pose.Point3D{X: hipMid.X, Y: hipMid.Y - 1.0}
	return pose.Angle2D(shoulderMid, hipMid, ref)
}
