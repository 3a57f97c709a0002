package exercise

import (
	"math"

	"github.com/ayusman/formcoach/internal/pose"
)

// SquatThresholds are the tunable limits for squat classification and
// form checks. Angles are degrees; offsets are normalized image
// units. A Squat keeps its own copy, so thresholds never change under
// a running session.
type SquatThresholds struct {
	// KneeAngleStandingMin marks full extension: straighter knees
	// classify the frame as standing, and at the top of a rep
	// anything below it reads as incomplete lockout.
	KneeAngleStandingMin float64 `json:"knee_angle_standing_min"`

	// KneeAngleFlexed marks real flexion: only knees bent past it can
	// classify as descending or ascending.
	KneeAngleFlexed float64 `json:"knee_angle_flexed"`

	KneeAngleBottomMin float64 `json:"knee_angle_bottom_min"`
	KneeAngleBottomMax float64 `json:"knee_angle_bottom_max"`
	HipAngleBottomMin  float64 `json:"hip_angle_bottom_min"`
	HipAngleBottomMax  float64 `json:"hip_angle_bottom_max"`

	MaxBackLeanBottom   float64 `json:"max_back_lean_bottom"`
	MaxBackLeanStanding float64 `json:"max_back_lean_standing"`

	// MaxKneeForward bounds how far a knee may travel toward the
	// camera past its ankle (depth axis).
	MaxKneeForward float64 `json:"max_knee_forward"`

	// MaxKneeSplay bounds the lateral knee-over-ankle offset.
	MaxKneeSplay float64 `json:"max_knee_splay"`

	MinConfidence float64 `json:"min_confidence"`
}

// DefaultSquatThresholds returns the canonical squat limits.
func DefaultSquatThresholds() SquatThresholds {
	return SquatThresholds{
		KneeAngleStandingMin: 160,
		KneeAngleFlexed:      110,
		KneeAngleBottomMin:   70,
		KneeAngleBottomMax:   100,
		HipAngleBottomMin:    70,
		HipAngleBottomMax:    110,
		MaxBackLeanBottom:    45,
		MaxBackLeanStanding:  20,
		MaxKneeForward:       0.12,
		MaxKneeSplay:         0.10,
		MinConfidence:        pose.DefaultMinConfidence,
	}
}

// Squat classifies and evaluates bodyweight squats.
type Squat struct {
	t SquatThresholds
}

// NewSquat creates a squat exercise with the given thresholds.
func NewSquat(t SquatThresholds) *Squat {
	return &Squat{t: t}
}

// DefaultSquat creates a squat exercise with canonical thresholds.
func DefaultSquat() *Squat {
	return NewSquat(DefaultSquatThresholds())
}

// Name returns "squat".
func (s *Squat) Name() string { return "squat" }

// Thresholds returns the limits this squat evaluates against.
func (s *Squat) Thresholds() SquatThresholds { return s.t }

// Phases returns the squat phase cycle.
func (s *Squat) Phases() []Phase {
	return []Phase{PhaseStanding, PhaseDescending, PhaseBottom, PhaseAscending}
}

// InitialState starts a squat standing with no motion history.
func (s *Squat) InitialState() State {
	return State{Phase: PhaseStanding}
}

// Classify advances the squat state machine by one frame.
//
// Knees straighter than the standing cutoff read as standing. Knees
// bent past the flexed cutoff read as descending while the hips drop
// (image y grows) and ascending while they rise. The turnaround is
// promoted to bottom one frame late: the first frame at which a
// descent reverses. Bottom is reachable only from descending.
func (s *Squat) Classify(j pose.Joints, prev State) State {
	if !allVisible(s.t.MinConfidence,
		j.LeftHip, j.RightHip,
		j.LeftKnee, j.RightKnee,
		j.LeftAnkle, j.RightAnkle) {
		return prev
	}

	kneeAngle := (pose.Angle3D(j.LeftHip, j.LeftKnee, j.LeftAnkle) +
		pose.Angle3D(j.RightHip, j.RightKnee, j.RightAnkle)) / 2.0
	hipHeight := (j.LeftHip.Y + j.RightHip.Y) / 2.0

	next := prev.Phase
	switch {
	case kneeAngle > s.t.KneeAngleStandingMin:
		next = PhaseStanding
	case kneeAngle < s.t.KneeAngleFlexed && prev.HasMetric && hipHeight > prev.Metric:
		next = PhaseDescending
	case kneeAngle < s.t.KneeAngleFlexed && prev.HasMetric && hipHeight < prev.Metric:
		next = PhaseAscending
	}

	if prev.Phase == PhaseDescending && prev.HasMetric && hipHeight < prev.Metric {
		next = PhaseBottom
	}

	return State{Phase: next, Metric: hipHeight, HasMetric: true}
}

// Evaluate checks squat form at the given phase.
func (s *Squat) Evaluate(j pose.Joints, phase Phase) Evaluation {
	if !allVisible(s.t.MinConfidence,
		j.LeftShoulder, j.RightShoulder,
		j.LeftHip, j.RightHip,
		j.LeftKnee, j.RightKnee,
		j.LeftAnkle, j.RightAnkle) {
		return notVisibleEvaluation()
	}

	leftKnee := pose.Angle3D(j.LeftHip, j.LeftKnee, j.LeftAnkle)
	rightKnee := pose.Angle3D(j.RightHip, j.RightKnee, j.RightAnkle)
	kneeAngle := (leftKnee + rightKnee) / 2.0

	leftHip := pose.Angle3D(j.LeftShoulder, j.LeftHip, j.LeftKnee)
	rightHip := pose.Angle3D(j.RightShoulder, j.RightHip, j.RightKnee)
	hipAngle := (leftHip + rightHip) / 2.0

	lean := backLean(j)

	angles := map[string]float64{
		"left_knee":  leftKnee,
		"right_knee": rightKnee,
		"left_hip":   leftHip,
		"right_hip":  rightHip,
		"back_lean":  lean,
	}

	var issues []string
	switch phase {
	case PhaseBottom:
		if kneeAngle > s.t.KneeAngleBottomMax {
			issues = append(issues, "Knees not bent enough")
		}
		if kneeAngle < s.t.KneeAngleBottomMin {
			issues = append(issues, "Squatting too deep")
		}
		if hipAngle > s.t.HipAngleBottomMax {
			issues = append(issues, "Hips not low enough")
		}
		if hipAngle < s.t.HipAngleBottomMin {
			issues = append(issues, "Bending too far forward at the hips")
		}
		if lean > s.t.MaxBackLeanBottom {
			issues = append(issues, "Back leaning too far forward")
		}
		if s.kneesPastToes(j) {
			issues = append(issues, "Knees extending past toes")
		}
		if s.kneesOffAnkles(j) {
			issues = append(issues, "Knees not tracking over ankles")
		}
	case PhaseStanding:
		if kneeAngle < s.t.KneeAngleStandingMin {
			issues = append(issues, "Knees not fully extended")
		}
		if lean > s.t.MaxBackLeanStanding {
			issues = append(issues, "Back not upright")
		}
	case PhaseDescending, PhaseAscending:
		if lean > s.t.MaxBackLeanBottom {
			issues = append(issues, "Back leaning too far forward")
		}
		if s.kneesOffAnkles(j) {
			issues = append(issues, "Knees not tracking over ankles")
		}
	}

	return Evaluation{
		Correct: len(issues) == 0,
		Issues:  issues,
		Angles:  angles,
	}
}

// kneesPastToes reports whether either knee has traveled toward the
// camera past its ankle by more than the allowed offset.
func (s *Squat) kneesPastToes(j pose.Joints) bool {
	return j.LeftAnkle.Z-j.LeftKnee.Z > s.t.MaxKneeForward ||
		j.RightAnkle.Z-j.RightKnee.Z > s.t.MaxKneeForward
}

// kneesOffAnkles reports whether either knee has drifted laterally
// off its ankle by more than the allowed offset.
func (s *Squat) kneesOffAnkles(j pose.Joints) bool {
	return math.Abs(j.LeftKnee.X-j.LeftAnkle.X) > s.t.MaxKneeSplay ||
		math.Abs(j.RightKnee.X-j.RightAnkle.X) > s.t.MaxKneeSplay
}
