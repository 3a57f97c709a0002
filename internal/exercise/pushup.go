package exercise

import (
	"math"

	"github.com/ayusman/formcoach/internal/pose"
)

// PushUpThresholds are the tunable limits for push-up classification
// and form checks. Angles are degrees. A PushUp keeps its own copy.
type PushUpThresholds struct {
	// ElbowAngleTopMin marks full extension: straighter elbows
	// classify the frame as top, and anything below it at the top of
	// a rep reads as incomplete lockout.
	ElbowAngleTopMin float64 `json:"elbow_angle_top_min"`

	// ElbowAngleFlexed marks real flexion: only elbows bent past it
	// can classify as descending or ascending.
	ElbowAngleFlexed float64 `json:"elbow_angle_flexed"`

	ElbowAngleBottomMin float64 `json:"elbow_angle_bottom_min"`
	ElbowAngleBottomMax float64 `json:"elbow_angle_bottom_max"`

	// MaxBodyLineDeviation bounds how far the shoulder-hip-ankle line
	// may bend off straight before the hips count as sagging or
	// piking.
	MaxBodyLineDeviation float64 `json:"max_body_line_deviation"`

	// MaxNeckDeviation bounds how far the ear-shoulder-hip line may
	// bend off straight.
	MaxNeckDeviation float64 `json:"max_neck_deviation"`

	MinConfidence float64 `json:"min_confidence"`
}

// DefaultPushUpThresholds returns the canonical push-up limits.
func DefaultPushUpThresholds() PushUpThresholds {
	return PushUpThresholds{
		ElbowAngleTopMin:     150,
		ElbowAngleFlexed:     120,
		ElbowAngleBottomMin:  70,
		ElbowAngleBottomMax:  100,
		MaxBodyLineDeviation: 15,
		MaxNeckDeviation:     30,
		MinConfidence:        pose.DefaultMinConfidence,
	}
}

// PushUp classifies and evaluates push-ups.
type PushUp struct {
	t PushUpThresholds
}

// NewPushUp creates a push-up exercise with the given thresholds.
func NewPushUp(t PushUpThresholds) *PushUp {
	return &PushUp{t: t}
}

// DefaultPushUp creates a push-up exercise with canonical thresholds.
func DefaultPushUp() *PushUp {
	return NewPushUp(DefaultPushUpThresholds())
}

// Name returns "pushup".
func (p *PushUp) Name() string { return "pushup" }

// Thresholds returns the limits this push-up evaluates against.
func (p *PushUp) Thresholds() PushUpThresholds { return p.t }

// Phases returns the push-up phase cycle.
func (p *PushUp) Phases() []Phase {
	return []Phase{PhaseTop, PhaseDescending, PhaseBottom, PhaseAscending}
}

// InitialState starts a push-up at the top with no motion history.
func (p *PushUp) InitialState() State {
	return State{Phase: PhaseTop}
}

// Classify advances the push-up state machine by one frame.
//
// The tracked metric is the mean elbow angle, which shrinks as the
// body lowers. Elbows straighter than the top cutoff read as top;
// elbows bent past the flexed cutoff read as descending while the
// angle shrinks and ascending while it grows. The turnaround is
// promoted to bottom one frame late, and only from descending.
func (p *PushUp) Classify(j pose.Joints, prev State) State {
	if !allVisible(p.t.MinConfidence,
		j.LeftShoulder, j.RightShoulder,
		j.LeftElbow, j.RightElbow,
		j.LeftWrist, j.RightWrist) {
		return prev
	}

	elbowAngle := (pose.Angle3D(j.LeftShoulder, j.LeftElbow, j.LeftWrist) +
		pose.Angle3D(j.RightShoulder, j.RightElbow, j.RightWrist)) / 2.0

	next := prev.Phase
	switch {
	case elbowAngle > p.t.ElbowAngleTopMin:
		next = PhaseTop
	case elbowAngle < p.t.ElbowAngleFlexed && prev.HasMetric && elbowAngle < prev.Metric:
		next = PhaseDescending
	case elbowAngle < p.t.ElbowAngleFlexed && prev.HasMetric && elbowAngle > prev.Metric:
		next = PhaseAscending
	}

	if prev.Phase == PhaseDescending && prev.HasMetric && elbowAngle > prev.Metric {
		next = PhaseBottom
	}

	return State{Phase: next, Metric: elbowAngle, HasMetric: true}
}

// Evaluate checks push-up form at the given phase.
func (p *PushUp) Evaluate(j pose.Joints, phase Phase) Evaluation {
	if !allVisible(p.t.MinConfidence,
		j.LeftEar, j.RightEar,
		j.LeftShoulder, j.RightShoulder,
		j.LeftElbow, j.RightElbow,
		j.LeftWrist, j.RightWrist,
		j.LeftHip, j.RightHip,
		j.LeftAnkle, j.RightAnkle) {
		return notVisibleEvaluation()
	}

	leftElbow := pose.Angle3D(j.LeftShoulder, j.LeftElbow, j.LeftWrist)
	rightElbow := pose.Angle3D(j.RightShoulder, j.RightElbow, j.RightWrist)
	elbowAngle := (leftElbow + rightElbow) / 2.0

	shoulderMid := pose.Midpoint(j.LeftShoulder, j.RightShoulder)
	hipMid := pose.Midpoint(j.LeftHip, j.RightHip)
	ankleMid := pose.Midpoint(j.LeftAnkle, j.RightAnkle)
	earMid := pose.Midpoint(j.LeftEar, j.RightEar)

	bodyLine := 180.0 - pose.Angle2D(shoulderMid, hipMid, ankleMid)
	neck := 180.0 - pose.Angle2D(earMid, shoulderMid, hipMid)

	angles := map[string]float64{
		"left_elbow":  leftElbow,
		"right_elbow": rightElbow,
		"body_line":   bodyLine,
		"neck":        neck,
	}

	var issues []string
	switch phase {
	case PhaseTop:
		if elbowAngle < p.t.ElbowAngleTopMin {
			issues = append(issues, "Arms not fully extended at top")
		}
		issues = p.appendBodyLineIssue(issues, bodyLine, shoulderMid, hipMid, ankleMid)
		if neck > p.t.MaxNeckDeviation {
			issues = append(issues, "Neck not aligned with spine")
		}
	case PhaseBottom:
		if elbowAngle > p.t.ElbowAngleBottomMax {
			issues = append(issues, "Not lowering far enough")
		}
		if elbowAngle < p.t.ElbowAngleBottomMin {
			issues = append(issues, "Lowering too far")
		}
		issues = p.appendBodyLineIssue(issues, bodyLine, shoulderMid, hipMid, ankleMid)
		if neck > p.t.MaxNeckDeviation {
			issues = append(issues, "Neck not aligned with spine")
		}
	case PhaseDescending, PhaseAscending:
		issues = p.appendBodyLineIssue(issues, bodyLine, shoulderMid, hipMid, ankleMid)
		if neck > p.t.MaxNeckDeviation {
			issues = append(issues, "Neck not aligned with spine")
		}
	}

	return Evaluation{
		Correct: len(issues) == 0,
		Issues:  issues,
		Angles:  angles,
	}
}

// appendBodyLineIssue flags a body line bent beyond tolerance,
// telling sagging from piking by which side of the shoulder-ankle
// chord the hips sit on.
func (p *PushUp) appendBodyLineIssue(issues []string, deviation float64, shoulderMid, hipMid, ankleMid pose.Point3D) []string {
	if !(deviation > p.t.MaxBodyLineDeviation) {
		return issues
	}
	if hipBelowChord(shoulderMid, hipMid, ankleMid) {
		return append(issues, "Hips sagging")
	}
	return append(issues, "Hips raised too high")
}

// hipBelowChord reports whether the hips sit below the straight
// shoulder-ankle line in image space (y grows downward).
func hipBelowChord(shoulderMid, hipMid, ankleMid pose.Point3D) bool {
	dx := ankleMid.X - shoulderMid.X
	if math.Abs(dx) < 1e-10 {
		return hipMid.Y > (shoulderMid.Y+ankleMid.Y)/2.0
	}
	t := (hipMid.X - shoulderMid.X) / dx
	chordY := shoulderMid.Y + t*(ankleMid.Y-shoulderMid.Y)
	return hipMid.Y > chordY
}
