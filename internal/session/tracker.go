// Package session tracks per-session exercise state: each session
// owns a phase classifier fed with landmark frames and evaluated for
// form at every step.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ayusman/formcoach/internal/exercise"
	"github.com/ayusman/formcoach/internal/pose"
)

// ErrMalformedFrame is returned when a frame carries landmarks but
// not a full set.
var ErrMalformedFrame = errors.New("malformed landmark frame")

// Result is the outcome of processing one frame: the phase after
// classification and the form evaluation at that phase. A skipped
// result means no person was detected; the evaluation is absent and
// the phase is simply the current one.
type Result struct {
	Phase      exercise.Phase       `json:"phase"`
	Skipped    bool                 `json:"skipped"`
	Evaluation *exercise.Evaluation `json:"evaluation,omitempty"`
}

// Update is a timestamped result from the live pipeline, as broadcast
// to dashboard clients.
type Update struct {
	Exercise string `json:"exercise"`
	Result
	Timestamp int64 `json:"timestamp"`
}

// Tracker feeds frames through one exercise's classifier and
// evaluator, holding the state in between. Safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	ex     exercise.Exercise
	state  exercise.State
	frames int
}

// NewTracker creates a tracker starting at the exercise's initial state.
func NewTracker(ex exercise.Exercise) *Tracker {
	return &Tracker{
		ex:    ex,
		state: ex.InitialState(),
	}
}

// Process advances the tracker by one frame.
//
// An empty frame (no detection) is skipped without touching state. A
// frame with a partial landmark set is rejected with
// ErrMalformedFrame. Otherwise the classifier advances and the form
// is evaluated at the new phase.
func (t *Tracker) Process(frame pose.Frame) (Result, error) {
	if !frame.Empty() && !frame.Valid() {
		return Result{}, fmt.Errorf("%w: got %d landmarks, want %d", ErrMalformedFrame, len(frame), pose.NumLandmarks)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.frames++

	if frame.Empty() {
		return Result{Phase: t.state.Phase, Skipped: true}, nil
	}

	joints := frame.Joints()
	t.state = t.ex.Classify(joints, t.state)
	eval := t.ex.Evaluate(joints, t.state.Phase)

	return Result{
		Phase:      t.state.Phase,
		Evaluation: &eval,
	}, nil
}

// Phase returns the current phase.
func (t *Tracker) Phase() exercise.Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Phase
}

// Frames returns how many frames this tracker has accepted,
// skipped empties included.
func (t *Tracker) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// Reset returns the tracker to the exercise's initial state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = t.ex.InitialState()
	t.frames = 0
}

// Exercise returns the exercise this tracker runs.
func (t *Tracker) Exercise() exercise.Exercise {
	return t.ex
}
