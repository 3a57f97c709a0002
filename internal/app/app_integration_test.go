package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/ayusman/formcoach/internal/capture"
	"github.com/ayusman/formcoach/internal/exercise"
	"github.com/ayusman/formcoach/internal/pose"
	"github.com/ayusman/formcoach/internal/session"
	"github.com/ayusman/formcoach/internal/store"
	"gocv.io/x/gocv"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// motionFrames returns two small frames different enough that feeding
// them alternately reads as continuous motion.
func motionFrames(t *testing.T) (*gocv.Mat, *gocv.Mat) {
	t.Helper()

	dark := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 120, 160, gocv.MatTypeCV8UC3)
	bright := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() {
		dark.Close()
		bright.Close()
	})
	return &dark, &bright
}

// waitFor polls cond until it holds or the timeout passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(25 * time.Millisecond)
	}
	return false
}

func TestApp_New_Defaults(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := New(Config{PluginDir: t.TempDir()})
	defer app.Stop()

	if app.IsEnabled() {
		t.Error("coaching should start disabled")
	}
	if got := app.Exercise(); got != "squat" {
		t.Errorf("Exercise() = %q, want squat", got)
	}
	if app.Tracker().Phase() != exercise.PhaseStanding {
		t.Errorf("initial phase = %v, want %v", app.Tracker().Phase(), exercise.PhaseStanding)
	}
	if _, ok := app.Latest(); ok {
		t.Error("Latest() should report nothing before the pipeline runs")
	}
	if app.Camera() == nil || app.MotionDetector() == nil || app.PluginManager() == nil {
		t.Error("collaborators should be constructed")
	}
}

func TestApp_SetExercise(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := newTestStore(t)
	app := New(Config{Store: s, PluginDir: t.TempDir(), Exercise: "squat"})
	defer app.Stop()

	if err := app.SetExercise("pushup"); err != nil {
		t.Fatalf("SetExercise(pushup) error = %v", err)
	}

	if got := app.Exercise(); got != "pushup" {
		t.Errorf("Exercise() = %q, want pushup", got)
	}
	if app.Tracker().Phase() != exercise.PhaseTop {
		t.Errorf("phase after switch = %v, want %v", app.Tracker().Phase(), exercise.PhaseTop)
	}

	// Selection is persisted for the next run
	saved, err := s.Settings().Get("active_exercise")
	if err != nil {
		t.Fatalf("Settings().Get() error = %v", err)
	}
	if saved != "pushup" {
		t.Errorf("persisted exercise = %q, want pushup", saved)
	}

	// Unknown names are rejected without touching the tracker
	if err := app.SetExercise("plank"); err == nil {
		t.Error("SetExercise(plank) should fail")
	}
	if got := app.Exercise(); got != "pushup" {
		t.Errorf("Exercise() after failed switch = %q, want pushup", got)
	}
}

func TestApp_SetExercise_ClearsLatest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := New(Config{PluginDir: t.TempDir()})
	defer app.Stop()

	app.publish(app.Tracker(), "squat", session.Result{Phase: exercise.PhaseStanding})
	if _, ok := app.Latest(); !ok {
		t.Fatal("Latest() should report the published result")
	}

	if err := app.SetExercise("pushup"); err != nil {
		t.Fatalf("SetExercise() error = %v", err)
	}
	if _, ok := app.Latest(); ok {
		t.Error("Latest() should be cleared by an exercise switch")
	}
}

func TestApp_LoadActiveExercise(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	t.Run("restores persisted selection", func(t *testing.T) {
		s := newTestStore(t)
		if err := s.Settings().Set("active_exercise", "pushup"); err != nil {
			t.Fatalf("Settings().Set() error = %v", err)
		}

		app := New(Config{Store: s, PluginDir: t.TempDir(), Exercise: "squat"})
		defer app.Stop()

		if err := app.LoadActiveExercise(); err != nil {
			t.Fatalf("LoadActiveExercise() error = %v", err)
		}
		if got := app.Exercise(); got != "pushup" {
			t.Errorf("Exercise() = %q, want pushup", got)
		}
	})

	t.Run("nothing persisted", func(t *testing.T) {
		s := newTestStore(t)
		app := New(Config{Store: s, PluginDir: t.TempDir(), Exercise: "squat"})
		defer app.Stop()

		if err := app.LoadActiveExercise(); err != nil {
			t.Fatalf("LoadActiveExercise() error = %v", err)
		}
		if got := app.Exercise(); got != "squat" {
			t.Errorf("Exercise() = %q, want squat", got)
		}
	})

	t.Run("stale selection ignored", func(t *testing.T) {
		s := newTestStore(t)
		s.Settings().Set("active_exercise", "plank")

		app := New(Config{Store: s, PluginDir: t.TempDir(), Exercise: "squat"})
		defer app.Stop()

		if err := app.LoadActiveExercise(); err != nil {
			t.Fatalf("LoadActiveExercise() error = %v", err)
		}
		if got := app.Exercise(); got != "squat" {
			t.Errorf("Exercise() = %q, want squat", got)
		}
	})
}

func TestApp_DefaultProfileApplied(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := newTestStore(t)
	p := &store.Profile{
		ID:       "strict-squat",
		Exercise: "squat",
		Name:     "strict",
		Params:   json.RawMessage(`{"knee_angle_standing_min": 179}`),
	}
	if err := s.Profiles().Create(p); err != nil {
		t.Fatalf("Profiles().Create() error = %v", err)
	}
	if err := s.Profiles().SetDefault(p.ID); err != nil {
		t.Fatalf("Profiles().SetDefault() error = %v", err)
	}

	app := New(Config{Store: s, PluginDir: t.TempDir(), Exercise: "squat"})
	defer app.Stop()

	// The standing fixture holds 175 degree knees: fine under the
	// built-in thresholds, a violation under the default profile.
	result, err := app.Tracker().Process(pose.StandingFrame())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Evaluation == nil {
		t.Fatal("expected an evaluation")
	}
	if result.Evaluation.Correct {
		t.Error("standing frame should violate the strict profile")
	}
	if len(result.Evaluation.Issues) != 1 || result.Evaluation.Issues[0] != "Knees not fully extended" {
		t.Errorf("Issues = %v, want [Knees not fully extended]", result.Evaluation.Issues)
	}
}

func TestApp_CoachingPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dark, bright := motionFrames(t)

	app := New(Config{PluginDir: t.TempDir(), MotionThresh: 0.05})
	cam := capture.NewMockCamera([]*gocv.Mat{dark, bright}, true)
	app.SetCamera(cam)

	estimator := pose.NewMockEstimator()
	estimator.SetFrame(pose.StandingFrame())
	app.SetEstimator(estimator)

	if err := app.Start(); err != nil {
		t.Fatalf("app.Start() error = %v", err)
	}
	defer app.Stop()

	// Disabled: nothing is read or published
	time.Sleep(300 * time.Millisecond)
	if _, ok := app.Latest(); ok {
		t.Fatal("pipeline published a result while disabled")
	}

	app.SetEnabled(true)

	ok := waitFor(t, 3*time.Second, func() bool {
		update, ok := app.Latest()
		return ok && update.Evaluation != nil
	})
	if !ok {
		t.Fatal("pipeline never published an evaluation")
	}

	update, _ := app.Latest()
	if update.Exercise != "squat" {
		t.Errorf("update.Exercise = %q, want squat", update.Exercise)
	}
	if update.Phase != exercise.PhaseStanding {
		t.Errorf("update.Phase = %v, want %v", update.Phase, exercise.PhaseStanding)
	}
	if !update.Evaluation.Correct {
		t.Errorf("standing frame should evaluate correct, issues: %v", update.Evaluation.Issues)
	}
	if update.Timestamp <= 0 {
		t.Errorf("update.Timestamp = %d, want > 0", update.Timestamp)
	}

	// Continuous motion holds the camera at the active rate
	if got := cam.FPS(); got != ActiveFPS {
		t.Errorf("camera FPS = %d, want %d", got, ActiveFPS)
	}
}

func TestApp_IdleActiveModeSwitching(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dark, bright := motionFrames(t)

	app := New(Config{PluginDir: t.TempDir(), MotionThresh: 0.05})
	cam := capture.NewMockCamera([]*gocv.Mat{dark, bright}, true)
	app.SetCamera(cam)

	estimator := pose.NewMockEstimator()
	estimator.SetFrame(pose.StandingFrame())
	app.SetEstimator(estimator)

	if err := app.Start(); err != nil {
		t.Fatalf("app.Start() error = %v", err)
	}
	defer app.Stop()
	app.SetEnabled(true)

	// Alternating frames register as motion on every read
	if !waitFor(t, 3*time.Second, func() bool { return cam.FPS() == ActiveFPS }) {
		t.Fatal("pipeline never switched to active mode")
	}

	// A still scene drops back to idle after the timeout
	cam.SetFrames([]*gocv.Mat{bright})
	if !waitFor(t, 6*time.Second, func() bool { return cam.FPS() == IdleFPS }) {
		t.Fatal("pipeline never switched back to idle mode")
	}
}

func TestApp_PipelineDispatchesFeedback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell script test on Windows")
	}

	// A recorder plugin that appends each cue request to cues.log
	pluginDir := t.TempDir()
	recorderDir := filepath.Join(pluginDir, "recorder")
	if err := os.MkdirAll(recorderDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	manifest := `{"name": "recorder", "version": "1.0.0", "description": "Records cues", "executable": "recorder.sh"}`
	if err := os.WriteFile(filepath.Join(recorderDir, "feedback.json"), []byte(manifest), 0644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	script := "#!/bin/sh\ncat >> cues.log\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(recorderDir, "recorder.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("writing script: %v", err)
	}

	dark, bright := motionFrames(t)

	app := New(Config{PluginDir: pluginDir, MotionThresh: 0.05})
	app.SetCamera(capture.NewMockCamera([]*gocv.Mat{dark, bright}, true))

	// Shallow squat: standing phase with the knees never reaching full
	// extension, so every evaluated frame carries one issue.
	estimator := pose.NewMockEstimator()
	estimator.SetFrame(pose.SquatShallowFrame())
	app.SetEstimator(estimator)

	if err := app.DiscoverPlugins(); err != nil {
		t.Fatalf("DiscoverPlugins() error = %v", err)
	}
	if err := app.Start(); err != nil {
		t.Fatalf("app.Start() error = %v", err)
	}
	defer app.Stop()
	app.SetEnabled(true)

	// Poll until the recorded cue parses whole, not just until the
	// file exists, since the plugin may still be mid-write.
	cueFile := filepath.Join(recorderDir, "cues.log")
	var req struct {
		Exercise string   `json:"exercise"`
		Phase    string   `json:"phase"`
		Issues   []string `json:"issues"`
	}
	if !waitFor(t, 5*time.Second, func() bool {
		data, err := os.ReadFile(cueFile)
		if err != nil {
			return false
		}
		return json.Unmarshal(data, &req) == nil
	}) {
		t.Fatal("feedback plugin never received a cue")
	}
	if req.Exercise != "squat" {
		t.Errorf("cue exercise = %q, want squat", req.Exercise)
	}
	if req.Phase != "standing" {
		t.Errorf("cue phase = %q, want standing", req.Phase)
	}
	if len(req.Issues) != 1 || req.Issues[0] != "Knees not fully extended" {
		t.Errorf("cue issues = %v, want [Knees not fully extended]", req.Issues)
	}
}
