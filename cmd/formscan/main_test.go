package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/formcoach/internal/exercise"
	"github.com/ayusman/formcoach/internal/pose"
	"github.com/ayusman/formcoach/internal/session"
	"github.com/ayusman/formcoach/testdata"
)

func mustLoad(t *testing.T, name string) []pose.Frame {
	t.Helper()
	frames, err := testdata.LoadRecording(name)
	if err != nil {
		t.Fatalf("load recording %s: %v", name, err)
	}
	return frames
}

func mustExercise(t *testing.T, name string) exercise.Exercise {
	t.Helper()
	ex, err := exercise.Get(name)
	if err != nil {
		t.Fatalf("get exercise %s: %v", name, err)
	}
	return ex
}

func TestScan_CleanSquatRep(t *testing.T) {
	rep, err := scan(mustExercise(t, "squat"), mustLoad(t, "squat_rep.json"))
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}

	s := rep.Summary
	if s.Exercise != "squat" || s.Frames != 8 || s.Skipped != 1 || s.Incorrect != 0 {
		t.Errorf("summary = %+v, want squat, 8 frames, 1 skipped, 0 incorrect", s)
	}
	if len(s.Issues) != 0 {
		t.Errorf("issues = %v, want none", s.Issues)
	}

	wantPhases := []exercise.Phase{
		exercise.PhaseStanding, // missed detection keeps the initial phase
		exercise.PhaseStanding,
		exercise.PhaseDescending,
		exercise.PhaseDescending,
		exercise.PhaseDescending,
		exercise.PhaseBottom,
		exercise.PhaseAscending,
		exercise.PhaseStanding,
	}
	if len(rep.Results) != len(wantPhases) {
		t.Fatalf("got %d results, want %d", len(rep.Results), len(wantPhases))
	}
	for i, want := range wantPhases {
		if rep.Results[i].Phase != want {
			t.Errorf("frame %d: phase %q, want %q", i, rep.Results[i].Phase, want)
		}
		if rep.Results[i].Frame != i {
			t.Errorf("result %d: frame index %d", i, rep.Results[i].Frame)
		}
	}
	if !rep.Results[0].Skipped {
		t.Error("frame 0 should be skipped")
	}
	if rep.Results[0].Evaluation != nil {
		t.Error("skipped frame should carry no evaluation")
	}
}

func TestScan_ShallowSquat(t *testing.T) {
	rep, err := scan(mustExercise(t, "squat"), mustLoad(t, "squat_shallow.json"))
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}

	s := rep.Summary
	if s.Frames != 5 || s.Skipped != 0 || s.Incorrect != 1 {
		t.Errorf("summary = %+v, want 5 frames, 0 skipped, 1 incorrect", s)
	}
	if len(s.Issues) != 2 {
		t.Errorf("got %d distinct issues %v, want 2", len(s.Issues), s.Issues)
	}
	if s.Issues["Knees not bent enough"] != 1 || s.Issues["Hips not low enough"] != 1 {
		t.Errorf("issues = %v", s.Issues)
	}

	// The turnaround frame carries the failures.
	bottom := rep.Results[3]
	if bottom.Phase != exercise.PhaseBottom {
		t.Fatalf("frame 3: phase %q, want %q", bottom.Phase, exercise.PhaseBottom)
	}
	if bottom.Evaluation == nil || bottom.Evaluation.Correct {
		t.Fatal("frame 3 should have failed evaluation")
	}
}

func TestScan_CleanPushUpRep(t *testing.T) {
	rep, err := scan(mustExercise(t, "pushup"), mustLoad(t, "pushup_rep.json"))
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}

	s := rep.Summary
	if s.Exercise != "pushup" || s.Frames != 7 || s.Skipped != 0 || s.Incorrect != 0 {
		t.Errorf("summary = %+v, want pushup, 7 frames, 0 skipped, 0 incorrect", s)
	}

	wantPhases := []exercise.Phase{
		exercise.PhaseTop,
		exercise.PhaseDescending,
		exercise.PhaseDescending,
		exercise.PhaseDescending,
		exercise.PhaseBottom,
		exercise.PhaseAscending,
		exercise.PhaseTop,
	}
	for i, want := range wantPhases {
		if rep.Results[i].Phase != want {
			t.Errorf("frame %d: phase %q, want %q", i, rep.Results[i].Phase, want)
		}
	}
}

func TestScan_MalformedFrame(t *testing.T) {
	frames := []pose.Frame{make(pose.Frame, 5)}

	_, err := scan(mustExercise(t, "squat"), frames)
	if !errors.Is(err, session.ErrMalformedFrame) {
		t.Fatalf("got %v, want ErrMalformedFrame", err)
	}
}

func TestLoadRecording(t *testing.T) {
	frames := mustLoad(t, "squat_rep.json")
	data, err := json.Marshal(frames)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "rec.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := loadRecording(path)
	if err != nil {
		t.Fatalf("loadRecording error: %v", err)
	}
	if len(got) != len(frames) {
		t.Errorf("got %d frames, want %d", len(got), len(frames))
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := loadRecording(filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Error("expected error for a missing file")
		}
	})

	t.Run("no frames", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.json")
		if err := os.WriteFile(empty, []byte("[]"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := loadRecording(empty); err == nil {
			t.Error("expected error for an empty recording")
		}
	})

	t.Run("bad json", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(bad, []byte("{"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := loadRecording(bad); err == nil {
			t.Error("expected error for malformed json")
		}
	})
}
