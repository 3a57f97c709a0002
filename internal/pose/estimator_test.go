package pose

import (
	"errors"
	"math"
	"testing"
)

func TestMockEstimator(t *testing.T) {
	t.Run("returns empty frame by default", func(t *testing.T) {
		mock := NewMockEstimator()

		frame, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if !frame.Empty() {
			t.Errorf("expected empty frame, got %d points", len(frame))
		}
	})

	t.Run("returns configured frame", func(t *testing.T) {
		mock := NewMockEstimator()
		mock.SetFrame(StandingFrame())

		frame, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if !frame.Valid() {
			t.Errorf("expected valid frame, got %d points", len(frame))
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockEstimator()

		expectedErr := errors.New("estimation failed")
		mock.SetError(expectedErr)

		frame, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if frame != nil {
			t.Errorf("expected nil frame when error is set, got %v", frame)
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		mock := NewMockEstimator()

		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
	})

	t.Run("implements Estimator interface", func(t *testing.T) {
		var _ Estimator = (*MockEstimator)(nil)
	})
}

// The fixture builders promise exact joint angles; the evaluators
// lean on that, so pin it down here.

const fixtureTolerance = 1e-6

func measuredKnee(f Frame) float64 {
	j := f.Joints()
	return (Angle3D(j.LeftHip, j.LeftKnee, j.LeftAnkle) +
		Angle3D(j.RightHip, j.RightKnee, j.RightAnkle)) / 2.0
}

func measuredHip(f Frame) float64 {
	j := f.Joints()
	return (Angle3D(j.LeftShoulder, j.LeftHip, j.LeftKnee) +
		Angle3D(j.RightShoulder, j.RightHip, j.RightKnee)) / 2.0
}

func measuredElbow(f Frame) float64 {
	j := f.Joints()
	return (Angle3D(j.LeftShoulder, j.LeftElbow, j.LeftWrist) +
		Angle3D(j.RightShoulder, j.RightElbow, j.RightWrist)) / 2.0
}

func TestSquatFrameAt(t *testing.T) {
	tests := []struct {
		name                  string
		hipY, knee, hip, lean float64
	}{
		{"deep bottom", 0.62, 85, 90, 10},
		{"shallow bottom", 0.55, 130, 90, 10},
		{"standing", 0.45, 175, 175, 5},
		{"mid descent", 0.52, 120, 130, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := SquatFrameAt(tt.hipY, tt.knee, tt.hip, tt.lean)

			if !f.Valid() {
				t.Fatalf("frame has %d points, want %d", len(f), NumLandmarks)
			}

			if got := measuredKnee(f); math.Abs(got-tt.knee) > fixtureTolerance {
				t.Errorf("knee angle = %f, want %f", got, tt.knee)
			}
			if got := measuredHip(f); math.Abs(got-tt.hip) > fixtureTolerance {
				t.Errorf("hip angle = %f, want %f", got, tt.hip)
			}

			j := f.Joints()
			hipHeight := (j.LeftHip.Y + j.RightHip.Y) / 2.0
			if math.Abs(hipHeight-tt.hipY) > fixtureTolerance {
				t.Errorf("hip height = %f, want %f", hipHeight, tt.hipY)
			}

			// Every landmark should clear the default visibility gate.
			for i, p := range f {
				if !IsVisible(p, DefaultMinConfidence) {
					t.Errorf("landmark %d not visible: %f", i, p.Visibility)
				}
			}
		})
	}
}

func TestPushUpFrameAt(t *testing.T) {
	t.Run("elbow angle is exact", func(t *testing.T) {
		for _, want := range []float64{85, 110, 140, 165} {
			f := PushUpFrameAt(0.50, want, 0)
			if got := measuredElbow(f); math.Abs(got-want) > fixtureTolerance {
				t.Errorf("elbow angle = %f, want %f", got, want)
			}
		}
	})

	t.Run("straight plank has straight body line", func(t *testing.T) {
		f := PushUpTopFrame()
		j := f.Joints()

		shoulderMid := Midpoint(j.LeftShoulder, j.RightShoulder)
		hipMid := Midpoint(j.LeftHip, j.RightHip)
		ankleMid := Midpoint(j.LeftAnkle, j.RightAnkle)

		if got := Angle2D(shoulderMid, hipMid, ankleMid); math.Abs(got-180) > fixtureTolerance {
			t.Errorf("body line angle = %f, want 180", got)
		}
	})

	t.Run("hip drop bends the body line", func(t *testing.T) {
		f := PushUpFrameAt(0.50, 165, 0.07)
		j := f.Joints()

		shoulderMid := Midpoint(j.LeftShoulder, j.RightShoulder)
		hipMid := Midpoint(j.LeftHip, j.RightHip)
		ankleMid := Midpoint(j.LeftAnkle, j.RightAnkle)

		deviation := 180 - Angle2D(shoulderMid, hipMid, ankleMid)
		if deviation < 15 {
			t.Errorf("body line deviation = %f, want > 15", deviation)
		}
	})
}

func TestLowVisibilityFrame(t *testing.T) {
	f := LowVisibilityFrame()

	if !f.Valid() {
		t.Fatalf("frame has %d points, want %d", len(f), NumLandmarks)
	}

	for _, i := range []int{LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle} {
		if IsVisible(f[i], DefaultMinConfidence) {
			t.Errorf("landmark %d should be below the visibility cutoff", i)
		}
	}

	// The upper body stays visible so only the leg gate trips.
	if !IsVisible(f[LeftShoulder], DefaultMinConfidence) {
		t.Error("shoulders should remain visible")
	}
}
