package pose

import "testing"

func TestFrame_Valid(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		wantValid bool
		wantEmpty bool
	}{
		{"full landmark set", NumLandmarks, true, false},
		{"empty frame", 0, false, true},
		{"truncated frame", 17, false, false},
		{"oversized frame", NumLandmarks + 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := make(Frame, tt.size)
			if got := f.Valid(); got != tt.wantValid {
				t.Errorf("Valid() = %v, want %v", got, tt.wantValid)
			}
			if got := f.Empty(); got != tt.wantEmpty {
				t.Errorf("Empty() = %v, want %v", got, tt.wantEmpty)
			}
		})
	}

	t.Run("nil frame is empty", func(t *testing.T) {
		var f Frame
		if !f.Empty() {
			t.Error("nil frame should be empty")
		}
		if f.Valid() {
			t.Error("nil frame should not be valid")
		}
	})
}

func TestFrame_Joints(t *testing.T) {
	t.Run("maps fixed indices", func(t *testing.T) {
		f := make(Frame, NumLandmarks)
		for i := range f {
			f[i] = Point3D{X: float64(i), Visibility: 1}
		}

		j := f.Joints()

		checks := []struct {
			name string
			got  Point3D
			idx  int
		}{
			{"Nose", j.Nose, Nose},
			{"LeftEar", j.LeftEar, LeftEar},
			{"RightEar", j.RightEar, RightEar},
			{"LeftShoulder", j.LeftShoulder, LeftShoulder},
			{"RightShoulder", j.RightShoulder, RightShoulder},
			{"LeftElbow", j.LeftElbow, LeftElbow},
			{"RightWrist", j.RightWrist, RightWrist},
			{"LeftHip", j.LeftHip, LeftHip},
			{"RightHip", j.RightHip, RightHip},
			{"LeftKnee", j.LeftKnee, LeftKnee},
			{"RightKnee", j.RightKnee, RightKnee},
			{"LeftAnkle", j.LeftAnkle, LeftAnkle},
			{"RightAnkle", j.RightAnkle, RightAnkle},
		}

		for _, c := range checks {
			if c.got.X != float64(c.idx) {
				t.Errorf("%s mapped to index %v, want %d", c.name, c.got.X, c.idx)
			}
		}
	})

	t.Run("invalid frame returns zero joints", func(t *testing.T) {
		f := make(Frame, 5)
		f[0] = Point3D{X: 0.5, Visibility: 1}

		j := f.Joints()

		// Zero visibility everywhere means every downstream
		// visibility gate rejects the frame.
		if IsVisible(j.LeftHip, DefaultMinConfidence) {
			t.Error("joints from an invalid frame should not be visible")
		}
		if j.Nose.X != 0 {
			t.Errorf("expected zero joints, got nose at %f", j.Nose.X)
		}
	})
}
