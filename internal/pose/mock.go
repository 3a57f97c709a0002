package pose

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockEstimator is a mock implementation of Estimator for testing.
type MockEstimator struct {
	mu    sync.Mutex
	frame Frame
	err   error
}

// NewMockEstimator creates a mock estimator that reports no detection
// until configured.
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{}
}

// SetFrame sets the frame to return from subsequent Detect calls.
func (m *MockEstimator) SetFrame(f Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = f
}

// SetError sets an error to return from subsequent Detect calls.
func (m *MockEstimator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the configured frame or error. The input is ignored.
func (m *MockEstimator) Detect(frame *gocv.Mat) (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return m.frame, nil
}

// Close releases nothing; the mock holds no resources.
func (m *MockEstimator) Close() error {
	return nil
}

// Fixture frames for tests and demos. Bodies are synthesized in a
// side-on view: x grows toward the subject's front, y grows down the
// image, and left/right landmark pairs sit at z = +/-0.03 so that
// per-side joint angles are exact plane angles.

const fixtureVisibility = 0.9

// Segment lengths in normalized image units.
const (
	torsoLen    = 0.30
	thighLen    = 0.20
	shinLen     = 0.15
	upperArmLen = 0.15
	forearmLen  = 0.13
)

// heading converts a bearing in degrees (0 = up the image, 90 = toward
// the subject's front) to an x/y unit vector.
func heading(deg float64) (float64, float64) {
	rad := deg * math.Pi / 180.0
	return math.Sin(rad), -math.Cos(rad)
}

func at(x, y, z float64) Point3D {
	return Point3D{X: x, Y: y, Z: z, Visibility: fixtureVisibility}
}

// SquatFrameAt builds a full landmark frame for a squat posture with
// the hips at image height hipY, the given knee and hip joint angles,
// and the torso leaned forward from vertical by lean degrees. The
// shin tilt follows from the other angles, so the returned frame
// measures exactly the requested values.
func SquatFrameAt(hipY, kneeAngle, hipAngle, lean float64) Frame {
	f := make(Frame, NumLandmarks)

	place := func(leftIdx, rightIdx int, x, y float64) {
		f[leftIdx] = at(x, y, 0.03)
		f[rightIdx] = at(x, y, -0.03)
	}

	hipX := 0.50

	// Torso: shoulders sit up the lean direction from the hips.
	tx, ty := heading(lean)
	shoulderX := hipX + torsoLen*tx
	shoulderY := hipY + torsoLen*ty

	// Thigh: the hip interior angle opens forward from the torso.
	kneeBearing := lean + hipAngle
	kx, ky := heading(kneeBearing)
	kneeX := hipX + thighLen*kx
	kneeY := hipY + thighLen*ky

	// Shin: the knee interior angle closes back from the thigh.
	ankleBearing := kneeBearing - 180 - kneeAngle
	ax, ay := heading(ankleBearing)
	ankleX := kneeX + shinLen*ax
	ankleY := kneeY + shinLen*ay

	place(LeftShoulder, RightShoulder, shoulderX, shoulderY)
	place(LeftHip, RightHip, hipX, hipY)
	place(LeftKnee, RightKnee, kneeX, kneeY)
	place(LeftAnkle, RightAnkle, ankleX, ankleY)
	place(LeftHeel, RightHeel, ankleX-0.03, ankleY+0.02)
	place(LeftFootIndex, RightFootIndex, ankleX+0.05, ankleY+0.02)

	// Arms hang loosely in front of the torso.
	elbowX, elbowY := shoulderX+0.03, shoulderY+upperArmLen
	wristX, wristY := elbowX+0.03, elbowY+forearmLen
	place(LeftElbow, RightElbow, elbowX, elbowY)
	place(LeftWrist, RightWrist, wristX, wristY)
	place(LeftPinky, RightPinky, wristX+0.02, wristY+0.03)
	place(LeftIndex, RightIndex, wristX+0.03, wristY+0.02)
	place(LeftThumb, RightThumb, wristX+0.02, wristY+0.01)

	// Head continues up the torso line.
	headX := shoulderX + 0.12*tx
	headY := shoulderY + 0.12*ty
	f[Nose] = at(headX+0.04, headY, 0)
	place(LeftEye, RightEye, headX+0.03, headY-0.02)
	place(LeftEyeInner, RightEyeInner, headX+0.035, headY-0.02)
	place(LeftEyeOuter, RightEyeOuter, headX+0.025, headY-0.02)
	place(LeftEar, RightEar, headX, headY-0.01)
	place(MouthLeft, MouthRight, headX+0.035, headY+0.02)

	return f
}

// PushUpFrameAt builds a full landmark frame for a push-up posture
// with the shoulders at image height shoulderY and the given elbow
// angle. hipDrop moves the hips off the shoulder-ankle line, positive
// toward the floor.
func PushUpFrameAt(shoulderY, elbowAngle, hipDrop float64) Frame {
	f := make(Frame, NumLandmarks)

	place := func(leftIdx, rightIdx int, x, y float64) {
		f[leftIdx] = at(x, y, 0.03)
		f[rightIdx] = at(x, y, -0.03)
	}

	shoulderX := 0.30
	hipX, ankleX := 0.55, 0.80
	hipY := shoulderY + 0.02 + hipDrop
	ankleY := shoulderY + 0.04

	place(LeftShoulder, RightShoulder, shoulderX, shoulderY)
	place(LeftHip, RightHip, hipX, hipY)
	place(LeftKnee, RightKnee, (hipX+ankleX)/2, (hipY+ankleY)/2)
	place(LeftAnkle, RightAnkle, ankleX, ankleY)
	place(LeftHeel, RightHeel, ankleX+0.02, ankleY+0.02)
	place(LeftFootIndex, RightFootIndex, ankleX+0.01, ankleY+0.05)

	// Arms: upper arm straight down from the shoulder, forearm opened
	// to the requested elbow angle.
	elbowX, elbowY := shoulderX, shoulderY+upperArmLen
	wx, wy := heading(elbowAngle)
	wristX := elbowX + forearmLen*wx
	wristY := elbowY + forearmLen*wy
	place(LeftElbow, RightElbow, elbowX, elbowY)
	place(LeftWrist, RightWrist, wristX, wristY)
	place(LeftPinky, RightPinky, wristX+0.02, wristY+0.01)
	place(LeftIndex, RightIndex, wristX+0.03, wristY)
	place(LeftThumb, RightThumb, wristX+0.02, wristY-0.01)

	// Head extends the hip-shoulder line so the neck reads straight.
	headX := shoulderX - (hipX-shoulderX)*0.5
	headY := shoulderY - (hipY-shoulderY)*0.5
	place(LeftEar, RightEar, headX, headY)
	f[Nose] = at(headX-0.03, headY+0.01, 0)
	place(LeftEye, RightEye, headX-0.02, headY)
	place(LeftEyeInner, RightEyeInner, headX-0.015, headY)
	place(LeftEyeOuter, RightEyeOuter, headX-0.025, headY)
	place(MouthLeft, MouthRight, headX-0.025, headY+0.02)

	return f
}

// StandingFrame returns an upright posture with fully extended legs.
func StandingFrame() Frame {
	return SquatFrameAt(0.45, 175, 175, 5)
}

// SquatBottomFrame returns a well-formed squat bottom: knees at 85
// degrees and hips at 90, with the torso leaned 10 forward.
func SquatBottomFrame() Frame {
	return SquatFrameAt(0.62, 85, 90, 10)
}

// SquatShallowFrame returns a squat that never got deep enough: knees
// stopped at 130 degrees with the rest of the posture sound.
func SquatShallowFrame() Frame {
	return SquatFrameAt(0.55, 130, 90, 10)
}

// PushUpTopFrame returns a straight plank with the arms extended to
// 165 degrees.
func PushUpTopFrame() Frame {
	return PushUpFrameAt(0.50, 165, 0)
}

// PushUpBottomFrame returns the bottom of a push-up: elbows at 85
// degrees, body line straight.
func PushUpBottomFrame() Frame {
	return PushUpFrameAt(0.62, 85, 0)
}

// PushUpBentArmFrame returns a top position with the arms stopped at
// 140 degrees.
func PushUpBentArmFrame() Frame {
	return PushUpFrameAt(0.50, 140, 0)
}

// PushUpSaggingFrame returns an arms-extended plank with the hips
// dropped well below the shoulder-ankle line.
func PushUpSaggingFrame() Frame {
	return PushUpFrameAt(0.50, 165, 0.07)
}

// LowVisibilityFrame returns a standing posture whose hip, knee and
// ankle landmarks fall below the default visibility cutoff.
func LowVisibilityFrame() Frame {
	f := StandingFrame()
	for _, i := range []int{LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle} {
		f[i].Visibility = 0.3
	}
	return f
}
