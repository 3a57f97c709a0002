// Package pose provides body pose estimation interfaces and types for
// exercise form evaluation.
package pose

// Body landmark indices following MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Point3D represents a single landmark in normalized image space.
// X and Y are in [0,1] with Y growing toward the bottom of the image,
// Z is depth with more negative values closer to the camera, and
// Visibility is the model's confidence in [0,1] that the landmark is
// present and unoccluded.
type Point3D struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Frame holds the landmarks from a single pose detection. A valid
// frame has exactly NumLandmarks points in MediaPipe index order; an
// empty frame means no person was detected.
type Frame []Point3D

// Valid reports whether the frame carries a full landmark set.
func (f Frame) Valid() bool {
	return len(f) == NumLandmarks
}

// Empty reports whether the frame is a no-detection result.
func (f Frame) Empty() bool {
	return len(f) == 0
}

// Joints exposes the anatomical landmarks used by exercise evaluation
// by name. Values are copies; mutating them does not affect the frame.
type Joints struct {
	Nose          Point3D
	LeftEye       Point3D
	RightEye      Point3D
	LeftEar       Point3D
	RightEar      Point3D
	LeftShoulder  Point3D
	RightShoulder Point3D
	LeftElbow     Point3D
	RightElbow    Point3D
	LeftWrist     Point3D
	RightWrist    Point3D
	LeftHip       Point3D
	RightHip      Point3D
	LeftKnee      Point3D
	RightKnee     Point3D
	LeftAnkle     Point3D
	RightAnkle    Point3D
}

// Joints returns the named landmarks for a valid frame. For an
// invalid or empty frame it returns the zero value, whose visibility
// of 0 fails every visibility gate downstream.
func (f Frame) Joints() Joints {
	if !f.Valid() {
		return Joints{}
	}
	return Joints{
		Nose:          f[Nose],
		LeftEye:       f[LeftEye],
		RightEye:      f[RightEye],
		LeftEar:       f[LeftEar],
		RightEar:      f[RightEar],
		LeftShoulder:  f[LeftShoulder],
		RightShoulder: f[RightShoulder],
		LeftElbow:     f[LeftElbow],
		RightElbow:    f[RightElbow],
		LeftWrist:     f[LeftWrist],
		RightWrist:    f[RightWrist],
		LeftHip:       f[LeftHip],
		RightHip:      f[RightHip],
		LeftKnee:      f[LeftKnee],
		RightKnee:     f[RightKnee],
		LeftAnkle:     f[LeftAnkle],
		RightAnkle:    f[RightAnkle],
	}
}
