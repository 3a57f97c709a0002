package pose

import "gocv.io/x/gocv"

// Estimator turns video frames into pose landmark sets.
type Estimator interface {
	// Detect analyzes a video frame and returns the detected pose
	// landmarks. An empty frame means no person was found.
	Detect(frame *gocv.Mat) (Frame, error)

	// Close releases any resources held by the estimator.
	Close() error
}

// Config carries the knobs forwarded to the pose model.
type Config struct {
	// MinConfidence is the minimum detection confidence (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence (0.0-1.0).
	MinTrackingConf float64

	// ModelComplexity selects the MediaPipe pose model variant
	// (0, 1 or 2). Higher is more accurate and slower.
	ModelComplexity int
}

// DefaultConfig returns the estimation settings FormCoach ships with.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		ModelComplexity: 1,
	}
}
