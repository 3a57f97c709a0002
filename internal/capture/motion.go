package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection tuning. The blur kernel flattens sensor noise
// before differencing; the pixel cutoff decides how much a pixel must
// change to count at all.
const (
	motionBlurKernel  = 21
	motionPixelCutoff = 25
)

// MotionDetector reports whether someone is actually moving in front
// of the camera. The pipeline uses it to stay on a slow idle cadence
// until a subject steps into frame, and to drop back once they leave.
//
// Detection is frame differencing: each incoming frame is compared
// against the previous one and scored by the percentage of pixels
// that changed.
type MotionDetector struct {
	threshold float64
	baseline  gocv.Mat
	primed    bool
	mu        sync.Mutex
}

// NewMotionDetector creates a detector that reports motion once the
// given percentage of pixels changes between frames. A threshold of
// 1.0 means one percent of the image must move.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		baseline:  gocv.NewMat(),
	}
}

// Detect scores one frame against the previous one. It returns whether
// the change clears the threshold and the percentage of pixels that
// changed. The first frame after construction or Reset primes the
// baseline and always scores zero.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	flat := flatten(frame)
	defer flat.Close()

	if !m.primed {
		flat.CopyTo(&m.baseline)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(flat, m.baseline, &diff)

	changed := gocv.NewMat()
	defer changed.Close()
	gocv.Threshold(diff, &changed, motionPixelCutoff, 255, gocv.ThresholdBinary)

	moved := gocv.CountNonZero(changed)
	total := changed.Rows() * changed.Cols()
	percent := float64(moved) / float64(total) * 100.0

	flat.CopyTo(&m.baseline)

	return percent > m.threshold, percent
}

// flatten collapses a frame to blurred grayscale so that differencing
// responds to movement rather than color shifts or sensor noise. The
// caller closes the returned Mat.
func flatten(frame *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	kernel := image.Point{X: motionBlurKernel, Y: motionBlurKernel}
	gocv.GaussianBlur(gray, &blurred, kernel, 0, 0, gocv.BorderDefault)
	return blurred
}

// Reset discards the baseline. The next frame primes a fresh one, so
// a camera restart or exercise switch does not read as motion.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drop()
}

// Close releases the detector's resources. Safe to call repeatedly.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drop()
}

// drop releases the baseline Mat. Callers hold the mutex.
func (m *MotionDetector) drop() {
	if !m.baseline.Empty() {
		m.baseline.Close()
		m.baseline = gocv.NewMat()
	}
	m.primed = false
}

// SetThreshold changes the percentage of changed pixels that counts
// as motion. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}
