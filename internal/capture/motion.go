package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
)

// MotionDetector measures how much of the picture changed between
// consecutive frames using frame differencing with Gaussian blur.
type MotionDetector struct {
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a new MotionDetector with no baseline frame.
func NewMotionDetector() *MotionDetector {
	return &MotionDetector{
		prevGray: gocv.NewMat(),
	}
}

// Measure returns the percentage (0-100) of pixels that changed since the
// previous frame. The first frame after creation or Reset only seeds the
// baseline and measures 0.
//
// Algorithm:
// 1. Convert frame to grayscale and blur (21x21) to suppress sensor noise
// 2. Absolute difference against the previous frame
// 3. Binary threshold at 25, count non-zero pixels over total pixels
func (m *MotionDetector) Measure(frame *gocv.Mat) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized || m.prevGray.Rows() != blurred.Rows() || m.prevGray.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	total := thresh.Rows() * thresh.Cols()
	blurred.CopyTo(&m.prevGray)
	if total == 0 {
		return 0
	}

	return float64(gocv.CountNonZero(thresh)) / float64(total) * 100.0
}

// Reset drops the baseline so the next frame seeds a new one.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked()
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked()
}

func (m *MotionDetector) dropLocked() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}
