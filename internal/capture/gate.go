package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion gate constants.
const (
	// GateBlurSize is the Gaussian kernel used to suppress sensor noise.
	GateBlurSize = 21
	// GateDiffThreshold is the per-pixel difference counted as change.
	GateDiffThreshold = 25
	// GateIdleFrames is how many consecutive static, handless frames pass
	// before detection is skipped.
	GateIdleFrames = 90
)

// MotionGate decides whether a frame is worth sending to the detector.
// While hands are visible every frame is detected, since a held gesture is
// static by nature. Once no hands have been seen and the scene has been
// still for GateIdleFrames frames, detection pauses until something moves.
type MotionGate struct {
	threshold float64
	prevGray  gocv.Mat
	hasPrev   bool
	still     int
	mu        sync.Mutex
}

// NewMotionGate creates a gate. threshold is the percentage of pixels that
// must change between frames to count as motion.
func NewMotionGate(threshold float64) *MotionGate {
	return &MotionGate{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Allow reports whether frame should be detected. handsSeen is whether the
// previous detection found any hands.
func (g *MotionGate) Allow(frame *gocv.Mat, handsSeen bool) bool {
	moved, _ := g.Motion(frame)

	g.mu.Lock()
	defer g.mu.Unlock()

	if moved || handsSeen {
		g.still = 0
		return true
	}
	g.still++
	return g.still < GateIdleFrames
}

// Motion compares frame with the previous one and returns whether the
// changed fraction exceeds the threshold, along with that percentage.
// The first frame only establishes the baseline.
func (g *MotionGate) Motion(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
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
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GateBlurSize, Y: GateBlurSize}, 0, 0, gocv.BorderDefault)

	if !g.hasPrev {
		blurred.CopyTo(&g.prevGray)
		g.hasPrev = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, GateDiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100

	blurred.CopyTo(&g.prevGray)

	return changed > g.threshold, changed
}

// Close releases the stored baseline.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prevGray.Close()
	g.prevGray = gocv.NewMat()
	g.hasPrev = false
	g.still = 0
}
