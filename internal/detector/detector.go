package detector

import "gocv.io/x/gocv"

// Detector defines the interface for landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the hands and face found in
	// it. A result with no hands and a nil face means nothing was found.
	Detect(frame *gocv.Mat) (*Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Result is one detector pass over one camera frame. It is immutable once
// published and superseded by the next result.
type Result struct {
	// Seq increases by one for every published result.
	Seq   uint64
	Hands []HandLandmarks
	Face  *FaceLandmarks
	// Luma is a downsampled greyscale copy of the frame the landmarks were
	// found in, used to color the face cloud.
	Luma *Luma
}

// Luma is a row-major 8-bit brightness map.
type Luma struct {
	Width  int
	Height int
	Pix    []uint8
}

// At returns the brightness in [0,1] under a normalized image coordinate.
// Coordinates outside the frame are clamped to the edge.
func (l *Luma) At(x, y float64) float64 {
	if l == nil || l.Width == 0 || l.Height == 0 || len(l.Pix) < l.Width*l.Height {
		return 0
	}
	px := clampIndex(int(x*float64(l.Width)), l.Width)
	py := clampIndex(int(y*float64(l.Height)), l.Height)
	return float64(l.Pix[py*l.Width+px]) / 255
}

func clampIndex(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ModelComplexity selects the hand model: 0 is the lite model.
	ModelComplexity int

	// Face enables the face mesh.
	Face bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.6,
		MinTrackingConf: 0.6,
		ModelComplexity: 1,
		Face:            true,
	}
}
