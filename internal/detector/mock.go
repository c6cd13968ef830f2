package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	face  *FaceLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands ...HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetFace sets the face that will be returned by Detect.
func (m *MockDetector) SetFace(face *FaceLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.face = face
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured landmarks or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	hands := append([]HandLandmarks(nil), m.hands...)
	return &Result{Hands: hands, Face: m.face}, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Preset geometry for a right hand, palm facing the camera, wrist at
// (0.5, 0.8). Curled tips sit closer to the wrist than their knuckles.
var (
	presetWrist   = Point3D{X: 0.5, Y: 0.8}
	presetMCP     = [4]Point3D{{X: 0.56, Y: 0.68}, {X: 0.50, Y: 0.66}, {X: 0.45, Y: 0.68}, {X: 0.40, Y: 0.70}}
	presetOpenTip = [4]Point3D{{X: 0.58, Y: 0.35}, {X: 0.50, Y: 0.28}, {X: 0.42, Y: 0.35}, {X: 0.34, Y: 0.42}}
	presetCurlTip = [4]Point3D{{X: 0.53, Y: 0.74}, {X: 0.49, Y: 0.74}, {X: 0.45, Y: 0.75}, {X: 0.41, Y: 0.76}}

	thumbOut    = Point3D{X: 0.72, Y: 0.60}
	thumbTucked = Point3D{X: 0.58, Y: 0.70}
)

// HandPose builds a right hand with the given fingers extended. The four
// booleans are index, middle, ring and pinky.
func HandPose(index, middle, ring, pinky, thumb bool) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = presetWrist

	mcps := [4]int{IndexMCP, MiddleMCP, RingMCP, PinkyMCP}
	ext := [4]bool{index, middle, ring, pinky}
	for f, mcp := range mcps {
		base := presetMCP[f]
		tip := presetCurlTip[f]
		if ext[f] {
			tip = presetOpenTip[f]
		}
		h.Points[mcp] = base
		h.Points[mcp+1] = lerp(base, tip, 1.0/3)
		h.Points[mcp+2] = lerp(base, tip, 2.0/3)
		h.Points[mcp+3] = tip
	}

	tip := thumbTucked
	if thumb {
		tip = thumbOut
	}
	h.Points[ThumbCMC] = lerp(presetWrist, tip, 0.25)
	h.Points[ThumbMCP] = lerp(presetWrist, tip, 0.5)
	h.Points[ThumbIP] = lerp(presetWrist, tip, 0.75)
	h.Points[ThumbTip] = tip

	return h
}

func lerp(a, b Point3D, t float64) Point3D {
	return Point3D{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

// Translate returns h moved by (dx, dy) in image coordinates.
func Translate(h HandLandmarks, dx, dy float64) HandLandmarks {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

// OpenPalmLandmarks returns an open palm: all fingers and the thumb extended.
func OpenPalmLandmarks() HandLandmarks { return HandPose(true, true, true, true, true) }

// FistLandmarks returns a closed fist with the thumb folded over.
func FistLandmarks() HandLandmarks { return HandPose(false, false, false, false, false) }

// ThumbsUpLandmarks returns a fist with the thumb extended.
func ThumbsUpLandmarks() HandLandmarks { return HandPose(false, false, false, false, true) }

// PointLandmarks returns a hand with only the index finger extended.
func PointLandmarks() HandLandmarks { return HandPose(true, false, false, false, false) }

// RockLandmarks returns the horns: index and pinky extended.
func RockLandmarks() HandLandmarks { return HandPose(true, false, false, true, true) }

// PeaceLandmarks returns index and middle extended.
func PeaceLandmarks() HandLandmarks { return HandPose(true, true, false, false, false) }

// ThreeLandmarks returns index, middle and ring extended.
func ThreeLandmarks() HandLandmarks { return HandPose(true, true, true, false, false) }

// PinchLandmarks returns an open hand with the thumb tip on the index tip.
func PinchLandmarks() HandLandmarks {
	h := OpenPalmLandmarks()
	tip := h.Points[IndexTip]
	h.Points[ThumbTip] = Point3D{X: tip.X + 0.01, Y: tip.Y + 0.02}
	h.Points[ThumbIP] = lerp(presetWrist, h.Points[ThumbTip], 0.75)
	return h
}

// FaceWithMouthAt returns a face mesh centred on the image with its lips at
// (x, y).
func FaceWithMouthAt(x, y float64) *FaceLandmarks {
	f := &FaceLandmarks{}
	for i := range f.Points {
		// Spread the mesh over a small grid around the mouth.
		col := float64(i%22) / 22
		row := float64(i/22) / 22
		f.Points[i] = Point3D{X: x - 0.15 + col*0.3, Y: y - 0.3 + row*0.35, Z: -0.05 + col*0.01}
	}
	f.Points[UpperLip] = Point3D{X: x, Y: y - 0.01}
	f.Points[LowerLip] = Point3D{X: x, Y: y + 0.01}
	return f
}
